package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dubovds/workout-tracker/internal/workout"
	"gopkg.in/yaml.v3"
)

// workoutFile is the YAML document accepted by validate and save.
type workoutFile struct {
	Date       string         `yaml:"date"`
	TemplateID string         `yaml:"template_id"`
	Exercises  []exerciseFile `yaml:"exercises"`
}

type exerciseFile struct {
	Name               string    `yaml:"name"`
	TemplateExerciseID string    `yaml:"template_exercise_id"`
	Sets               []setFile `yaml:"sets"`
}

type setFile struct {
	Weight float64 `yaml:"weight"`
	Reps   float64 `yaml:"reps"`
}

func readWorkoutFile(path string) (workoutFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return workoutFile{}, fmt.Errorf("read workout file: %w", err)
	}
	var f workoutFile
	if err = yaml.Unmarshal(content, &f); err != nil {
		return workoutFile{}, fmt.Errorf("parse workout file %s: %w", path, err)
	}
	return f, nil
}

// draft converts the file into service input. Exercise and set IDs are positional since files carry none.
func (f workoutFile) draft() ([]workout.Exercise, map[string]string) {
	exercises := make([]workout.Exercise, len(f.Exercises))
	templateExerciseIDs := make(map[string]string)
	for i, e := range f.Exercises {
		id := "exercise-" + strconv.Itoa(i+1)
		sets := make([]workout.Set, len(e.Sets))
		for j, s := range e.Sets {
			sets[j] = workout.Set{ID: id + "-set-" + strconv.Itoa(j+1), Weight: s.Weight, Reps: s.Reps, Done: false}
		}
		exercises[i] = workout.Exercise{ID: id, Name: e.Name, Sets: sets}
		if e.TemplateExerciseID != "" {
			templateExerciseIDs[id] = e.TemplateExerciseID
		}
	}
	return exercises, templateExerciseIDs
}
