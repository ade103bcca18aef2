package workout

import (
	"slices"
)

const defaultReps = 8

// Draft is a workout being logged. It lives in the user's session until it is saved or replaced by loading
// another template.
type Draft struct {
	// TemplateID is the template the exercises were loaded from. It is only set by a successful load.
	TemplateID          string
	Exercises           []Exercise
	TemplateExerciseIDs map[string]string
	// OpenExerciseID is the exercise expanded in the UI.
	OpenExerciseID string
	// FocusSetID is the set whose inputs receive focus on the next render.
	FocusSetID string
}

// ApplyLoad replaces the template and exercises with loaded. Use a [LoadSequencer] to drop loads that were
// superseded while in flight.
func (d *Draft) ApplyLoad(loaded TemplateExercises) {
	d.TemplateID = loaded.TemplateID
	d.Exercises = loaded.Exercises
	d.TemplateExerciseIDs = loaded.TemplateExerciseIDs
	d.OpenExerciseID = ""
	d.FocusSetID = ""
}

func (d *Draft) exercise(exerciseID string) (*Exercise, error) {
	i := slices.IndexFunc(d.Exercises, func(e Exercise) bool { return e.ID == exerciseID })
	if i < 0 {
		return nil, ErrExerciseNotFound
	}
	return &d.Exercises[i], nil
}

func (d *Draft) set(exerciseID, setID string) (*Set, error) {
	e, err := d.exercise(exerciseID)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(e.Sets, func(s Set) bool { return s.ID == setID })
	if i < 0 {
		return nil, ErrSetNotFound
	}
	return &e.Sets[i], nil
}

// AddSet appends a set to the exercise and focuses it. The set copies the last set, or starts from weights
// when the exercise has none yet.
func (d *Draft) AddSet(exerciseID string, weights ExerciseWeights) (Set, error) {
	e, err := d.exercise(exerciseID)
	if err != nil {
		return Set{}, err
	}
	set := Set{
		ID:     exerciseID + "-set-" + NewUUID().String(),
		Weight: 0,
		Reps:   defaultReps,
	}
	if n := len(e.Sets); n > 0 {
		set.Weight, set.Reps = e.Sets[n-1].Weight, e.Sets[n-1].Reps
	} else {
		if weights.WorkingWeight != nil {
			set.Weight = *weights.WorkingWeight
		}
		if weights.LastReps != nil {
			set.Reps = *weights.LastReps
		}
	}
	e.Sets = append(e.Sets, set)
	d.FocusSetID = set.ID
	return set, nil
}

// RemoveSet deletes a set. The last set of an exercise can't be removed.
func (d *Draft) RemoveSet(exerciseID, setID string) error {
	e, err := d.exercise(exerciseID)
	if err != nil {
		return err
	}
	if len(e.Sets) == 1 {
		return ErrLastSet
	}
	i := slices.IndexFunc(e.Sets, func(s Set) bool { return s.ID == setID })
	if i < 0 {
		return ErrSetNotFound
	}
	e.Sets = slices.Delete(e.Sets, i, i+1)
	if d.FocusSetID == setID {
		d.FocusSetID = ""
	}
	return nil
}

func (d *Draft) UpdateSet(exerciseID, setID string, weight, reps float64) error {
	s, err := d.set(exerciseID, setID)
	if err != nil {
		return err
	}
	s.Weight, s.Reps = weight, reps
	return nil
}

func (d *Draft) SetDone(exerciseID, setID string, done bool) error {
	s, err := d.set(exerciseID, setID)
	if err != nil {
		return err
	}
	s.Done = done
	return nil
}

// OpenExercise expands the exercise. An exercise without sets gets a first set prefilled from weights.
func (d *Draft) OpenExercise(exerciseID string, weights ExerciseWeights) error {
	e, err := d.exercise(exerciseID)
	if err != nil {
		return err
	}
	d.OpenExerciseID = exerciseID
	if len(e.Sets) == 0 {
		if _, err = d.AddSet(exerciseID, weights); err != nil {
			return err
		}
	}
	return nil
}

// ExerciseNames lists the names of the draft exercises in order.
func (d *Draft) ExerciseNames() []string {
	names := make([]string, len(d.Exercises))
	for i, e := range d.Exercises {
		names[i] = e.Name
	}
	return names
}

// ClearFocus drops the set focus, typically after the draft was saved.
func (d *Draft) ClearFocus() {
	d.FocusSetID = ""
}
