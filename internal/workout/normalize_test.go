package workout_test

import (
	"strings"
	"testing"

	"github.com/dubovds/workout-tracker/internal/workout"
)

func TestNormalizeExerciseName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "unchanged", input: "Bench Press", want: "Bench Press"},
		{name: "trims", input: "  Squat\t", want: "Squat"},
		{name: "collapses whitespace", input: "Bent-Over   Row\n\tWide", want: "Bent-Over Row Wide"},
		{name: "strips angle brackets", input: "<b>Curl</b>", want: "bCurl/b"},
		{name: "blank", input: " \t ", want: ""},
		{name: "keeps case", input: "bench PRESS", want: "bench PRESS"},
		{name: "caps length", input: strings.Repeat("a", 250), want: strings.Repeat("a", 200)},
		{name: "caps runes not bytes", input: strings.Repeat("ä", 201), want: strings.Repeat("ä", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workout.NormalizeExerciseName(tt.input); got != tt.want {
				t.Errorf("NormalizeExerciseName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeExerciseName_idempotent(t *testing.T) {
	for _, input := range []string{"  Chest   Fly ", "<<Row>>", "Lateral Raise", strings.Repeat("b ", 150)} {
		once := workout.NormalizeExerciseName(input)
		if twice := workout.NormalizeExerciseName(once); twice != once {
			t.Errorf("NormalizeExerciseName not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}
