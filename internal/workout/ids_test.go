package workout_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dubovds/workout-tracker/internal/workout"
)

func TestParseUUID(t *testing.T) {
	tests := []struct {
		input   string
		want    workout.UUID
		wantErr bool
	}{
		{input: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01", want: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01"},
		{input: "0B6A3F52-8A61-4C3E-9D55-3F1F0C7E9A01", want: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01"},
		{input: "", wantErr: true},
		{input: "not-a-uuid", wantErr: true},
		{input: "{0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01}", wantErr: true},
		{input: "urn:uuid:0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a01", wantErr: true},
		{input: "0b6a3f528a614c3e9d553f1f0c7e9a01", wantErr: true},
		{input: "0b6a3f52-8a61-4c3e-9d55-3f1f0c7e9a0g", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := workout.ParseUUID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, workout.ErrInvalidInput) {
					t.Fatalf("ParseUUID(%q) error = %v, want invalid input", tt.input, err)
				}
				if want := "Invalid UUID: " + tt.input; err.Error() != want {
					t.Errorf("ParseUUID(%q) error = %q, want %q", tt.input, err.Error(), want)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUUID(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseUUID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewUUID(t *testing.T) {
	id := workout.NewUUID()
	if _, err := workout.ParseUUID(id.String()); err != nil {
		t.Errorf("NewUUID() = %q is not parseable: %v", id, err)
	}
	if other := workout.NewUUID(); other == id {
		t.Errorf("NewUUID() returned %q twice", id)
	}
}

func TestParseDateString(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "2024-05-01"},
		{input: "2024-02-29"},
		{input: "2023-02-29", wantErr: true},
		{input: "2024-02-30", wantErr: true},
		{input: "2024-13-01", wantErr: true},
		{input: "2024-5-1", wantErr: true},
		{input: "2024-05-01T00:00:00Z", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := workout.ParseDateString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, workout.ErrInvalidInput) {
					t.Errorf("ParseDateString(%q) error = %v, want invalid input", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateString(%q) unexpected error: %v", tt.input, err)
			}
			if got.String() != tt.input {
				t.Errorf("ParseDateString(%q) = %q", tt.input, got)
			}
		})
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, loc)
	if got, want := workout.Today(now), workout.DateString("2024-05-01"); got != want {
		t.Errorf("Today() = %q, want %q", got, want)
	}
}
