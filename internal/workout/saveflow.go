package workout

import (
	"context"
	"sync"
	"time"
)

// DefaultSaveCooldown is the minimum time between two save attempts of one [SaveFlow].
const DefaultSaveCooldown = 2000 * time.Millisecond

// SaveFlow guards a [Service.SaveWorkout] caller against double submits. An attempt within the cooldown of the
// previous attempt is rejected without reaching the service, and so is an attempt while a save is running.
// The cooldown starts when an attempt is admitted, whether it succeeds or not.
type SaveFlow struct {
	svc      *Service
	cooldown time.Duration

	mu          sync.Mutex
	saving      bool
	lastAttempt time.Time
}

// NewSaveFlow creates a gate in front of svc. A non-positive cooldown selects DefaultSaveCooldown.
func NewSaveFlow(svc *Service, cooldown time.Duration) *SaveFlow {
	if cooldown <= 0 {
		cooldown = DefaultSaveCooldown
	}
	return &SaveFlow{svc: svc, cooldown: cooldown}
}

// Save runs [Service.SaveWorkout] unless the gate is closed, in which case it returns ErrCooldown or
// ErrSaveInProgress.
func (f *SaveFlow) Save(
	ctx context.Context,
	templateID string,
	exercises []Exercise,
	templateExerciseIDs map[string]string,
	date string,
) (UUID, error) {
	if err := f.admit(); err != nil {
		return "", err
	}
	defer f.release()
	return f.svc.SaveWorkout(ctx, templateID, exercises, templateExerciseIDs, date)
}

func (f *SaveFlow) admit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.svc.now()
	if !f.lastAttempt.IsZero() && now.Sub(f.lastAttempt) < f.cooldown {
		return ErrCooldown
	}
	if f.saving {
		return ErrSaveInProgress
	}
	f.lastAttempt = now
	f.saving = true
	return nil
}

func (f *SaveFlow) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saving = false
}

// SavedMessage is the confirmation shown after a workout was saved.
func SavedMessage(id UUID) string {
	short := id.String()
	if len(short) > 6 { //nolint:mnd // short id
		short = short[:6]
	}
	return "Workout saved (" + short + ")"
}
