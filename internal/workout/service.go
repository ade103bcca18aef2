// Package workout is the core of the workout tracker: it validates logged workouts, orchestrates saving them
// and summarises exercise history into the weights used to prefill new sets.
package workout

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/dubovds/workout-tracker/internal/errors"
)

const (
	msgTemplatesLoadFailed         = "Failed to load workout templates."
	msgTemplateExercisesLoadFailed = "Failed to load workout template exercises."
	msgSaveFailed                  = "Failed to save workout."
)

// DefaultWeightsCacheTTL is how long batch weight lookups are reused unless changed with [WithWeightsCacheTTL].
const DefaultWeightsCacheTTL = time.Minute

// Recorder receives operational events of the [Service].
type Recorder interface {
	WorkoutSaved(outcome string, elapsed time.Duration)
	ValidationFailed(violations int)
	WeightsLookedUp(variant string, names int)
	WeightsCacheLookup(hits, misses int)
}

type nopRecorder struct{}

func (nopRecorder) WorkoutSaved(string, time.Duration) {}
func (nopRecorder) ValidationFailed(int)               {}
func (nopRecorder) WeightsLookedUp(string, int)        {}
func (nopRecorder) WeightsCacheLookup(int, int)        {}

// Service is the public surface of the workout core.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	recorder   Recorder
	now        func() time.Time
	weightsTTL time.Duration
	weights    *weightCache
}

type Option func(*Service)

// WithClock overrides the clock used for default save dates and the save cooldown.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithWeightsCacheTTL sets how long batch weight lookups are reused. Zero keeps them until a save through this
// service invalidates them.
func WithWeightsCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.weightsTTL = ttl }
}

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		logger:     logger,
		recorder:   nopRecorder{},
		now:        time.Now,
		weightsTTL: DefaultWeightsCacheTTL,
		weights:    nil,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.weights = newWeightCache(s.now, s.weightsTTL)
	return s
}

// Today is the default workout date, in UTC, by the clock of the service.
func (s *Service) Today() DateString {
	return Today(s.now())
}

// LoadWorkoutTemplateOptions lists the templates as select options, oldest first.
func (s *Service) LoadWorkoutTemplateOptions(ctx context.Context) ([]TemplateOption, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, s.storageFailure(ctx, err, msgTemplatesLoadFailed)
	}
	options := make([]TemplateOption, len(templates))
	for i, t := range templates {
		options[i] = TemplateOption{ID: t.ID, Label: t.Name}
	}
	return options, nil
}

// LoadTemplateExercises expands a template into draft exercises without sets.
func (s *Service) LoadTemplateExercises(ctx context.Context, templateID string) (TemplateExercises, error) {
	id, err := ParseUUID(templateID)
	if err != nil {
		return TemplateExercises{}, inputError("Invalid template ID format.")
	}
	templateExercises, err := s.repo.ListTemplateExercises(ctx, id)
	if err != nil {
		return TemplateExercises{}, s.storageFailure(ctx, err, msgTemplateExercisesLoadFailed,
			slog.String("template_id", templateID))
	}
	result := TemplateExercises{
		TemplateID:          id.String(),
		Exercises:           make([]Exercise, len(templateExercises)),
		TemplateExerciseIDs: make(map[string]string, len(templateExercises)),
	}
	for i, te := range templateExercises {
		exerciseID := "exercise-" + te.ID.String()
		result.Exercises[i] = Exercise{ID: exerciseID, Name: te.Name, Sets: []Set{}}
		result.TemplateExerciseIDs[exerciseID] = te.ID.String()
	}
	return result, nil
}

// ValidateWorkout reports every violation of the workout bounds, see [Validate].
func (s *Service) ValidateWorkout(exercises []Exercise) []ValidationError {
	errs := Validate(exercises)
	if len(errs) > 0 {
		s.recorder.ValidationFailed(len(errs))
	}
	return errs
}

// SaveWorkout validates the workout and stores it, returning the new workout ID.
//
// templateID may be empty. templateExerciseIDs maps draft exercise IDs to the template exercise they came
// from. date defaults to today in UTC. Nothing is written unless every check passes, and input problems are
// returned as [*InputError].
func (s *Service) SaveWorkout(
	ctx context.Context,
	templateID string,
	exercises []Exercise,
	templateExerciseIDs map[string]string,
	date string,
) (_ UUID, err error) {
	start := time.Now()
	defer func() {
		switch {
		case err == nil:
			s.recorder.WorkoutSaved("saved", time.Since(start))
		case errors.Is(err, ErrInvalidInput):
			s.recorder.WorkoutSaved("rejected", time.Since(start))
		default:
			s.recorder.WorkoutSaved("failed", time.Since(start))
		}
	}()

	payload, err := s.buildPayload(templateID, exercises, templateExerciseIDs, date)
	if err != nil {
		return "", err
	}

	rawID, err := s.repo.CreateWorkout(ctx, payload)
	if err != nil {
		return "", s.storageFailure(ctx, err, msgSaveFailed, slog.String("date", payload.Date.String()))
	}
	id, err := ParseUUID(rawID)
	if err != nil {
		return "", s.storageFailure(ctx, errors.Wrap(err, "storage returned malformed workout id"), msgSaveFailed)
	}

	names := make([]string, 0, len(payload.Exercises))
	for _, e := range payload.Exercises {
		names = append(names, e.Name)
	}
	s.weights.invalidate(names...)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "saved workout",
		slog.String("workout_id", id.String()),
		slog.String("date", payload.Date.String()),
		slog.Int("exercises", len(payload.Exercises)))
	return id, nil
}

func (s *Service) buildPayload(
	templateID string,
	exercises []Exercise,
	templateExerciseIDs map[string]string,
	date string,
) (WorkoutPayload, error) {
	if len(exercises) == 0 {
		return WorkoutPayload{}, inputError("Cannot save workout: at least one exercise is required.")
	}
	hasSets := false
	for _, e := range exercises {
		if len(e.Sets) > 0 {
			hasSets = true
			break
		}
	}
	if !hasSets {
		return WorkoutPayload{}, inputError("Cannot save workout: at least one set is required.")
	}

	var payload WorkoutPayload
	if templateID != "" {
		id, err := ParseUUID(templateID)
		if err != nil {
			return WorkoutPayload{}, inputError("Invalid template ID format.")
		}
		payload.TemplateID = &id
	}
	parsedTemplateExerciseIDs := make(map[string]UUID, len(templateExerciseIDs))
	for exerciseID, raw := range templateExerciseIDs {
		id, err := ParseUUID(raw)
		if err != nil {
			return WorkoutPayload{}, inputError("Invalid template exercise ID format.")
		}
		parsedTemplateExerciseIDs[exerciseID] = id
	}

	if errs := s.ValidateWorkout(exercises); len(errs) > 0 {
		return WorkoutPayload{}, inputError("Cannot save workout:\n" + FormatValidationErrors(errs))
	}

	if date == "" {
		date = s.Today().String()
	}
	var err error
	if payload.Date, err = ParseDateString(date); err != nil {
		return WorkoutPayload{}, err
	}

	payload.Exercises = make([]ExercisePayload, len(exercises))
	for i, e := range exercises {
		p := ExercisePayload{
			Name: NormalizeExerciseName(e.Name),
			Sets: make([]SetPayload, len(e.Sets)),
		}
		if id, ok := parsedTemplateExerciseIDs[e.ID]; ok {
			p.TemplateExerciseID = &id
		}
		for j, set := range e.Sets {
			p.Sets[j] = SetPayload{Weight: finiteOrZero(set.Weight), Reps: int(finiteOrZero(set.Reps))}
		}
		payload.Exercises[i] = p
	}
	return payload, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// LastWeightsBatch summarises the latest session of each named exercise with a single storage call for the
// names not cached yet. The result is keyed by normalized name and names without history are absent.
func (s *Service) LastWeightsBatch(ctx context.Context, names []string) (map[string]ExerciseWeights, error) {
	normalized := normalizeNames(names)
	result := make(map[string]ExerciseWeights, len(normalized))
	if len(normalized) == 0 {
		return result, nil
	}
	missing := s.weights.fill(normalized, result)
	s.recorder.WeightsCacheLookup(len(normalized)-len(missing), len(missing))
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.weights.load(ctx, missing, s.fetchWeightsBatch)
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		if w, ok := fetched[name]; ok {
			result[name] = w
		}
	}
	return result, nil
}

func (s *Service) fetchWeightsBatch(ctx context.Context, names []string) (map[string]ExerciseWeights, error) {
	s.recorder.WeightsLookedUp("batch", len(names))
	rows, err := s.repo.LastWeightsBatch(ctx, names)
	if err != nil {
		return nil, s.storageFailure(ctx, err, msgWeightsLoadFailed)
	}
	byName, err := parseWeightsRows(rows)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "malformed weights response", errors.SlogError(err))
		return nil, &StorageError{Kind: StorageErrorUnknown, Message: msgWeightsBadRow, Err: err}
	}
	return byName, nil
}

// LastWeights summarises the latest session of the exercises matching name without the batch query or the
// cache. All fields are nil when there is no history.
func (s *Service) LastWeights(ctx context.Context, name string, match MatchMode) (ExerciseWeights, error) {
	normalized := NormalizeExerciseName(name)
	if normalized == "" {
		return ExerciseWeights{}, nil
	}
	s.recorder.WeightsLookedUp("single", 1)
	history, err := s.repo.ExerciseHistory(ctx, normalized, match)
	if err != nil {
		return ExerciseWeights{}, s.storageFailure(ctx, err, msgWeightsLoadFailed,
			slog.String("exercise", normalized))
	}
	return summarizeLatestSession(history), nil
}

// storageFailure classifies err and logs it with its details, which are not shown to end users.
func (s *Service) storageFailure(ctx context.Context, err error, fallback string, attrs ...slog.Attr) error {
	classified := ClassifyStorageError(err, fallback)
	var se *StorageError
	kind := StorageErrorUnknown
	if errors.As(classified, &se) {
		kind = se.Kind
	}
	attrs = append(attrs, slog.String("kind", kind.String()), errors.SlogError(err))
	s.logger.LogAttrs(ctx, slog.LevelError, fallback, attrs...)
	return classified
}
