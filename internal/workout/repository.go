package workout

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dubovds/workout-tracker/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// Repository is the storage the workout core reads templates and history from and writes workouts to.
type Repository interface {
	// ListTemplates returns templates oldest first.
	ListTemplates(ctx context.Context) ([]Template, error)
	// ListTemplateExercises returns the exercises of a template by ascending sort order.
	ListTemplateExercises(ctx context.Context, templateID UUID) ([]TemplateExercise, error)
	// ExerciseHistory returns every stored set of exercises matching name.
	ExerciseHistory(ctx context.Context, name string, match MatchMode) ([]HistoricalSet, error)
	// LastWeightsBatch returns at most one row per name, summarising its most recent session.
	LastWeightsBatch(ctx context.Context, names []string) ([]WeightsRow, error)
	// CreateWorkout stores the workout with its exercises and sets and returns the new workout ID. Exercises
	// without sets are not stored.
	CreateWorkout(ctx context.Context, workout WorkoutPayload) (string, error)
}

// DatabaseProvider hands out the database, opening it on first use. Both [*sqlite.Provider] and
// [*sqlite.Database] implement it.
type DatabaseProvider interface {
	Database(ctx context.Context) (*sqlite.Database, error)
}

// SaveMode selects how [Repository.CreateWorkout] writes.
type SaveMode string

const (
	// SaveAtomic writes everything in one transaction.
	SaveAtomic SaveMode = "atomic"
	// SaveSequential writes the workout row, then every exercise and its sets without a transaction. A failure
	// part way leaves the rows written so far in place.
	SaveSequential SaveMode = "sequential"
)

// ParseSaveMode validates a configured save mode.
func ParseSaveMode(s string) (SaveMode, error) {
	switch mode := SaveMode(s); mode {
	case SaveAtomic, SaveSequential:
		return mode, nil
	}
	return "", fmt.Errorf("unknown save mode %q", s)
}

type baseRepository struct {
	provider DatabaseProvider
	logger   *slog.Logger
}

func newBaseRepository(provider DatabaseProvider, logger *slog.Logger) baseRepository {
	return baseRepository{provider: provider, logger: logger}
}

func (r baseRepository) db(ctx context.Context) (*sqlite.Database, error) {
	db, err := r.provider.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// sqliteRepository composes the SQLite repositories into a [Repository].
type sqliteRepository struct {
	*sqliteTemplateRepository
	*sqliteHistoryRepository
	*sqliteWorkoutRepository
}

// NewSQLiteRepository returns a [Repository] backed by SQLite.
func NewSQLiteRepository(provider DatabaseProvider, logger *slog.Logger, mode SaveMode) Repository {
	base := newBaseRepository(provider, logger)
	return &sqliteRepository{
		sqliteTemplateRepository: &sqliteTemplateRepository{baseRepository: base},
		sqliteHistoryRepository:  &sqliteHistoryRepository{baseRepository: base},
		sqliteWorkoutRepository:  &sqliteWorkoutRepository{baseRepository: base, mode: mode},
	}
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
