package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type sqliteHistoryRepository struct {
	baseRepository
}

func (r *sqliteHistoryRepository) ExerciseHistory(
	ctx context.Context,
	name string,
	match MatchMode,
) (_ []HistoricalSet, err error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	condition, arg := "e.name = ? COLLATE NOCASE", name
	if match == MatchPattern {
		condition, arg = `e.name LIKE ? ESCAPE '\'`, "%"+escapeLike(name)+"%"
	}
	rows, err := db.ReadOnly.QueryContext(ctx, `
		SELECT e.id, e.name, e.created_at, e.rowid, s.position, s.weight, s.reps, s.created_at
		FROM exercises e
		JOIN sets s ON s.exercise_id = e.id
		WHERE `+condition+`
		ORDER BY e.created_at, e.rowid, s.position`, arg)
	if err != nil {
		return nil, fmt.Errorf("query exercise history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var history []HistoricalSet
	for rows.Next() {
		var (
			h                      HistoricalSet
			exerciseCreated, setAt string
		)
		if err = rows.Scan(&h.ExerciseID, &h.ExerciseName, &exerciseCreated, &h.ExerciseSeq,
			&h.Position, &h.Weight, &h.Reps, &setAt); err != nil {
			return nil, fmt.Errorf("scan historical set: %w", err)
		}
		if h.ExerciseCreatedAt, err = parseTimestamp(exerciseCreated); err != nil {
			return nil, err
		}
		if h.CreatedAt, err = parseTimestamp(setAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate historical sets: %w", err)
	}
	return history, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`) //nolint:gochecknoglobals // stateless

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// lastWeightsBatchQuery summarises the latest exercise instance of every requested name in one statement: the
// most frequent weight with ties going to the heavier one, the heaviest weight and the reps of the set created
// last. Rows are keyed by the requested spelling of the name.
const lastWeightsBatchQuery = `
WITH requested AS (SELECT DISTINCT value AS name FROM json_each(:names)),
     ranked AS (SELECT r.name AS name,
                       e.id   AS exercise_id,
                       row_number() OVER (PARTITION BY r.name ORDER BY e.created_at DESC, e.rowid DESC) AS recency
                FROM requested r
                         JOIN exercises e ON e.name = r.name COLLATE NOCASE
                WHERE EXISTS (SELECT 1 FROM sets s WHERE s.exercise_id = e.id)),
     latest_sets AS (SELECT ranked.name, s.weight, s.reps, s.created_at, s.position
                     FROM ranked
                              JOIN sets s ON s.exercise_id = ranked.exercise_id
                     WHERE ranked.recency = 1),
     frequencies AS (SELECT name, weight, count(*) AS frequency
                     FROM latest_sets
                     GROUP BY name, weight),
     working AS (SELECT name,
                        weight,
                        row_number() OVER (PARTITION BY name ORDER BY frequency DESC, weight DESC) AS pick
                 FROM frequencies),
     last_set AS (SELECT name,
                         reps,
                         row_number() OVER (PARTITION BY name ORDER BY created_at DESC, position DESC) AS pick
                  FROM latest_sets),
     heaviest AS (SELECT name, max(weight) AS weight
                  FROM latest_sets
                  GROUP BY name)
SELECT w.name, w.weight, h.weight, l.reps
FROM working w
         JOIN last_set l ON l.name = w.name AND l.pick = 1
         JOIN heaviest h ON h.name = w.name
WHERE w.pick = 1
ORDER BY w.name`

func (r *sqliteHistoryRepository) LastWeightsBatch(ctx context.Context, names []string) (_ []WeightsRow, err error) {
	if len(names) == 0 {
		return nil, nil
	}
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("encode names: %w", err)
	}
	rows, err := db.ReadOnly.QueryContext(ctx, lastWeightsBatchQuery, sql.Named("names", string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("query last weights: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	result := make([]WeightsRow, 0, len(names))
	for rows.Next() {
		var row WeightsRow
		if err = rows.Scan(&row.ExerciseName, &row.WorkingWeight, &row.MaxWeight, &row.LastReps); err != nil {
			return nil, fmt.Errorf("scan last weights: %w", err)
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate last weights: %w", err)
	}
	return result, nil
}
