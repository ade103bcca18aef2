package workout

import (
	"cmp"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/ptr"
)

const (
	msgWeightsLoadFailed = "Failed to load exercise weights."
	msgWeightsBadRow     = "Unexpected row format while loading exercise weights."
)

var errMalformedWeightsRow = errors.NewSentinel(msgWeightsBadRow)

// summarizeLatestSession derives the weights of the most recent exercise instance in history. The latest
// instance is the one created last, with later inserts winning timestamp ties.
//
// The working weight is the most frequent weight with ties going to the heavier weight, and the last reps are
// taken from the set created last, with the higher position winning timestamp ties.
func summarizeLatestSession(history []HistoricalSet) ExerciseWeights {
	if len(history) == 0 {
		return ExerciseWeights{}
	}
	latest := slices.MaxFunc(history, func(a, b HistoricalSet) int {
		return cmp.Or(a.ExerciseCreatedAt.Compare(b.ExerciseCreatedAt), cmp.Compare(a.ExerciseSeq, b.ExerciseSeq))
	})

	var (
		frequency = make(map[float64]int)
		working   float64
		best      int
		maxWeight = math.Inf(-1)
		lastSet   *HistoricalSet
	)
	for i := range history {
		set := &history[i]
		if set.ExerciseID != latest.ExerciseID {
			continue
		}
		frequency[set.Weight]++
		if n := frequency[set.Weight]; n > best || (n == best && set.Weight > working) {
			working, best = set.Weight, n
		}
		maxWeight = max(maxWeight, set.Weight)
		if lastSet == nil || cmp.Or(set.CreatedAt.Compare(lastSet.CreatedAt), cmp.Compare(set.Position, lastSet.Position)) > 0 {
			lastSet = set
		}
	}
	return ExerciseWeights{
		WorkingWeight: ptr.Ref(working),
		MaxWeight:     ptr.Ref(maxWeight),
		LastReps:      ptr.Ref(float64(lastSet.Reps)),
	}
}

// parseWeightsRows checks the shape of raw batch rows and keys them by normalized exercise name. A single bad
// row fails the whole batch.
func parseWeightsRows(rows []WeightsRow) (map[string]ExerciseWeights, error) {
	byName := make(map[string]ExerciseWeights, len(rows))
	for i, row := range rows {
		name, ok := toText(row.ExerciseName)
		if !ok {
			return nil, errors.Wrap(errMalformedWeightsRow, "parse exercise name", rowAttr(i))
		}
		var (
			w   ExerciseWeights
			err error
		)
		if w.WorkingWeight, err = toNullableNumber(row.WorkingWeight); err != nil {
			return nil, errors.Wrap(err, "parse working weight", rowAttr(i))
		}
		if w.MaxWeight, err = toNullableNumber(row.MaxWeight); err != nil {
			return nil, errors.Wrap(err, "parse max weight", rowAttr(i))
		}
		if w.LastReps, err = toNullableNumber(row.LastReps); err != nil {
			return nil, errors.Wrap(err, "parse last reps", rowAttr(i))
		}
		if normalized := NormalizeExerciseName(name); normalized != "" {
			byName[normalized] = w
		}
	}
	return byName, nil
}

func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	}
	return "", false
}

// toNullableNumber accepts the numeric representations SQLite drivers produce. Missing and non-finite values
// become nil, anything that isn't a number is malformed.
func toNullableNumber(v any) (*float64, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, nil //nolint:nilnil // absent value
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case float64:
		f = t
	case string, []byte:
		s, _ := toText(t)
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, errMalformedWeightsRow
		}
		f = parsed
	default:
		return nil, errMalformedWeightsRow
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil //nolint:nilnil // non-finite counts as absent
	}
	return &f, nil
}

func rowAttr(i int) slog.Attr {
	return slog.Int("row", i)
}
