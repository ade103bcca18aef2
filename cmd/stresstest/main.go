// Command stresstest runs concurrent draft sessions against a workout tracker and reports the success rate.
//
// Scenarios stop short of saving: saves are gated per server, so concurrent users would hit the cooldown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dubovds/workout-tracker/internal/e2etest"
	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/logging"
	"github.com/dubovds/workout-tracker/internal/testhelpers"
	"github.com/dubovds/workout-tracker/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 30 * time.Second
	maxConcurrentOperations = 20
	defaultUsers            = 10
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
)

// draftScenario walks through a draft: load the page, open the first exercise, add a set and update the first
// one, look up its weights and validate the draft through the API.
func draftScenario(ctx context.Context, client *e2etest.Client) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get home: %w", err)
	}
	exercise := doc.Find("li.exercise").First()
	exerciseID, ok := exercise.Attr("id")
	if !ok {
		return errors.New("no exercise on home page")
	}
	name := strings.TrimSpace(exercise.Find("h2").Text())

	if doc, err = openExercise(ctx, client, doc, exerciseID); err != nil {
		return err
	}
	if doc, err = client.SubmitForm(ctx, doc, "/draft/exercises/"+exerciseID+"/sets", nil); err != nil {
		return fmt.Errorf("add set: %w", err)
	}
	if got := doc.Find("#" + exerciseID + " li.set").Length(); got < 2 { //nolint:mnd // opened plus added
		return fmt.Errorf("expected at least 2 sets, got %d", got)
	}
	action, err := e2etest.SetFormAction(doc, exerciseID, 1, e2etest.SetUpdate)
	if err != nil {
		return fmt.Errorf("find set form: %w", err)
	}
	fields := map[string]string{"Weight set 1": "20", "Reps set 1": "8"}
	if doc, err = client.SubmitForm(ctx, doc, action, fields); err != nil {
		return fmt.Errorf("update set: %w", err)
	}
	if got, _ := doc.Find("#" + exerciseID + " li.set input[name=weight]").First().Attr("value"); got != "20" {
		return fmt.Errorf("expected updated weight 20, got %q", got)
	}

	var weights map[string]workout.ExerciseWeights
	if _, err = client.GetJSON(ctx, "/api/weights?name="+url.QueryEscape(name), &weights); err != nil {
		return fmt.Errorf("get weights: %w", err)
	}

	body := map[string]any{"exercises": []workout.Exercise{{
		ID:   exerciseID,
		Name: name,
		Sets: []workout.Set{{ID: "s1", Weight: 20, Reps: 8, Done: false}},
	}}}
	var validation struct {
		Valid bool `json:"valid"`
	}
	status, err := client.PostJSON(ctx, "/api/workouts/validate", body, &validation)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if status != http.StatusOK || !validation.Valid {
		return fmt.Errorf("unexpected validation response: status %d valid %t", status, validation.Valid)
	}
	return nil
}

func openExercise(
	ctx context.Context,
	client *e2etest.Client,
	doc *goquery.Document,
	exerciseID string,
) (*goquery.Document, error) {
	if _, err := e2etest.FindForm(doc, "/draft/exercises/"+exerciseID+"/open"); err != nil {
		// Already open from an earlier run of this session.
		return doc, nil //nolint:nilerr // nothing to open
	}
	doc, err := client.SubmitForm(ctx, doc, "/draft/exercises/"+exerciseID+"/open", nil)
	if err != nil {
		return nil, fmt.Errorf("open exercise: %w", err)
	}
	return doc, nil
}

// runLoadTest runs one scenario per user, each user with their own session.
func runLoadTest(ctx context.Context, baseURL string, users int, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("num_users", users))

	var successCount, failureCount atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)

	for i := range users {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()
			scenarioCtx = logging.WithAttrs(scenarioCtx, slog.Int("user_index", i))

			client, err := e2etest.NewClient(baseURL, os.Getenv("SITE_USERNAME"), os.Getenv("SITE_PASSWORD"))
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			if err = draftScenario(scenarioCtx, client); err != nil {
				failureCount.Add(1)
				// Failures are counted, the other scenarios keep running.
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed", errors.SlogError(err))
				return nil
			}
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load test failed: %w", err)
	}

	successRate := float64(successCount.Load()) / float64(users) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate))
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) < 2 || len(os.Args) > 3 { //nolint:mnd // hostname and optional user count
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname> [users]")
		os.Exit(1)
	}
	var (
		hostname = os.Args[1]
		users    = defaultUsers
		start    = time.Now()
		err      error
	)
	if len(os.Args) == 3 { //nolint:mnd // user count given
		if users, err = strconv.Atoi(os.Args[2]); err != nil || users <= 0 {
			logger.LogAttrs(ctx, slog.LevelError, "users must be a positive integer", slog.String("users", os.Args[2]))
			os.Exit(1)
		}
	}
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))

	baseURL := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		baseURL = "http://" + hostname
	}
	client, err := e2etest.NewClient(baseURL, os.Getenv("SITE_USERNAME"), os.Getenv("SITE_PASSWORD"))
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}

	if err = runLoadTest(ctx, baseURL, users, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Int("users_tested", users))
}
