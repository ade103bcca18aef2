// Command smoketest checks that a deployed workout tracker serves its pages and API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dubovds/workout-tracker/internal/e2etest"
	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/logging"
	"github.com/dubovds/workout-tracker/internal/testhelpers"
	"github.com/dubovds/workout-tracker/internal/workout"
)

// checkSite loads the draft page and the template list.
func checkSite(ctx context.Context, client *e2etest.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second) //nolint:mnd // 10 seconds
	defer cancel()

	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return fmt.Errorf("get home: %w", err)
	}
	if doc.Find("#template_id option").Length() == 0 {
		return errors.New("home page lists no templates")
	}

	var options []workout.TemplateOption
	if _, err = client.GetJSON(ctx, "/api/templates", &options); err != nil {
		return fmt.Errorf("get templates: %w", err)
	}
	if len(options) == 0 {
		return errors.New("template API returned no templates")
	}
	return nil
}

// siteURL returns the base URL of hostname, plain HTTP for localhost.
func siteURL(hostname string) string {
	if strings.Contains(hostname, "localhost") {
		return "http://" + hostname
	}
	return "https://" + hostname
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		client   *e2etest.Client
		err      error
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))

	if client, err = e2etest.NewClient(siteURL(hostname), os.Getenv("SITE_USERNAME"),
		os.Getenv("SITE_PASSWORD")); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = checkSite(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error checking site", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
