package main

import (
	"context"
	"encoding/gob"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/dubovds/workout-tracker/internal/envstruct"
	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/flightrecorder"
	"github.com/dubovds/workout-tracker/internal/logging"
	"github.com/dubovds/workout-tracker/internal/metrics"
	"github.com/dubovds/workout-tracker/internal/sqlite"
	"github.com/dubovds/workout-tracker/internal/workout"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	templateFS     fs.FS
	workoutService *workout.Service
	templateLoads  *workout.LoadSequencer
	metrics        *metrics.Metrics
	flightRecorder *flightrecorder.Recorder
	// formSaves and apiSaves gate the HTML form and the JSON API independently.
	formSaves   *workout.SaveFlow
	apiSaves    *workout.SaveFlow
	username    string
	password    string
	debugErrors bool
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"WORKOUT_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"WORKOUT_SQLITE_URL" envDefault:"./workout.sqlite3"`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"WORKOUT_TEMPLATE_PATH" envDefault:""`
	// SaveMode is "atomic" or "sequential".
	SaveMode string `env:"WORKOUT_SAVE_MODE" envDefault:"atomic"`
	// SaveCooldown is the minimum time between two saves from the same surface.
	SaveCooldown time.Duration `env:"WORKOUT_SAVE_COOLDOWN" envDefault:"2s"`
	// WeightsCacheTTL bounds how long weight hints may lag behind saves made by other processes.
	WeightsCacheTTL time.Duration `env:"WORKOUT_WEIGHTS_CACHE_TTL" envDefault:"1m"`
	// DebugErrors shows raw error messages to users instead of generic ones.
	DebugErrors bool `env:"WORKOUT_DEBUG_ERRORS" envDefault:"false"`
	// Username is the basic auth user name.
	Username string `env:"SITE_USERNAME" envDefault:"admin"`
	// Password enables basic auth when set.
	Password string `env:"SITE_PASSWORD" envDefault:""`
	// TracesDirectory enables the flight recorder writing traces of timed out requests to it.
	TracesDirectory string `env:"WORKOUT_TRACES_DIRECTORY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	saveMode, err := workout.ParseSaveMode(cfg.SaveMode)
	if err != nil {
		return errors.Wrap(err, "parse save mode")
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("save_mode", string(saveMode)))

	m := metrics.New()
	svc := workout.NewService(workout.NewSQLiteRepository(db, logger, saveMode), logger,
		workout.WithRecorder(m), workout.WithWeightsCacheTTL(cfg.WeightsCacheTTL))
	app := application{
		logger:         logger,
		sessionManager: initializeSessionManager(db),
		templateFS:     os.DirFS(htmlTemplatePath),
		workoutService: svc,
		templateLoads:  workout.NewLoadSequencer(),
		metrics:        m,
		formSaves:      workout.NewSaveFlow(svc, cfg.SaveCooldown),
		apiSaves:       workout.NewSaveFlow(svc, cfg.SaveCooldown),
		username:       cfg.Username,
		password:       cfg.Password,
		debugErrors:    cfg.DebugErrors,
	}
	if cfg.TracesDirectory != "" {
		if app.flightRecorder, err = flightrecorder.New(flightrecorder.Config{
			Logger:          logger,
			TracesDirectory: cfg.TracesDirectory,
		}); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = app.flightRecorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer app.flightRecorder.Stop(context.WithoutCancel(ctx))
	}
	if app.password == "" {
		logger.LogAttrs(ctx, slog.LevelWarn, "SITE_PASSWORD not set, basic auth disabled")
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func initializeSessionManager(dbs *sqlite.Database) *scs.SessionManager {
	gob.Register(workout.Draft{})
	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite, 24*time.Hour) //nolint:mnd // day
	sessionManager.Lifetime = 12 * time.Hour                                                //nolint:mnd // half a day
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode
	return sessionManager
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelInfo,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
