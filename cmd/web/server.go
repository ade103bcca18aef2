package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dubovds/workout-tracker/internal/e2etest"
)

const defaultTimeout = 2 * time.Second

// configureAndStartServer configures and starts the HTTP server. The server shuts down gracefully once ctx is done.
func (app *application) configureAndStartServer(ctx context.Context, addr string, handler http.Handler) error {
	var err error
	shutdownComplete := make(chan struct{})
	idleTimeout := time.Minute
	srv := &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           handler,
		IdleTimeout:       idleTimeout,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		ReadHeaderTimeout: time.Second,
	}

	var listener net.Listener
	if listener, err = net.Listen("tcp", addr); err != nil {
		return fmt.Errorf("TCP listen: %w", err)
	}

	go func() {
		defer close(shutdownComplete)
		<-ctx.Done()
		app.logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelInfo, "shutting down server")

		shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownContext); shutdownErr != nil {
			app.logger.LogAttrs(shutdownContext, slog.LevelError, "error shutting down server",
				slog.Any("error", fmt.Errorf("shutdown server: %w", shutdownErr)))
		}
	}()

	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.Any(e2etest.LogAddrKey, listener.Addr().String()))
	if err = srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}
	<-shutdownComplete

	return nil
}
