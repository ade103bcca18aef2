package main

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/trace"
	"time"

	"github.com/dubovds/workout-tracker/internal/contexthelpers"
	"github.com/dubovds/workout-tracker/internal/errors"
	"github.com/dubovds/workout-tracker/internal/logging"
)

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		headerWritten:  false,
	}
}

func (mw *statusResponseWriter) WriteHeader(statusCode int) {
	mw.ResponseWriter.WriteHeader(statusCode)

	if !mw.headerWritten {
		mw.statusCode = statusCode
		mw.headerWritten = true
	}
}

func (mw *statusResponseWriter) Write(b []byte) (int, error) {
	mw.headerWritten = true
	written, err := mw.ResponseWriter.Write(b)
	if err != nil {
		return written, fmt.Errorf("write response: %w", err)
	}
	return written, nil
}

func (mw *statusResponseWriter) Unwrap() http.ResponseWriter {
	return mw.ResponseWriter
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The nonce is exposed through the context so that templates can add it to script and style tags.
		cspNonce := rand.Text()
		csp := fmt.Sprintf(`default-src 'none';
script-src 'nonce-%s' 'strict-dynamic' 'unsafe-inline' https: http:;
connect-src 'self';
img-src 'self';
style-src 'nonce-%s' 'self' 'unsafe-inline';
frame-ancestors 'self';
form-action 'self';
font-src 'none';
object-src 'none';
base-uri 'none';`, cspNonce, cspNonce)

		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("Referrer-Policy", "origin-when-cross-origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-XSS-Protection", "0")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")

		r = contexthelpers.SetCSPNonce(r, cspNonce)

		next.ServeHTTP(w, r)
	})
}

func cacheForever(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")

		next.ServeHTTP(w, r)
	})
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}

func (app *application) logAndTraceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			proto  = r.Proto
			method = r.Method
			uri    = r.URL.RequestURI()
		)

		traceID := rand.Text()
		r = contexthelpers.SetTraceID(r, traceID)
		ctx := logging.WithAttrs(
			r.Context(),
			slog.String("trace_id", traceID),
			slog.String("proto", proto),
			slog.String("method", method),
			slog.String("uri", uri),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		app.logger.LogAttrs(ctx, slog.LevelDebug, "received request")

		sw := newStatusResponseWriter(w)

		if !trace.IsEnabled() {
			next.ServeHTTP(sw, r)
		} else {
			path := r.URL.Path
			traceCtx, task := trace.NewTask(ctx, fmt.Sprintf("HTTP %s %s", r.Method, path))
			trace.Log(traceCtx, "request", fmt.Sprintf("method=%s path=%s proto=%s", method, path, proto))
			trace.Log(traceCtx, "trace_id", traceID)

			defer func() {
				trace.Log(traceCtx, "response", fmt.Sprintf("status=%d duration=%v", sw.statusCode, time.Since(start)))
				task.End()
			}()

			r = r.WithContext(traceCtx)
			next.ServeHTTP(sw, r)
		}

		level := slog.LevelInfo
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		app.logger.LogAttrs(r.Context(), level, "request completed",
			slog.Int("status_code", sw.statusCode), slog.Duration("duration", time.Since(start)))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if excp := recover(); excp != nil {
				app.serverError(w, r, errors.DecoratePanic(excp))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// basicAuth guards the site with HTTP basic auth when a password is configured. The authenticated user name is
// added to the request context and log attributes.
func (app *application) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.password == "" {
			next.ServeHTTP(w, r)
			return
		}
		username, password, ok := r.BasicAuth()
		if !ok || !credentialsMatch(username, password, app.username, app.password) {
			if ok {
				app.logger.LogAttrs(r.Context(), slog.LevelWarn, "basic auth rejected",
					slog.String("user", username))
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="Workout Tracker", charset="UTF-8"`)
			w.Header().Set("Cache-Control", "no-store")
			http.Error(w, "Authentication required.", http.StatusUnauthorized)
			return
		}
		r = contexthelpers.AuthenticateContext(r, username)
		r = r.WithContext(logging.WithAttrs(r.Context(), slog.String("user", username)))
		next.ServeHTTP(w, r)
	})
}

// credentialsMatch compares both values in constant time so that neither leaks through timing.
func credentialsMatch(username, password, wantUsername, wantPassword string) bool {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(wantUsername))
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword))
	return usernameMatch&passwordMatch == 1
}

func commonContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = contexthelpers.SetCurrentPath(r, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// crossOriginProtection rejects cross-origin state changing requests using http.CrossOriginProtection.
func (app *application) crossOriginProtection(next http.Handler) http.Handler {
	protection := http.NewCrossOriginProtection()
	return protection.Handler(next)
}

// timeout times out the request and cancels the context using http.TimeoutHandler. Timed out requests get their
// trace captured when the flight recorder is enabled.
func (app *application) timeout(next http.Handler) http.Handler {
	timeout := defaultTimeout - (200 * time.Millisecond) //nolint:mnd // writing the response takes time.
	handler := http.TimeoutHandler(next, timeout, "timed out")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := newStatusResponseWriter(w)
		handler.ServeHTTP(sw, r)
		if sw.statusCode == http.StatusServiceUnavailable && app.flightRecorder != nil {
			app.flightRecorder.Capture(r.Context(), "timeout")
		}
	})
}
