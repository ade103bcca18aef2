// Package e2etest runs the web server in-process and drives it over HTTP.
package e2etest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dubovds/workout-tracker/internal/logging"

	_ "github.com/mattn/go-sqlite3" // the sqlite3 driver for DB
)

type Server struct {
	client     *Client
	db         *sql.DB
	cancel     context.CancelCauseFunc
	serverDone chan struct{}
}

// LogAddrKey is the key used to log the address the server is listening on.
const LogAddrKey = "addr"

// LogDsnKey is the data source name key used to log the SQL DSN.
const LogDsnKey = "sqlDsn"

// startupLog picks the listen address and the database DSN out of the server logs.
type startupLog struct {
	addr chan string
	dsn  chan string
}

func newStartupLog() *startupLog {
	return &startupLog{addr: make(chan string, 1), dsn: make(chan string, 1)}
}

func (l *startupLog) replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case LogAddrKey:
		offer(l.addr, a.Value.String())
	case LogDsnKey:
		offer(l.dsn, a.Value.String())
	}
	return a
}

// wait returns once both the address and the DSN are logged or ctx is done.
func (l *startupLog) wait(ctx context.Context) (string, string, error) {
	var addr, dsn string
	for addr == "" || dsn == "" {
		select {
		case <-ctx.Done():
			return "", "", fmt.Errorf("context cancelled: %w", context.Cause(ctx))
		case addr = <-l.addr:
		case dsn = <-l.dsn:
		}
	}
	return addr, dsn, nil
}

// offer keeps the first value sent on ch.
func offer(ch chan string, v string) {
	select {
	case ch <- v:
	default:
	}
}

// StartServer runs the server in-process and returns once it answers /api/healthy.
//
// logSink receives the server logs, usually testhelpers.NewWriter. lookupEnv has the signature of [os.LookupEnv]
// and its SITE_USERNAME and SITE_PASSWORD authenticate the returned client. run must log the listen address under
// LogAddrKey and the database DSN under LogDsnKey. The server is shut down when the test ends.
func StartServer(
	t *testing.T,
	logSink io.Writer,
	lookupEnv func(string) (string, bool),
	run func(context.Context, *slog.Logger, func(string) (string, bool)) error,
) (*Server, error) {
	ctx, cancel := context.WithCancelCause(t.Context())
	server := &Server{client: nil, db: nil, cancel: cancel, serverDone: make(chan struct{})}
	t.Cleanup(server.Shutdown)

	startup := newStartupLog()
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: startup.replaceAttr,
	})))
	go func() {
		defer close(server.serverDone)
		if err := run(ctx, logger, lookupEnv); err != nil {
			cancel(err)
		}
	}()

	addr, dsn, err := startup.wait(ctx)
	if err != nil {
		return nil, err
	}
	username, _ := lookupEnv("SITE_USERNAME")
	password, _ := lookupEnv("SITE_PASSWORD")
	if server.client, err = NewClient("http://"+addr, username, password); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	if err = server.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		return nil, fmt.Errorf("wait for ready: %w", err)
	}
	if server.db, err = sql.Open("sqlite3", dsn); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return server, nil
}

func (s *Server) Client() *Client {
	return s.client
}

// DB is a connection to the database of the server for arranging and inspecting test data.
func (s *Server) DB() *sql.DB {
	return s.db
}

// Shutdown stops the server and waits for run to return. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.cancel(nil)
	<-s.serverDone
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
}
