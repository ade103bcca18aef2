// Package sqlite owns the SQLite storage engine: connection pools, schema migration and fixtures.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	_ "embed"
)

//go:embed schema.sql
var schemaDefinition string

//go:embed fixtures.sql
var fixtures string

// Database holds a single-connection writer pool and a reader pool onto the same SQLite database.
type Database struct {
	ReadWrite *sql.DB
	ReadOnly  *sql.DB
	logger    *slog.Logger
}

// NewDatabase connects to url, migrates the schema, applies the template fixtures and starts the background
// optimizer which stops when ctx is done.
//
// url is a file path or ":memory:". Every in-memory database gets a unique name so parallel tests stay isolated.
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	db, err := connect(ctx, url, logger)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate: %w", err), db.Close())
	}
	if _, err = db.ReadWrite.ExecContext(ctx, fixtures); err != nil {
		return nil, errors.Join(fmt.Errorf("apply fixtures: %w", err), db.Close())
	}
	go db.startDatabaseOptimizer(ctx)
	return db, nil
}

// Database returns db itself so that an opened *Database can be used wherever a lazily opened one is expected.
func (db *Database) Database(context.Context) (*Database, error) {
	return db, nil
}

//nolint:gochecknoglobals // the driver may be registered only once per process.
var registerOnce sync.Once

const optimizedDriver = "sqlite3optimized"

func registerOptimizedDriver() {
	sql.Register(optimizedDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if _, err := conn.Exec(
				// Temporary tables and indices live in memory.
				"PRAGMA temp_store = memory;"+
					// Memory-mapped I/O reduces syscalls.
					"PRAGMA mmap_size = 30000000000;", nil); err != nil {
				return fmt.Errorf("exec optimization pragmas: %w", err)
			}
			return nil
		},
	})
}

func connect(ctx context.Context, url string, logger *slog.Logger) (*Database, error) {
	inMemoryConfig := ""
	if strings.Contains(url, ":memory:") {
		url = rand.Text()
		inMemoryConfig = "&mode=memory&cache=shared"
	}
	// Options prefixed with '_' are documented at https://pkg.go.dev/github.com/mattn/go-sqlite3#SQLiteDriver.Open,
	// the rest are SQLite URI parameters https://www.sqlite.org/uri.html.
	common := strings.Join([]string{
		"_journal_mode=wal",
		"_busy_timeout=5000",
		"_synchronous=normal",
		"_foreign_keys=on",
	}, "&")
	readWriteDSN := fmt.Sprintf("file:%s?mode=rwc&_txlock=immediate&%s%s", url, common, inMemoryConfig)
	readOnlyDSN := fmt.Sprintf("file:%s?mode=ro&_txlock=deferred&_query_only=true&%s%s", url, common, inMemoryConfig)

	registerOnce.Do(registerOptimizedDriver)

	readWrite, err := sql.Open(optimizedDriver, readWriteDSN)
	if err != nil {
		return nil, fmt.Errorf("open read-write database: %w", err)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "opened database", slog.String("sqlDsn", readWriteDSN))
	readWrite.SetMaxOpenConns(1)
	readWrite.SetMaxIdleConns(1)
	readWrite.SetConnMaxIdleTime(time.Hour)
	// sql.DB is lazy, the ping creates the file and applies the connection options.
	if err = readWrite.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping read-write database: %w", err), readWrite.Close())
	}

	readOnly, err := sql.Open(optimizedDriver, readOnlyDSN)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open read-only database: %w", err), readWrite.Close())
	}
	const maxReaders = 10
	readOnly.SetMaxOpenConns(maxReaders)
	readOnly.SetMaxIdleConns(maxReaders)
	readOnly.SetConnMaxIdleTime(time.Hour)

	return &Database{ReadWrite: readWrite, ReadOnly: readOnly, logger: logger}, nil
}

// Close closes both pools.
func (db *Database) Close() error {
	return errors.Join(db.ReadOnly.Close(), db.ReadWrite.Close())
}

// Rollback returns a function for deferring that rolls tx back unless it was committed.
func (db *Database) Rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction",
				slog.Any("error", fmt.Errorf("rollback transaction: %w", err)))
		}
	}
}

// Provider opens the database on first use and hands out the same handle afterwards.
type Provider struct {
	url    string
	logger *slog.Logger

	once sync.Once
	db   *Database
	err  error
}

func NewProvider(url string, logger *slog.Logger) *Provider {
	return &Provider{url: url, logger: logger}
}

// Database opens the database the first time it is called. The context of the first call also bounds the
// lifetime of the background optimizer. An open failure is remembered and returned to every caller.
func (p *Provider) Database(ctx context.Context) (*Database, error) {
	p.once.Do(func() {
		p.db, p.err = NewDatabase(ctx, p.url, p.logger)
	})
	return p.db, p.err
}

// Close closes the database if it was opened.
func (p *Provider) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
