package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// schemaObject is a row of sqlite_schema.
type schemaObject struct {
	typ  string
	name string
	sql  string
}

// migrateTo brings the live schema in line with schemaDefinition declaratively. The target schema is built in an
// attached scratch database and diffed against the live one:
//
//   - tables missing from the target are dropped and new ones created,
//   - changed tables are rebuilt with the 12-step procedure https://www.sqlite.org/lang_altertable.html#otheralter
//     keeping the columns both versions share,
//   - indexes and triggers are dropped, created or replaced to match.
//
// The approach follows https://david.rothlis.net/declarative-schema-migration-for-sqlite/.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach target schema: %w", err)
	}
	defer detach()

	// Foreign keys can't be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = fmt.Errorf("enable foreign keys: %w", fkErr)
		}
	}()

	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.Rollback(ctx, tx)()

	live, err := querySchema(ctx, tx, "main")
	if err != nil {
		return fmt.Errorf("query live schema: %w", err)
	}
	target, err := querySchema(ctx, tx, "schemaTarget")
	if err != nil {
		return fmt.Errorf("query target schema: %w", err)
	}

	if err = db.migrateTables(ctx, tx, live, target); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	// Rebuilt tables lost their indexes and triggers.
	if live, err = querySchema(ctx, tx, "main"); err != nil {
		return fmt.Errorf("requery live schema: %w", err)
	}
	for _, typ := range []string{"index", "trigger"} {
		if err = db.migrateObjects(ctx, tx, typ, live, target); err != nil {
			return fmt.Errorf("migrate %s: %w", typ, err)
		}
	}

	var violations int
	if err = tx.QueryRowContext(ctx, "SELECT count(*) FROM pragma_foreign_key_check").Scan(&violations); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if violations > 0 {
		return fmt.Errorf("foreign key check: %d violations", violations)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachTarget creates schemaDefinition in a scratch in-memory database and attaches it as schemaTarget.
func (db *Database) attachTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	scratch, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open scratch database: %w", err)
	}
	// The shared cache keeps the scratch database alive while it is attached.
	defer func() {
		if closeErr := scratch.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close scratch database", slog.Any("error", closeErr))
		}
	}()
	if _, err = scratch.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach target schema", slog.Any("error", detachErr))
		}
	}, nil
}

func querySchema(ctx context.Context, tx *sql.Tx, schema string) (map[string]schemaObject, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT type, name, sql FROM %s.sqlite_schema
WHERE type IN ('table', 'index', 'trigger')
  AND sql IS NOT NULL
  AND name NOT LIKE 'sqlite_%%'`, schema))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	objects := make(map[string]schemaObject)
	for rows.Next() {
		var o schemaObject
		if err = rows.Scan(&o.typ, &o.name, &o.sql); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		objects[o.typ+"/"+o.name] = o
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return objects, nil
}

// ofType returns the objects of typ sorted by name so that migrations run in a stable order.
func ofType(objects map[string]schemaObject, typ string) []schemaObject {
	var out []schemaObject
	for _, o := range objects {
		if o.typ == typ {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b schemaObject) int { return strings.Compare(a.name, b.name) })
	return out
}

// sameSQL ignores the quotes ALTER TABLE RENAME adds around table names.
func sameSQL(a, b string) bool {
	return strings.ReplaceAll(a, `"`, "") == strings.ReplaceAll(b, `"`, "")
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, msg string, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx, live, target map[string]schemaObject) error {
	for _, table := range ofType(live, "table") {
		if _, ok := target[table.typ+"/"+table.name]; !ok {
			if err := db.exec(ctx, tx, "dropping table", "DROP TABLE "+table.name); err != nil {
				return err
			}
		}
	}
	for _, table := range ofType(target, "table") {
		current, ok := live[table.typ+"/"+table.name]
		switch {
		case !ok:
			if err := db.exec(ctx, tx, "creating table", table.sql); err != nil {
				return err
			}
		case !sameSQL(current.sql, table.sql):
			if err := db.rebuildTable(ctx, tx, table); err != nil {
				return fmt.Errorf("rebuild %s: %w", table.name, err)
			}
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns and swaps the tables.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, table schemaObject) error {
	tempName := table.name + "_migration_temp"
	if err := db.exec(ctx, tx, "creating table under temporary name",
		strings.Replace(table.sql, table.name, tempName, 1)); err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, `SELECT '"' || target.name || '"'
FROM pragma_table_info(:table) AS live
JOIN pragma_table_info(:table, 'schemaTarget') AS target ON target.name = live.name`, sql.Named("table", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	var columns []string
	for rows.Next() {
		var column string
		if err = rows.Scan(&column); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan common column: %w", err)
		}
		columns = append(columns, column)
	}
	if err = errors.Join(rows.Err(), rows.Close()); err != nil {
		return fmt.Errorf("common columns: %w", err)
	}

	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		if err = db.exec(ctx, tx, "copying data", fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			tempName, common, common, table.name)); err != nil {
			return err
		}
	}
	if err = db.exec(ctx, tx, "dropping old table", "DROP TABLE "+table.name); err != nil {
		return err
	}
	return db.exec(ctx, tx, "renaming table", fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name))
}

func (db *Database) migrateObjects(ctx context.Context, tx *sql.Tx, typ string, live, target map[string]schemaObject) error {
	drop := "DROP " + strings.ToUpper(typ) + " IF EXISTS "
	for _, o := range ofType(live, typ) {
		want, ok := target[o.typ+"/"+o.name]
		if !ok || want.sql != o.sql {
			if err := db.exec(ctx, tx, "dropping "+typ, drop+o.name); err != nil {
				return err
			}
		}
	}
	for _, o := range ofType(target, typ) {
		current, ok := live[o.typ+"/"+o.name]
		if !ok || current.sql != o.sql {
			if err := db.exec(ctx, tx, "creating "+typ, o.sql); err != nil {
				return err
			}
		}
	}
	return nil
}
