package workout

import (
	"context"
	"errors"
	"fmt"
)

type sqliteTemplateRepository struct {
	baseRepository
}

func (r *sqliteTemplateRepository) ListTemplates(ctx context.Context) (_ []Template, err error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM workout_templates
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var templates []Template
	for rows.Next() {
		var (
			t         Template
			id        string
			createdAt string
		)
		if err = rows.Scan(&id, &t.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		if t.ID, err = ParseUUID(id); err != nil {
			return nil, fmt.Errorf("template id: %w", err)
		}
		if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func (r *sqliteTemplateRepository) ListTemplateExercises(
	ctx context.Context,
	templateID UUID,
) (_ []TemplateExercise, err error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.ReadOnly.QueryContext(ctx, `
		SELECT id, template_id, name, sort_order, created_at
		FROM workout_template_exercises
		WHERE template_id = ? COLLATE NOCASE
		ORDER BY sort_order, rowid`, templateID.String())
	if err != nil {
		return nil, fmt.Errorf("query template exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []TemplateExercise
	for rows.Next() {
		var (
			te                    TemplateExercise
			id, tmplID, createdAt string
		)
		if err = rows.Scan(&id, &tmplID, &te.Name, &te.SortOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("scan template exercise: %w", err)
		}
		if te.ID, err = ParseUUID(id); err != nil {
			return nil, fmt.Errorf("template exercise id: %w", err)
		}
		if te.TemplateID, err = ParseUUID(tmplID); err != nil {
			return nil, fmt.Errorf("template id: %w", err)
		}
		if te.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		exercises = append(exercises, te)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template exercises: %w", err)
	}
	return exercises, nil
}
