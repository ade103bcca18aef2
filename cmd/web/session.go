package main

import (
	"context"

	"github.com/dubovds/workout-tracker/internal/workout"
)

const (
	draftSessionKey        = "draft"
	flashSessionKey        = "flash"
	flashVariantSessionKey = "flashVariant"
)

const (
	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-off toast shown on the next render.
type flash struct {
	Message string
	Variant string
}

func (app *application) draft(ctx context.Context) workout.Draft {
	d, _ := app.sessionManager.Get(ctx, draftSessionKey).(workout.Draft)
	return d
}

func (app *application) putDraft(ctx context.Context, d workout.Draft) {
	app.sessionManager.Put(ctx, draftSessionKey, d)
}

func (app *application) putFlash(ctx context.Context, variant, message string) {
	app.sessionManager.Put(ctx, flashSessionKey, message)
	app.sessionManager.Put(ctx, flashVariantSessionKey, variant)
}

func (app *application) popFlash(ctx context.Context) flash {
	return flash{
		Message: app.sessionManager.PopString(ctx, flashSessionKey),
		Variant: app.sessionManager.PopString(ctx, flashVariantSessionKey),
	}
}
