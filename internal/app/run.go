package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/cashgrid/internal/model"
)

// ErrNoSteps is returned when neither the configuration nor the model file
// sets the number of steps to run.
var ErrNoSteps = errors.New("number of steps is not set: pass -steps or declare steps in the model block")

// Run loads the model, evaluates it and renders the resulting table.
func (a *App) Run(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Run method started.", "path", a.config.ModelPath)

	res, err := a.loader.Load(ctx, a.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	a.logger.Debug("Model loaded.", "model", res.Model.Name(), "files", len(res.Files))

	steps := res.Steps
	switch {
	case a.config.Steps != nil:
		steps = *a.config.Steps
	case !res.HasSteps:
		return ErrNoSteps
	}

	opts := []model.RunOption{model.WithMaxDepth(a.config.MaxDepth)}
	if a.config.Memoize {
		opts = append(opts, model.WithMemoization())
	}

	a.logger.Info("Running model.", "model", res.Model.Name(), "steps", steps)
	tbl, err := res.Model.Run(ctx, steps, opts...)
	if err != nil {
		return fmt.Errorf("failed to run model %q: %w", res.Model.Name(), err)
	}

	if err := tbl.Render(a.outW, a.config.Format); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	a.logger.Info("Model run finished.", "model", res.Model.Name(), "rows", tbl.Len(), "columns", len(tbl.Columns()))

	a.logger.Debug("App.Run method finished.")
	return nil
}
