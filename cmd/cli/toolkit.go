package main

import (
	"context"
	"fmt"

	"github.com/sevigo/change-warden/internal/app"
	"github.com/sevigo/change-warden/internal/wire"
)

// withToolkit opens the configured database for the duration of fn.
func withToolkit(fn func(ctx context.Context, tk *app.Toolkit) error) error {
	ctx := context.Background()
	tk, cleanup, err := wire.InitializeToolkit(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer cleanup()
	return fn(ctx, tk)
}
