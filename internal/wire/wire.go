//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/change-warden/internal/app"
	"github.com/sevigo/change-warden/internal/jobs"
)

// InitializeApp wires the HTTP service.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(AppSet)
	return &app.App{}, nil, nil
}

// InitializeToolkit wires the storage side only.
func InitializeToolkit(ctx context.Context) (*app.Toolkit, func(), error) {
	wire.Build(StorageSet, app.NewToolkit)
	return &app.Toolkit{}, nil, nil
}

// InitializeReviewJob wires the orchestrator for one-off submissions.
func InitializeReviewJob(ctx context.Context) (*jobs.ReviewJob, func(), error) {
	wire.Build(ReviewSet)
	return &jobs.ReviewJob{}, nil, nil
}
