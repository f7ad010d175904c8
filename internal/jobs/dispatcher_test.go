package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/jobs"
	"github.com/sevigo/change-warden/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_RunsQueuedChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)

	var wg sync.WaitGroup
	wg.Add(3)
	job.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *core.Change) error {
			defer wg.Done()
			return errors.New("failures are logged, not returned")
		}).
		Times(3)

	d := jobs.NewDispatcher(context.Background(), job, &config.Config{MaxWorkers: 2, QueueSize: 10}, discardLogger())
	for range 3 {
		require.NoError(t, d.Dispatch(context.Background(), &core.Change{ProjectName: "demo", Kind: core.KindPush}))
	}
	wg.Wait()
	d.Stop()
}

func TestDispatcher_QueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})
	job.EXPECT().
		Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *core.Change) error {
			started <- struct{}{}
			<-release
			return nil
		}).
		Times(2)

	d := jobs.NewDispatcher(context.Background(), job, &config.Config{MaxWorkers: 1, QueueSize: 1}, discardLogger())
	change := &core.Change{ProjectName: "demo", Kind: core.KindPush}

	require.NoError(t, d.Dispatch(context.Background(), change))
	<-started // the worker holds the first change
	require.NoError(t, d.Dispatch(context.Background(), change))
	assert.ErrorIs(t, d.Dispatch(context.Background(), change), jobs.ErrQueueFull)

	close(release)
	<-started
	d.Stop()
}

func TestDispatcher_DispatchAfterStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	job := mocks.NewMockJob(ctrl)

	d := jobs.NewDispatcher(context.Background(), job, &config.Config{}, discardLogger())
	d.Stop()
	d.Stop()

	err := d.Dispatch(context.Background(), &core.Change{ProjectName: "demo"})
	assert.ErrorIs(t, err, jobs.ErrDispatcherStopped)
}
