package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/change-warden/internal/config"
	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/db"
	"github.com/sevigo/change-warden/internal/storage"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	conn, cleanup, err := db.NewDatabase(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return conn
}

func TestLedger_NovelThenDuplicate(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)

	d, err := l.CheckAndReserve(ctx, "demo", "abc")
	require.NoError(t, err)
	require.True(t, d.Novel())
	require.NotNil(t, d.Reservation)

	entry, err := d.Reservation.Commit(ctx, core.KindPush, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ResultID)
	assert.Equal(t, core.KindPush, entry.ResultKind)

	again, err := l.CheckAndReserve(ctx, "demo", "abc")
	require.NoError(t, err)
	assert.False(t, again.Novel())
	assert.Equal(t, Duplicate, again.Outcome)
	require.NotNil(t, again.Entry)
	assert.Equal(t, int64(7), again.Entry.ResultID)
	assert.Nil(t, again.Reservation)

	_, err = d.Reservation.Commit(ctx, core.KindPush, 8)
	assert.ErrorIs(t, err, ErrReservationClosed)
}

func TestLedger_ProjectScopesTheKey(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)

	d, err := l.CheckAndReserve(ctx, "demo", "abc")
	require.NoError(t, err)
	_, err = d.Reservation.Commit(ctx, core.KindMergeRequest, 1)
	require.NoError(t, err)

	other, err := l.CheckAndReserve(ctx, "other", "abc")
	require.NoError(t, err)
	assert.True(t, other.Novel())
	other.Reservation.Release()
}

func TestLedger_ReleaseMakesKeyNovelAgain(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)

	d, err := l.CheckAndReserve(ctx, "demo", "abc")
	require.NoError(t, err)
	d.Reservation.Release()
	d.Reservation.Release()

	again, err := l.CheckAndReserve(ctx, "demo", "abc")
	require.NoError(t, err)
	assert.True(t, again.Novel())
	again.Reservation.Release()

	_, err = l.Lookup(ctx, "demo", "abc")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLedger_ConcurrentReservationsCommit(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)

	const callers = 16
	var novel atomic.Int32
	results := make([]int64, callers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			d, err := l.CheckAndReserve(ctx, "demo", "same")
			if !assert.NoError(t, err) {
				return
			}
			if d.Novel() {
				novel.Add(1)
				time.Sleep(20 * time.Millisecond)
				entry, err := d.Reservation.Commit(ctx, core.KindPush, 99)
				if assert.NoError(t, err) {
					results[i] = entry.ResultID
				}
				return
			}
			results[i] = d.Entry.ResultID
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), novel.Load())
	for _, id := range results {
		assert.Equal(t, int64(99), id)
	}

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
}

func TestLedger_ReleaseHandsOverToOneWaiter(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)

	first, err := l.CheckAndReserve(ctx, "demo", "k")
	require.NoError(t, err)
	require.True(t, first.Novel())

	const waiters = 4
	decisions := make(chan *Decision, waiters)
	for range waiters {
		go func() {
			d, err := l.CheckAndReserve(ctx, "demo", "k")
			if assert.NoError(t, err) {
				decisions <- d
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	first.Reservation.Release()

	// The new holder commits; everyone else sees its entry.
	var got []*Decision
	for range waiters {
		d := <-decisions
		if d.Novel() {
			_, err := d.Reservation.Commit(ctx, core.KindSVNRevision, 5)
			require.NoError(t, err)
		}
		got = append(got, d)
	}

	novel := 0
	for _, d := range got {
		if d.Novel() {
			novel++
			continue
		}
		assert.Equal(t, int64(5), d.Entry.ResultID)
	}
	assert.Equal(t, 1, novel)
}

func TestLedger_WaitHonorsContext(t *testing.T) {
	l := New(openDB(t).DB)

	held, err := l.CheckAndReserve(context.Background(), "demo", "k")
	require.NoError(t, err)
	defer held.Reservation.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.CheckAndReserve(ctx, "demo", "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLedger_CommitKeepsFirstWriterAcrossInstances(t *testing.T) {
	ctx := context.Background()
	conn := openDB(t)
	a, b := New(conn.DB), New(conn.DB)

	first, err := a.CheckAndReserve(ctx, "demo", "k")
	require.NoError(t, err)
	second, err := b.CheckAndReserve(ctx, "demo", "k")
	require.NoError(t, err)
	require.True(t, first.Novel())
	require.True(t, second.Novel())

	_, err = first.Reservation.Commit(ctx, core.KindPush, 1)
	require.NoError(t, err)
	entry, err := second.Reservation.Commit(ctx, core.KindMergeRequest, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), entry.ResultID)
	assert.Equal(t, core.KindPush, entry.ResultKind)
}

func TestLedger_Recent(t *testing.T) {
	ctx := context.Background()
	l := New(openDB(t).DB)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, digest := range []core.ContentDigest{"d1", "d2", "d3"} {
		l.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		d, err := l.CheckAndReserve(ctx, "demo", digest)
		require.NoError(t, err)
		_, err = d.Reservation.Commit(ctx, core.KindPush, int64(i+1))
		require.NoError(t, err)
	}

	entries, err := l.Recent(ctx, "demo", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, core.ContentDigest("d3"), entries[0].ContentDigest)
	assert.Equal(t, core.ContentDigest("d2"), entries[1].ContentDigest)

	none, err := l.Recent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
