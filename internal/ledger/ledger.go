// Package ledger records which (project, digest) pairs have been reviewed and
// arbitrates concurrent submissions of the same content.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sevigo/change-warden/internal/core"
	"github.com/sevigo/change-warden/internal/storage"
)

// ErrReservationClosed is returned when a reservation is committed after it
// was already committed or released.
var ErrReservationClosed = errors.New("reservation already closed")

// Outcome is the answer of CheckAndReserve.
type Outcome int

const (
	Novel Outcome = iota
	Duplicate
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "novel"
}

// Decision is the result of CheckAndReserve. A Novel decision carries a
// Reservation the caller must Commit or Release; a Duplicate decision carries
// the existing entry.
type Decision struct {
	Outcome     Outcome
	Entry       *core.LedgerEntry
	Reservation *Reservation
}

// Novel reports whether the caller won the reservation.
func (d *Decision) Novel() bool { return d.Outcome == Novel }

type key struct {
	project string
	digest  core.ContentDigest
}

// slot marks an in-flight reservation. done is closed when it ends.
type slot struct {
	done chan struct{}
}

// Ledger is the durable record of reviewed digests. In-flight reservations are
// tracked in memory per key; the unique (project_name, content_digest)
// constraint settles races between processes sharing one database.
type Ledger struct {
	db       *sqlx.DB
	inflight sync.Map
	now      func() time.Time
}

// New creates a Ledger over an open, migrated connection.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// CheckAndReserve atomically decides whether a (project, digest) pair is new.
// Exactly one concurrent caller gets Novel; the others wait until that caller
// commits (they then get Duplicate) or releases (one of them becomes Novel).
// Waiting honors ctx.
func (l *Ledger) CheckAndReserve(ctx context.Context, project string, digest core.ContentDigest) (*Decision, error) {
	k := key{project: project, digest: digest}
	for {
		s := &slot{done: make(chan struct{})}
		actual, loaded := l.inflight.LoadOrStore(k, s)
		if loaded {
			select {
			case <-actual.(*slot).done:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		entry, err := l.lookup(ctx, project, digest)
		if err != nil {
			l.free(k, s)
			return nil, err
		}
		if entry != nil {
			l.free(k, s)
			return &Decision{Outcome: Duplicate, Entry: entry}, nil
		}
		return &Decision{
			Outcome:     Novel,
			Reservation: &Reservation{ledger: l, key: k, slot: s},
		}, nil
	}
}

// Lookup returns the entry for a pair, or storage.ErrNotFound.
func (l *Ledger) Lookup(ctx context.Context, project string, digest core.ContentDigest) (*core.LedgerEntry, error) {
	entry, err := l.lookup(ctx, project, digest)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, storage.ErrNotFound
	}
	return entry, nil
}

func (l *Ledger) lookup(ctx context.Context, project string, digest core.ContentDigest) (*core.LedgerEntry, error) {
	var entry core.LedgerEntry
	query := l.db.Rebind(`SELECT id, project_name, content_digest, result_kind, result_id, reviewed_at
		FROM review_ledger WHERE project_name = ? AND content_digest = ?`)
	err := l.db.GetContext(ctx, &entry, query, project, digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &storage.Error{Op: "ledger lookup", Err: err}
	}
	return &entry, nil
}

func (l *Ledger) insert(ctx context.Context, k key, kind core.SourceKind, resultID int64) (*core.LedgerEntry, error) {
	query := l.db.Rebind(`INSERT INTO review_ledger (project_name, content_digest, result_kind, result_id, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (project_name, content_digest) DO NOTHING`)
	if _, err := l.db.ExecContext(ctx, query, k.project, k.digest, kind, resultID, l.now().UTC()); err != nil {
		return nil, &storage.Error{Op: "ledger insert", Err: err}
	}
	// Read back whichever row holds the key; another process may have won.
	entry, err := l.lookup(ctx, k.project, k.digest)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, &storage.Error{Op: "ledger insert", Err: errors.New("entry missing after insert")}
	}
	return entry, nil
}

func (l *Ledger) free(k key, s *slot) {
	l.inflight.CompareAndDelete(k, s)
	close(s.done)
}

// Reservation is the exclusive right to review one (project, digest) pair.
type Reservation struct {
	ledger *Ledger
	key    key
	slot   *slot
	once   sync.Once
}

func (r *Reservation) claim() bool {
	claimed := false
	r.once.Do(func() { claimed = true })
	return claimed
}

// Commit writes the ledger entry pointing at the persisted result and ends the
// reservation. If another process committed the same pair first, its entry is
// returned instead.
func (r *Reservation) Commit(ctx context.Context, kind core.SourceKind, resultID int64) (*core.LedgerEntry, error) {
	if !r.claim() {
		return nil, ErrReservationClosed
	}
	defer r.ledger.free(r.key, r.slot)
	return r.ledger.insert(ctx, r.key, kind, resultID)
}

// Release ends the reservation without recording anything, so the pair is
// treated as novel again. Releasing twice, or after Commit, is a no-op.
func (r *Reservation) Release() {
	if r.claim() {
		r.ledger.free(r.key, r.slot)
	}
}
