package store

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Snapshot pins one read transaction on a dedicated connection so that every
// query issued through it observes the same point-in-time view of the
// database, for as long as the snapshot lives.
//
// Read serializes callers: at most one query executes on the pinned
// transaction at any moment. Interrupt cancels the context of the read
// currently executing, if any; it is best effort and a read that is about to
// return may still deliver its result.
type Snapshot struct {
	id   string
	conn *sql.Conn
	tx   *sql.Tx

	// readMu serializes Read so the transaction sees one query at a time.
	readMu sync.Mutex

	// curMu guards cancel, the abort handle of the executing read.
	curMu  sync.Mutex
	cancel context.CancelFunc
}

// NewSnapshot opens a snapshot on db. txOpts selects the isolation the
// driver needs; pin, if non-empty, is a cheap read executed immediately so
// the transaction takes its snapshot now rather than at the first real
// query.
func NewSnapshot(ctx context.Context, db *sql.DB, txOpts *sql.TxOptions, pin string) (*Snapshot, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire connection")
	}
	tx, err := conn.BeginTx(ctx, txOpts)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to begin snapshot transaction")
	}

	s := &Snapshot{
		id:   uuid.NewString(),
		conn: conn,
		tx:   tx,
	}
	if pin != "" {
		if err := s.Read(ctx, func(rctx context.Context, tx *sql.Tx) error {
			var n int64
			return tx.QueryRowContext(rctx, pin).Scan(&n)
		}); err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "failed to pin snapshot")
		}
	}
	slog.Debug("opened snapshot", "snapshot", s.id)
	return s, nil
}

// ID returns an opaque identifier for log correlation.
func (s *Snapshot) ID() string {
	return s.id
}

// Read runs fn against the pinned transaction. Concurrent callers are
// serialized; the executing fn can be aborted through Interrupt, in which
// case it observes a canceled context.
func (s *Snapshot) Read(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	rctx, cancel := context.WithCancel(ctx)
	s.curMu.Lock()
	s.cancel = cancel
	s.curMu.Unlock()
	defer func() {
		s.curMu.Lock()
		s.cancel = nil
		s.curMu.Unlock()
		cancel()
	}()

	return fn(rctx, s.tx)
}

// Interrupt aborts the read currently executing on this snapshot, if any.
func (s *Snapshot) Interrupt() {
	s.curMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.curMu.Unlock()
}

// Close releases the pinned transaction and its connection. The snapshot
// must not be used afterwards.
func (s *Snapshot) Close() error {
	_ = s.tx.Rollback()
	if err := s.conn.Close(); err != nil {
		return errors.Wrap(err, "failed to release snapshot connection")
	}
	slog.Debug("closed snapshot", "snapshot", s.id)
	return nil
}
