// Package pebblesink is a durable ledger.Sink backed by a pebble key-value
// store, adapted from the teacher's internal/storage/database/pebble
// wrapper. Keys are big-endian sequence numbers so Replay can stream the
// journal back out in post order on recovery.
package pebblesink

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/bioduds/askee/internal/ledger"
)

// ErrClosed is returned once the sink has been closed.
var ErrClosed = errors.New("pebblesink: closed")

// Sink persists ledger.Entry values to a pebble database in append order.
type Sink struct {
	mu   sync.Mutex
	db   *pebble.DB
	next atomic.Uint64
	closed atomic.Bool
}

// Open creates or reopens a pebble store at dir and scans it to resume the
// sequence counter after the highest key already written.
func Open(dir string) (*Sink, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebblesink: opening %s: %w", dir, err)
	}

	s := &Sink{db: db}
	seq, found, err := highestSequence(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if found {
		s.next.Store(seq + 1)
	}
	return s, nil
}

// Observe implements ledger.Sink, writing entry synchronously (pebble.Sync)
// so a crash cannot lose an acknowledged post (spec §6).
func (s *Sink) Observe(ctx context.Context, entry ledger.Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("pebblesink: marshal entry: %w", err)
	}

	s.mu.Lock()
	seq := s.next.Add(1) - 1
	err = s.db.Set(sequenceKey(seq), payload, pebble.Sync)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("pebblesink: write entry: %w", err)
	}
	return nil
}

// Replay streams every persisted entry back in the order it was written, for
// rebuilding a Ledger's in-memory state on startup.
func (s *Sink) Replay(ctx context.Context, fn func(ledger.Entry) error) error {
	if s.closed.Load() {
		return ErrClosed
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return fmt.Errorf("pebblesink: iterator: %w", err)
	}
	defer iter.Close()

	for valid := iter.First(); valid; valid = iter.Next() {
		var entry ledger.Entry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return fmt.Errorf("pebblesink: decode entry: %w", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Close releases the underlying pebble handle.
func (s *Sink) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func highestSequence(db *pebble.DB) (seq uint64, found bool, err error) {
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, false, fmt.Errorf("pebblesink: iterator: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, false, nil
	}
	key := iter.Key()
	if len(key) != 8 {
		return 0, false, fmt.Errorf("pebblesink: malformed key length %d", len(key))
	}
	return binary.BigEndian.Uint64(key), true, nil
}
