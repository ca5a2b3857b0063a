package cli

import (
	"context"
	"fmt"

	"github.com/bioduds/askee/internal/ledger"
	"github.com/bioduds/askee/internal/ledger/pebblesink"
)

// replayLedger opens the pebble sink at dir and folds its journal into a
// fresh ledger.Ledger via Ledger.Restore — the read path for CLI commands
// that inspect durable state without risking a write (spec §6: the sink is
// a write-ahead observer; recovery replays it to reconstruct state). The
// sink is closed before the ledger is returned, so any later post to it
// fails instead of writing.
//
// The journal alone cannot distinguish a reserve-time REDEEM from a direct
// Ledger.Spend REDEEM (both are posted as the same entry shape), so a
// replayed ledger never reconstructs outstanding holds; Restore counts any
// amount still held as released, so balances and the conservation check
// stay consistent (spec §6: holds are core in-memory state, not part of the
// durable wire format).
func replayLedger(ctx context.Context, dir string) (*ledger.Ledger, error) {
	sink, err := pebblesink.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening sink at %s: %w", dir, err)
	}
	defer sink.Close()

	l, err := ledger.New(ledger.Config{Sink: sink})
	if err != nil {
		return nil, err
	}

	if err := l.Restore(ctx); err != nil {
		return nil, fmt.Errorf("replaying journal: %w", err)
	}
	return l, nil
}
