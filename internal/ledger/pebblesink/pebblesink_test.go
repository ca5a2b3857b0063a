package pebblesink

import (
	"context"
	"testing"

	"github.com/bioduds/askee/internal/crypto"
	"github.com/bioduds/askee/internal/ledger"
)

func TestObserveAndReplayPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	sink, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()
	user := crypto.HashUserID("replay-user")
	want := []ledger.Entry{
		{ID: "e1", UserHash: user, Kind: ledger.EARN, DeltaMCC: 100},
		{ID: "e2", UserHash: user, Kind: ledger.REDEEM, DeltaMCC: -40, TaskID: "task-1"},
		{ID: "e3", UserHash: user, Kind: ledger.REFUND, DeltaMCC: 10, TaskID: "task-1"},
	}
	for _, e := range want {
		if err := sink.Observe(ctx, e); err != nil {
			t.Fatalf("Observe(%s): %v", e.ID, err)
		}
	}

	var got []ledger.Entry
	if err := sink.Replay(ctx, func(e ledger.Entry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("replayed %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Kind != want[i].Kind || got[i].DeltaMCC != want[i].DeltaMCC {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestResumesSequenceAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	user := crypto.HashUserID("resume-user")

	sink, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sink.Observe(ctx, ledger.Entry{ID: "a", UserHash: user, Kind: ledger.EARN, DeltaMCC: 5}); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sink2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer sink2.Close()
	if err := sink2.Observe(ctx, ledger.Entry{ID: "b", UserHash: user, Kind: ledger.EARN, DeltaMCC: 7}); err != nil {
		t.Fatalf("Observe after reopen: %v", err)
	}

	var ids []string
	if err := sink2.Replay(ctx, func(e ledger.Entry) error {
		ids = append(ids, string(e.ID))
		return nil
	}); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("ids = %v, want [a b]", ids)
	}
}

func TestObserveAfterCloseFails(t *testing.T) {
	dir := t.TempDir()
	sink, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Observe(context.Background(), ledger.Entry{ID: "x"}); err != ErrClosed {
		t.Fatalf("Observe after close = %v, want ErrClosed", err)
	}
}
