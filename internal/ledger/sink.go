package ledger

import "context"

// Sink is the optional write-ahead durability observer (spec §6). An
// implementer may attach one to replay the journal on recovery; if
// durability is required the sink's write must complete before Post returns.
// The core ships one concrete implementation (internal/ledger/pebblesink)
// and is otherwise collaborator-agnostic, per the teacher's narrow
// single-method storage.DB capability idiom.
type Sink interface {
	Observe(ctx context.Context, entry Entry) error
}

// noopSink discards every entry; it is the default when no sink is configured.
type noopSink struct{}

func (noopSink) Observe(context.Context, Entry) error { return nil }
