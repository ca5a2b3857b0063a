package discovery

import (
	"context"
	"sync"
)

// Transport is the narrow capability the discovery manager uses to publish
// and scan for signals (spec §6: "Dynamic dispatch of executor / discovery /
// sink" — publish and scan only, no concrete implementation assumed). A real
// implementation would speak DNS TXT records, a .well-known HTTP fetch, or
// decode a scanned QR payload; the kernel only ever sees this interface.
type Transport interface {
	Publish(ctx context.Context, channel Channel, payload string) error
	Scan(ctx context.Context, channel Channel) ([]string, error)
}

// InMemoryTransport is a Transport fake grounded on the teacher's in-memory
// peer table (internal/peermanagement/discovery.Discovery): a single mutex
// guards a map, with no real network I/O. It exists for tests and for
// embedders that run discovery entirely in-process.
type InMemoryTransport struct {
	mu      sync.RWMutex
	signals map[Channel][]string
}

// NewInMemoryTransport returns an empty in-memory transport.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{signals: make(map[Channel][]string)}
}

// Publish appends payload to channel's in-memory queue.
func (t *InMemoryTransport) Publish(ctx context.Context, channel Channel, payload string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signals[channel] = append(t.signals[channel], payload)
	return nil
}

// Scan returns and drains every payload published to channel.
func (t *InMemoryTransport) Scan(ctx context.Context, channel Channel) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.signals[channel]
	t.signals[channel] = nil
	return out, nil
}
