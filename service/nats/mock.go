package nats

import (
	"context"
	"sync"
)

// MockPublisher keeps published events in memory.
type MockPublisher struct {
	mu     sync.Mutex
	events []*TransactionEvent
	closed bool

	// budget is how many more events succeed before err is returned;
	// negative means unlimited.
	budget int
	err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{budget: -1}
}

// PublishTransactionBatch appends events until the failure budget runs out.
func (m *MockPublisher) PublishTransactionBatch(ctx context.Context, events []*TransactionEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, event := range events {
		if m.budget == 0 {
			return i, m.err
		}
		if m.budget > 0 {
			m.budget--
		}
		m.events = append(m.events, event)
	}
	return len(events), nil
}

// FailAfter lets n more events through and then fails every publish with err.
// A nil err clears the failure.
func (m *MockPublisher) FailAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.budget, m.err = -1, nil
		return
	}
	m.budget, m.err = n, err
}

// SetPublishError makes every publish fail with err; nil restores success.
func (m *MockPublisher) SetPublishError(err error) {
	m.FailAfter(0, err)
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of everything published so far, optionally limited
// to one blockchain.
func (m *MockPublisher) Events(blockchain ...string) []*TransactionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*TransactionEvent, 0, len(m.events))
	for _, event := range m.events {
		if len(blockchain) > 0 && event.Blockchain != blockchain[0] {
			continue
		}
		out = append(out, event)
	}
	return out
}

func (m *MockPublisher) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
