package counter

import (
	"context"
	"sync"

	"github.com/pacioli-dev/pacioli/internal/model"
)

const memoryPath = "<memory>"

// Memory is an in-process Counter with the same semantics as FileStore.
type Memory struct {
	sem  chan struct{} // held from Reserve until Commit or Release
	mu   sync.Mutex
	st   *State
	opts options
}

var _ Counter = (*Memory)(nil)

// NewMemory creates a Memory counter starting from a copy of st.
func NewMemory(st *State, opts ...Option) *Memory {
	return &Memory{sem: make(chan struct{}, 1), st: st.Clone(), opts: buildOptions(opts)}
}

// State returns a copy of the current state.
func (m *Memory) State() *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Clone()
}

// Peek returns the next number for kind.
func (m *Memory) Peek(_ context.Context, kind model.Kind) (string, error) {
	if _, err := model.ParseKind(string(kind)); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.bucket(kind)
	if err != nil {
		return "", err
	}
	return b.issue(m.opts.now()).String(), nil
}

// Reserve waits for any outstanding reservation to finish, then claims the
// next number for kind.
func (m *Memory) Reserve(ctx context.Context, kind model.Kind) (*Reservation, error) {
	if _, err := model.ParseKind(string(kind)); err != nil {
		return nil, err
	}
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-m.sem }

	m.mu.Lock()
	b, err := m.bucket(kind)
	if err != nil {
		m.mu.Unlock()
		release()
		return nil, err
	}
	number := b.issue(m.opts.now()).String()
	m.mu.Unlock()

	commit := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		b := m.st.Bucket(kind)
		after, err := b.consume(number)
		if err != nil {
			return model.NewCounterStateError(memoryPath, "recording issued number", err)
		}
		*b = after
		return nil
	}
	return newReservation(kind, number, commit, release), nil
}

// bucket must be called with mu held.
func (m *Memory) bucket(kind model.Kind) (*Bucket, error) {
	if reason := m.st.problem(); reason != "" {
		return nil, model.NewCounterStateError(memoryPath, reason, nil)
	}
	return m.st.Bucket(kind), nil
}
