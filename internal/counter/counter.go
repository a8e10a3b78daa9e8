// Package counter issues sequential document numbers per kind and period.
//
// Numbering is two-phase: Reserve computes the next number and holds the
// counter until the caller either commits the reservation, which persists the
// consumed serial, or releases it, which leaves the state untouched. Holding
// the counter across the render means two concurrent generations can never be
// given the same number.
package counter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pacioli-dev/pacioli/internal/model"
)

// ErrReservationDone is returned when a reservation is committed twice or
// committed after release.
var ErrReservationDone = errors.New("reservation already committed or released")

// Counter is a store of numbering state.
type Counter interface {
	// Peek returns the number the next reservation would receive.
	Peek(ctx context.Context, kind model.Kind) (string, error)
	// Reserve claims the next number. The caller must Commit or Release.
	Reserve(ctx context.Context, kind model.Kind) (*Reservation, error)
}

// Reservation is a claimed, not yet persisted, document number.
type Reservation struct {
	Kind   model.Kind
	Number string

	mu      sync.Mutex
	done    bool
	commit  func() error
	release func()
}

func newReservation(kind model.Kind, number string, commit func() error, release func()) *Reservation {
	return &Reservation{Kind: kind, Number: number, commit: commit, release: release}
}

// Commit persists the consumed serial and frees the counter. The counter is
// freed even when persisting fails.
func (r *Reservation) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrReservationDone
	}
	r.done = true
	defer r.release()
	return r.commit()
}

// Release frees the counter without changing state. It is a no-op after
// Commit or a previous Release, so it is safe to defer.
func (r *Reservation) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.release()
}

type options struct {
	now        func() time.Time
	retryDelay time.Duration
}

// Option configures a FileStore or Memory counter.
type Option func(*options)

// WithClock sets the time source used to pick the numbering period.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRetryDelay sets how often a blocked lock acquisition is retried.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) { o.retryDelay = d }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, retryDelay: 20 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
