// Package lease provides per-key mutual exclusion for scenario computation.
package lease

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = eris.New("lease: held by another holder")

// Locker hands out exclusive leases keyed by string. Acquire does not block:
// it either returns a release func or ErrHeld. Release is idempotent.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Locker.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an empty in-process Locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "lease: acquire")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, eris.Wrapf(ErrHeld, "key %s", key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}
