package credentials

import (
	"errors"
	"sync"
)

// ErrEmptyPool is returned when a rotator is built without credentials.
var ErrEmptyPool = errors.New("credential pool is empty")

// Rotator hands out credentials from a fixed pool in round-robin order.
// It never runs dry: the credential returned by Next goes to the back of
// the line. Rotator is safe for concurrent use.
type Rotator struct {
	mu   sync.Mutex
	pool []string
	pos  int
}

// NewRotator creates a rotator over a private copy of pool.
func NewRotator(pool []string) (*Rotator, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	cp := make([]string, len(pool))
	copy(cp, pool)

	return &Rotator{pool: cp}, nil
}

// Next returns the credential at the front of the rotation.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.pool[r.pos]
	r.pos = (r.pos + 1) % len(r.pool)

	return cur
}

// Len returns the pool size.
func (r *Rotator) Len() int {
	return len(r.pool)
}
