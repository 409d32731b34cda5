package treasury

import "sync"

// Latest keeps the result of the most recent request when requests overlap.
// Begin issues a monotonically increasing token; Complete stores a value only
// when its token is the most recently issued one, so a slow older request
// can never overwrite the answer to a newer one.
type Latest[T any] struct {
	mu       sync.Mutex
	issued   uint64
	accepted uint64
	value    T
	ok       bool
}

// Begin registers a new request and returns its token.
func (l *Latest[T]) Begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issued++
	return l.issued
}

// Complete offers the result of the request identified by token. It reports
// whether the value was kept.
func (l *Latest[T]) Complete(token uint64, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.issued || token <= l.accepted {
		return false
	}
	l.accepted = token
	l.value = v
	l.ok = true
	return true
}

// Get returns the last kept value and its token.
func (l *Latest[T]) Get() (T, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.accepted, l.ok
}
