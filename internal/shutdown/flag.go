package shutdown

import (
	"sync"
	"sync/atomic"
)

// Flag is a process-wide stop request. It starts false, can only be set to
// true, and is never reset. IsSet is for polling loops; Done is for goroutines
// that select on other channels as well.
type Flag struct {
	set  atomic.Bool
	once sync.Once
	done chan struct{}
}

// NewFlag returns an unset flag.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Set raises the flag. It reports whether this call was the one that raised it.
// Safe to call any number of times from any goroutine, including a signal path.
func (f *Flag) Set() bool {
	first := false
	f.once.Do(func() {
		f.set.Store(true)
		close(f.done)
		first = true
	})
	return first
}

// IsSet reports whether the flag has been raised.
func (f *Flag) IsSet() bool {
	return f.set.Load()
}

// Done returns a channel that is closed once the flag is raised.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}
