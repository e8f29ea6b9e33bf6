package store

import "sync"

// Listener receives the new snapshot after every change.
type Listener[S any] func(S)

// Container is a subscribable holder for a single piece of state.
// Listeners are invoked outside the state lock, after the change is visible to Get.
// Notifications are delivered one update at a time, in the order the updates were applied,
// so a listener must not call Update on the same container.
type Container[S any] struct {
	notifyMu  sync.Mutex
	mu        sync.RWMutex
	state     S
	nextID    int
	listeners map[int]Listener[S]
}

// NewContainer creates a container holding initial.
func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{
		state:     initial,
		listeners: make(map[int]Listener[S]),
	}
}

// Get returns the current snapshot.
func (c *Container[S]) Get() S {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Update replaces the state with fn(current) and notifies listeners.
func (c *Container[S]) Update(fn func(S) S) S {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	next := fn(c.state)
	c.state = next
	listeners := make([]Listener[S], 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
	return next
}

// Subscribe registers l and returns a function that removes it.
func (c *Container[S]) Subscribe(l Listener[S]) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}
