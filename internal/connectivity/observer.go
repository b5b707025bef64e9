// Package connectivity tracks whether the remote backend is reachable and
// signals subscribers each time the device comes back online.
package connectivity

import (
	"log/slog"
	"sync"
)

// Observer holds the current online state. Every offline to online
// transition is delivered to each subscriber as a single coalesced signal.
type Observer struct {
	mu     sync.RWMutex
	online bool
	subs   map[int]chan struct{}
	nextID int
}

// NewObserver creates an Observer with the given initial state.
func NewObserver(online bool) *Observer {
	return &Observer{
		online: online,
		subs:   make(map[int]chan struct{}),
	}
}

// IsOnline reports the last known state.
func (o *Observer) IsOnline() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.online
}

// Set records a new state and reports whether it changed. On the online
// edge every subscriber is signalled without blocking.
func (o *Observer) Set(online bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.online == online {
		return false
	}
	o.online = online

	slog.Info("connectivity changed", "online", online)

	if online {
		for _, ch := range o.subs {
			select {
			case ch <- struct{}{}:
			default:
				// A signal is already waiting; the subscriber will see it.
			}
		}
	}
	return true
}

// Subscribe returns a channel that receives a value after each online edge,
// and a func that releases the subscription.
func (o *Observer) Subscribe() (<-chan struct{}, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	ch := make(chan struct{}, 1)
	o.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
	return ch, cancel
}
