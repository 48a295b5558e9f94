// Package connwatch tracks the connectivity of a remote dependency by probing
// it periodically, and reports the transitions through lifecycle hooks.
//
// A dependency that stops answering fires BeforeReconnect once; when it answers
// again AfterReconnect fires. If it stays unreachable for longer than the
// fatal threshold, OnError fires once with the last probe error. The store and
// the transport adapters each own one Watcher; bootstrap code installs the
// hooks.
package connwatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ProbeFunc checks the dependency and returns nil when it is reachable.
type ProbeFunc func(ctx context.Context) error

// Hooks are invoked on connectivity transitions. Nil hooks are skipped.
type Hooks struct {
	BeforeReconnect func()
	AfterReconnect  func()
	OnError         func(err error)
}

// Watcher probes one dependency.
type Watcher struct {
	probe      ProbeFunc
	interval   time.Duration
	fatalAfter time.Duration
	now        func() time.Time

	connected atomic.Bool

	mu         sync.Mutex
	hooks      Hooks
	downSince  time.Time
	fatalFired bool
}

// New creates a Watcher. A zero fatalAfter disables the fatal hook.
func New(probe ProbeFunc, interval, fatalAfter time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		probe:      probe,
		interval:   interval,
		fatalAfter: fatalAfter,
		now:        time.Now,
	}
}

// SetHooks replaces the lifecycle hooks.
func (w *Watcher) SetHooks(h Hooks) {
	w.mu.Lock()
	w.hooks = h
	w.mu.Unlock()
}

// MarkConnected records the initial state without firing hooks.
func (w *Watcher) MarkConnected(connected bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected.Store(connected)
	if connected {
		w.downSince = time.Time{}
	} else {
		w.downSince = w.now()
	}
}

// Connected reports the last observed state.
func (w *Watcher) Connected() bool {
	return w.connected.Load()
}

// Run probes until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one probe and fires the hooks for any transition it observes.
func (w *Watcher) Check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	err := w.probe(probeCtx)
	cancel()
	if err != nil && ctx.Err() != nil {
		return
	}

	w.mu.Lock()
	hooks := w.hooks
	var fire func()
	switch {
	case err == nil && !w.connected.Load():
		w.connected.Store(true)
		w.downSince = time.Time{}
		w.fatalFired = false
		fire = hooks.AfterReconnect
	case err != nil && w.connected.Load():
		w.connected.Store(false)
		w.downSince = w.now()
		fire = hooks.BeforeReconnect
	case err != nil && w.fatalAfter > 0 && !w.fatalFired && w.now().Sub(w.downSince) >= w.fatalAfter:
		w.fatalFired = true
		if hooks.OnError != nil {
			fire = func() { hooks.OnError(err) }
		}
	}
	w.mu.Unlock()

	if fire != nil {
		fire()
	}
}
