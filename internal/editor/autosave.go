package editor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Autosaver invokes a save callback on a fixed interval while the
// session is eligible. It is the driver an editing client runs against
// the interval the session endpoint reports as autosaveSeconds; the API
// server itself never constructs one. The editing session owns one
// Autosaver and must Stop it when the session ends so the timer never
// fires against a closed session.
type Autosaver struct {
	interval time.Duration
	eligible func() bool
	save     func(context.Context)

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewAutosaver builds a stopped autosaver. eligible is consulted before
// every tick's save; save receives a context cancelled on Stop.
func NewAutosaver(interval time.Duration, eligible func() bool, save func(context.Context)) *Autosaver {
	return &Autosaver{
		interval: interval,
		eligible: eligible,
		save:     save,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking. It returns immediately.
func (a *Autosaver) Start() {
	a.startOnce.Do(func() {
		a.started.Store(true)
		go a.run()
	})
}

func (a *Autosaver) run() {
	defer close(a.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-a.stop
		cancel()
	}()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if !a.eligible() {
				continue
			}
			// A save still in flight when Stop arrives may finish or
			// fail on its own; no new saves are issued after Stop.
			a.save(ctx)
		}
	}
}

// Stop cancels the timer and waits for the tick loop to exit. Safe to
// call more than once, or without a prior Start.
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	if a.started.Load() {
		<-a.done
	}
}
