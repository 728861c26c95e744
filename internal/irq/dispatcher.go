// Package irq runs interrupt work outside interrupt context.
//
// Interrupt handlers call Post, which only sets a flag and pokes a wake
// channel; it never blocks or allocates. One worker goroutine then runs the
// registered handler for every flagged source, in source order. Repeated
// posts of a source before its handler runs are coalesced into one run,
// so no source is ever dropped.
package irq

import (
	"context"
	"sync/atomic"
)

// MaxSources bounds the handler table.
const MaxSources = 8

// Source is a small integer naming one interrupt source. Lower sources are
// served first when several are pending.
type Source uint8

type Handler func()

type Dispatcher struct {
	handlers  [MaxSources]Handler
	pending   [MaxSources]uint32
	wake      chan struct{}
	stopped   chan struct{}
	coalesced uint32
	runs      uint32
}

func New() *Dispatcher {
	return &Dispatcher{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Handle registers h for src. Call before Start.
func (d *Dispatcher) Handle(src Source, h Handler) {
	if int(src) >= MaxSources {
		panic("irq: source out of range")
	}
	d.handlers[src] = h
}

// Post flags src for service. Safe from interrupt context.
func (d *Dispatcher) Post(src Source) {
	if int(src) >= MaxSources {
		return
	}
	if atomic.SwapUint32(&d.pending[src], 1) == 1 {
		atomic.AddUint32(&d.coalesced, 1)
	}
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker; it exits when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
				d.drain()
			}
		}
	}()
}

// RunPending services every flagged source once on the caller's goroutine.
// The worker does the same; this is for tests and for polling setups.
func (d *Dispatcher) RunPending() { d.drain() }

func (d *Dispatcher) drain() {
	for i := range d.pending {
		if atomic.SwapUint32(&d.pending[i], 0) == 0 {
			continue
		}
		if h := d.handlers[i]; h != nil {
			atomic.AddUint32(&d.runs, 1)
			h()
		}
	}
}

// Stopped is closed once the worker has exited.
func (d *Dispatcher) Stopped() <-chan struct{} { return d.stopped }

// Coalesced counts posts merged into an already pending one.
func (d *Dispatcher) Coalesced() uint32 { return atomic.LoadUint32(&d.coalesced) }

// Runs counts handler invocations.
func (d *Dispatcher) Runs() uint32 { return atomic.LoadUint32(&d.runs) }
