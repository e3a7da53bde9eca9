// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package jakestering

import (
	"time"
)

// pinState is the interrupt state of a pin.
//
// Covered by the GPIO registration lock.
type pinState struct {
	// nil while unarmed
	d    *dispatcher
	edge Edge

	// the poll error that ended the most recent dispatch
	err error
}

// Arm requests edge events for the pin and starts a dispatch goroutine that
// calls cb for each event delivered.
//
// Only rising edges are delivered, so a pin armed for FallingEdge never calls
// cb, and a pin armed for BothEdges calls cb once per rising edge.
//
// If the pin is already armed it is disarmed first.
// The callback runs on the pin's dispatch goroutine, never concurrently with
// itself, and must not call the GPIO's Arm, Disarm, Armed or Err methods.
// Returns once the dispatch goroutine is running.
func (g *GPIO) Arm(pin int, edge Edge, cb func()) error {
	if pin < 0 || pin >= NumPins {
		return ErrInvalidPin
	}
	if edge.eventFlags() == 0 || edge&^BothEdges != 0 {
		return ErrInvalidEdge
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return ErrClosed
	}
	g.disarm(pin)
	g.pins[pin].err = nil
	if g.chip == nil {
		c, err := g.openChip(g.chipPath)
		if err != nil {
			return err
		}
		g.chip = c
	}
	src, err := g.chip.RequestEdgeEvent(pin, edge.eventFlags(), g.consumer)
	if err != nil {
		return err
	}
	d := newDispatcher(pin, src, cb)
	go d.run(g.priority, g.setPriority, g.logger)
	t := time.NewTimer(g.startTimeout)
	defer t.Stop()
	select {
	case <-d.started:
	case <-t.C:
		close(d.abandon)
		src.Close()
		return ErrDispatchStartFailed
	}
	g.pins[pin].d = d
	g.pins[pin].edge = edge
	return nil
}

// Disarm stops the dispatch goroutine of the pin and releases its line.
//
// Disarming an unarmed pin does nothing.
func (g *GPIO) Disarm(pin int) error {
	if pin < 0 || pin >= NumPins {
		return ErrInvalidPin
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disarm(pin)
	return nil
}

// disarm requires the registration lock to be held.
func (g *GPIO) disarm(pin int) {
	ps := &g.pins[pin]
	if ps.d == nil {
		return
	}
	ps.d.stop()
	if ps.d.err != nil {
		ps.err = ps.d.err
	}
	ps.d = nil
	ps.edge = 0
}

// Armed returns true if the pin has a running dispatch goroutine.
//
// A pin whose dispatch goroutine exited on a poll error is no longer armed,
// and the error is available from Err.
func (g *GPIO) Armed(pin int) bool {
	if pin < 0 || pin >= NumPins {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.pins[pin].d
	return d != nil && !d.exited()
}

// ArmedEdge returns the edge the pin is armed for, or 0 if unarmed.
func (g *GPIO) ArmedEdge(pin int) Edge {
	if pin < 0 || pin >= NumPins {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pins[pin].edge
}

// Err returns the poll error that ended the pin's most recent dispatch
// goroutine, or nil if there was none.
//
// The error is cleared by the next Arm of the pin.
func (g *GPIO) Err(pin int) error {
	if pin < 0 || pin >= NumPins {
		return ErrInvalidPin
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ps := &g.pins[pin]
	if ps.d != nil && ps.d.exited() {
		return ps.d.err
	}
	return ps.err
}
