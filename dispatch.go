// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package jakestering

import (
	"errors"
	"log"
	"runtime"

	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/McCoy1701/JakesteringPi/uapi"
)

// dispatcher waits on the event source of one armed pin and invokes its
// callback.
type dispatcher struct {
	pin int
	src lineevent.Source
	cb  func()

	// event observed but callback not yet invoked for it.
	// Only accessed by the dispatch goroutine.
	pending bool

	// receives once the goroutine is running on its own thread
	started chan struct{}

	// closed if the arming caller gives up waiting for started
	abandon chan struct{}

	// closed once the goroutine exits
	done chan struct{}

	// the poll error that ended the loop, valid once done is closed
	err error
}

func newDispatcher(pin int, src lineevent.Source, cb func()) *dispatcher {
	return &dispatcher{
		pin:     pin,
		src:     src,
		cb:      cb,
		started: make(chan struct{}),
		abandon: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// run is the body of the dispatch goroutine.
//
// The goroutine stays locked to its OS thread so the thread, with its
// elevated scheduling, is discarded when the goroutine exits.
func (d *dispatcher) run(priority int, setPriority func(int) error, logger *log.Logger) {
	runtime.LockOSThread()
	if priority > 0 {
		if err := setPriority(priority); err != nil {
			logger.Printf("pin %d: realtime priority %d: %v", d.pin, priority, err)
		}
	}
	select {
	case d.started <- struct{}{}:
	case <-d.abandon:
		// the source is released by the arming caller
		return
	}
	defer close(d.done)
	defer d.src.Close()
	for {
		id, err := d.src.Wait(-1)
		if err != nil {
			if !errors.Is(err, lineevent.ErrInterrupted) {
				logger.Printf("pin %d: %v", d.pin, err)
				d.err = err
			}
			return
		}
		// only rising edges are delivered, even when falling edges are
		// requested
		if id == uapi.EventRequestRisingEdge {
			d.pending = true
		}
		if d.pending && d.cb != nil {
			d.cb()
			d.pending = false
		}
	}
}

// stop interrupts the dispatch goroutine and waits for it to exit.
func (d *dispatcher) stop() {
	// ErrClosed if the goroutine already exited on a poll error
	d.src.Interrupt()
	<-d.done
}

// exited returns true if the dispatch goroutine has exited.
func (d *dispatcher) exited() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
