// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package lineevent

import (
	"fmt"
	"sync"
	"time"

	"github.com/McCoy1701/JakesteringPi/uapi"
	"golang.org/x/sys/unix"
)

// SimChip simulates a GPIO character device for code that requests edge
// events, such as tests and hardware-free runs.
//
// Like the kernel, it refuses a request for a line that is already
// requested.
type SimChip struct {
	mu       sync.Mutex
	live     map[int]*SimSource
	requests map[int]int
	reject   map[int]error
	closed   bool
}

// NewSimChip creates a SimChip with no lines requested.
func NewSimChip() *SimChip {
	return &SimChip{
		live:     map[int]*SimSource{},
		requests: map[int]int{},
		reject:   map[int]error{},
	}
}

// RequestEdgeEvent requests a simulated line.
func (c *SimChip) RequestEdgeEvent(offset int, edges uapi.EventFlag, consumer string) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if err, ok := c.reject[offset]; ok {
		return nil, fmt.Errorf("%w: line %d: %v", ErrLineRequestFailed, offset, err)
	}
	if _, ok := c.live[offset]; ok {
		return nil, fmt.Errorf("%w: line %d: %v", ErrLineRequestFailed, offset, unix.EBUSY)
	}
	s := &SimSource{
		offset:   offset,
		edges:    edges,
		consumer: consumer,
		chip:     c,
		events:   make(chan simEvent, 64),
		wake:     make(chan struct{}),
	}
	c.live[offset] = s
	c.requests[offset]++
	return s, nil
}

// Reject causes requests for the line to fail with err.
//
// A nil err clears the rejection.
func (c *SimChip) Reject(offset int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.reject, offset)
		return
	}
	c.reject[offset] = err
}

// Source returns the live source for the line, or nil if the line is not
// requested.
func (c *SimChip) Source(offset int) *SimSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[offset]
}

// Open returns the number of lines currently requested.
func (c *SimChip) Open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// Requests returns the number of successful requests made for the line.
func (c *SimChip) Requests(offset int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[offset]
}

// Close releases the SimChip.
func (c *SimChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return nil
}

func (c *SimChip) release(s *SimSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live[s.offset] == s {
		delete(c.live, s.offset)
	}
}

type simEvent struct {
	id  uapi.EventFlag
	err error
}

// SimSource is a simulated line with events injected by the caller.
type SimSource struct {
	offset   int
	edges    uapi.EventFlag
	consumer string
	chip     *SimChip
	events   chan simEvent

	wake     chan struct{}
	wakeOnce sync.Once

	// mu covers closed.
	mu     sync.Mutex
	closed bool
}

// Offset returns the line offset.
func (s *SimSource) Offset() int {
	return s.offset
}

// Edges returns the edges requested for the line.
func (s *SimSource) Edges() uapi.EventFlag {
	return s.edges
}

// Consumer returns the consumer label of the request.
func (s *SimSource) Consumer() string {
	return s.consumer
}

// Inject queues an event record carrying the edge identifier.
func (s *SimSource) Inject(id uapi.EventFlag) {
	s.events <- simEvent{id: id}
}

// InjectShort queues a truncated event record.
func (s *SimSource) InjectShort() {
	s.events <- simEvent{}
}

// Fail queues a wait failure.
func (s *SimSource) Fail(err error) {
	s.events <- simEvent{err: fmt.Errorf("%w: %v", ErrPoll, err)}
}

// Pending returns the number of queued events not yet waited for.
func (s *SimSource) Pending() int {
	return len(s.events)
}

// Wait implements Source.
func (s *SimSource) Wait(timeout time.Duration) (uapi.EventFlag, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	select {
	case <-s.wake:
		return 0, ErrInterrupted
	default:
	}
	var tc <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		tc = t.C
	}
	select {
	case <-s.wake:
		return 0, ErrInterrupted
	case e := <-s.events:
		return e.id, e.err
	case <-tc:
		return 0, nil
	}
}

// Interrupt implements Source.
func (s *SimSource) Interrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.wakeOnce.Do(func() { close(s.wake) })
	return nil
}

// Close implements Source.
func (s *SimSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()
	s.chip.release(s)
	return nil
}

// Closed returns true once the source has been closed.
func (s *SimSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
