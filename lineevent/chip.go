// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package lineevent requests edge events on GPIO lines through the GPIO
// character device and waits for them.
package lineevent

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/McCoy1701/JakesteringPi/uapi"
	"golang.org/x/sys/unix"
)

const (
	// DefaultChip is the GPIO character device controlling the header pins.
	DefaultChip = "/dev/gpiochip0"

	// DefaultConsumer is the label applied to requested lines.
	DefaultConsumer = "jakestering_gpio_irq"
)

// Source is a pollable source of edge events for a single line.
type Source interface {
	// Wait waits for an event for up to timeout, or indefinitely if timeout
	// is negative.
	//
	// Returns the edge identifier of the event, or 0 if no complete event
	// was available. Returns ErrInterrupted once Interrupt has been called.
	Wait(timeout time.Duration) (uapi.EventFlag, error)

	// Interrupt wakes any current or future Wait.
	//
	// Safe to call concurrently with Wait.
	Interrupt() error

	// Close releases the line. Must not be called concurrently with Wait.
	Close() error
}

// Chip is an open GPIO character device.
type Chip struct {
	f *os.File

	// The system name for this chip.
	Name string

	// A more individual label for the chip.
	Label string

	// The number of GPIO lines on this chip.
	lines int

	// mu covers closed.
	mu sync.Mutex

	closed bool
}

// OpenChip opens a GPIO character device.
//
// The name may be a path or a name in /dev, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	path := nameToPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChipUnavailable, err)
	}
	ci, err := uapi.GetChipInfo(f.Fd())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrChipUnavailable, path, err)
	}
	c := Chip{
		f:     f,
		Name:  uapi.BytesToString(ci.Name[:]),
		Label: uapi.BytesToString(ci.Label[:]),
		lines: int(ci.Lines),
	}
	if len(c.Label) == 0 {
		c.Label = "unknown"
	}
	return &c, nil
}

// Lines returns the number of lines on the chip.
func (c *Chip) Lines() int {
	return c.lines
}

// LineInfo returns the publicly available information on the line.
func (c *Chip) LineInfo(offset int) (uapi.LineInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return uapi.LineInfo{}, ErrClosed
	}
	if offset < 0 || offset >= c.lines {
		return uapi.LineInfo{}, ErrInvalidOffset
	}
	return uapi.GetLineInfo(c.f.Fd(), offset)
}

// RequestEdgeEvent requests the line as an input reporting the given edges.
//
// The returned Source owns the line descriptor, which is non-blocking.
func (c *Chip) RequestEdgeEvent(offset int, edges uapi.EventFlag, consumer string) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if offset < 0 || offset >= c.lines {
		return nil, fmt.Errorf("%w: %v", ErrLineRequestFailed, ErrInvalidOffset)
	}
	er := uapi.EventRequest{
		Offset:      uint32(offset),
		HandleFlags: uapi.HandleRequestInput,
		EventFlags:  edges,
	}
	copy(er.Consumer[:len(er.Consumer)-1], consumer)
	if err := uapi.GetLineEvent(c.f.Fd(), &er); err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrLineRequestFailed, offset, err)
	}
	return newLineSource(int(er.Fd))
}

// Close releases the Chip.
//
// Lines already requested remain valid until their Source is closed.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return c.f.Close()
}

// Chips returns the paths of the GPIO character devices present.
func Chips() []string {
	ee, err := os.ReadDir("/dev")
	if err != nil {
		return nil
	}
	cc := []string(nil)
	for _, e := range ee {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			cc = append(cc, "/dev/"+name)
		}
	}
	sort.Strings(cc)
	return cc
}

func nameToPath(name string) string {
	if strings.HasPrefix(name, "/") {
		return name
	}
	return "/dev/" + name
}

var (
	// ErrChipUnavailable indicates the GPIO character device could not be
	// opened.
	ErrChipUnavailable = errors.New("gpio chip unavailable")

	// ErrLineRequestFailed indicates the kernel rejected the line request,
	// typically as the line is already requested.
	ErrLineRequestFailed = errors.New("line request failed")

	// ErrNonBlockingSetFailed indicates the line descriptor could not be made
	// non-blocking.
	ErrNonBlockingSetFailed = errors.New("set non-blocking failed")

	// ErrInterrupted indicates a Wait was woken by Interrupt.
	ErrInterrupted = errors.New("wait interrupted")

	// ErrPoll indicates waiting on the line descriptor failed.
	ErrPoll = errors.New("poll error")

	// ErrClosed indicates the chip or source has already been closed.
	ErrClosed = errors.New("already closed")

	// ErrInvalidOffset indicates a line offset is invalid.
	ErrInvalidOffset = errors.New("invalid offset")
)
