// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package jakestering provides GPIO access for the Raspberry Pi.
//
// Pin levels, directions and pulls are driven directly through the memory
// mapped GPIO register block. Edge interrupts are requested from the kernel
// GPIO character device, and each armed pin gets its own dispatch goroutine,
// locked to a realtime OS thread, that invokes the pin's callback.
//
// A minimal program:
//
//	g, err := jakestering.Open()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer g.Close()
//	g.PinMode(25, jakestering.Input)
//	g.Arm(25, jakestering.BothEdges, func() { fmt.Println("edge") })
package jakestering

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/McCoy1701/JakesteringPi/gpiomem"
	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/McCoy1701/JakesteringPi/uapi"
)

// NumPins is the number of pins addressable through the register block.
const NumPins = 32

// Direction is the function of a pin.
type Direction = gpiomem.Direction

// Level is the electrical level of a pin.
type Level = gpiomem.Level

// Pull is the state of the internal pull resistor of a pin.
type Pull = gpiomem.Pull

const (
	Input  = gpiomem.Input
	Output = gpiomem.Output

	Low  = gpiomem.Low
	High = gpiomem.High

	PullOff  = gpiomem.PullOff
	PullDown = gpiomem.PullDown
	PullUp   = gpiomem.PullUp
)

// Edge selects the transitions that trigger an interrupt.
type Edge int

const (
	// RisingEdge triggers on a transition from low to high.
	RisingEdge Edge = 1

	// FallingEdge triggers on a transition from high to low.
	FallingEdge Edge = 2

	// BothEdges triggers on either transition.
	BothEdges = RisingEdge | FallingEdge
)

func (e Edge) String() string {
	switch e {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	}
	return fmt.Sprintf("edge(%d)", int(e))
}

func (e Edge) eventFlags() uapi.EventFlag {
	return uapi.EventFlag(e) & uapi.EventRequestBothEdges
}

// EventChip is a GPIO controller that edge events can be requested from.
//
// It is satisfied by *lineevent.Chip and *lineevent.SimChip.
type EventChip interface {
	RequestEdgeEvent(offset int, edges uapi.EventFlag, consumer string) (lineevent.Source, error)
	Close() error
}

// GPIO provides access to the pins of the GPIO controller.
type GPIO struct {
	regs *gpiomem.Registers

	// the register mapping, if owned
	mem io.Closer

	// called on Close to release the process-wide instance
	release func()

	options

	// set under mu, read locklessly by the register methods
	closed atomic.Bool

	// mu is the registration lock and covers chip and pins.
	mu   sync.Mutex
	chip EventChip
	pins [NumPins]pinState
}

var (
	openMu sync.Mutex
	opened bool
)

// Open maps the GPIO register block and returns the process-wide GPIO.
//
// Only one GPIO returned by Open may be live at a time. It is released by
// Close.
func Open(options ...Option) (*GPIO, error) {
	openMu.Lock()
	defer openMu.Unlock()
	if opened {
		return nil, ErrAlreadyOpen
	}
	o := defaultOptions()
	for _, option := range options {
		option.applyOption(&o)
	}
	m, err := gpiomem.Map(o.memDevice, o.base)
	if err != nil {
		return nil, err
	}
	g := New(gpiomem.New(m), options...)
	g.mem = m
	g.release = func() {
		openMu.Lock()
		opened = false
		openMu.Unlock()
	}
	opened = true
	return g, nil
}

// New creates a GPIO driving the provided registers.
//
// Unlike Open, New does not map the register block, so it may be used with
// simulated registers and places no limit on the number of instances.
func New(regs *gpiomem.Registers, options ...Option) *GPIO {
	g := GPIO{
		regs:    regs,
		options: defaultOptions(),
	}
	for _, option := range options {
		option.applyOption(&g.options)
	}
	return &g
}

// Close disarms all pins and releases the event chip and register mapping.
//
// Register operations made after Close return ErrClosed. One racing Close
// may complete as a no-op against the released mapping.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return ErrClosed
	}
	for p := range g.pins {
		g.disarm(p)
	}
	g.closed.Store(true)
	var err error
	if g.chip != nil {
		err = g.chip.Close()
		g.chip = nil
	}
	if g.mem != nil {
		if merr := g.mem.Close(); err == nil {
			err = merr
		}
	}
	if g.release != nil {
		g.release()
	}
	return err
}

// Registers returns the registers driven by the GPIO.
func (g *GPIO) Registers() *gpiomem.Registers {
	return g.regs
}

// PinMode sets the direction of the pin.
func (g *GPIO) PinMode(pin int, d Direction) error {
	if err := g.check(pin); err != nil {
		return err
	}
	g.regs.SetDirection(pin, d)
	return nil
}

// Mode returns the direction of the pin.
func (g *GPIO) Mode(pin int) (Direction, error) {
	if err := g.check(pin); err != nil {
		return Input, err
	}
	return g.regs.Direction(pin), nil
}

// DigitalWrite sets the output level of the pin.
func (g *GPIO) DigitalWrite(pin int, l Level) error {
	if err := g.check(pin); err != nil {
		return err
	}
	g.regs.Write(pin, l)
	return nil
}

// DigitalRead returns the current level of the pin.
func (g *GPIO) DigitalRead(pin int) (Level, error) {
	if err := g.check(pin); err != nil {
		return Low, err
	}
	return g.regs.Read(pin), nil
}

// DigitalWriteByte writes value to the eight consecutive pins from pinStart
// to pinEnd, inclusive, with the least significant bit on pinStart.
//
// The pins to clear are written before the pins to set.
func (g *GPIO) DigitalWriteByte(value uint8, pinStart, pinEnd int) error {
	if g.closed.Load() {
		return ErrClosed
	}
	if pinEnd-pinStart != 7 || pinStart < 0 || pinEnd >= NumPins {
		return ErrInvalidRange{Start: pinStart, End: pinEnd}
	}
	set := uint32(value) << uint(pinStart)
	clr := uint32(^value) << uint(pinStart)
	g.regs.WriteMask(set, clr)
	return nil
}

// SetPull sets the pull resistor of the pin.
//
// Calls for different pins share the pull control registers, so concurrent
// calls must be serialized by the caller.
func (g *GPIO) SetPull(pin int, p Pull) error {
	if err := g.check(pin); err != nil {
		return err
	}
	g.regs.SetPull(pin, p)
	return nil
}

func (g *GPIO) check(pin int) error {
	if g.closed.Load() {
		return ErrClosed
	}
	if pin < 0 || pin >= NumPins {
		return ErrInvalidPin
	}
	return nil
}

// ErrInvalidRange indicates a pin range is not eight consecutive pins within
// the controller.
type ErrInvalidRange struct {
	Start int
	End   int
}

func (e ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid pin range %d-%d, must be 8 pins within 0-%d", e.Start, e.End, NumPins-1)
}

var (
	// ErrAlreadyOpen indicates Open was called while a GPIO returned by an
	// earlier Open is still live.
	ErrAlreadyOpen = errors.New("already open")

	// ErrClosed indicates the GPIO has been closed.
	ErrClosed = errors.New("already closed")

	// ErrDispatchStartFailed indicates the dispatch goroutine for an armed
	// pin did not start in time.
	ErrDispatchStartFailed = errors.New("dispatch start failed")

	// ErrInvalidEdge indicates an edge is not rising, falling or both.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrInvalidPin indicates a pin index is outside the controller.
	ErrInvalidPin = errors.New("invalid pin")
)

