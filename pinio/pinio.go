// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package pinio exposes the pins of a jakestering.GPIO as periph.io pins, so
// periph device drivers can run on top of the register access layer.
//
// Edge detection is provided by arming the pin, so it carries the same
// delivery policy: WaitForEdge only returns true for rising edges.
package pinio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/device/rpi"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pin is a GPIO pin implementing gpio.PinIO and pin.PinFunc.
type Pin struct {
	g   *jakestering.GPIO
	num int

	// mu covers pull and edge.
	mu   sync.Mutex
	pull gpio.Pull
	edge gpio.Edge

	// edges detected since the last WaitForEdge
	edges chan struct{}

	// wakes WaitForEdge on Halt
	halt chan struct{}
}

// New returns the pin with the BCM number on the GPIO.
func New(g *jakestering.GPIO, num int) (*Pin, error) {
	if num < 0 || num >= jakestering.NumPins {
		return nil, jakestering.ErrInvalidPin
	}
	return &Pin{
		g:     g,
		num:   num,
		pull:  gpio.PullNoChange,
		edges: make(chan struct{}, 1),
		halt:  make(chan struct{}, 1),
	}, nil
}

// Register creates the pins brought out to the J8 header and registers them
// with gpioreg, along with aliases of their J8 names.
//
// Pins are named GPIOn.
func Register(g *jakestering.GPIO) ([]*Pin, error) {
	pp := []*Pin(nil)
	for num := rpi.GPIO0; num < rpi.MaxGPIOPin; num++ {
		p, err := New(g, num)
		if err != nil {
			return nil, err
		}
		if err = gpioreg.Register(p); err != nil {
			return nil, err
		}
		if err = gpioreg.RegisterAlias(rpi.Name(num), p.Name()); err != nil {
			return nil, err
		}
		pp = append(pp, p)
	}
	return pp, nil
}

// Unregister removes pins, and their aliases, from gpioreg.
func Unregister(pp []*Pin) error {
	var err error
	for _, p := range pp {
		p.Halt()
		if uerr := gpioreg.Unregister(rpi.Name(p.num)); uerr != nil && err == nil {
			err = uerr
		}
		if uerr := gpioreg.Unregister(p.Name()); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.Name()
}

// Halt stops edge detection and wakes any WaitForEdge.
func (p *Pin) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopEdges()
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return fmt.Sprintf("GPIO%d", p.num)
}

// Number returns the BCM pin number.
func (p *Pin) Number() int {
	return p.num
}

// Function implements pin.Pin.
//
// Deprecated: Use Func.
func (p *Pin) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func {
	d, err := p.g.Mode(p.num)
	if err != nil {
		return pin.FuncNone
	}
	l := p.Read()
	if d == jakestering.Output {
		if l {
			return gpio.OUT_HIGH
		}
		return gpio.OUT_LOW
	}
	if l {
		return gpio.IN_HIGH
	}
	return gpio.IN_LOW
}

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.IN, gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (p *Pin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.FLOAT:
		return p.In(gpio.Float, gpio.NoEdge)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	}
	return ErrUnsupportedFunc
}

// In sets the pin as an input with the pull and, for an edge other than
// NoEdge, arms the pin to detect edges for WaitForEdge.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stopEdges(); err != nil {
		return err
	}
	if err := p.g.PinMode(p.num, jakestering.Input); err != nil {
		return err
	}
	if pull != gpio.PullNoChange {
		if err := p.g.SetPull(p.num, toPull(pull)); err != nil {
			return err
		}
		p.pull = pull
	}
	if edge == gpio.NoEdge {
		return nil
	}
	if err := p.g.Arm(p.num, jakestering.Edge(edge), p.edgeDetected); err != nil {
		return err
	}
	p.edge = edge
	return nil
}

// stopEdges requires mu to be held.
func (p *Pin) stopEdges() error {
	if p.edge == gpio.NoEdge {
		return nil
	}
	p.edge = gpio.NoEdge
	err := p.g.Disarm(p.num)
	select {
	case <-p.edges:
	default:
	}
	select {
	case p.halt <- struct{}{}:
	default:
	}
	return err
}

func (p *Pin) edgeDetected() {
	select {
	case p.edges <- struct{}{}:
	default:
		// already pending
	}
}

// Read returns the current level of the pin.
func (p *Pin) Read() gpio.Level {
	l, err := p.g.DigitalRead(p.num)
	if err != nil {
		return gpio.Low
	}
	return l == jakestering.High
}

// WaitForEdge waits for the next edge, or returns immediately if an edge
// occurred since the last call.
//
// A negative timeout waits indefinitely.
// Returns false on timeout, or if the pin is halted or reconfigured while
// waiting.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	select {
	case <-p.edges:
		return true
	case <-p.halt:
	default:
	}
	var tc <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		tc = t.C
	}
	select {
	case <-p.edges:
		return true
	case <-p.halt:
		return false
	case <-tc:
		return false
	}
}

// Pull returns the pull last set by In, or PullNoChange if none has been set.
//
// The pull cannot be read back from the hardware.
func (p *Pin) Pull() gpio.Pull {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pull
}

// DefaultPull returns the pull applied at reset.
func (p *Pin) DefaultPull() gpio.Pull {
	if p.num <= 8 {
		return gpio.PullUp
	}
	return gpio.PullDown
}

// Out sets the pin as an output at the level.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.stopEdges(); err != nil {
		return err
	}
	// set the level before enabling the driver
	if err := p.g.DigitalWrite(p.num, toLevel(l)); err != nil {
		return err
	}
	return p.g.PinMode(p.num, jakestering.Output)
}

// PWM is not supported.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return ErrPWMNotSupported
}

func toLevel(l gpio.Level) jakestering.Level {
	if l {
		return jakestering.High
	}
	return jakestering.Low
}

func toPull(pull gpio.Pull) jakestering.Pull {
	switch pull {
	case gpio.PullUp:
		return jakestering.PullUp
	case gpio.PullDown:
		return jakestering.PullDown
	}
	return jakestering.PullOff
}

var (
	// ErrPWMNotSupported indicates PWM was requested from a pin.
	ErrPWMNotSupported = errors.New("pwm not supported")

	// ErrUnsupportedFunc indicates SetFunc was passed a function other than
	// input or output.
	ErrUnsupportedFunc = errors.New("unsupported function")
)

var (
	_ gpio.PinIO  = (*Pin)(nil)
	_ pin.PinFunc = (*Pin)(nil)
)
