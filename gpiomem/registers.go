// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package gpiomem provides access to the BCM2835 GPIO register block.
//
// Only bank 0 (pins 0-31) is addressed. Pin indices are not validated here;
// callers must keep them in range.
//
// Level writes go through the write-1-to-set and write-1-to-clear registers,
// so concurrent writes to different pins never interfere. Function select
// updates are read-modify-write and are serialized internally. The pull
// sequence is not serialized and callers that set pulls concurrently must
// provide their own locking.
package gpiomem

import (
	"sync"
	"time"
)

// Register word offsets within the block.
const (
	RegFsel0   = 0
	RegSet0    = 7
	RegClr0    = 10
	RegLev0    = 13
	RegPud     = 37
	RegPudClk0 = 38

	// NumRegs is the number of 32-bit words in the block.
	NumRegs = 41
)

// PullSettle is the minimum time the pull sequence waits between steps.
const PullSettle = 5 * time.Microsecond

// Block is a 32-bit register file.
type Block interface {
	Load(reg int) uint32
	Store(reg int, v uint32)
}

// Direction is the function of a pin.
type Direction int

const (
	// Input configures the pin as an input.
	Input Direction = iota

	// Output configures the pin as an output.
	Output
)

// Level is the electrical level of a pin.
type Level int

const (
	// Low is logic 0.
	Low Level = iota

	// High is logic 1.
	High
)

// Pull is the state of the internal pull resistor of a pin.
type Pull int

const (
	// PullOff disables the pull resistor.
	PullOff Pull = iota

	// PullDown enables the pull-down resistor.
	PullDown

	// PullUp enables the pull-up resistor.
	PullUp
)

// Registers performs the GPIO register access protocol on a Block.
type Registers struct {
	b     Block
	sleep func(time.Duration)

	// fselMu covers the read-modify-write of the function select registers.
	fselMu sync.Mutex
}

// Option configures Registers.
type Option func(*Registers)

// WithSleep replaces the delay used in timed sequences.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Registers) {
		r.sleep = sleep
	}
}

// New creates the register access layer on b.
func New(b Block, options ...Option) *Registers {
	r := Registers{b: b, sleep: time.Sleep}
	for _, option := range options {
		option(&r)
	}
	return &r
}

// Block returns the underlying register block.
func (r *Registers) Block() Block {
	return r.b
}

// SetDirection sets the function of the pin to input or output.
func (r *Registers) SetDirection(pin int, d Direction) {
	reg := RegFsel0 + pin/10
	shift := uint(pin%10) * 3
	r.fselMu.Lock()
	defer r.fselMu.Unlock()
	v := r.b.Load(reg) &^ (7 << shift)
	if d == Output {
		v |= 1 << shift
	}
	r.b.Store(reg, v)
}

// Direction returns the function of the pin.
//
// Alternate functions are reported as Input.
func (r *Registers) Direction(pin int) Direction {
	reg := RegFsel0 + pin/10
	shift := uint(pin%10) * 3
	if (r.b.Load(reg)>>shift)&7 == 1 {
		return Output
	}
	return Input
}

// Write sets the output level of the pin.
func (r *Registers) Write(pin int, l Level) {
	if l == Low {
		r.b.Store(RegClr0, 1<<uint(pin))
		return
	}
	r.b.Store(RegSet0, 1<<uint(pin))
}

// WriteMask clears the pins in clr then sets the pins in set.
func (r *Registers) WriteMask(set, clr uint32) {
	r.b.Store(RegClr0, clr)
	r.b.Store(RegSet0, set)
}

// Read returns the current level of the pin.
func (r *Registers) Read(pin int) Level {
	if r.b.Load(RegLev0)&(1<<uint(pin)) != 0 {
		return High
	}
	return Low
}

// Levels returns the levels of all bank 0 pins.
func (r *Registers) Levels() uint32 {
	return r.b.Load(RegLev0)
}

// SetPull latches the pull state of the pin.
func (r *Registers) SetPull(pin int, p Pull) {
	r.b.Store(RegPud, uint32(p)&3)
	r.sleep(PullSettle)
	r.b.Store(RegPudClk0, 1<<uint(pin))
	r.sleep(PullSettle)
	r.b.Store(RegPud, 0)
	r.b.Store(RegPudClk0, 0)
}

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

func (p Pull) String() string {
	switch p {
	case PullDown:
		return "pull-down"
	case PullUp:
		return "pull-up"
	default:
		return "disabled"
	}
}
