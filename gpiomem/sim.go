// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiomem

import (
	"fmt"
	"sync"
	"time"
)

// Sim is a Block emulating the GPIO register file in memory.
//
// Stores to the set and clear registers update the level register, as the
// hardware does for output pins, and read back as zero. Accesses may be
// recorded for inspection.
type Sim struct {
	mu      sync.Mutex
	regs    [NumRegs]uint32
	tracing bool
	trace   []Access
}

// AccessKind identifies an entry in a Sim trace.
type AccessKind int

const (
	// AccessLoad is a register read.
	AccessLoad AccessKind = iota

	// AccessStore is a register write.
	AccessStore

	// AccessDelay is a delay in a timed sequence.
	AccessDelay
)

// Access is a single recorded operation on a Sim.
type Access struct {
	Kind  AccessKind
	Reg   int
	Value uint32
	Delay time.Duration
}

func (a Access) String() string {
	switch a.Kind {
	case AccessLoad:
		return fmt.Sprintf("load[%d]=0x%08x", a.Reg, a.Value)
	case AccessStore:
		return fmt.Sprintf("store[%d]=0x%08x", a.Reg, a.Value)
	default:
		return fmt.Sprintf("delay(%s)", a.Delay)
	}
}

// NewSim creates a Sim with all registers zeroed.
func NewSim() *Sim {
	return &Sim{}
}

// Load implements Block.
func (s *Sim) Load(reg int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.regs[reg]
	if s.tracing {
		s.trace = append(s.trace, Access{Kind: AccessLoad, Reg: reg, Value: v})
	}
	return v
}

// Store implements Block.
func (s *Sim) Store(reg int, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracing {
		s.trace = append(s.trace, Access{Kind: AccessStore, Reg: reg, Value: v})
	}
	switch reg {
	case RegSet0:
		s.regs[RegLev0] |= v
	case RegClr0:
		s.regs[RegLev0] &^= v
	default:
		s.regs[reg] = v
	}
}

// Sleep records a delay in the trace without sleeping.
//
// Intended for use with WithSleep.
func (s *Sim) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracing {
		s.trace = append(s.trace, Access{Kind: AccessDelay, Delay: d})
	}
}

// SetLevel drives the level of a pin, as an external signal would.
func (s *Sim) SetLevel(pin int, l Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == High {
		s.regs[RegLev0] |= 1 << uint(pin)
	} else {
		s.regs[RegLev0] &^= 1 << uint(pin)
	}
}

// Peek returns a register value without tracing.
func (s *Sim) Peek(reg int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// Trace starts recording accesses, discarding any previous trace.
func (s *Sim) Trace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = true
	s.trace = nil
}

// Accesses stops recording and returns the recorded accesses.
func (s *Sim) Accesses() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracing = false
	aa := s.trace
	s.trace = nil
	return aa
}
