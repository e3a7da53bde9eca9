// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package spi provides a bit bashed SPI master on GPIO pins.
//
// It is not related to the SPI device drivers provided by Linux.
package spi

import (
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// SPI represents a device connected to an SPI bus using 4 GPIO pins, or 3 if
// Mosi and Miso share a pin.
type SPI struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk gpio.PinIO
	Ssz  gpio.PinIO
	Mosi gpio.PinIO
	Miso gpio.PinIO
	cpol int
	cpha int

	sleep func(time.Duration)

	mu     sync.Mutex
	closed bool
}

// New creates a SPI on the pins.
//
// The pins are configured as outputs, other than Miso, and left with the
// device deselected and the clock idle.
func New(sclk, ssz, mosi, miso gpio.PinIO, options ...Option) (*SPI, error) {
	s := SPI{
		Sclk:  sclk,
		Ssz:   ssz,
		Mosi:  mosi,
		Miso:  miso,
		sleep: time.Sleep,
	}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 1MHz full cycle.
		s.Tclk = 500 * time.Nanosecond
	}
	// hold SPI reset until needed...
	if err := ssz.Out(gpio.High); err != nil {
		return nil, err
	}
	if err := sclk.Out(s.idle()); err != nil {
		return nil, err
	}
	if mosi == miso {
		// shared data pin idles as an output
		if err := mosi.Out(gpio.Low); err != nil {
			return nil, err
		}
		return &s, nil
	}
	if err := miso.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, err
	}
	if err := mosi.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &s, nil
}

// Close deselects the device and halts the pins.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	err := s.Ssz.Out(gpio.High)
	for _, p := range []gpio.PinIO{s.Sclk, s.Mosi, s.Miso, s.Ssz} {
		if herr := p.Halt(); err == nil {
			err = herr
		}
	}
	return err
}

// Select asserts the chip select.
func (s *SPI) Select() error {
	if err := s.Sclk.Out(s.idle()); err != nil {
		return err
	}
	s.sleep(s.Tclk)
	return s.Ssz.Out(gpio.Low)
}

// Deselect releases the chip select.
func (s *SPI) Deselect() error {
	return s.Ssz.Out(gpio.High)
}

// ClockIn clocks in a data bit from the SPI device on Miso.
//
// Starts and ends just after the trailing edge of the clock.
func (s *SPI) ClockIn() (gpio.Level, error) {
	s.sleep(s.Tclk)
	err := s.Sclk.Out(!s.idle())
	if err != nil {
		return gpio.Low, err
	}
	if s.cpha == 1 {
		s.sleep(s.Tclk)
	}
	v := s.Miso.Read()
	if s.cpha == 0 {
		s.sleep(s.Tclk)
	}
	err = s.Sclk.Out(s.idle())
	if err != nil {
		return gpio.Low, err
	}
	return v, nil
}

// ClockOut clocks out a data bit to the SPI device on Mosi.
//
// Starts and ends just after the trailing edge of the clock.
func (s *SPI) ClockOut(v gpio.Level) error {
	if s.cpha == 1 {
		s.sleep(s.Tclk)
	}
	err := s.Mosi.Out(v)
	if err != nil {
		return err
	}
	if s.cpha == 0 {
		s.sleep(s.Tclk)
	}
	err = s.Sclk.Out(!s.idle())
	if err != nil {
		return err
	}
	s.sleep(s.Tclk)
	return s.Sclk.Out(s.idle())
}

// WriteByte clocks out a byte, MSB first.
func (s *SPI) WriteByte(b byte) error {
	for i := 7; i >= 0; i-- {
		if err := s.ClockOut(b&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	return nil
}

// ReadByte clocks in a byte, MSB first.
//
// If Mosi and Miso share a pin it is turned around to an input for the read.
func (s *SPI) ReadByte() (byte, error) {
	if s.Mosi == s.Miso {
		if err := s.Miso.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return 0, err
		}
	}
	var d byte
	for i := 0; i < 8; i++ {
		v, err := s.ClockIn()
		if err != nil {
			return 0, err
		}
		d <<= 1
		if v {
			d |= 0x01
		}
	}
	return d, nil
}

// Tx selects the device, writes w, then reads len(r) bytes into r, and
// deselects the device.
func (s *SPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.Select(); err != nil {
		return err
	}
	err := s.tx(w, r)
	if derr := s.Deselect(); err == nil {
		err = derr
	}
	return err
}

func (s *SPI) tx(w, r []byte) error {
	if s.Mosi == s.Miso {
		if err := s.Mosi.Out(gpio.Low); err != nil {
			return err
		}
	}
	for _, b := range w {
		if err := s.WriteByte(b); err != nil {
			return err
		}
	}
	for i := range r {
		b, err := s.ReadByte()
		if err != nil {
			return err
		}
		r[i] = b
	}
	return nil
}

func (s *SPI) idle() gpio.Level {
	return s.cpol != 0
}

// ErrClosed indicates the SPI is closed.
var ErrClosed = errors.New("closed")

// Option specifies a construction option for the SPI.
type Option func(*SPI)

// WithCPOL sets the cpol for the SPI.
func WithCPOL(cpol int) Option {
	return func(s *SPI) {
		s.cpol = cpol
	}
}

// WithCPHA sets the cpha for the SPI.
func WithCPHA(cpha int) Option {
	return func(s *SPI) {
		s.cpha = cpha
	}
}

// WithTclk sets the clock period for the SPI.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(s *SPI) {
		s.Tclk = tclk
	}
}

// WithSleep replaces the delay between clock edges.
func WithSleep(sleep func(time.Duration)) Option {
	return func(s *SPI) {
		s.sleep = sleep
	}
}
