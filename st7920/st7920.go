// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package st7920 drives a 128x64 ST7920 display over its 8-bit parallel
// interface.
//
// The data bus must be wired to 8 consecutive pins, DB0 to the lowest, so
// each byte is written with a single DigitalWriteByte.
package st7920

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
)

// Instructions.
const (
	DisplayClear = 0x01
	ReturnHome   = 0x02
	FunctionSet  = 0x20
	DDRAMSet     = 0x80

	// FunctionSet flags.
	DL = 0x10 // 8-bit interface
	RE = 0x04 // extended instruction set
	G  = 0x02 // graphic display on
)

// Default text dimensions, in characters.
const (
	DefaultCols = 16
	DefaultRows = 4
)

var rowsOffset = [...]int{0x00, 0x40, 0x14, 0x54}

// Pins is the subset of jakestering.GPIO used to drive the display.
type Pins interface {
	PinMode(pin int, d jakestering.Direction) error
	DigitalWrite(pin int, l jakestering.Level) error
	DigitalWriteByte(value uint8, pinStart, pinEnd int) error
}

// Wiring identifies the pins the display is connected to.
type Wiring struct {
	RS  int // register select
	RW  int // read/write
	E   int // enable
	DB0 int // lowest of 8 consecutive data pins
	PSB int // interface select, high for 8-bit parallel
	RST int // reset
}

// DB7 returns the highest data pin.
func (w Wiring) DB7() int {
	return w.DB0 + 7
}

// LCD is an ST7920 display.
type LCD struct {
	g     Pins
	w     Wiring
	cols  int
	rows  int
	sleep func(time.Duration)

	// mu covers the bus and cursor.
	mu sync.Mutex
	cx int
	cy int
}

// Option configures an LCD.
type Option func(*LCD)

// WithSize sets the text dimensions of the display.
//
// Rows are limited to 4.
func WithSize(cols, rows int) Option {
	return func(l *LCD) {
		l.cols = cols
		l.rows = rows
	}
}

// WithSleep replaces the delay used to time the bus.
func WithSleep(sleep func(time.Duration)) Option {
	return func(l *LCD) {
		l.sleep = sleep
	}
}

// New configures the pins as outputs and drives them to their idle levels.
//
// The display is left held in reset. Call Reset to release it.
func New(g Pins, w Wiring, options ...Option) (*LCD, error) {
	l := LCD{
		g:     g,
		w:     w,
		cols:  DefaultCols,
		rows:  DefaultRows,
		sleep: time.Sleep,
	}
	for _, option := range options {
		option(&l)
	}
	if l.cols <= 0 || l.rows <= 0 || l.rows > len(rowsOffset) {
		return nil, ErrInvalidSize
	}
	pins := []int{w.RS, w.RW, w.E}
	for p := w.DB0; p <= w.DB7(); p++ {
		pins = append(pins, p)
	}
	pins = append(pins, w.PSB, w.RST)
	for _, p := range pins {
		if err := g.PinMode(p, jakestering.Output); err != nil {
			return nil, err
		}
	}
	idle := []struct {
		pin int
		l   jakestering.Level
	}{
		{w.RS, jakestering.High},
		{w.RW, jakestering.Low},
		{w.E, jakestering.Low},
		{w.PSB, jakestering.High},
		{w.RST, jakestering.Low},
	}
	for _, i := range idle {
		if err := g.DigitalWrite(i.pin, i.l); err != nil {
			return nil, err
		}
	}
	return &l, nil
}

// Reset pulses the reset line and leaves the display running.
func (l *LCD) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.g.DigitalWrite(l.w.RST, jakestering.Low); err != nil {
		return err
	}
	l.sleep(time.Millisecond)
	if err := l.g.DigitalWrite(l.w.RST, jakestering.High); err != nil {
		return err
	}
	l.sleep(40 * time.Millisecond)
	l.cx, l.cy = 0, 0
	return nil
}

// Cursor returns the text position of the next character.
func (l *LCD) Cursor() (x, y int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cx, l.cy
}

// TextMode selects the basic instruction set and clears the display.
func (l *LCD) TextMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.sendInstruction(FunctionSet | DL); err != nil {
		return err
	}
	return l.clear()
}

// GraphicsMode selects the extended instruction set and turns on the graphic
// display.
func (l *LCD) GraphicsMode() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.sendInstruction(FunctionSet | DL | RE); err != nil {
		return err
	}
	if err := l.sendInstruction(FunctionSet | DL | RE | G); err != nil {
		return err
	}
	l.sleep(5 * time.Millisecond)
	return nil
}

// Clear clears the display and homes the cursor.
func (l *LCD) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clear()
}

func (l *LCD) clear() error {
	if err := l.sendInstruction(DisplayClear); err != nil {
		return err
	}
	return l.home()
}

// ReturnHome moves the cursor to the top left.
func (l *LCD) ReturnHome() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.home()
}

func (l *LCD) home() error {
	if err := l.sendInstruction(ReturnHome); err != nil {
		return err
	}
	l.cx, l.cy = 0, 0
	l.sleep(5 * time.Millisecond)
	return nil
}

// TextPosition moves the cursor to column x of row y.
func (l *LCD) TextPosition(x, y int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position(x, y)
}

func (l *LCD) position(x, y int) error {
	if x < 0 || x >= l.cols || y < 0 || y >= l.rows {
		return ErrInvalidPosition{X: x, Y: y}
	}
	if err := l.sendInstruction(uint8(x + (DDRAMSet | rowsOffset[y]))); err != nil {
		return err
	}
	l.cx, l.cy = x, y
	return nil
}

// PutChar writes a character at the cursor and advances it, wrapping at the
// end of a row to the start of the next, and from the last row to the first.
func (l *LCD) PutChar(c byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.putChar(c)
}

func (l *LCD) putChar(c byte) error {
	if err := l.sendData(c); err != nil {
		return err
	}
	l.cx++
	if l.cx < l.cols {
		return nil
	}
	y := l.cy + 1
	if y == l.rows {
		y = 0
	}
	return l.position(0, y)
}

// Puts writes the bytes of s from the cursor.
func (l *LCD) Puts(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := 0; i < len(s); i++ {
		if err := l.putChar(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Printf writes a formatted string from the cursor.
func (l *LCD) Printf(format string, a ...interface{}) error {
	return l.Puts(fmt.Sprintf(format, a...))
}

// Write implements io.Writer, so the display can be the target of
// fmt.Fprintf.
func (l *LCD) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range p {
		if err := l.putChar(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (l *LCD) pulseEnable() error {
	if err := l.g.DigitalWrite(l.w.E, jakestering.High); err != nil {
		return err
	}
	l.sleep(time.Microsecond)
	if err := l.g.DigitalWrite(l.w.E, jakestering.Low); err != nil {
		return err
	}
	l.sleep(5 * time.Microsecond)
	return nil
}

func (l *LCD) sendData(d uint8) error {
	if err := l.g.DigitalWriteByte(d, l.w.DB0, l.w.DB7()); err != nil {
		return err
	}
	if err := l.pulseEnable(); err != nil {
		return err
	}
	l.sleep(2 * time.Millisecond)
	return nil
}

func (l *LCD) sendInstruction(i uint8) error {
	if err := l.g.DigitalWrite(l.w.RS, jakestering.Low); err != nil {
		return err
	}
	if err := l.sendData(i); err != nil {
		return err
	}
	return l.g.DigitalWrite(l.w.RS, jakestering.High)
}

// ErrInvalidSize indicates the text dimensions are not supported.
var ErrInvalidSize = errors.New("invalid display size")

// ErrInvalidPosition indicates a text position outside the display.
type ErrInvalidPosition struct {
	X int
	Y int
}

func (e ErrInvalidPosition) Error() string {
	return fmt.Sprintf("invalid text position (%d,%d)", e.X, e.Y)
}
