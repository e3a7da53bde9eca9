// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package jakestering_test

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/gpiomem"
	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newSim returns a GPIO driving simulated registers and requesting edge
// events from a simulated chip.
func newSim(opts ...jakestering.Option) (*gpiomem.Sim, *lineevent.SimChip, *jakestering.GPIO) {
	s := gpiomem.NewSim()
	c := lineevent.NewSimChip()
	opts = append([]jakestering.Option{
		jakestering.WithEventChip(c),
		jakestering.WithScheduler(func(int) error { return nil }),
		jakestering.WithLogger(quietLogger()),
	}, opts...)
	g := jakestering.New(gpiomem.New(s, gpiomem.WithSleep(s.Sleep)), opts...)
	return s, c, g
}

func TestPinMode(t *testing.T) {
	s, _, g := newSim()
	defer g.Close()

	assert.Nil(t, g.PinMode(12, jakestering.Output))
	assert.Equal(t, uint32(1<<6), s.Peek(gpiomem.RegFsel0+1))
	d, err := g.Mode(12)
	assert.Nil(t, err)
	assert.Equal(t, jakestering.Output, d)

	assert.Nil(t, g.PinMode(12, jakestering.Input))
	assert.Equal(t, uint32(0), s.Peek(gpiomem.RegFsel0+1))
	d, err = g.Mode(12)
	assert.Nil(t, err)
	assert.Equal(t, jakestering.Input, d)
}

func TestDigitalWriteRead(t *testing.T) {
	_, _, g := newSim()
	defer g.Close()

	for pin := 0; pin < jakestering.NumPins; pin++ {
		require.Nil(t, g.DigitalWrite(pin, jakestering.High))
		v, err := g.DigitalRead(pin)
		assert.Nil(t, err)
		assert.Equal(t, jakestering.High, v, pin)
	}
	require.Nil(t, g.DigitalWrite(9, jakestering.Low))
	for pin := 0; pin < jakestering.NumPins; pin++ {
		v, err := g.DigitalRead(pin)
		assert.Nil(t, err)
		if pin == 9 {
			assert.Equal(t, jakestering.Low, v)
		} else {
			assert.Equal(t, jakestering.High, v, pin)
		}
	}
}

func TestInvalidPin(t *testing.T) {
	_, _, g := newSim()
	defer g.Close()

	for _, pin := range []int{-1, jakestering.NumPins, 100} {
		assert.Equal(t, jakestering.ErrInvalidPin, g.PinMode(pin, jakestering.Output))
		assert.Equal(t, jakestering.ErrInvalidPin, g.DigitalWrite(pin, jakestering.High))
		_, err := g.DigitalRead(pin)
		assert.Equal(t, jakestering.ErrInvalidPin, err)
		_, err = g.Mode(pin)
		assert.Equal(t, jakestering.ErrInvalidPin, err)
		assert.Equal(t, jakestering.ErrInvalidPin, g.SetPull(pin, jakestering.PullUp))
		assert.Equal(t, jakestering.ErrInvalidPin, g.Arm(pin, jakestering.RisingEdge, func() {}))
		assert.Equal(t, jakestering.ErrInvalidPin, g.Disarm(pin))
		assert.Equal(t, jakestering.ErrInvalidPin, g.Err(pin))
		assert.False(t, g.Armed(pin))
	}
}

func TestDigitalWriteByte(t *testing.T) {
	s, _, g := newSim()
	defer g.Close()

	require.Nil(t, g.DigitalWrite(0, jakestering.High))
	s.Trace()
	assert.Nil(t, g.DigitalWriteByte(0xa5, 3, 10))
	assert.Equal(t, []gpiomem.Access{
		{Kind: gpiomem.AccessStore, Reg: gpiomem.RegClr0, Value: 0x5a << 3},
		{Kind: gpiomem.AccessStore, Reg: gpiomem.RegSet0, Value: 0xa5 << 3},
	}, s.Accesses())
	assert.Equal(t, uint32(0xa5<<3|1), g.Registers().Levels())

	patterns := []struct {
		name  string
		start int
		end   int
	}{
		{"short", 3, 9},
		{"long", 3, 11},
		{"reversed", 10, 3},
		{"negative", -1, 6},
		{"overflow", 25, 32},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			err := g.DigitalWriteByte(0xff, p.start, p.end)
			assert.Equal(t, jakestering.ErrInvalidRange{Start: p.start, End: p.end}, err)
		}
		t.Run(p.name, tf)
	}
	assert.Nil(t, g.DigitalWriteByte(0xff, 24, 31))
}

func TestSetPull(t *testing.T) {
	s, _, g := newSim()
	defer g.Close()

	s.Trace()
	assert.Nil(t, g.SetPull(25, jakestering.PullUp))
	aa := s.Accesses()
	require.Len(t, aa, 6)
	assert.Equal(t, uint32(jakestering.PullUp), aa[0].Value)
	assert.Equal(t, gpiomem.AccessDelay, aa[1].Kind)
	assert.Equal(t, uint32(1<<25), aa[2].Value)
}

func TestClose(t *testing.T) {
	_, c, g := newSim()

	require.Nil(t, g.Arm(17, jakestering.RisingEdge, func() {}))
	require.Nil(t, g.Arm(18, jakestering.BothEdges, func() {}))
	s17 := c.Source(17)
	s18 := c.Source(18)

	assert.Nil(t, g.Close())
	assert.True(t, s17.Closed())
	assert.True(t, s18.Closed())
	assert.Equal(t, 0, c.Open())
	assert.False(t, g.Armed(17))

	// chip closed too
	_, err := c.RequestEdgeEvent(19, 1, "tester")
	assert.Equal(t, lineevent.ErrClosed, err)

	assert.Equal(t, jakestering.ErrClosed, g.Close())
	assert.Equal(t, jakestering.ErrClosed, g.PinMode(3, jakestering.Output))
	assert.Equal(t, jakestering.ErrClosed, g.DigitalWrite(3, jakestering.High))
	_, err = g.DigitalRead(3)
	assert.Equal(t, jakestering.ErrClosed, err)
	assert.Equal(t, jakestering.ErrClosed, g.DigitalWriteByte(0, 0, 7))
	assert.Equal(t, jakestering.ErrClosed, g.SetPull(3, jakestering.PullOff))
	assert.Equal(t, jakestering.ErrClosed, g.Arm(3, jakestering.RisingEdge, func() {}))
	assert.Nil(t, g.Disarm(3))
}

// memFile creates a file that can stand in for the memory device.
func memFile(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "mem")
	require.Nil(t, os.WriteFile(path, make([]byte, gpiomem.BlockSize), 0600))
	return path
}

func TestOpen(t *testing.T) {
	path := memFile(t)

	g, err := jakestering.Open(jakestering.WithMem(path, 0), jakestering.WithLogger(quietLogger()))
	require.Nil(t, err)
	require.NotNil(t, g)

	g2, err := jakestering.Open(jakestering.WithMem(path, 0))
	assert.Equal(t, jakestering.ErrAlreadyOpen, err)
	assert.Nil(t, g2)

	require.Nil(t, g.PinMode(4, jakestering.Output))
	require.Nil(t, g.DigitalWriteByte(0x81, 8, 15))
	assert.Nil(t, g.Close())

	// registers are backed by the file
	b, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.NotEqual(t, make([]byte, gpiomem.BlockSize), b)

	// released
	g, err = jakestering.Open(jakestering.WithMem(path, 0))
	require.Nil(t, err)
	assert.Nil(t, g.Close())
}

func TestCloseWhileWriting(t *testing.T) {
	g, err := jakestering.Open(jakestering.WithMem(memFile(t), 0), jakestering.WithLogger(quietLogger()))
	require.Nil(t, err)
	require.Nil(t, g.PinMode(4, jakestering.Output))

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, pin := range []int{4, 5} {
		wg.Add(1)
		go func(pin int) {
			defer wg.Done()
			for n := 0; n < 10000; n++ {
				if err := g.DigitalWrite(pin, jakestering.Level(n&1)); err != nil {
					errs <- err
					return
				}
				if _, err := g.DigitalRead(pin); err != nil {
					errs <- err
					return
				}
			}
		}(pin)
	}
	assert.Nil(t, g.Close())
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.Equal(t, jakestering.ErrClosed, err)
	}
}

func TestOpenMappingFailed(t *testing.T) {
	g, err := jakestering.Open(jakestering.WithMem("/nonexistent/mem", 0))
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, gpiomem.ErrMappingFailed))

	// failure does not hold the instance
	g, err = jakestering.Open(jakestering.WithMem(memFile(t), 0))
	require.Nil(t, err)
	assert.Nil(t, g.Close())
}

func TestDelay(t *testing.T) {
	start := time.Now()
	jakestering.Delay(20)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(20*time.Millisecond))

	start = time.Now()
	jakestering.DelayMicro(1500)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(1500*time.Microsecond))
}

func TestEdgeString(t *testing.T) {
	assert.Equal(t, "rising", jakestering.RisingEdge.String())
	assert.Equal(t, "falling", jakestering.FallingEdge.String())
	assert.Equal(t, "both", jakestering.BothEdges.String())
	assert.Equal(t, "edge(4)", jakestering.Edge(4).String())
}
