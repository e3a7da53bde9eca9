// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package pinio_test

import (
	"io"
	"log"
	"testing"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/gpiomem"
	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/McCoy1701/JakesteringPi/pinio"
	"github.com/McCoy1701/JakesteringPi/uapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/pin"
)

func newSim() (*gpiomem.Sim, *lineevent.SimChip, *jakestering.GPIO) {
	s := gpiomem.NewSim()
	c := lineevent.NewSimChip()
	g := jakestering.New(gpiomem.New(s, gpiomem.WithSleep(s.Sleep)),
		jakestering.WithEventChip(c),
		jakestering.WithScheduler(func(int) error { return nil }),
		jakestering.WithLogger(log.New(io.Discard, "", 0)))
	return s, c, g
}

func TestNew(t *testing.T) {
	_, _, g := newSim()
	defer g.Close()

	p, err := pinio.New(g, 32)
	assert.Equal(t, jakestering.ErrInvalidPin, err)
	assert.Nil(t, p)

	p, err = pinio.New(g, 17)
	require.Nil(t, err)
	assert.Equal(t, "GPIO17", p.Name())
	assert.Equal(t, "GPIO17", p.String())
	assert.Equal(t, 17, p.Number())
	assert.Equal(t, gpio.PullNoChange, p.Pull())
	assert.Equal(t, gpio.PullDown, p.DefaultPull())
	assert.Equal(t, []pin.Func{gpio.IN, gpio.OUT}, p.SupportedFuncs())
	assert.Equal(t, pinio.ErrPWMNotSupported, p.PWM(gpio.DutyHalf, 0))
	assert.Equal(t, pinio.ErrUnsupportedFunc, p.SetFunc(gpio.PWM))

	p, err = pinio.New(g, 4)
	require.Nil(t, err)
	assert.Equal(t, gpio.PullUp, p.DefaultPull())
}

func TestOut(t *testing.T) {
	s, _, g := newSim()
	defer g.Close()

	p, err := pinio.New(g, 22)
	require.Nil(t, err)

	assert.Nil(t, p.Out(gpio.High))
	d, err := g.Mode(22)
	assert.Nil(t, err)
	assert.Equal(t, jakestering.Output, d)
	assert.Equal(t, gpio.High, p.Read())
	assert.Equal(t, gpio.OUT_HIGH, p.Func())
	assert.Equal(t, string(gpio.OUT_HIGH), p.Function())

	assert.Nil(t, p.SetFunc(gpio.OUT_LOW))
	assert.Equal(t, gpio.Low, p.Read())
	assert.Equal(t, gpio.OUT_LOW, p.Func())
	assert.Equal(t, uint32(0), s.Peek(gpiomem.RegLev0))
}

func TestIn(t *testing.T) {
	s, _, g := newSim()
	defer g.Close()

	p, err := pinio.New(g, 23)
	require.Nil(t, err)
	require.Nil(t, p.Out(gpio.High))

	s.Trace()
	assert.Nil(t, p.In(gpio.PullUp, gpio.NoEdge))
	d, err := g.Mode(23)
	assert.Nil(t, err)
	assert.Equal(t, jakestering.Input, d)
	assert.Equal(t, gpio.PullUp, p.Pull())
	aa := s.Accesses()
	require.NotEmpty(t, aa)
	assert.Contains(t, aa, gpiomem.Access{Kind: gpiomem.AccessStore, Reg: gpiomem.RegPudClk0, Value: 1 << 23})

	s.SetLevel(23, gpiomem.Low)
	assert.Equal(t, gpio.Low, p.Read())
	assert.Equal(t, gpio.IN_LOW, p.Func())
	s.SetLevel(23, gpiomem.High)
	assert.Equal(t, gpio.High, p.Read())
	assert.Equal(t, gpio.IN_HIGH, p.Func())

	// pull unchanged
	assert.Nil(t, p.SetFunc(gpio.IN))
	assert.Equal(t, gpio.PullUp, p.Pull())
	assert.Nil(t, p.SetFunc(gpio.FLOAT))
	assert.Equal(t, gpio.Float, p.Pull())
}

func TestWaitForEdge(t *testing.T) {
	_, c, g := newSim()
	defer g.Close()

	p, err := pinio.New(g, 24)
	require.Nil(t, err)
	require.Nil(t, p.In(gpio.PullDown, gpio.BothEdges))
	assert.True(t, g.Armed(24))
	assert.Equal(t, jakestering.BothEdges, g.ArmedEdge(24))

	src := c.Source(24)
	require.NotNil(t, src)
	assert.False(t, p.WaitForEdge(10*time.Millisecond))

	src.Inject(uapi.EventRequestRisingEdge)
	assert.True(t, p.WaitForEdge(time.Second))

	// accumulated before the call
	src.Inject(uapi.EventRequestRisingEdge)
	assert.Eventually(t, func() bool { return src.Pending() == 0 }, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return p.WaitForEdge(0) }, time.Second, time.Millisecond)

	// falling edges are not reported
	src.Inject(uapi.EventRequestFallingEdge)
	assert.False(t, p.WaitForEdge(20*time.Millisecond))

	// halt wakes a waiter and disarms
	done := make(chan bool)
	go func() { done <- p.WaitForEdge(-1) }()
	time.Sleep(10 * time.Millisecond)
	assert.Nil(t, p.Halt())
	select {
	case v := <-done:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("WaitForEdge not halted")
	}
	assert.False(t, g.Armed(24))
	assert.True(t, src.Closed())

	// reconfigure as output disarms
	require.Nil(t, p.In(gpio.PullNoChange, gpio.RisingEdge))
	assert.True(t, g.Armed(24))
	require.Nil(t, p.Out(gpio.Low))
	assert.False(t, g.Armed(24))
}

func TestRegister(t *testing.T) {
	_, _, g := newSim()
	defer g.Close()

	pp, err := pinio.Register(g)
	require.Nil(t, err)
	assert.Len(t, pp, 28)

	p := gpioreg.ByName("GPIO25")
	require.NotNil(t, p)
	assert.Equal(t, 25, p.Number())

	// aliased by J8 name
	a := gpioreg.ByName("J8p22")
	require.NotNil(t, a)
	r, ok := a.(gpio.RealPin)
	require.True(t, ok)
	assert.Equal(t, pp[25], r.Real())

	// only once
	_, err = pinio.Register(g)
	assert.NotNil(t, err)

	assert.Nil(t, pinio.Unregister(pp))
	assert.Nil(t, gpioreg.ByName("GPIO25"))
	assert.Nil(t, gpioreg.ByName("J8p22"))
}
