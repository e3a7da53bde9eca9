// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package lineevent_test

import (
	"errors"
	"testing"
	"time"

	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/McCoy1701/JakesteringPi/mockup"
	"github.com/McCoy1701/JakesteringPi/uapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireMockup(t *testing.T, lines int) *mockup.Chip {
	t.Helper()
	if err := mockup.IsSupported(); err != nil {
		t.Skip(err)
	}
	mc, err := mockup.New(lines)
	if err != nil {
		t.Skip(err)
	}
	return mc
}

func TestChipInfo(t *testing.T) {
	mc := requireMockup(t, 8)
	defer mc.Close()

	c, err := lineevent.OpenChip(mc.Name)
	require.Nil(t, err)
	assert.Equal(t, mc.Name, c.Name)
	assert.Equal(t, 8, c.Lines())
	assert.Contains(t, lineevent.Chips(), mc.DevPath)

	li, err := c.LineInfo(3)
	assert.Nil(t, err)
	assert.Equal(t, uint32(3), li.Offset)
	assert.False(t, li.Flags.IsRequested())

	_, err = c.LineInfo(8)
	assert.Equal(t, lineevent.ErrInvalidOffset, err)

	assert.Nil(t, c.Close())
	assert.Equal(t, lineevent.ErrClosed, c.Close())
	_, err = c.LineInfo(3)
	assert.Equal(t, lineevent.ErrClosed, err)
}

func TestRequestEdgeEvent(t *testing.T) {
	mc := requireMockup(t, 8)
	defer mc.Close()

	c, err := lineevent.OpenChip(mc.DevPath)
	require.Nil(t, err)
	defer c.Close()

	require.Nil(t, mc.Pull(3, 0))
	src, err := c.RequestEdgeEvent(3, uapi.EventRequestBothEdges, "tester")
	require.Nil(t, err)
	require.NotNil(t, src)

	li, err := c.LineInfo(3)
	assert.Nil(t, err)
	assert.True(t, li.Flags.IsRequested())
	assert.Equal(t, "tester", uapi.BytesToString(li.Consumer[:]))

	// busy
	src2, err := c.RequestEdgeEvent(3, uapi.EventRequestRisingEdge, "tester")
	assert.Nil(t, src2)
	assert.True(t, errors.Is(err, lineevent.ErrLineRequestFailed))

	// out of range
	_, err = c.RequestEdgeEvent(8, uapi.EventRequestRisingEdge, "tester")
	assert.True(t, errors.Is(err, lineevent.ErrLineRequestFailed))

	id, err := src.Wait(10 * time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventFlag(0), id)

	require.Nil(t, mc.Pull(3, 1))
	id, err = src.Wait(time.Second)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventRequestRisingEdge, id)

	require.Nil(t, mc.Pull(3, 0))
	id, err = src.Wait(time.Second)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventRequestFallingEdge, id)

	assert.Nil(t, src.Interrupt())
	_, err = src.Wait(-1)
	assert.Equal(t, lineevent.ErrInterrupted, err)

	assert.Nil(t, src.Close())
	li, err = c.LineInfo(3)
	assert.Nil(t, err)
	assert.False(t, li.Flags.IsRequested())
}
