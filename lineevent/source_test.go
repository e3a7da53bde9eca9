// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package lineevent

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/McCoy1701/JakesteringPi/uapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// pipeSource creates a LineSource reading from a pipe in place of a line
// event descriptor.
func pipeSource(t *testing.T) (*LineSource, *os.File) {
	p := []int{0, 0}
	require.Nil(t, unix.Pipe2(p, unix.O_CLOEXEC))
	s, err := newLineSource(p[0])
	require.Nil(t, err)
	return s, os.NewFile(uintptr(p[1]), "event-writer")
}

// eventRecord encodes an event record as the kernel would.
func eventRecord(id uapi.EventFlag) []byte {
	b := make([]byte, uapi.EventDataSize)
	if nativeLittle() {
		b[8] = byte(id)
	} else {
		b[11] = byte(id)
	}
	return b
}

func nativeLittle() bool {
	b := make([]byte, uapi.EventDataSize)
	b[8] = 1
	ed, _ := uapi.DecodeEvent(b)
	return ed.ID == 1
}

func TestLineSourceWait(t *testing.T) {
	s, w := pipeSource(t)
	defer w.Close()
	defer s.Close()

	// timeout
	start := time.Now()
	id, err := s.Wait(20 * time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventFlag(0), id)
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(20*time.Millisecond))

	// rising then falling
	_, err = w.Write(eventRecord(uapi.EventRequestRisingEdge))
	require.Nil(t, err)
	_, err = w.Write(eventRecord(uapi.EventRequestFallingEdge))
	require.Nil(t, err)
	id, err = s.Wait(time.Second)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventRequestRisingEdge, id)
	id, err = s.Wait(time.Second)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventRequestFallingEdge, id)

	// short frame is no event
	_, err = w.Write([]byte{1, 0, 0})
	require.Nil(t, err)
	id, err = s.Wait(time.Second)
	assert.Nil(t, err)
	assert.Equal(t, uapi.EventFlag(0), id)
}

func TestLineSourceInterrupt(t *testing.T) {
	s, w := pipeSource(t)
	defer w.Close()

	done := make(chan error)
	go func() {
		_, err := s.Wait(-1)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	assert.Nil(t, s.Interrupt())
	select {
	case err := <-done:
		assert.Equal(t, ErrInterrupted, err)
	case <-time.After(time.Second):
		t.Fatal("Wait not interrupted")
	}

	// latched
	_, err := s.Wait(-1)
	assert.Equal(t, ErrInterrupted, err)
	assert.Nil(t, s.Interrupt())

	assert.Nil(t, s.Close())
	assert.Equal(t, ErrClosed, s.Close())
	assert.Equal(t, ErrClosed, s.Interrupt())
	_, err = s.Wait(0)
	assert.Equal(t, ErrClosed, err)
}

func TestLineSourceHangup(t *testing.T) {
	s, w := pipeSource(t)
	defer s.Close()
	w.Close()
	id, err := s.Wait(time.Second)
	assert.True(t, errors.Is(err, ErrPoll))
	assert.Equal(t, uapi.EventFlag(0), id)
}

func TestLineSourceReadError(t *testing.T) {
	// a directory polls readable but fails to read
	fd, err := unix.Open(t.TempDir(), unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	require.Nil(t, err)
	s, err := newLineSource(fd)
	require.Nil(t, err)
	defer s.Close()

	id, err := s.Wait(time.Second)
	assert.True(t, errors.Is(err, ErrPoll))
	assert.Contains(t, err.Error(), "read")
	assert.Equal(t, uapi.EventFlag(0), id)

	// not retried into an event
	id, err = s.Wait(0)
	assert.True(t, errors.Is(err, ErrPoll))
	assert.Equal(t, uapi.EventFlag(0), id)
}

func TestNewLineSourceBadFd(t *testing.T) {
	s, err := newLineSource(-1)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, ErrNonBlockingSetFailed))
}

func TestOpenChipUnavailable(t *testing.T) {
	c, err := OpenChip("/dev/gpiochip-nonexistent")
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, ErrChipUnavailable))

	// not a gpio chip
	c, err = OpenChip("/dev/null")
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, ErrChipUnavailable))
}

func TestNameToPath(t *testing.T) {
	assert.Equal(t, "/dev/gpiochip0", nameToPath("gpiochip0"))
	assert.Equal(t, "/dev/gpiochip1", nameToPath("/dev/gpiochip1"))
}
