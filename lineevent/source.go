// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package lineevent

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/McCoy1701/JakesteringPi/uapi"
	"golang.org/x/sys/unix"
)

// LineSource is a Source backed by a line event descriptor.
//
// Wait polls the descriptor alongside a pipe written by Interrupt.
type LineSource struct {
	fd int

	// pipe to wake Wait
	wakefds []int

	// mu covers closed.
	mu     sync.Mutex
	closed bool
}

// newLineSource takes ownership of fd, closing it on failure.
func newLineSource(fd int) (s *LineSource, err error) {
	defer func() {
		if err != nil {
			unix.Close(fd)
		}
	}()
	if err = unix.SetNonblock(fd, true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonBlockingSetFailed, err)
	}
	p := []int{0, 0}
	if err = unix.Pipe2(p, unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("%w: wake pipe: %v", ErrLineRequestFailed, err)
	}
	return &LineSource{fd: fd, wakefds: p}, nil
}

// Fd returns the line event descriptor.
func (s *LineSource) Fd() int {
	return s.fd
}

// Wait implements Source.
//
// A timeout, or a read that returns a partial record or EAGAIN, is
// reported as no event. Any other read error, or the descriptor
// signalling without POLLIN, is reported as ErrPoll and is not retried,
// so it ends the dispatch of the pin.
func (s *LineSource) Wait(timeout time.Duration) (uapi.EventFlag, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	fd, wfd := s.fd, s.wakefds[0]
	s.mu.Unlock()

	ms := -1
	if timeout >= 0 {
		ms = int((timeout + time.Millisecond - 1) / time.Millisecond)
	}
	pfds := []unix.PollFd{
		{Fd: int32(fd), Events: unix.POLLIN | unix.POLLERR},
		{Fd: int32(wfd), Events: unix.POLLIN},
	}
	var n int
	var err error
	for {
		n, err = unix.Poll(pfds, ms)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPoll, err)
	}
	if n == 0 {
		return 0, nil
	}
	if pfds[1].Revents != 0 {
		return 0, ErrInterrupted
	}
	if pfds[0].Revents&unix.POLLIN == 0 {
		return 0, fmt.Errorf("%w: revents 0x%x", ErrPoll, pfds[0].Revents)
	}
	ed, err := uapi.ReadEvent(uintptr(fd))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == unix.EAGAIN {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read: %v", ErrPoll, err)
	}
	return ed.ID, nil
}

// Interrupt implements Source.
//
// The wake is latched, so every later Wait also returns ErrInterrupted.
func (s *LineSource) Interrupt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, err := unix.Write(s.wakefds[1], []byte{1})
	if err == unix.EAGAIN {
		// pipe already full of wakes
		return nil
	}
	return err
}

// Close implements Source.
func (s *LineSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	unix.Close(s.wakefds[0])
	unix.Close(s.wakefds[1])
	return unix.Close(s.fd)
}
