// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package jakestering

import (
	"golang.org/x/sys/unix"
)

// setRealtime switches the calling thread to SCHED_RR at the priority,
// clamped to the maximum supported for the policy.
//
// The caller must be locked to its OS thread.
func setRealtime(priority int) error {
	if max, err := maxPriority(unix.SCHED_RR); err == nil && priority > max {
		priority = max
	}
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_RR,
		Priority: uint32(priority),
	}
	return unix.SchedSetAttr(0, &attr, 0)
}

func maxPriority(policy int) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_SCHED_GET_PRIORITY_MAX, uintptr(policy), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}
