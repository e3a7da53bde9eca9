// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

package jakestering

import "time"

// Delay blocks the calling goroutine for ms milliseconds.
func Delay(ms int) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// DelayMicro blocks the calling goroutine for us microseconds.
func DelayMicro(us int) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}
