// SPDX-FileCopyrightText: 2020 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/device/rpi"
)

// This example drives GPIO 4, which is pin J8-7 on a Raspberry Pi.
// The pin is toggled high and low at 1Hz with a 50% duty cycle.
// Do not run this on a device which has this pin externally driven.
func main() {
	g, err := jakestering.Open(jakestering.WithGPIOMem())
	if err != nil {
		fmt.Fprintf(os.Stderr, "blinker: %s\n", err)
		os.Exit(1)
	}
	defer g.Close()

	pin := rpi.GPIO4
	l := jakestering.Low
	if err = g.DigitalWrite(pin, l); err != nil {
		fmt.Fprintf(os.Stderr, "blinker: %s\n", err)
		os.Exit(1)
	}
	g.PinMode(pin, jakestering.Output)
	defer g.PinMode(pin, jakestering.Input)
	fmt.Printf("Set %s\n", l)

	// capture exit signals to ensure pin is reverted to input on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	for {
		select {
		case <-time.After(500 * time.Millisecond):
			l ^= 1
			g.DigitalWrite(pin, l)
			fmt.Printf("Set %s\n", l)
		case <-quit:
			return
		}
	}
}
