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

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/device/rpi"
)

// Watches GPIO 25 (Raspberry Pi J8-22) and reports each edge trigger.
func main() {
	g, err := jakestering.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "watcher: %s\n", err)
		os.Exit(1)
	}
	defer g.Close()

	pin := rpi.GPIO25
	if err = g.PinMode(pin, jakestering.Input); err != nil {
		fmt.Fprintf(os.Stderr, "watcher: %s\n", err)
		os.Exit(1)
	}
	err = g.Arm(pin, jakestering.BothEdges, func() {
		fmt.Println("Had edge trigger")
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "watcher: %s\n", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	fmt.Printf("Watching Pin %d...\n", pin)
	for {
		select {
		case <-quit:
			fmt.Println("exiting...")
			return
		default:
			jakestering.Delay(1000)
		}
	}
}
