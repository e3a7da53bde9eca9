// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modeCmd)
}

var modeCmd = &cobra.Command{
	Use:   "mode <pin> [in|out]",
	Short: "Get or set the mode of a pin",
	Long: `Print the mode of a pin, or set it to input or output.

Pins may be named by BCM number, GPIOn, or J8pn for the physical pin.`,
	Args:                  cobra.RangeArgs(1, 2),
	RunE:                  mode,
	DisableFlagsInUseLine: true,
}

func mode(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args[:1])
	if err != nil {
		return err
	}
	pin := pp[0]
	g, _, err := openGPIO(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer g.Close()
	if len(args) == 1 {
		d, err := g.Mode(pin)
		if err != nil {
			return err
		}
		fmt.Println(d)
		return nil
	}
	d, err := parseDirection(args[1])
	if err != nil {
		return err
	}
	return g.PinMode(pin, d)
}

func parseDirection(s string) (jakestering.Direction, error) {
	switch strings.ToLower(s) {
	case "in", "input":
		return jakestering.Input, nil
	case "out", "output":
		return jakestering.Output, nil
	}
	return 0, fmt.Errorf("invalid mode '%s'", s)
}
