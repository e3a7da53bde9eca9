// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"
	"strings"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <pin=level>...",
	Short: "Set the level of a pin or pins",
	Long: `Set the pins as outputs and drive them to the given levels.

The pins are left as outputs on exit.`,
	Args:                  cobra.MinimumNArgs(1),
	RunE:                  set,
	DisableFlagsInUseLine: true,
}

type pinLevel struct {
	pin int
	l   jakestering.Level
}

func set(cmd *cobra.Command, args []string) error {
	ll, err := parsePinLevels(args)
	if err != nil {
		return err
	}
	g, _, err := openGPIO(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer g.Close()
	for _, pl := range ll {
		// level first so the pin does not glitch as it becomes an output
		if err := g.DigitalWrite(pl.pin, pl.l); err != nil {
			return err
		}
		if err := g.PinMode(pl.pin, jakestering.Output); err != nil {
			return err
		}
	}
	return nil
}

func parsePinLevels(args []string) ([]pinLevel, error) {
	ll := []pinLevel(nil)
	for _, arg := range args {
		aa := strings.Split(arg, "=")
		if len(aa) != 2 {
			return nil, fmt.Errorf("invalid pin level '%s'", arg)
		}
		pp, err := parsePins(aa[:1])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseUint(aa[1], 10, 1)
		if err != nil {
			return nil, fmt.Errorf("can't parse level '%s'", aa[1])
		}
		ll = append(ll, pinLevel{pp[0], jakestering.Level(v)})
	}
	return ll, nil
}
