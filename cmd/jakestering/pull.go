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
	rootCmd.AddCommand(pullCmd)
}

var pullCmd = &cobra.Command{
	Use:   "pull <pin> <off|down|up>",
	Short: "Set the pull resistor of a pin",
	Long: `Set the pull resistor of a pin.

The pull cannot be read back, and persists after exit.`,
	Args:                  cobra.ExactArgs(2),
	RunE:                  pull,
	DisableFlagsInUseLine: true,
}

func pull(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args[:1])
	if err != nil {
		return err
	}
	p, err := parsePull(args[1])
	if err != nil {
		return err
	}
	g, _, err := openGPIO(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer g.Close()
	return g.SetPull(pp[0], p)
}

func parsePull(s string) (jakestering.Pull, error) {
	switch strings.ToLower(s) {
	case "off", "disable", "none":
		return jakestering.PullOff, nil
	case "down", "pull-down":
		return jakestering.PullDown, nil
	case "up", "pull-up":
		return jakestering.PullUp, nil
	}
	return 0, fmt.Errorf("invalid pull '%s'", s)
}
