// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:                   "get <pin>...",
	Short:                 "Read the level of a pin or pins",
	Long:                  `Read the level of the pins and print them to standard output.`,
	Args:                  cobra.MinimumNArgs(1),
	RunE:                  get,
	DisableFlagsInUseLine: true,
}

func get(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args)
	if err != nil {
		return err
	}
	g, _, err := openGPIO(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer g.Close()
	vv := []string(nil)
	for _, p := range pp {
		l, err := g.DigitalRead(p)
		if err != nil {
			return err
		}
		vv = append(vv, fmt.Sprintf("%d", l))
	}
	fmt.Println(strings.Join(vv, " "))
	return nil
}
