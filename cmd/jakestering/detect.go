// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"

	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect available GPIO chips",
	Long:  `List all GPIO chips, print their labels and number of GPIO lines.`,
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	failed := false
	for _, path := range lineevent.Chips() {
		c, err := lineevent.OpenChip(path)
		if err != nil {
			logErr(cmd, err)
			failed = true
			continue
		}
		fmt.Printf("%s [%s] (%d lines)\n", c.Name, c.Label, c.Lines())
		c.Close()
	}
	if failed {
		return errDetectFailed
	}
	return nil
}

var errDetectFailed = errors.New("not all chips could be opened")
