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

	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/McCoy1701/JakesteringPi/uapi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:                   "info [chip]...",
	Short:                 "Info about chip lines",
	Long:                  `Print information about all lines of the specified GPIO chip(s) (or all gpiochips if none are specified).`,
	RunE:                  info,
	DisableFlagsInUseLine: true,
}

func info(cmd *cobra.Command, args []string) error {
	cc := args
	if len(cc) == 0 {
		cc = lineevent.Chips()
	}
	var ferr error
	for _, path := range cc {
		c, err := lineevent.OpenChip(path)
		if err != nil {
			logErr(cmd, err)
			ferr = err
			continue
		}
		fmt.Printf("%s - %d lines:\n", c.Name, c.Lines())
		for o := 0; o < c.Lines(); o++ {
			li, err := c.LineInfo(o)
			if err != nil {
				logErr(cmd, err)
				ferr = err
				continue
			}
			printLineInfo(li)
		}
		c.Close()
	}
	return ferr
}

func printLineInfo(li uapi.LineInfo) {
	name := uapi.BytesToString(li.Name[:])
	if len(name) == 0 {
		name = "unnamed"
	}
	consumer := uapi.BytesToString(li.Consumer[:])
	if li.Flags.IsRequested() {
		if len(consumer) == 0 {
			consumer = "kernel"
		}
		if strings.Contains(consumer, " ") {
			consumer = "\"" + consumer + "\""
		}
	} else {
		consumer = "unused"
	}
	attrs := []string(nil)
	if li.Flags.IsOut() {
		attrs = append(attrs, "output")
	} else {
		attrs = append(attrs, "input")
	}
	if li.Flags.IsActiveLow() {
		attrs = append(attrs, "active-low")
	}
	if li.Flags.IsRequested() {
		attrs = append(attrs, "used")
	}
	switch {
	case li.Flags.IsPullUp():
		attrs = append(attrs, "pull-up")
	case li.Flags.IsPullDown():
		attrs = append(attrs, "pull-down")
	case li.Flags.IsBiasDisable():
		attrs = append(attrs, "bias-disabled")
	}
	fmt.Printf("\tline %3d:%12s %16s [%s]\n",
		li.Offset, name, consumer, strings.Join(attrs, ","))
}
