// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
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
	"strings"
	"syscall"
	"time"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/uapi"
	"github.com/spf13/cobra"
)

func init() {
	monCmd.Flags().StringVarP(&monOpts.Bias, "bias", "b", "as-is", "set the pin pull.")
	monCmd.Flags().StringVarP(&monOpts.Edge, "edge", "e", "both", "select the edge detection.")
	monCmd.Flags().UintVarP(&monOpts.NumEvents, "num-events", "n", 0, "exit after n edges")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display event details")
	monCmd.Flags().DurationVar(&monOpts.Period, "sim-period", 500*time.Millisecond, "the period of simulated edges")
	monCmd.SetHelpTemplate(monCmd.HelpTemplate() + extendedMonHelp)
	rootCmd.AddCommand(monCmd)
}

var extendedMonHelp = `
Edges:
  both:         both rising and falling edges are detected
  rising:       only rising edges are detected
  falling:      only falling edges are detected

Only rising edges are reported, whatever edges are detected.

Biases:
  as-is:        leave pull unchanged
  disable:      disable pull
  pull-up:      enable pull-up
  pull-down:    enable pull-down

With --sim, edges alternating between rising and falling are generated
every sim-period.
`

var (
	monCmd = &cobra.Command{
		Use:   "mon [flags] <pin>",
		Short: "Monitor edges on a pin",
		Long: `Set the pin as an input, arm it for edges and print the edges
to standard output.`,
		Args:                  cobra.ExactArgs(1),
		RunE:                  mon,
		DisableFlagsInUseLine: true,
	}
	monOpts = struct {
		Bias      string
		Edge      string
		Quiet     bool
		NumEvents uint
		Period    time.Duration
	}{}
)

func mon(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args)
	if err != nil {
		return err
	}
	pin := pp[0]
	edge, err := parseEdge(monOpts.Edge)
	if err != nil {
		return err
	}
	g, s, err := openGPIO(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer g.Close()
	if err = g.PinMode(pin, jakestering.Input); err != nil {
		return err
	}
	if err = setBias(g, pin, monOpts.Bias); err != nil {
		return err
	}
	evtchan := make(chan time.Time, 16)
	eh := func() {
		select {
		case evtchan <- time.Now():
		default:
			// reader fell behind
		}
	}
	if err = g.Arm(pin, edge, eh); err != nil {
		return fmt.Errorf("error arming pin %d: %w", pin, err)
	}
	done := make(chan struct{})
	if s != nil {
		go simulateEdges(s, pin, done)
	}
	monWait(pin, evtchan)
	close(done)
	g.Disarm(pin)
	return g.Err(pin)
}

func monWait(pin int, evtchan <-chan time.Time) {
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	count := uint(0)
	for {
		select {
		case t := <-evtchan:
			if !monOpts.Quiet {
				fmt.Printf("event:%3d rising  %s\n", pin, t.Format(time.RFC3339Nano))
			}
			count++
			if monOpts.NumEvents > 0 && count >= monOpts.NumEvents {
				return
			}
		case <-sigdone:
			return
		}
	}
}

// simulateEdges injects alternating edges into the simulated line.
func simulateEdges(s *sim, pin int, done <-chan struct{}) {
	src := s.chip.Source(pin)
	if src == nil {
		return
	}
	t := time.NewTicker(monOpts.Period)
	defer t.Stop()
	id := uapi.EventRequestRisingEdge
	for {
		select {
		case <-t.C:
			src.Inject(id)
			if id == uapi.EventRequestRisingEdge {
				id = uapi.EventRequestFallingEdge
			} else {
				id = uapi.EventRequestRisingEdge
			}
		case <-done:
			return
		}
	}
}

func parseEdge(s string) (jakestering.Edge, error) {
	switch strings.ToLower(s) {
	case "rising":
		return jakestering.RisingEdge, nil
	case "falling":
		return jakestering.FallingEdge, nil
	case "both":
		return jakestering.BothEdges, nil
	}
	return 0, fmt.Errorf("invalid edge '%s'", s)
}

func setBias(g *jakestering.GPIO, pin int, bias string) error {
	switch strings.ToLower(bias) {
	case "pull-up":
		return g.SetPull(pin, jakestering.PullUp)
	case "pull-down":
		return g.SetPull(pin, jakestering.PullDown)
	case "disable":
		return g.SetPull(pin, jakestering.PullOff)
	case "as-is":
		return nil
	}
	return fmt.Errorf("invalid bias '%s'", bias)
}
