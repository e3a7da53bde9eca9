// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// jakestering is a tool to access and manipulate the GPIO pins of a
// Raspberry Pi through the GPIO registers.
package main

import (
	"fmt"
	"log"
	"os"

	jakestering "github.com/McCoy1701/JakesteringPi"
	"github.com/McCoy1701/JakesteringPi/device/rpi"
	"github.com/McCoy1701/JakesteringPi/gpiomem"
	"github.com/McCoy1701/JakesteringPi/lineevent"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
)

var rootCmd = &cobra.Command{
	Use:   "jakestering",
	Short: "jakestering is a tool to access and manipulate GPIO pins",
	Long: `jakestering drives the GPIO pins of a Raspberry Pi through the GPIO
registers, and reports edges on them using the kernel GPIO line events.

Settings are read from flags, then JAKESTERING_ environment variables, then
the config file, if any.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("chip", lineevent.DefaultChip, "the GPIO chip providing line events")
	pf.String("mem", gpiomem.DefaultDevice, "the device the GPIO registers are mapped from")
	pf.Int64("base", gpiomem.DefaultBase, "the offset of the GPIO registers within the device")
	pf.Int("priority", jakestering.DefaultPriority, "the realtime priority of dispatch threads, 0 to disable")
	pf.String("consumer", lineevent.DefaultConsumer, "the consumer label of requested lines")
	pf.Bool("sim", false, "use simulated registers and line events")
	pf.StringP("config-file", "c", "", "the config file")
}

func main() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "jakestering %s: %s\n", cmd.Name(), err)
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"chip":        "chip",
	"mem":         "mem",
	"base":        "base",
	"priority":    "priority",
	"consumer":    "consumer",
	"sim":         "sim",
	"config-file": "config.file",
}

// loadConfig builds the config for the command, with flags explicitly set on
// the command line overriding the environment, the config file and the
// defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	defaultConfig := map[string]interface{}{
		"chip":     lineevent.DefaultChip,
		"mem":      gpiomem.DefaultDevice,
		"base":     gpiomem.DefaultBase,
		"priority": jakestering.DefaultPriority,
		"consumer": lineevent.DefaultConsumer,
		"sim":      false,
		"lcd.rs":   lcdDefaults.RS,
		"lcd.rw":   lcdDefaults.RW,
		"lcd.e":    lcdDefaults.E,
		"lcd.db0":  lcdDefaults.DB0,
		"lcd.psb":  lcdDefaults.PSB,
		"lcd.rst":  lcdDefaults.RST,
	}
	flags := map[string]interface{}{}
	// persistent flags are shared between commands, so a flag set while
	// parsing another command is missing from this command's Visit.
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if k, ok := flagKeys[f.Name]; ok {
			flags[k] = f.Value.String()
		}
	})
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		dict.New(dict.WithMap(flags)),
		env.New(env.WithEnvPrefix("JAKESTERING_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "jakestering.json", json.NewDecoder()))
	return cfg.GetConfig("", config.WithMust())
}

// sim is the simulated hardware used by --sim.
type sim struct {
	regs *gpiomem.Sim
	chip *lineevent.SimChip
}

// openGPIO opens the GPIO described by the config.
//
// The sim is nil unless the config selects simulated hardware.
func openGPIO(cfg *config.Config) (*jakestering.GPIO, *sim, error) {
	options := []jakestering.Option{
		jakestering.WithChipPath(cfg.MustGet("chip").String()),
		jakestering.WithConsumer(cfg.MustGet("consumer").String()),
		jakestering.WithPriority(cfg.MustGet("priority").Int()),
		jakestering.WithLogger(log.New(os.Stderr, "jakestering: ", 0)),
	}
	if cfg.MustGet("sim").Bool() {
		s := sim{
			regs: gpiomem.NewSim(),
			chip: lineevent.NewSimChip(),
		}
		options = append(options, jakestering.WithEventChip(s.chip))
		return jakestering.New(gpiomem.New(s.regs), options...), &s, nil
	}
	options = append(options,
		jakestering.WithMem(cfg.MustGet("mem").String(), int64(cfg.MustGet("base").Int())))
	g, err := jakestering.Open(options...)
	if err != nil {
		return nil, nil, err
	}
	return g, nil, nil
}

// parsePins converts pin names to BCM pin numbers.
func parsePins(args []string) ([]int, error) {
	pp := []int(nil)
	for _, arg := range args {
		p, err := rpi.Pin(arg)
		if err != nil {
			return nil, fmt.Errorf("can't parse pin '%s'", arg)
		}
		pp = append(pp, p)
	}
	return pp, nil
}
