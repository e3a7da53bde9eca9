// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"strings"

	"github.com/McCoy1701/JakesteringPi/device/rpi"
	"github.com/McCoy1701/JakesteringPi/st7920"
	"github.com/spf13/cobra"
	"github.com/warthog618/config"
)

func init() {
	lf := lcdCmd.Flags()
	lf.Int("rs", lcdDefaults.RS, "register select pin")
	lf.Int("rw", lcdDefaults.RW, "read/write pin")
	lf.Int("e", lcdDefaults.E, "enable pin")
	lf.Int("db0", lcdDefaults.DB0, "lowest of the 8 data pins")
	lf.Int("psb", lcdDefaults.PSB, "interface select pin")
	lf.Int("rst", lcdDefaults.RST, "reset pin")
	lf.Int("col", 0, "the column to start the text")
	lf.Int("row", 0, "the row to start the text")
	lf.Bool("graphics", false, "switch the display to graphics mode")
	for _, k := range []string{"rs", "rw", "e", "db0", "psb", "rst"} {
		flagKeys[k] = "lcd." + k
	}
	rootCmd.AddCommand(lcdCmd)
}

var lcdDefaults = st7920.Wiring{
	RS:  rpi.GPIO4,
	RW:  rpi.GPIO5,
	E:   rpi.GPIO6,
	DB0: rpi.GPIO16,
	PSB: rpi.GPIO24,
	RST: rpi.GPIO25,
}

var lcdCmd = &cobra.Command{
	Use:   "lcd [flags] [text]...",
	Short: "Write text to an ST7920 display",
	Long: `Reset an ST7920 display connected in 8-bit parallel mode, switch it
to text mode and write the text.

The data pins DB0-DB7 must be wired to consecutive BCM pins.
The pins may also be set with the lcd.rs, lcd.rw, lcd.e, lcd.db0, lcd.psb
and lcd.rst config keys.`,
	RunE: lcd,
}

func lcdWiring(cfg *config.Config) st7920.Wiring {
	return st7920.Wiring{
		RS:  cfg.MustGet("lcd.rs").Int(),
		RW:  cfg.MustGet("lcd.rw").Int(),
		E:   cfg.MustGet("lcd.e").Int(),
		DB0: cfg.MustGet("lcd.db0").Int(),
		PSB: cfg.MustGet("lcd.psb").Int(),
		RST: cfg.MustGet("lcd.rst").Int(),
	}
}

func lcd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	g, _, err := openGPIO(cfg)
	if err != nil {
		return err
	}
	defer g.Close()
	l, err := st7920.New(g, lcdWiring(cfg))
	if err != nil {
		return err
	}
	if err = l.Reset(); err != nil {
		return err
	}
	if graphics, _ := cmd.Flags().GetBool("graphics"); graphics {
		return l.GraphicsMode()
	}
	if err = l.TextMode(); err != nil {
		return err
	}
	col, _ := cmd.Flags().GetInt("col")
	row, _ := cmd.Flags().GetInt("row")
	if err = l.TextPosition(col, row); err != nil {
		return err
	}
	return l.Puts(strings.Join(args, " "))
}
