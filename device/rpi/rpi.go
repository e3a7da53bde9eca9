// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package rpi maps the names of the pins on the 40 pin J8 header of the
// Raspberry Pi to the BCM pin numbers used by jakestering.
package rpi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Convenience mapping from J8 pinouts to BCM pinouts.
const (
	J8p27 = iota
	J8p28
	J8p3
	J8p5
	J8p7
	J8p29
	J8p31
	J8p26
	J8p24
	J8p21
	J8p19
	J8p23
	J8p32
	J8p33
	J8p8
	J8p10
	J8p36
	J8p11
	J8p12
	J8p35
	J8p38
	J8p40
	J8p15
	J8p16
	J8p18
	J8p22
	J8p37
	J8p13
)

// GPIO aliases for the BCM pins brought out to J8.
//
// GPIO0 and GPIO1 are reserved for the HAT ID EEPROM.
const (
	GPIO0 = iota
	GPIO1
	GPIO2
	GPIO3
	GPIO4
	GPIO5
	GPIO6
	GPIO7
	GPIO8
	GPIO9
	GPIO10
	GPIO11
	GPIO12
	GPIO13
	GPIO14
	GPIO15
	GPIO16
	GPIO17
	GPIO18
	GPIO19
	GPIO20
	GPIO21
	GPIO22
	GPIO23
	GPIO24
	GPIO25
	GPIO26
	GPIO27
	MaxGPIOPin
)

// J8Pins is the number of pins on the J8 header.
const J8Pins = 40

// j8 maps the physical pin number to the BCM pin, or -1 for power and
// ground pins.
var j8 = [J8Pins + 1]int{
	-1,
	-1, -1, // 1: 3V3, 2: 5V
	J8p3, -1,
	J8p5, -1,
	J8p7, J8p8,
	-1, J8p10,
	J8p11, J8p12,
	J8p13, -1,
	J8p15, J8p16,
	-1, J8p18,
	J8p19, -1,
	J8p21, J8p22,
	J8p23, J8p24,
	-1, J8p26,
	J8p27, J8p28,
	J8p29, -1,
	J8p31, J8p32,
	J8p33, -1,
	J8p35, J8p36,
	J8p37, J8p38,
	-1, J8p40,
}

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = errors.New("invalid pin name")

func rangeCheck(p int) (int, error) {
	if p < GPIO2 || p >= MaxGPIOPin {
		return 0, ErrInvalid
	}
	return p, nil
}

// Pin maps a pin string name to a BCM pin number.
//
// Pin names are case insensitive and may be of the form J8pX, GPIOX, or X,
// where X is the physical pin for J8pX and the BCM pin otherwise.
// The ID EEPROM pins, GPIO0 and GPIO1, are only available as J8p27 and J8p28.
func Pin(s string) (int, error) {
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "j8p"):
		v, err := strconv.ParseUint(s[3:], 10, 8)
		if err != nil || v < 1 || v > J8Pins || j8[v] < 0 {
			return 0, ErrInvalid
		}
		return j8[v], nil
	case strings.HasPrefix(s, "gpio"):
		s = s[4:]
	}
	v, err := strconv.ParseInt(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return rangeCheck(int(v))
}

// MustPin converts the string to the corresponding pin number or panics if that
// is not possible.
func MustPin(s string) int {
	v, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Physical returns the J8 pin that the BCM pin is brought out to.
func Physical(bcm int) (int, error) {
	if bcm < GPIO0 || bcm >= MaxGPIOPin {
		return 0, ErrInvalid
	}
	for p, b := range j8 {
		if b == bcm && p != 0 {
			return p, nil
		}
	}
	return 0, ErrInvalid
}

// Name returns the J8 name of the BCM pin, e.g. "J8p22" for GPIO25.
func Name(bcm int) string {
	p, err := Physical(bcm)
	if err != nil {
		return fmt.Sprintf("GPIO%d", bcm)
	}
	return fmt.Sprintf("J8p%d", p)
}
