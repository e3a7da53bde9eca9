// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package mockup

import (
	"errors"
	"fmt"
	"time"

	"github.com/pilebones/go-udev/netlink"
)

// udevTimeout bounds the wait for the mock chip to appear.
const udevTimeout = time.Second

// udevMonitor watches for gpio-mockup chips being added.
type udevMonitor struct {
	conn  *netlink.UEventConn
	queue chan netlink.UEvent
	errs  chan error
	quit  chan struct{}
}

func newUdevMonitor() (*udevMonitor, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("unable to connect to netlink kobject uevent socket: %w", err)
	}
	action := "add"
	matcher := &netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
			"DEVPATH":   "/devices/platform/gpio-mockup\\.\\d+/gpiochip\\d+",
		},
	}
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, matcher)
	return &udevMonitor{conn: conn, queue: queue, errs: errs, quit: quit}, nil
}

// chip returns the device path of the next chip added.
func (m *udevMonitor) chip() (string, error) {
	t := time.NewTimer(udevTimeout)
	defer t.Stop()
	for {
		select {
		case evt := <-m.queue:
			if devpath, ok := evt.Env["DEVNAME"]; ok {
				return devpath, nil
			}
		case err := <-m.errs:
			return "", fmt.Errorf("udev monitor: %w", err)
		case <-t.C:
			return "", errors.New("timeout waiting for udev events")
		}
	}
}

func (m *udevMonitor) close() {
	close(m.quit)
	m.conn.Close()
}
