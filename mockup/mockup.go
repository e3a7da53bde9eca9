// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package mockup provides a mock GPIO controller using the Linux gpio-mockup
// kernel module.
//
// The mock controller accepts edge event requests like the controller on the
// Pi, and the level of each line can be pulled from the test, so edge events
// can be generated without hardware.
// Loading the module requires root.
package mockup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

const debugfsRoot = "/sys/kernel/debug/gpio-mockup"

// Chip is a mocked GPIO controller.
type Chip struct {
	// The name of the chip, e.g. "gpiochip2".
	Name string

	// The number of lines on the chip.
	Lines int

	// The path to the chip's character device.
	DevPath string

	// The directory containing the pull controls of the lines.
	DbgfsPath string

	mu     sync.Mutex
	closed bool
}

// New loads the gpio-mockup module with a single chip of the given number of
// lines.
//
// Any existing gpio-mockup chips are removed, so only one Chip can exist at a
// time.
func New(lines int) (*Chip, error) {
	if lines <= 0 {
		return nil, unix.EINVAL
	}
	if err := IsSupported(); err != nil {
		return nil, err
	}
	exec.Command("rmmod", "gpio-mockup").Run()

	um, err := newUdevMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to start udev monitor: %w", err)
	}
	defer um.close()

	cmd := exec.Command("modprobe", "gpio-mockup", fmt.Sprintf("gpio_mockup_ranges=-1,%d", lines))
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to load gpio-mockup: %w: %s", err, bytes.TrimSpace(out))
	}
	if err = unix.Access(debugfsRoot, unix.R_OK|unix.W_OK); err != nil {
		exec.Command("rmmod", "gpio-mockup").Run()
		return nil, fmt.Errorf("gpio-mockup debugfs: %w", err)
	}
	devpath, err := um.chip()
	if err != nil {
		exec.Command("rmmod", "gpio-mockup").Run()
		return nil, err
	}
	name := devpath[len("/dev/"):]
	var num int
	if _, err = fmt.Sscanf(name, "gpiochip%d", &num); err != nil {
		exec.Command("rmmod", "gpio-mockup").Run()
		return nil, fmt.Errorf("failed to parse chip num: %w", err)
	}
	c := Chip{
		Name:      name,
		Lines:     lines,
		DevPath:   devpath,
		DbgfsPath: fmt.Sprintf("%s/gpiochip%d/", debugfsRoot, num),
	}
	return &c, nil
}

// Close removes the chip and unloads the gpio-mockup module.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	return exec.Command("rmmod", "gpio-mockup").Run()
}

// Level returns the level of the line as seen by the chip.
func (c *Chip) Level(line int) (int, error) {
	if line < 0 || line >= c.Lines {
		return 0, ErrorIndexRange{line, c.Lines}
	}
	v, err := os.ReadFile(fmt.Sprintf("%s%d", c.DbgfsPath, line))
	if err != nil {
		return 0, err
	}
	if len(v) > 0 && v[0] == '1' {
		return 1, nil
	}
	return 0, nil
}

// Pull pulls the line high, for a non-zero value, or low.
//
// If the line is requested as an input the change of level generates an
// edge event.
func (c *Chip) Pull(line int, value int) error {
	if line < 0 || line >= c.Lines {
		return ErrorIndexRange{line, c.Lines}
	}
	f, err := os.OpenFile(fmt.Sprintf("%s%d", c.DbgfsPath, line), os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	v := []byte{'0'}
	if value != 0 {
		v[0] = '1'
	}
	_, err = f.Write(v)
	return err
}

// IsSupported returns an error if the mock chip cannot be created on this
// platform.
func IsSupported() error {
	if os.Geteuid() != 0 {
		return ErrNotRoot
	}
	return CheckKernelVersion(Version{5, 1, 0})
}

var releaseRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// KernelVersion returns the running kernel version.
func KernelVersion() (Version, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	release := unix.ByteSliceToString(uts.Release[:])
	vers := releaseRegex.FindStringSubmatch(release)
	if len(vers) != 4 {
		return nil, fmt.Errorf("can't parse kernel release: %s", release)
	}
	v := Version{0, 0, 0}
	for i, vf := range vers[1:] {
		vfi, err := strconv.ParseUint(vf, 10, 64)
		if err != nil {
			return nil, err
		}
		if vfi > 255 {
			vfi = 255
		}
		v[i] = byte(vfi)
	}
	return v, nil
}

// CheckKernelVersion returns an error if the kernel version is less than min.
func CheckKernelVersion(min Version) error {
	kv, err := KernelVersion()
	if err != nil {
		return err
	}
	if bytes.Compare(kv, min) < 0 {
		return ErrorBadVersion{Need: min, Have: kv}
	}
	return nil
}

// Version is a kernel version, Major, Minor, Patch.
type Version []byte

func (v Version) String() string {
	if len(v) == 0 {
		return ""
	}
	vstr := strconv.Itoa(int(v[0]))
	for i := 1; i < len(v); i++ {
		vstr += "." + strconv.Itoa(int(v[i]))
	}
	return vstr
}

// ErrorIndexRange indicates the requested line is beyond the chip.
type ErrorIndexRange struct {
	Req   int
	Limit int
}

func (e ErrorIndexRange) Error() string {
	return fmt.Sprintf("line out of range - got %d, limit is %d", e.Req, e.Limit)
}

// ErrorBadVersion indicates the kernel version is insufficient.
type ErrorBadVersion struct {
	Need Version
	Have Version
}

func (e ErrorBadVersion) Error() string {
	return fmt.Sprintf("require kernel %s or later, but running %s", e.Need, e.Have)
}

var (
	// ErrClosed indicates the chip has already been removed.
	ErrClosed = errors.New("already closed")

	// ErrNotRoot indicates the process lacks the privilege to load the
	// module.
	ErrNotRoot = errors.New("gpio-mockup requires root")
)
