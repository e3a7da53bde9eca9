// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package jakestering

import (
	"log"
	"os"
	"time"

	"github.com/McCoy1701/JakesteringPi/gpiomem"
	"github.com/McCoy1701/JakesteringPi/lineevent"
)

// DefaultPriority is the SCHED_RR priority requested for dispatch goroutines.
const DefaultPriority = 55

// DefaultStartTimeout is the time Arm waits for a dispatch goroutine to start.
const DefaultStartTimeout = time.Second

// Option defines the interface required to provide an option to Open or New.
type Option interface {
	applyOption(*options)
}

type options struct {
	memDevice    string
	base         int64
	chipPath     string
	consumer     string
	priority     int
	startTimeout time.Duration
	logger       *log.Logger

	// sets the scheduling of the calling thread
	setPriority func(priority int) error

	openChip func(path string) (EventChip, error)
}

func defaultOptions() options {
	return options{
		memDevice:    gpiomem.DefaultDevice,
		base:         gpiomem.DefaultBase,
		chipPath:     lineevent.DefaultChip,
		consumer:     lineevent.DefaultConsumer,
		priority:     DefaultPriority,
		startTimeout: DefaultStartTimeout,
		logger:       log.New(os.Stderr, "jakestering: ", log.LstdFlags),
		setPriority:  setRealtime,
		openChip:     openChip,
	}
}

func openChip(path string) (EventChip, error) {
	c, err := lineevent.OpenChip(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// MemOption selects the device the register block is mapped from.
type MemOption struct {
	device string
	base   int64
}

// WithMem maps the register block from the device at the base offset.
//
// The default is /dev/mem at the BCM2835 GPIO base. /dev/gpiomem exposes
// only the GPIO block, at offset 0, and does not require root.
//
// Only applies to Open.
func WithMem(device string, base int64) MemOption {
	return MemOption{device, base}
}

// WithGPIOMem maps the register block from /dev/gpiomem.
//
// Only applies to Open.
func WithGPIOMem() MemOption {
	return MemOption{gpiomem.GPIODevice, 0}
}

func (o MemOption) applyOption(opts *options) {
	opts.memDevice = o.device
	opts.base = o.base
}

// ChipPathOption selects the GPIO character device edge events are requested
// from.
type ChipPathOption string

// WithChipPath sets the GPIO character device, e.g. "/dev/gpiochip0".
func WithChipPath(path string) ChipPathOption {
	return ChipPathOption(path)
}

func (o ChipPathOption) applyOption(opts *options) {
	opts.chipPath = string(o)
}

// ConsumerOption defines the consumer label applied to armed lines.
type ConsumerOption string

// WithConsumer provides the consumer label for armed lines.
func WithConsumer(consumer string) ConsumerOption {
	return ConsumerOption(consumer)
}

func (o ConsumerOption) applyOption(opts *options) {
	opts.consumer = string(o)
}

// PriorityOption sets the SCHED_RR priority of dispatch goroutines.
type PriorityOption int

// WithPriority sets the SCHED_RR priority requested for dispatch goroutines.
//
// The priority is clamped to the maximum supported by the kernel.
// A priority of 0 or less leaves dispatch goroutines on the default scheduler.
func WithPriority(priority int) PriorityOption {
	return PriorityOption(priority)
}

func (o PriorityOption) applyOption(opts *options) {
	opts.priority = int(o)
}

// StartTimeoutOption limits the time Arm waits for a dispatch goroutine to
// start.
type StartTimeoutOption time.Duration

// WithStartTimeout sets the time Arm waits for a dispatch goroutine to start
// before failing with ErrDispatchStartFailed.
func WithStartTimeout(d time.Duration) StartTimeoutOption {
	return StartTimeoutOption(d)
}

func (o StartTimeoutOption) applyOption(opts *options) {
	opts.startTimeout = time.Duration(o)
}

// LoggerOption provides the logger for dispatch diagnostics.
type LoggerOption struct {
	logger *log.Logger
}

// WithLogger sets the logger that dispatch goroutines report scheduling
// failures and poll errors to.
func WithLogger(logger *log.Logger) LoggerOption {
	return LoggerOption{logger}
}

func (o LoggerOption) applyOption(opts *options) {
	opts.logger = o.logger
}

// SchedulerOption provides the function dispatch goroutines call to elevate
// their scheduling.
type SchedulerOption func(priority int) error

// WithScheduler replaces the SCHED_RR elevation performed by dispatch
// goroutines on their locked OS thread.
func WithScheduler(f func(priority int) error) SchedulerOption {
	return SchedulerOption(f)
}

func (o SchedulerOption) applyOption(opts *options) {
	opts.setPriority = o
}

// EventChipOption provides the GPIO controller edge events are requested
// from.
type EventChipOption struct {
	open func(path string) (EventChip, error)
}

// WithEventChip uses the provided chip, such as a lineevent.SimChip, in
// place of opening the GPIO character device.
//
// The chip is closed by GPIO.Close.
func WithEventChip(c EventChip) EventChipOption {
	return EventChipOption{func(string) (EventChip, error) { return c, nil }}
}

// WithChipOpener provides the function used to lazily open the GPIO
// controller on the first Arm.
func WithChipOpener(open func(path string) (EventChip, error)) EventChipOption {
	return EventChipOption{open}
}

func (o EventChipOption) applyOption(opts *options) {
	opts.openChip = o.open
}
