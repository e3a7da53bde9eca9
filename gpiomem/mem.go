// SPDX-FileCopyrightText: 2023 Jacob Kellum <jkellum819@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package gpiomem

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// DefaultDevice is the device providing physical memory.
	DefaultDevice = "/dev/mem"

	// GPIODevice is the device exposing only the GPIO block, mapped at
	// offset 0 and available to non-root users in the gpio group.
	GPIODevice = "/dev/gpiomem"

	// DefaultBase is the physical address of the GPIO block on the BCM2835
	// (Raspberry Pi Zero and Pi 1).
	DefaultBase = 0x20200000

	// BlockSize is the size of the mapped register block in bytes.
	BlockSize = 4 * 1024
)

// Mem is a Block backed by a shared mapping of the GPIO register block.
//
// Loads and stores are performed as single 32-bit accesses.
// After Close, loads return 0 and stores are ignored.
type Mem struct {
	// mu covers the mapping. Accesses hold it shared, Close exclusive.
	mu   sync.RWMutex
	mem8 []byte
	mem  []uint32
}

// Map opens the memory device and maps the GPIO block found at base.
//
// For GPIODevice the base is ignored as that device starts at the block.
// The device is closed once mapped; the mapping lives until Close.
func Map(device string, base int64) (*Mem, error) {
	if device == GPIODevice {
		base = 0
	}
	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMappingFailed, err)
	}
	defer f.Close()
	mem8, err := unix.Mmap(
		int(f.Fd()),
		base,
		BlockSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %s at 0x%08x: %v", ErrMappingFailed, device, base, err)
	}
	m := Mem{
		mem8: mem8,
		mem:  unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4),
	}
	return &m, nil
}

// Load implements Block.
func (m *Mem) Load(reg int) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mem == nil {
		return 0
	}
	return atomic.LoadUint32(&m.mem[reg])
}

// Store implements Block.
func (m *Mem) Store(reg int, v uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.mem == nil {
		return
	}
	atomic.StoreUint32(&m.mem[reg], v)
}

// Close unmaps the register block.
//
// Close waits for any load or store in progress.
func (m *Mem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mem8 == nil {
		return ErrClosed
	}
	err := unix.Munmap(m.mem8)
	m.mem8 = nil
	m.mem = nil
	return err
}

var (
	// ErrMappingFailed indicates the register block could not be mapped.
	ErrMappingFailed = errors.New("gpio register mapping failed")

	// ErrClosed indicates the mapping has already been released.
	ErrClosed = errors.New("already closed")
)
