// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package uapi

import (
	"io"
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestIoctlCodes(t *testing.T) {
	assert.Equal(t, uintptr(68), unsafe.Sizeof(ChipInfo{}))
	assert.Equal(t, uintptr(72), unsafe.Sizeof(LineInfo{}))
	assert.Equal(t, uintptr(48), unsafe.Sizeof(EventRequest{}))
	assert.Equal(t, ioctl(0x8044b401), getChipInfoIoctl)
	assert.Equal(t, ioctl(0xc048b402), getLineInfoIoctl)
	assert.Equal(t, ioctl(0xc030b404), getLineEventIoctl)
}

func TestBytesToString(t *testing.T) {
	name := "a test string"
	a := [20]byte{}
	copy(a[:], name)

	// empty
	v := BytesToString(a[:0])
	assert.Equal(t, 0, len(v))

	// normal
	v = BytesToString(a[:])
	assert.Equal(t, name, v)

	// unterminated
	v = BytesToString(a[:len(name)])
	assert.Equal(t, name, v)
}

func TestEventFlag(t *testing.T) {
	patterns := []struct {
		name    string
		f       EventFlag
		rising  bool
		falling bool
		both    bool
	}{
		{"zero", 0, false, false, false},
		{"rising", EventRequestRisingEdge, true, false, false},
		{"falling", EventRequestFallingEdge, false, true, false},
		{"both", EventRequestBothEdges, true, true, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.rising, p.f.IsRisingEdge())
			assert.Equal(t, p.falling, p.f.IsFallingEdge())
			assert.Equal(t, p.both, p.f.IsBothEdges())
		}
		t.Run(p.name, tf)
	}
}

func TestLineFlag(t *testing.T) {
	f := LineFlagRequested | LineFlagPullUp
	assert.True(t, f.IsRequested())
	assert.True(t, f.IsPullUp())
	assert.False(t, f.IsOut())
	assert.False(t, f.IsActiveLow())
	assert.False(t, f.IsPullDown())
	assert.False(t, f.IsBiasDisable())
}

func encodeEvent(ts uint64, id EventFlag) []byte {
	b := make([]byte, EventDataSize)
	nativeEndian.PutUint64(b[0:], ts)
	nativeEndian.PutUint32(b[8:], uint32(id))
	return b
}

func TestDecodeEvent(t *testing.T) {
	ed, err := DecodeEvent(encodeEvent(1234, EventRequestFallingEdge))
	require.Nil(t, err)
	assert.Equal(t, uint64(1234), ed.Timestamp)
	assert.Equal(t, EventRequestFallingEdge, ed.ID)

	// short
	ed, err = DecodeEvent(encodeEvent(1234, EventRequestRisingEdge)[:4])
	assert.Equal(t, io.ErrUnexpectedEOF, err)
	assert.Equal(t, EventData{}, ed)
}

func TestReadEvent(t *testing.T) {
	r, w, err := os.Pipe()
	require.Nil(t, err)
	defer r.Close()
	defer w.Close()

	_, err = w.Write(encodeEvent(42, EventRequestRisingEdge))
	require.Nil(t, err)
	ed, err := ReadEvent(r.Fd())
	require.Nil(t, err)
	assert.Equal(t, uint64(42), ed.Timestamp)
	assert.Equal(t, EventRequestRisingEdge, ed.ID)

	// short frame
	_, err = w.Write([]byte{1, 2, 3})
	require.Nil(t, err)
	_, err = ReadEvent(r.Fd())
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestGetChipInfoBadFd(t *testing.T) {
	f, err := os.CreateTemp("", "uapi_test")
	require.Nil(t, err)
	defer os.Remove(f.Name())
	defer f.Close()
	ci, err := GetChipInfo(f.Fd())
	assert.Equal(t, unix.ENOTTY, err)
	assert.Equal(t, ChipInfo{}, ci)

	er := EventRequest{Offset: 1, EventFlags: EventRequestBothEdges}
	err = GetLineEvent(f.Fd(), &er)
	assert.Equal(t, unix.ENOTTY, err)
}
