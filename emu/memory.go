// Package emu provides functional RV64 emulation.
package emu

import "encoding/binary"

// Memory is a bounds-checked view over a contiguous physical memory
// buffer. The buffer is owned by whoever supplied it; Memory never
// reallocates or resizes it. All addresses are byte offsets from the
// start of the buffer, and all multi-byte accesses are little-endian.
//
// Out-of-range reads return zero and out-of-range writes are dropped.
// Callers that need to report a fault instead (the MMU does) must check
// InRange before accessing.
type Memory struct {
	data []byte
}

// NewMemory creates a Memory backed by a freshly allocated, zeroed
// buffer of the given size in bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

// WrapMemory creates a Memory view over an existing buffer. The caller
// keeps ownership of the buffer and must keep it alive for the lifetime
// of the view.
func WrapMemory(buf []byte) *Memory {
	return &Memory{data: buf}
}

// Size returns the buffer length in bytes.
func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// InRange reports whether the n bytes starting at addr lie entirely
// inside the buffer. It is overflow-safe.
func (m *Memory) InRange(addr, n uint64) bool {
	return addr <= m.Size() && n <= m.Size()-addr
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint64) uint8 {
	if !m.InRange(addr, 1) {
		return 0
	}
	return m.data[addr]
}

// Read16 reads a 16-bit little-endian value.
func (m *Memory) Read16(addr uint64) uint16 {
	if !m.InRange(addr, 2) {
		return 0
	}
	return binary.LittleEndian.Uint16(m.data[addr:])
}

// Read32 reads a 32-bit little-endian value.
func (m *Memory) Read32(addr uint64) uint32 {
	if !m.InRange(addr, 4) {
		return 0
	}
	return binary.LittleEndian.Uint32(m.data[addr:])
}

// Read64 reads a 64-bit little-endian value.
func (m *Memory) Read64(addr uint64) uint64 {
	if !m.InRange(addr, 8) {
		return 0
	}
	return binary.LittleEndian.Uint64(m.data[addr:])
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	if !m.InRange(addr, 1) {
		return
	}
	m.data[addr] = value
}

// Write16 writes a 16-bit little-endian value.
func (m *Memory) Write16(addr uint64, value uint16) {
	if !m.InRange(addr, 2) {
		return
	}
	binary.LittleEndian.PutUint16(m.data[addr:], value)
}

// Write32 writes a 32-bit little-endian value.
func (m *Memory) Write32(addr uint64, value uint32) {
	if !m.InRange(addr, 4) {
		return
	}
	binary.LittleEndian.PutUint32(m.data[addr:], value)
}

// Write64 writes a 64-bit little-endian value.
func (m *Memory) Write64(addr uint64, value uint64) {
	if !m.InRange(addr, 8) {
		return
	}
	binary.LittleEndian.PutUint64(m.data[addr:], value)
}
