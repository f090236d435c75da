package emu

// Aligned load/store accessors. Every accessor checks the access
// width's natural alignment before translating: a misaligned address is
// recorded as the faulting address and the access aborts with no memory
// traffic. Loads return the value at the translated location; the
// signed variants sign-extend to the 64-bit register width. Stores
// truncate the value to the access width.

// checkAlign verifies natural alignment for a width-byte access.
func (m *MMU) checkAlign(addr, width uint64, kind AccessKind) error {
	if addr%width != 0 {
		return m.fault(FaultMisaligned, kind, addr)
	}
	return nil
}

// LoadUint8 loads a byte.
func (m *MMU) LoadUint8(addr uint64) (uint8, error) {
	paddr, err := m.resolve(addr, AccessLoad, 1)
	if err != nil {
		return 0, err
	}
	return m.mem.Read8(paddr), nil
}

// LoadUint16 loads an aligned 16-bit value.
func (m *MMU) LoadUint16(addr uint64) (uint16, error) {
	if err := m.checkAlign(addr, 2, AccessLoad); err != nil {
		return 0, err
	}
	paddr, err := m.resolve(addr, AccessLoad, 2)
	if err != nil {
		return 0, err
	}
	return m.mem.Read16(paddr), nil
}

// LoadUint32 loads an aligned 32-bit value.
func (m *MMU) LoadUint32(addr uint64) (uint32, error) {
	if err := m.checkAlign(addr, 4, AccessLoad); err != nil {
		return 0, err
	}
	paddr, err := m.resolve(addr, AccessLoad, 4)
	if err != nil {
		return 0, err
	}
	return m.mem.Read32(paddr), nil
}

// LoadUint64 loads an aligned 64-bit value.
func (m *MMU) LoadUint64(addr uint64) (uint64, error) {
	if err := m.checkAlign(addr, 8, AccessLoad); err != nil {
		return 0, err
	}
	paddr, err := m.resolve(addr, AccessLoad, 8)
	if err != nil {
		return 0, err
	}
	return m.mem.Read64(paddr), nil
}

// LoadInt8 loads a byte and sign-extends it to register width.
func (m *MMU) LoadInt8(addr uint64) (int64, error) {
	v, err := m.LoadUint8(addr)
	if err != nil {
		return 0, err
	}
	return int64(int8(v)), nil
}

// LoadInt16 loads an aligned 16-bit value and sign-extends it.
func (m *MMU) LoadInt16(addr uint64) (int64, error) {
	v, err := m.LoadUint16(addr)
	if err != nil {
		return 0, err
	}
	return int64(int16(v)), nil
}

// LoadInt32 loads an aligned 32-bit value and sign-extends it.
func (m *MMU) LoadInt32(addr uint64) (int64, error) {
	v, err := m.LoadUint32(addr)
	if err != nil {
		return 0, err
	}
	return int64(int32(v)), nil
}

// LoadInt64 loads an aligned 64-bit value.
func (m *MMU) LoadInt64(addr uint64) (int64, error) {
	v, err := m.LoadUint64(addr)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// StoreUint8 stores a byte.
func (m *MMU) StoreUint8(addr uint64, value uint8) error {
	paddr, err := m.resolve(addr, AccessStore, 1)
	if err != nil {
		return err
	}
	m.mem.Write8(paddr, value)
	return nil
}

// StoreUint16 stores an aligned 16-bit value.
func (m *MMU) StoreUint16(addr uint64, value uint16) error {
	if err := m.checkAlign(addr, 2, AccessStore); err != nil {
		return err
	}
	paddr, err := m.resolve(addr, AccessStore, 2)
	if err != nil {
		return err
	}
	m.mem.Write16(paddr, value)
	return nil
}

// StoreUint32 stores an aligned 32-bit value.
func (m *MMU) StoreUint32(addr uint64, value uint32) error {
	if err := m.checkAlign(addr, 4, AccessStore); err != nil {
		return err
	}
	paddr, err := m.resolve(addr, AccessStore, 4)
	if err != nil {
		return err
	}
	m.mem.Write32(paddr, value)
	return nil
}

// StoreUint64 stores an aligned 64-bit value.
func (m *MMU) StoreUint64(addr uint64, value uint64) error {
	if err := m.checkAlign(addr, 8, AccessStore); err != nil {
		return err
	}
	paddr, err := m.resolve(addr, AccessStore, 8)
	if err != nil {
		return err
	}
	m.mem.Write64(paddr, value)
	return nil
}
