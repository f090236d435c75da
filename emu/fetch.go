package emu

// isShortInsn reports whether a halfword is a complete compressed
// instruction on its own. Full-width instructions have both low bits
// set; everything else is a 16-bit encoding.
func isShortInsn(half uint16) bool {
	return half&0x3 != 0x3
}

// FetchInstruction fetches the instruction at the given virtual address
// and returns its raw bits together with the dispatch handle produced by
// the decode resolver. compressed selects variable-length instruction
// mode: with it enabled, fetches need only 2-byte alignment and an
// instruction may straddle a page boundary.
//
// For a compressed-only 16-bit instruction the upper half of the
// returned bits is undefined.
func (m *MMU) FetchInstruction(addr uint64, compressed bool) (uint32, any, error) {
	align := uint64(4)
	if compressed {
		align = 2
	}
	if addr%align != 0 {
		return 0, nil, m.fault(FaultMisaligned, AccessFetch, addr)
	}

	if compressed && addr%4 == 2 {
		return m.fetchAcrossBoundary(addr)
	}

	idx := (addr / 4) % ICacheEntries
	entry := &m.icache[idx]
	if entry.tag == addr {
		return entry.bits, entry.handle, nil
	}

	paddr, err := m.resolve(addr, AccessFetch, 4)
	if err != nil {
		return 0, nil, err
	}

	bits := m.mem.Read32(paddr)
	handle := m.resolver.Resolve(bits)
	*entry = icacheEntry{tag: addr, bits: bits, handle: handle}

	return bits, handle, nil
}

// fetchAcrossBoundary handles a fetch at an address that is 2-byte but
// not 4-byte aligned. Such a fetch may cross a page boundary, so the
// instruction cache is bypassed and each halfword is translated
// independently: the second halfword can live on a different page than
// the first.
func (m *MMU) fetchAcrossBoundary(addr uint64) (uint32, any, error) {
	lo, err := m.fetchHalf(addr)
	if err != nil {
		return 0, nil, err
	}

	bits := uint32(lo)
	if isShortInsn(lo) {
		return bits, m.resolver.Resolve(bits), nil
	}

	hi, err := m.fetchHalf(addr + 2)
	if err != nil {
		return 0, nil, err
	}
	bits |= uint32(hi) << 16

	return bits, m.resolver.Resolve(bits), nil
}

// fetchHalf translates and reads one halfword with fetch permissions.
func (m *MMU) fetchHalf(addr uint64) (uint16, error) {
	paddr, err := m.resolve(addr, AccessFetch, 2)
	if err != nil {
		return 0, err
	}
	return m.mem.Read16(paddr), nil
}
