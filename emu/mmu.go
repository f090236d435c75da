package emu

// Cache geometry. Both caches are direct-mapped; sizes match the
// simulated hardware's sweet spot for hot loops without making flushes
// expensive.
const (
	// TLBEntries is the number of slots in each TLB partition.
	TLBEntries = 256
	// ICacheEntries is the number of instruction cache slots.
	ICacheEntries = 256
)

// invalidTag never compares equal to a real tag: TLB tags are
// page-aligned and fetch addresses are at least 2-byte aligned.
const invalidTag = ^uint64(0)

// A DecodeResolver maps raw instruction bits to a dispatch handle. The
// MMU treats handles as opaque; it only requires that resolution is a
// pure function of the bits, so a handle cached alongside the bits that
// produced it can never go stale.
type DecodeResolver interface {
	Resolve(bits uint32) any
}

// DecodeResolverFunc adapts a plain function to the DecodeResolver
// interface.
type DecodeResolverFunc func(bits uint32) any

// Resolve calls f.
func (f DecodeResolverFunc) Resolve(bits uint32) any {
	return f(bits)
}

type tlbEntry struct {
	tag  uint64 // page-aligned virtual address
	base uint64 // physical page base; low PageShift bits always zero
}

type icacheEntry struct {
	tag    uint64 // exact fetch virtual address
	bits   uint32
	handle any
}

// MMU is an execution context's port into the virtual memory system. It
// performs address translation with architectural page-table-walk
// semantics, and maintains a TLB and an instruction cache purely for
// simulator performance: their presence is never observable except
// through speed.
//
// An MMU serves exactly one execution context and is not safe for
// concurrent use. Contexts running in parallel must each own an
// independent MMU over their own state.
type MMU struct {
	mem      *Memory
	resolver DecodeResolver

	pageTableBase uint64
	supervisor    bool
	vmEnabled     bool
	badAddr       uint64

	tlbFetch [TLBEntries]tlbEntry
	tlbLoad  [TLBEntries]tlbEntry
	tlbStore [TLBEntries]tlbEntry

	icache [ICacheEntries]icacheEntry
}

// NewMMU creates an MMU over the given backing memory. Virtual memory
// starts disabled and the privilege level starts at user mode. The
// resolver is consulted on instruction fetches; it may be nil if
// FetchInstruction is never used.
func NewMMU(mem *Memory, resolver DecodeResolver) *MMU {
	m := &MMU{
		mem:      mem,
		resolver: resolver,
	}
	m.FlushTLB()
	m.FlushICache()
	return m
}

// Memory returns the backing memory view.
func (m *MMU) Memory() *Memory {
	return m.mem
}

// BadAddr returns the virtual address that caused the most recent fault.
func (m *MMU) BadAddr() uint64 {
	return m.badAddr
}

// PageTableBase returns the page table base register.
func (m *MMU) PageTableBase() uint64 {
	return m.pageTableBase
}

// SetPageTableBase installs a new page table root. The low page-offset
// bits are cleared. Both caches are invalidated: every cached
// translation, and every cached instruction (whose slot encodes a
// translation implicitly), is stale under the new table.
func (m *MMU) SetPageTableBase(addr uint64) {
	m.pageTableBase = addr &^ (PageSize - 1)
	m.FlushTLB()
	m.FlushICache()
}

// SetSupervisor switches between user and supervisor privilege. It must
// be kept in sync with the owning execution context's mode.
func (m *MMU) SetSupervisor(on bool) {
	m.supervisor = on
}

// SetVMEnabled enables or disables virtual memory. While disabled,
// addresses resolve to themselves and the page table is not consulted.
func (m *MMU) SetVMEnabled(on bool) {
	m.vmEnabled = on
}

// FlushTLB invalidates all TLB slots in every partition.
func (m *MMU) FlushTLB() {
	for i := range m.tlbFetch {
		m.tlbFetch[i].tag = invalidTag
		m.tlbLoad[i].tag = invalidTag
		m.tlbStore[i].tag = invalidTag
	}
}

// FlushICache invalidates all instruction cache slots.
func (m *MMU) FlushICache() {
	for i := range m.icache {
		m.icache[i] = icacheEntry{tag: invalidTag}
	}
}

// tlbSet returns the TLB partition for the given access kind.
func (m *MMU) tlbSet(kind AccessKind) *[TLBEntries]tlbEntry {
	switch kind {
	case AccessFetch:
		return &m.tlbFetch
	case AccessStore:
		return &m.tlbStore
	default:
		return &m.tlbLoad
	}
}

// Translate resolves a virtual address to an offset into the backing
// memory for the given access kind. The TLB fast path serves repeated
// accesses to the same page; a miss falls through to refill, which
// walks the page table, enforces permissions, and repopulates the slot.
// The result is indistinguishable from walking the table on every
// access.
func (m *MMU) Translate(addr uint64, kind AccessKind) (uint64, error) {
	if !m.vmEnabled {
		if !m.mem.InRange(addr, 1) {
			return 0, m.fault(FaultBadAddress, kind, addr)
		}
		return addr, nil
	}

	idx := (addr >> PageShift) % TLBEntries
	entry := &m.tlbSet(kind)[idx]
	if entry.tag == addr&^(PageSize-1) {
		return entry.base | addr&(PageSize-1), nil
	}

	return m.refill(addr, kind)
}

// refill finishes translation on a TLB miss and updates the TLB.
func (m *MMU) refill(addr uint64, kind AccessKind) (uint64, error) {
	pte, ok := m.walk(addr)
	if !ok {
		return 0, m.fault(FaultPage, kind, addr)
	}

	if pte&m.requiredPerm(kind) == 0 {
		return 0, m.fault(FaultAccess, kind, addr)
	}

	base := ptePhysBase(pte)
	if !m.mem.InRange(base, PageSize) {
		// The leaf maps beyond the backing buffer; never cache it.
		return 0, m.fault(FaultBadAddress, kind, addr)
	}

	idx := (addr >> PageShift) % TLBEntries
	m.tlbSet(kind)[idx] = tlbEntry{
		tag:  addr &^ (PageSize - 1),
		base: base,
	}

	return base | addr&(PageSize-1), nil
}

// walk performs a page-table walk for a virtual address. It returns the
// leaf entry, or ok=false if the address has no valid mapping: an
// unmapped or malformed entry, a descriptor chain leaving the buffer,
// or walk depth exhausted without reaching a leaf. Nothing is cached
// here; that is refill's job.
func (m *MMU) walk(addr uint64) (pte uint64, ok bool) {
	base := m.pageTableBase

	for level := ptLevels - 1; level >= 0; level-- {
		off := base + vaIndex(addr, level)*pteSize
		if !m.mem.InRange(off, pteSize) {
			return 0, false
		}
		pte := m.mem.Read64(off)

		isTable := pte&PTETable != 0
		isLeaf := pte&PTEEntry != 0
		switch {
		case isTable && !isLeaf:
			base = ptePhysBase(pte)
		case isLeaf && !isTable:
			return pte, true
		default:
			return 0, false
		}
	}

	return 0, false
}

// requiredPerm returns the permission bit an access must carry, selected
// by access kind and current privilege.
func (m *MMU) requiredPerm(kind AccessKind) uint64 {
	if m.supervisor {
		switch kind {
		case AccessFetch:
			return PTESupervisorExecute
		case AccessStore:
			return PTESupervisorWrite
		default:
			return PTESupervisorRead
		}
	}
	switch kind {
	case AccessFetch:
		return PTEUserExecute
	case AccessStore:
		return PTEUserWrite
	default:
		return PTEUserRead
	}
}

// resolve translates an address and verifies that the full access width
// stays inside the backing buffer.
func (m *MMU) resolve(addr uint64, kind AccessKind, size uint64) (uint64, error) {
	paddr, err := m.Translate(addr, kind)
	if err != nil {
		return 0, err
	}
	if !m.mem.InRange(paddr, size) {
		return 0, m.fault(FaultBadAddress, kind, addr)
	}
	return paddr, nil
}

// fault records the faulting address and builds the fault error. Every
// fault passes through here so the bad-address register is always
// up to date when the fault surfaces.
func (m *MMU) fault(kind FaultKind, access AccessKind, addr uint64) error {
	m.badAddr = addr
	return &Fault{Kind: kind, Access: access, Addr: addr}
}
