package emu

// Virtual memory geometry. Pages are 4 KiB; the page table is a radix
// tree of four levels, each indexed by 9 bits of the virtual address
// (64-bit PTEs, 512 entries per table node), covering 48 address bits.
const (
	// PageShift is log2 of the page size.
	PageShift = 12
	// PageSize is the page size in bytes.
	PageSize = 1 << PageShift

	ptLevels    = 4
	ptIndexBits = PageShift - 3 // 512 eight-byte entries per node
	pteSize     = 8
)

// Page table entry fields. Exactly one of PTETable and PTEEntry must be
// set in a reachable entry; any other combination is invalid and the
// walker faults on it.
const (
	// PTETable marks an entry as a descriptor pointing at the next-level
	// table.
	PTETable uint64 = 0x001
	// PTEEntry marks an entry as a resolved leaf mapping.
	PTEEntry uint64 = 0x002
	// PTEReferenced and PTEDirty are access-tracking bits. They are
	// carried through but never set or enforced by the walker.
	PTEReferenced uint64 = 0x004
	PTEDirty      uint64 = 0x008

	// Permission bits granted when the access originates in user mode.
	PTEUserExecute uint64 = 0x010
	PTEUserWrite   uint64 = 0x020
	PTEUserRead    uint64 = 0x040

	// Permission bits granted when the access originates in supervisor
	// mode.
	PTESupervisorExecute uint64 = 0x080
	PTESupervisorWrite   uint64 = 0x100
	PTESupervisorRead    uint64 = 0x200

	// ptePPNShift is the bit position of the physical page number.
	ptePPNShift = 12
)

// Common permission combinations.
const (
	PTEUserAll       = PTEUserRead | PTEUserWrite | PTEUserExecute
	PTESupervisorAll = PTESupervisorRead | PTESupervisorWrite | PTESupervisorExecute
)

// MakePTE builds a leaf entry mapping the page at the given physical
// base address with the given permission bits.
func MakePTE(physBase uint64, perm uint64) uint64 {
	return (physBase>>PageShift)<<ptePPNShift | perm | PTEEntry
}

// makeTableDescriptor builds a descriptor entry pointing at the table
// node located at the given physical base address.
func makeTableDescriptor(physBase uint64) uint64 {
	return (physBase>>PageShift)<<ptePPNShift | PTETable
}

// ptePhysBase extracts the physical base address encoded in an entry's
// physical page number field.
func ptePhysBase(pte uint64) uint64 {
	return (pte >> ptePPNShift) << PageShift
}

// vaIndex extracts the radix index for the given tree level; level
// ptLevels-1 is the root, level 0 selects the leaf entry.
func vaIndex(addr uint64, level int) uint64 {
	return (addr >> (PageShift + uint(level)*ptIndexBits)) & (1<<ptIndexBits - 1)
}
