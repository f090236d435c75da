package emu

import "fmt"

// PageTableBuilder constructs radix page tables directly inside a
// backing memory buffer, in the format the MMU's walker consumes. Table
// nodes are bump-allocated from a caller-designated region of the
// buffer; the builder never touches pages outside that region except to
// write nothing at all — mapped data pages are the caller's business.
type PageTableBuilder struct {
	mem  *Memory
	root uint64
	next uint64
}

// NewPageTableBuilder creates a builder whose root table node lives at
// the page-aligned offset region; further nodes are allocated from the
// pages that follow it.
func NewPageTableBuilder(mem *Memory, region uint64) *PageTableBuilder {
	b := &PageTableBuilder{
		mem:  mem,
		root: region &^ (PageSize - 1),
	}
	b.next = b.root
	b.root = b.allocNode() // the first allocation is the root itself
	return b
}

// Root returns the physical address of the root table node, suitable
// for MMU.SetPageTableBase.
func (b *PageTableBuilder) Root() uint64 {
	return b.root
}

// Map installs a leaf mapping from the virtual page containing vaddr to
// the physical page containing paddr, with the given permission bits
// (PTEUserRead, PTESupervisorWrite, ...). Intermediate table nodes are
// allocated as needed. Remapping an existing leaf overwrites it.
func (b *PageTableBuilder) Map(vaddr, paddr uint64, perm uint64) error {
	base := b.root

	for level := ptLevels - 1; level > 0; level-- {
		off := base + vaIndex(vaddr, level)*pteSize
		pte := b.mem.Read64(off)

		switch {
		case pte&PTETable != 0:
			base = ptePhysBase(pte)
		case pte == 0:
			node := b.allocNode()
			if !b.mem.InRange(node, PageSize) {
				return fmt.Errorf("page table region exhausted at 0x%X", node)
			}
			b.mem.Write64(off, makeTableDescriptor(node))
			base = node
		default:
			return fmt.Errorf("0x%X already mapped by a leaf at level %d", vaddr, level)
		}
	}

	off := base + vaIndex(vaddr, 0)*pteSize
	b.mem.Write64(off, MakePTE(paddr, perm))
	return nil
}

// allocNode carves the next zeroed page out of the table region.
func (b *PageTableBuilder) allocNode() uint64 {
	node := b.next
	b.next += PageSize
	for off := uint64(0); off < PageSize; off += pteSize {
		b.mem.Write64(node+off, 0)
	}
	return node
}
