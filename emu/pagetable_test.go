package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/emu"
)

var _ = Describe("PageTableBuilder", func() {
	var (
		mem *emu.Memory
		bld *emu.PageTableBuilder
	)

	BeforeEach(func() {
		mem = emu.NewMemory(64 * emu.PageSize)
		bld = emu.NewPageTableBuilder(mem, 32*emu.PageSize)
	})

	It("should place the root at the start of the region", func() {
		Expect(bld.Root()).To(Equal(uint64(32 * emu.PageSize)))
	})

	It("should align the region down to a page boundary", func() {
		b := emu.NewPageTableBuilder(mem, 32*emu.PageSize+0x123)
		Expect(b.Root()).To(Equal(uint64(32 * emu.PageSize)))
	})

	It("should build mappings the walker can resolve", func() {
		Expect(bld.Map(0x2000, 9*emu.PageSize, emu.PTEUserAll)).To(Succeed())

		mmu := emu.NewMMU(mem, nil)
		mmu.SetPageTableBase(bld.Root())
		mmu.SetVMEnabled(true)

		paddr, err := mmu.Translate(0x2ABC, emu.AccessLoad)
		Expect(err).NotTo(HaveOccurred())
		Expect(paddr).To(Equal(uint64(9*emu.PageSize + 0xABC)))
	})

	It("should share interior nodes between nearby pages", func() {
		Expect(bld.Map(0x0000, 5*emu.PageSize, emu.PTEUserAll)).To(Succeed())
		Expect(bld.Map(0x1000, 6*emu.PageSize, emu.PTEUserAll)).To(Succeed())

		mmu := emu.NewMMU(mem, nil)
		mmu.SetPageTableBase(bld.Root())
		mmu.SetVMEnabled(true)

		p0, err := mmu.Translate(0x0, emu.AccessLoad)
		Expect(err).NotTo(HaveOccurred())
		Expect(p0).To(Equal(uint64(5 * emu.PageSize)))

		p1, err := mmu.Translate(0x1000, emu.AccessLoad)
		Expect(err).NotTo(HaveOccurred())
		Expect(p1).To(Equal(uint64(6 * emu.PageSize)))
	})

	It("should map widely separated virtual addresses", func() {
		high := uint64(1) << 38
		Expect(bld.Map(high, 7*emu.PageSize, emu.PTESupervisorAll)).To(Succeed())

		mmu := emu.NewMMU(mem, nil)
		mmu.SetPageTableBase(bld.Root())
		mmu.SetVMEnabled(true)
		mmu.SetSupervisor(true)

		paddr, err := mmu.Translate(high+0x10, emu.AccessLoad)
		Expect(err).NotTo(HaveOccurred())
		Expect(paddr).To(Equal(uint64(7*emu.PageSize + 0x10)))
	})

	It("should overwrite an existing leaf on remap", func() {
		Expect(bld.Map(0x1000, 5*emu.PageSize, emu.PTEUserAll)).To(Succeed())
		Expect(bld.Map(0x1000, 6*emu.PageSize, emu.PTEUserAll)).To(Succeed())

		mmu := emu.NewMMU(mem, nil)
		mmu.SetPageTableBase(bld.Root())
		mmu.SetVMEnabled(true)

		paddr, err := mmu.Translate(0x1000, emu.AccessLoad)
		Expect(err).NotTo(HaveOccurred())
		Expect(paddr).To(Equal(uint64(6 * emu.PageSize)))
	})

	It("should refuse to descend through a leaf at an interior level", func() {
		// Plant a leaf in the root slot that covers low addresses.
		mem.Write64(bld.Root(), emu.MakePTE(5*emu.PageSize, emu.PTEUserAll))

		err := bld.Map(0x1000, 6*emu.PageSize, emu.PTEUserAll)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("already mapped"))
	})

	It("should report exhaustion of the table region", func() {
		small := emu.NewMemory(8 * emu.PageSize)
		b := emu.NewPageTableBuilder(small, 7*emu.PageSize)

		err := b.Map(0x1000, 0, emu.PTEUserAll)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("exhausted"))
	})
})
