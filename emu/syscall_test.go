package emu_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/r5sim/emu"
)

var _ = Describe("DefaultSyscallHandler", func() {
	var (
		regFile   *emu.RegFile
		mem       *emu.Memory
		mmu       *emu.MMU
		stdoutBuf *bytes.Buffer
		stderrBuf *bytes.Buffer
		handler   *emu.DefaultSyscallHandler
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		mem = emu.NewMemory(1 << 20)
		mmu = emu.NewMMU(mem, nil)
		stdoutBuf = &bytes.Buffer{}
		stderrBuf = &bytes.Buffer{}
		handler = emu.NewDefaultSyscallHandler(regFile, mmu, stdoutBuf, stderrBuf)
	})

	Describe("exit", func() {
		It("should terminate with the status in a0", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallExit)
			regFile.WriteReg(emu.RegA0, 42)

			result := handler.Handle()
			Expect(result.Exited).To(BeTrue())
			Expect(result.ExitCode).To(Equal(int64(42)))
		})

		It("should treat exit_group the same way", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallExitGroup)
			regFile.WriteReg(emu.RegA0, 7)

			result := handler.Handle()
			Expect(result.Exited).To(BeTrue())
			Expect(result.ExitCode).To(Equal(int64(7)))
		})
	})

	Describe("write", func() {
		It("should write bytes from memory to stdout", func() {
			msg := "Hello, world!\n"
			for i := 0; i < len(msg); i++ {
				mem.Write8(uint64(0x1000+i), msg[i])
			}

			regFile.WriteReg(emu.RegA7, emu.SyscallWrite)
			regFile.WriteReg(emu.RegA0, 1)
			regFile.WriteReg(emu.RegA1, 0x1000)
			regFile.WriteReg(emu.RegA2, uint64(len(msg)))

			result := handler.Handle()
			Expect(result.Exited).To(BeFalse())
			Expect(stdoutBuf.String()).To(Equal(msg))
			Expect(regFile.ReadReg(emu.RegA0)).To(Equal(uint64(len(msg))))
		})

		It("should route fd 2 to stderr", func() {
			mem.Write8(0x1000, 'x')

			regFile.WriteReg(emu.RegA7, emu.SyscallWrite)
			regFile.WriteReg(emu.RegA0, 2)
			regFile.WriteReg(emu.RegA1, 0x1000)
			regFile.WriteReg(emu.RegA2, 1)

			handler.Handle()
			Expect(stderrBuf.String()).To(Equal("x"))
			Expect(stdoutBuf.Len()).To(Equal(0))
		})

		It("should return -EBADF for an unknown fd", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallWrite)
			regFile.WriteReg(emu.RegA0, 5)

			handler.Handle()
			Expect(int64(regFile.ReadReg(emu.RegA0))).To(Equal(int64(-emu.EBADF)))
		})

		It("should return -EFAULT for an untranslatable buffer", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallWrite)
			regFile.WriteReg(emu.RegA0, 1)
			regFile.WriteReg(emu.RegA1, mem.Size()+0x1000)
			regFile.WriteReg(emu.RegA2, 4)

			handler.Handle()
			Expect(int64(regFile.ReadReg(emu.RegA0))).To(Equal(int64(-emu.EFAULT)))
		})
	})

	Describe("read", func() {
		It("should read from stdin into memory", func() {
			handler.SetStdin(strings.NewReader("input"))

			regFile.WriteReg(emu.RegA7, emu.SyscallRead)
			regFile.WriteReg(emu.RegA0, 0)
			regFile.WriteReg(emu.RegA1, 0x2000)
			regFile.WriteReg(emu.RegA2, 5)

			handler.Handle()
			Expect(regFile.ReadReg(emu.RegA0)).To(Equal(uint64(5)))
			Expect(mem.Read8(0x2000)).To(Equal(uint8('i')))
			Expect(mem.Read8(0x2004)).To(Equal(uint8('t')))
		})

		It("should return 0 at EOF", func() {
			handler.SetStdin(strings.NewReader(""))

			regFile.WriteReg(emu.RegA7, emu.SyscallRead)
			regFile.WriteReg(emu.RegA0, 0)
			regFile.WriteReg(emu.RegA2, 4)

			handler.Handle()
			Expect(regFile.ReadReg(emu.RegA0)).To(Equal(uint64(0)))
		})

		It("should return 0 when no stdin is configured", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallRead)
			regFile.WriteReg(emu.RegA0, 0)
			regFile.WriteReg(emu.RegA2, 4)

			handler.Handle()
			Expect(regFile.ReadReg(emu.RegA0)).To(Equal(uint64(0)))
		})

		It("should return -EBADF for a non-stdin fd", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallRead)
			regFile.WriteReg(emu.RegA0, 3)

			handler.Handle()
			Expect(int64(regFile.ReadReg(emu.RegA0))).To(Equal(int64(-emu.EBADF)))
		})
	})

	Describe("brk", func() {
		It("should leave a0 unchanged", func() {
			regFile.WriteReg(emu.RegA7, emu.SyscallBrk)
			regFile.WriteReg(emu.RegA0, 0x5000)

			result := handler.Handle()
			Expect(result.Exited).To(BeFalse())
			Expect(regFile.ReadReg(emu.RegA0)).To(Equal(uint64(0x5000)))
		})
	})

	Describe("unknown syscalls", func() {
		It("should return -ENOSYS", func() {
			regFile.WriteReg(emu.RegA7, 9999)

			result := handler.Handle()
			Expect(result.Exited).To(BeFalse())
			Expect(int64(regFile.ReadReg(emu.RegA0))).To(Equal(int64(-emu.ENOSYS)))
		})
	})
})
