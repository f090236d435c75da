package emu

import "io"

// RISC-V Linux syscall numbers.
const (
	SyscallRead      uint64 = 63  // read(fd, buf, count)
	SyscallWrite     uint64 = 64  // write(fd, buf, count)
	SyscallExit      uint64 = 93  // exit(status)
	SyscallExitGroup uint64 = 94  // exit_group(status)
	SyscallBrk       uint64 = 214 // brk(addr)
)

// Linux error codes.
const (
	EBADF  = 9  // Bad file descriptor
	EFAULT = 14 // Bad address
	ENOSYS = 38 // Function not implemented
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64
}

// SyscallHandler is the interface for handling RISC-V syscalls.
type SyscallHandler interface {
	// Handle executes the syscall indicated by the register file state.
	// RISC-V Linux syscall convention:
	//   - Syscall number in a7
	//   - Arguments in a0-a5
	//   - Return value in a0
	Handle() SyscallResult
}

// DefaultSyscallHandler provides a basic syscall handler. Buffer
// addresses are translated through the MMU so syscalls behave correctly
// whether or not paging is enabled.
type DefaultSyscallHandler struct {
	regFile *RegFile
	mmu     *MMU
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler(regFile *RegFile, mmu *MMU, stdout, stderr io.Writer) *DefaultSyscallHandler {
	return &DefaultSyscallHandler{
		regFile: regFile,
		mmu:     mmu,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// SetStdin sets the stdin reader for the syscall handler.
func (h *DefaultSyscallHandler) SetStdin(stdin io.Reader) {
	h.stdin = stdin
}

// Handle executes the syscall indicated by the register file state.
func (h *DefaultSyscallHandler) Handle() SyscallResult {
	switch h.regFile.ReadReg(RegA7) {
	case SyscallRead:
		return h.handleRead()
	case SyscallWrite:
		return h.handleWrite()
	case SyscallExit, SyscallExitGroup:
		return h.handleExit()
	case SyscallBrk:
		// No heap management: report the current break unchanged.
		return SyscallResult{}
	default:
		h.setError(ENOSYS)
		return SyscallResult{}
	}
}

// handleExit handles the exit and exit_group syscalls.
func (h *DefaultSyscallHandler) handleExit() SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: int64(h.regFile.ReadReg(RegA0)),
	}
}

// handleRead handles the read syscall (63).
func (h *DefaultSyscallHandler) handleRead() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	if fd != 0 {
		h.setError(EBADF)
		return SyscallResult{}
	}

	// If no stdin is configured, return EOF
	if h.stdin == nil {
		h.regFile.WriteReg(RegA0, 0)
		return SyscallResult{}
	}

	buf := make([]byte, count)
	n, err := h.stdin.Read(buf)
	if err != nil && n == 0 {
		// EOF or error with no bytes read
		h.regFile.WriteReg(RegA0, 0)
		return SyscallResult{}
	}

	for i := 0; i < n; i++ {
		if err := h.mmu.StoreUint8(bufPtr+uint64(i), buf[i]); err != nil {
			h.setError(EFAULT)
			return SyscallResult{}
		}
	}

	h.regFile.WriteReg(RegA0, uint64(n))
	return SyscallResult{}
}

// handleWrite handles the write syscall (64).
func (h *DefaultSyscallHandler) handleWrite() SyscallResult {
	fd := h.regFile.ReadReg(RegA0)
	bufPtr := h.regFile.ReadReg(RegA1)
	count := h.regFile.ReadReg(RegA2)

	var writer io.Writer
	switch fd {
	case 1:
		writer = h.stdout
	case 2:
		writer = h.stderr
	default:
		h.setError(EBADF)
		return SyscallResult{}
	}

	buf := make([]byte, count)
	for i := uint64(0); i < count; i++ {
		b, err := h.mmu.LoadUint8(bufPtr + i)
		if err != nil {
			h.setError(EFAULT)
			return SyscallResult{}
		}
		buf[i] = b
	}

	n, err := writer.Write(buf)
	if err != nil {
		h.setError(EBADF)
		return SyscallResult{}
	}

	h.regFile.WriteReg(RegA0, uint64(n))
	return SyscallResult{}
}

// setError places a negative errno in the return register.
func (h *DefaultSyscallHandler) setError(errno int64) {
	h.regFile.WriteReg(RegA0, uint64(-errno))
}
