package emu

// RegFile represents the RV64 integer register file: 32 general-purpose
// registers and the program counter. Register x0 is hardwired to zero.
type RegFile struct {
	// X holds general-purpose registers x0-x31. X[0] always reads as 0.
	X [32]uint64

	// PC is the program counter.
	PC uint64
}

// ABI register numbers used by the emulator and syscall handler.
const (
	// RegRA is the return address register (x1).
	RegRA uint8 = 1
	// RegSP is the stack pointer register (x2).
	RegSP uint8 = 2
	// RegA0 is the first argument/return register (x10).
	RegA0 uint8 = 10
	// RegA1 and RegA2 are argument registers.
	RegA1 uint8 = 11
	RegA2 uint8 = 12
	// RegA7 carries the syscall number (x17).
	RegA7 uint8 = 17
)

// ReadReg reads a register value. Register 0 always returns 0, as do
// out-of-range register numbers.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 and
// out-of-range register numbers are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}
