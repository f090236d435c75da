// Package insts provides RISC-V instruction definitions and decoding.
//
// This package implements decoding of RV64I machine code (plus the
// compressed-instruction subset needed for variable-length fetch) into
// structured instruction representations.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00A30313) // ADDI x6, x6, 10
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

// Op represents a RISC-V operation.
type Op uint16

// RV64I operations, plus the M-extension multiply/divide group.
const (
	OpUnknown Op = iota

	// Upper-immediate and PC-relative
	OpLUI
	OpAUIPC

	// Jumps
	OpJAL
	OpJALR

	// Conditional branches
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// Loads
	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU

	// Stores
	OpSB
	OpSH
	OpSW
	OpSD

	// Integer register-immediate
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW

	// Integer register-register
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW

	// M extension
	OpMUL
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	// System
	OpECALL
	OpEBREAK
	OpFENCE
)

// Format represents an instruction encoding format.
type Format uint8

// RISC-V base encoding formats.
const (
	FormatUnknown Format = iota
	FormatR              // register-register
	FormatI              // register-immediate, loads, JALR
	FormatS              // stores
	FormatB              // conditional branches
	FormatU              // LUI, AUIPC
	FormatJ              // JAL
	FormatSystem         // ECALL, EBREAK, FENCE
)

// Instruction represents a decoded RISC-V instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format

	Rd  uint8 // Destination register
	Rs1 uint8 // First source register
	Rs2 uint8 // Second source register

	// Imm is the sign-extended immediate operand. For shifts it holds the
	// shift amount; for branches and jumps it holds the byte offset from
	// the instruction's own address.
	Imm int64

	// Compressed is true if the instruction came from a 16-bit encoding.
	// Compressed instructions advance the PC by 2 instead of 4.
	Compressed bool
}

// Length returns the instruction length in bytes.
func (i *Instruction) Length() uint64 {
	if i.Compressed {
		return 2
	}
	return 4
}

// IsCompressed reports whether the given raw bits encode a compressed
// (16-bit) instruction. Only the low 2 bits participate: full-width
// instructions have both set.
func IsCompressed(bits uint32) bool {
	return bits&0x3 != 0x3
}
