package insts

// Decoder decodes RISC-V machine code into instructions.
//
// The decoder is stateless: decoding is a pure function of the raw bits,
// so decoded instructions may be cached by address without going stale.
type Decoder struct{}

// NewDecoder creates a new RISC-V instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Resolve maps raw instruction bits to an opaque dispatch handle. It
// allows the Decoder to serve as a decode resolver for the MMU's
// instruction cache.
func (d *Decoder) Resolve(bits uint32) any {
	return d.Decode(bits)
}

// Decode decodes an instruction word. Compressed (16-bit) encodings are
// recognized from the low 2 bits and expanded to their base-ISA
// equivalents; the upper half of the word is ignored for them.
func (d *Decoder) Decode(bits uint32) *Instruction {
	if IsCompressed(bits) {
		return d.decodeCompressed(uint16(bits))
	}

	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown}

	opcode := bits & 0x7F
	switch opcode {
	case 0x37:
		d.decodeLUI(bits, inst)
	case 0x17:
		d.decodeAUIPC(bits, inst)
	case 0x6F:
		d.decodeJAL(bits, inst)
	case 0x67:
		d.decodeJALR(bits, inst)
	case 0x63:
		d.decodeBranch(bits, inst)
	case 0x03:
		d.decodeLoad(bits, inst)
	case 0x23:
		d.decodeStore(bits, inst)
	case 0x13:
		d.decodeOpImm(bits, inst)
	case 0x1B:
		d.decodeOpImm32(bits, inst)
	case 0x33:
		d.decodeOp(bits, inst)
	case 0x3B:
		d.decodeOp32(bits, inst)
	case 0x0F:
		inst.Op = OpFENCE
		inst.Format = FormatSystem
	case 0x73:
		d.decodeSystem(bits, inst)
	}

	return inst
}

// Register field accessors (base 32-bit encodings).

func rd(bits uint32) uint8  { return uint8((bits >> 7) & 0x1F) }
func rs1(bits uint32) uint8 { return uint8((bits >> 15) & 0x1F) }
func rs2(bits uint32) uint8 { return uint8((bits >> 20) & 0x1F) }

// immI extracts the sign-extended I-type immediate (bits [31:20]).
func immI(bits uint32) int64 {
	return int64(int32(bits)) >> 20
}

// immS extracts the sign-extended S-type immediate.
func immS(bits uint32) int64 {
	imm := int64(int32(bits&0xFE000000)) >> 20
	imm |= int64((bits >> 7) & 0x1F)
	return imm
}

// immB extracts the sign-extended B-type branch offset.
func immB(bits uint32) int64 {
	imm := int64(int32(bits)>>31) << 12 // bit 31 -> imm[12]
	imm |= int64((bits>>7)&0x1) << 11   // bit 7 -> imm[11]
	imm |= int64((bits>>25)&0x3F) << 5  // bits [30:25] -> imm[10:5]
	imm |= int64((bits>>8)&0xF) << 1    // bits [11:8] -> imm[4:1]
	return imm
}

// immU extracts the U-type immediate (upper 20 bits, sign-extended).
func immU(bits uint32) int64 {
	return int64(int32(bits & 0xFFFFF000))
}

// immJ extracts the sign-extended J-type jump offset.
func immJ(bits uint32) int64 {
	imm := int64(int32(bits)>>31) << 20  // bit 31 -> imm[20]
	imm |= int64((bits>>12)&0xFF) << 12  // bits [19:12] -> imm[19:12]
	imm |= int64((bits>>20)&0x1) << 11   // bit 20 -> imm[11]
	imm |= int64((bits>>21)&0x3FF) << 1  // bits [30:21] -> imm[10:1]
	return imm
}

func (d *Decoder) decodeLUI(bits uint32, inst *Instruction) {
	inst.Op = OpLUI
	inst.Format = FormatU
	inst.Rd = rd(bits)
	inst.Imm = immU(bits)
}

func (d *Decoder) decodeAUIPC(bits uint32, inst *Instruction) {
	inst.Op = OpAUIPC
	inst.Format = FormatU
	inst.Rd = rd(bits)
	inst.Imm = immU(bits)
}

func (d *Decoder) decodeJAL(bits uint32, inst *Instruction) {
	inst.Op = OpJAL
	inst.Format = FormatJ
	inst.Rd = rd(bits)
	inst.Imm = immJ(bits)
}

func (d *Decoder) decodeJALR(bits uint32, inst *Instruction) {
	inst.Op = OpJALR
	inst.Format = FormatI
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Imm = immI(bits)
}

func (d *Decoder) decodeBranch(bits uint32, inst *Instruction) {
	inst.Format = FormatB
	inst.Rs1 = rs1(bits)
	inst.Rs2 = rs2(bits)
	inst.Imm = immB(bits)

	switch (bits >> 12) & 0x7 {
	case 0:
		inst.Op = OpBEQ
	case 1:
		inst.Op = OpBNE
	case 4:
		inst.Op = OpBLT
	case 5:
		inst.Op = OpBGE
	case 6:
		inst.Op = OpBLTU
	case 7:
		inst.Op = OpBGEU
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeLoad(bits uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Imm = immI(bits)

	switch (bits >> 12) & 0x7 {
	case 0:
		inst.Op = OpLB
	case 1:
		inst.Op = OpLH
	case 2:
		inst.Op = OpLW
	case 3:
		inst.Op = OpLD
	case 4:
		inst.Op = OpLBU
	case 5:
		inst.Op = OpLHU
	case 6:
		inst.Op = OpLWU
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeStore(bits uint32, inst *Instruction) {
	inst.Format = FormatS
	inst.Rs1 = rs1(bits)
	inst.Rs2 = rs2(bits)
	inst.Imm = immS(bits)

	switch (bits >> 12) & 0x7 {
	case 0:
		inst.Op = OpSB
	case 1:
		inst.Op = OpSH
	case 2:
		inst.Op = OpSW
	case 3:
		inst.Op = OpSD
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeOpImm(bits uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Imm = immI(bits)

	switch (bits >> 12) & 0x7 {
	case 0:
		inst.Op = OpADDI
	case 1:
		inst.Op = OpSLLI
		inst.Imm = int64((bits >> 20) & 0x3F) // shamt[5:0]
	case 2:
		inst.Op = OpSLTI
	case 3:
		inst.Op = OpSLTIU
	case 4:
		inst.Op = OpXORI
	case 5:
		inst.Imm = int64((bits >> 20) & 0x3F)
		if bits&0x40000000 != 0 {
			inst.Op = OpSRAI
		} else {
			inst.Op = OpSRLI
		}
	case 6:
		inst.Op = OpORI
	case 7:
		inst.Op = OpANDI
	}
}

func (d *Decoder) decodeOpImm32(bits uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Imm = immI(bits)

	switch (bits >> 12) & 0x7 {
	case 0:
		inst.Op = OpADDIW
	case 1:
		inst.Op = OpSLLIW
		inst.Imm = int64((bits >> 20) & 0x1F) // shamt[4:0]
	case 5:
		inst.Imm = int64((bits >> 20) & 0x1F)
		if bits&0x40000000 != 0 {
			inst.Op = OpSRAIW
		} else {
			inst.Op = OpSRLIW
		}
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeOp(bits uint32, inst *Instruction) {
	inst.Format = FormatR
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Rs2 = rs2(bits)

	funct3 := (bits >> 12) & 0x7
	funct7 := (bits >> 25) & 0x7F

	switch funct7 {
	case 0x00:
		switch funct3 {
		case 0:
			inst.Op = OpADD
		case 1:
			inst.Op = OpSLL
		case 2:
			inst.Op = OpSLT
		case 3:
			inst.Op = OpSLTU
		case 4:
			inst.Op = OpXOR
		case 5:
			inst.Op = OpSRL
		case 6:
			inst.Op = OpOR
		case 7:
			inst.Op = OpAND
		}
	case 0x20:
		switch funct3 {
		case 0:
			inst.Op = OpSUB
		case 5:
			inst.Op = OpSRA
		default:
			inst.Op = OpUnknown
			inst.Format = FormatUnknown
		}
	case 0x01:
		switch funct3 {
		case 0:
			inst.Op = OpMUL
		case 4:
			inst.Op = OpDIV
		case 5:
			inst.Op = OpDIVU
		case 6:
			inst.Op = OpREM
		case 7:
			inst.Op = OpREMU
		default:
			inst.Op = OpUnknown
			inst.Format = FormatUnknown
		}
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeOp32(bits uint32, inst *Instruction) {
	inst.Format = FormatR
	inst.Rd = rd(bits)
	inst.Rs1 = rs1(bits)
	inst.Rs2 = rs2(bits)

	funct3 := (bits >> 12) & 0x7
	funct7 := (bits >> 25) & 0x7F

	switch {
	case funct7 == 0x00 && funct3 == 0:
		inst.Op = OpADDW
	case funct7 == 0x20 && funct3 == 0:
		inst.Op = OpSUBW
	case funct7 == 0x00 && funct3 == 1:
		inst.Op = OpSLLW
	case funct7 == 0x00 && funct3 == 5:
		inst.Op = OpSRLW
	case funct7 == 0x20 && funct3 == 5:
		inst.Op = OpSRAW
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}

func (d *Decoder) decodeSystem(bits uint32, inst *Instruction) {
	inst.Format = FormatSystem

	if (bits>>12)&0x7 != 0 {
		// CSR instructions are not modeled.
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
		return
	}

	switch bits >> 20 {
	case 0:
		inst.Op = OpECALL
	case 1:
		inst.Op = OpEBREAK
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}
}
