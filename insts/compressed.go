package insts

// Compressed (RVC) decoding. Each 16-bit encoding expands to its base-ISA
// equivalent so execution needs no separate compressed paths; only the
// instruction length differs.

// creg maps a 3-bit compressed register field to x8-x15.
func creg(field uint16) uint8 {
	return uint8(field&0x7) + 8
}

// sext sign-extends the low width bits of v.
func sext(v uint64, width uint) int64 {
	shift := 64 - width
	return int64(v<<shift) >> shift
}

func (d *Decoder) decodeCompressed(bits uint16) *Instruction {
	inst := &Instruction{
		Op:         OpUnknown,
		Format:     FormatUnknown,
		Compressed: true,
	}

	funct3 := (bits >> 13) & 0x7

	switch bits & 0x3 {
	case 0:
		d.decodeCompressedQ0(bits, funct3, inst)
	case 1:
		d.decodeCompressedQ1(bits, funct3, inst)
	case 2:
		d.decodeCompressedQ2(bits, funct3, inst)
	}

	return inst
}

// decodeCompressedQ0 decodes quadrant 0: stack-pointer arithmetic and
// register-relative loads/stores of x8-x15.
func (d *Decoder) decodeCompressedQ0(bits, funct3 uint16, inst *Instruction) {
	switch funct3 {
	case 0b000: // C.ADDI4SPN
		imm := uint64((bits>>7)&0xF) << 6 // bits [10:7] -> uimm[9:6]
		imm |= uint64((bits>>11)&0x3) << 4 // bits [12:11] -> uimm[5:4]
		imm |= uint64((bits>>5)&0x1) << 3  // bit 5 -> uimm[3]
		imm |= uint64((bits>>6)&0x1) << 2  // bit 6 -> uimm[2]
		if imm == 0 {
			return // reserved encoding
		}
		inst.Op = OpADDI
		inst.Format = FormatI
		inst.Rd = creg(bits >> 2)
		inst.Rs1 = 2
		inst.Imm = int64(imm)
	case 0b010: // C.LW
		inst.Op = OpLW
		inst.Format = FormatI
		inst.Rd = creg(bits >> 2)
		inst.Rs1 = creg(bits >> 7)
		inst.Imm = int64(cImmW(bits))
	case 0b011: // C.LD
		inst.Op = OpLD
		inst.Format = FormatI
		inst.Rd = creg(bits >> 2)
		inst.Rs1 = creg(bits >> 7)
		inst.Imm = int64(cImmD(bits))
	case 0b110: // C.SW
		inst.Op = OpSW
		inst.Format = FormatS
		inst.Rs2 = creg(bits >> 2)
		inst.Rs1 = creg(bits >> 7)
		inst.Imm = int64(cImmW(bits))
	case 0b111: // C.SD
		inst.Op = OpSD
		inst.Format = FormatS
		inst.Rs2 = creg(bits >> 2)
		inst.Rs1 = creg(bits >> 7)
		inst.Imm = int64(cImmD(bits))
	}
}

// cImmW extracts the word-scaled offset used by C.LW/C.SW.
func cImmW(bits uint16) uint64 {
	imm := uint64((bits>>10)&0x7) << 3 // bits [12:10] -> uimm[5:3]
	imm |= uint64((bits>>6)&0x1) << 2  // bit 6 -> uimm[2]
	imm |= uint64((bits>>5)&0x1) << 6  // bit 5 -> uimm[6]
	return imm
}

// cImmD extracts the doubleword-scaled offset used by C.LD/C.SD.
func cImmD(bits uint16) uint64 {
	imm := uint64((bits>>10)&0x7) << 3 // bits [12:10] -> uimm[5:3]
	imm |= uint64((bits>>5)&0x3) << 6  // bits [6:5] -> uimm[7:6]
	return imm
}

// decodeCompressedQ1 decodes quadrant 1: immediate arithmetic, control
// transfer, and the register-register ALU group.
func (d *Decoder) decodeCompressedQ1(bits, funct3 uint16, inst *Instruction) {
	r := uint8((bits >> 7) & 0x1F)
	imm6 := sext(uint64((bits>>12)&0x1)<<5|uint64((bits>>2)&0x1F), 6)

	switch funct3 {
	case 0b000: // C.NOP / C.ADDI
		inst.Op = OpADDI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = imm6
	case 0b001: // C.ADDIW
		if r == 0 {
			return // reserved
		}
		inst.Op = OpADDIW
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = imm6
	case 0b010: // C.LI
		inst.Op = OpADDI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = 0
		inst.Imm = imm6
	case 0b011:
		if r == 2 { // C.ADDI16SP
			imm := uint64((bits>>12)&0x1) << 9 // bit 12 -> imm[9]
			imm |= uint64((bits>>3)&0x3) << 7  // bits [4:3] -> imm[8:7]
			imm |= uint64((bits>>5)&0x1) << 6  // bit 5 -> imm[6]
			imm |= uint64((bits>>2)&0x1) << 5  // bit 2 -> imm[5]
			imm |= uint64((bits>>6)&0x1) << 4  // bit 6 -> imm[4]
			inst.Op = OpADDI
			inst.Format = FormatI
			inst.Rd = 2
			inst.Rs1 = 2
			inst.Imm = sext(imm, 10)
		} else if r != 0 { // C.LUI
			inst.Op = OpLUI
			inst.Format = FormatU
			inst.Rd = r
			inst.Imm = imm6 << 12
		}
	case 0b100:
		d.decodeCompressedALU(bits, inst)
	case 0b101: // C.J
		inst.Op = OpJAL
		inst.Format = FormatJ
		inst.Rd = 0
		inst.Imm = cImmJ(bits)
	case 0b110: // C.BEQZ
		inst.Op = OpBEQ
		inst.Format = FormatB
		inst.Rs1 = creg(bits >> 7)
		inst.Rs2 = 0
		inst.Imm = cImmB(bits)
	case 0b111: // C.BNEZ
		inst.Op = OpBNE
		inst.Format = FormatB
		inst.Rs1 = creg(bits >> 7)
		inst.Rs2 = 0
		inst.Imm = cImmB(bits)
	}
}

// decodeCompressedALU decodes the quadrant-1 funct3=100 ALU group.
func (d *Decoder) decodeCompressedALU(bits uint16, inst *Instruction) {
	r := creg(bits >> 7)
	shamt := uint64((bits>>12)&0x1)<<5 | uint64((bits>>2)&0x1F)

	switch (bits >> 10) & 0x3 {
	case 0b00: // C.SRLI
		inst.Op = OpSRLI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = int64(shamt)
	case 0b01: // C.SRAI
		inst.Op = OpSRAI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = int64(shamt)
	case 0b10: // C.ANDI
		inst.Op = OpANDI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = sext(shamt, 6)
	case 0b11:
		inst.Format = FormatR
		inst.Rd = r
		inst.Rs1 = r
		inst.Rs2 = creg(bits >> 2)

		w := bits&0x1000 != 0
		switch (bits >> 5) & 0x3 {
		case 0b00:
			if w {
				inst.Op = OpSUBW
			} else {
				inst.Op = OpSUB
			}
		case 0b01:
			if w {
				inst.Op = OpADDW
			} else {
				inst.Op = OpXOR
			}
		case 0b10:
			inst.Op = OpOR
		case 0b11:
			inst.Op = OpAND
		}
		if w && (bits>>5)&0x3 >= 0b10 {
			// Reserved encodings in the W row.
			inst.Op = OpUnknown
			inst.Format = FormatUnknown
		}
	}
}

// cImmJ extracts the C.J branch offset.
func cImmJ(bits uint16) int64 {
	imm := uint64((bits>>12)&0x1) << 11 // bit 12 -> imm[11]
	imm |= uint64((bits>>8)&0x1) << 10  // bit 8 -> imm[10]
	imm |= uint64((bits>>9)&0x3) << 8   // bits [10:9] -> imm[9:8]
	imm |= uint64((bits>>6)&0x1) << 7   // bit 6 -> imm[7]
	imm |= uint64((bits>>7)&0x1) << 6   // bit 7 -> imm[6]
	imm |= uint64((bits>>2)&0x1) << 5   // bit 2 -> imm[5]
	imm |= uint64((bits>>11)&0x1) << 4  // bit 11 -> imm[4]
	imm |= uint64((bits>>3)&0x7) << 1   // bits [5:3] -> imm[3:1]
	return sext(imm, 12)
}

// cImmB extracts the C.BEQZ/C.BNEZ branch offset.
func cImmB(bits uint16) int64 {
	imm := uint64((bits>>12)&0x1) << 8 // bit 12 -> imm[8]
	imm |= uint64((bits>>5)&0x3) << 6  // bits [6:5] -> imm[7:6]
	imm |= uint64((bits>>2)&0x1) << 5  // bit 2 -> imm[5]
	imm |= uint64((bits>>10)&0x3) << 3 // bits [11:10] -> imm[4:3]
	imm |= uint64((bits>>3)&0x3) << 1  // bits [4:3] -> imm[2:1]
	return sext(imm, 9)
}

// decodeCompressedQ2 decodes quadrant 2: shifts, stack-relative
// loads/stores, and the jump/move/add group.
func (d *Decoder) decodeCompressedQ2(bits, funct3 uint16, inst *Instruction) {
	r := uint8((bits >> 7) & 0x1F)
	rs2 := uint8((bits >> 2) & 0x1F)

	switch funct3 {
	case 0b000: // C.SLLI
		inst.Op = OpSLLI
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = r
		inst.Imm = int64(uint64((bits>>12)&0x1)<<5 | uint64(rs2))
	case 0b010: // C.LWSP
		if r == 0 {
			return // reserved
		}
		imm := uint64((bits>>12)&0x1) << 5 // bit 12 -> uimm[5]
		imm |= uint64((bits>>4)&0x7) << 2  // bits [6:4] -> uimm[4:2]
		imm |= uint64((bits>>2)&0x3) << 6  // bits [3:2] -> uimm[7:6]
		inst.Op = OpLW
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = 2
		inst.Imm = int64(imm)
	case 0b011: // C.LDSP
		if r == 0 {
			return // reserved
		}
		imm := uint64((bits>>12)&0x1) << 5 // bit 12 -> uimm[5]
		imm |= uint64((bits>>5)&0x3) << 3  // bits [6:5] -> uimm[4:3]
		imm |= uint64((bits>>2)&0x7) << 6  // bits [4:2] -> uimm[8:6]
		inst.Op = OpLD
		inst.Format = FormatI
		inst.Rd = r
		inst.Rs1 = 2
		inst.Imm = int64(imm)
	case 0b100:
		switch {
		case bits&0x1000 == 0 && rs2 == 0: // C.JR
			if r == 0 {
				return // reserved
			}
			inst.Op = OpJALR
			inst.Format = FormatI
			inst.Rd = 0
			inst.Rs1 = r
		case bits&0x1000 == 0: // C.MV
			inst.Op = OpADD
			inst.Format = FormatR
			inst.Rd = r
			inst.Rs1 = 0
			inst.Rs2 = rs2
		case rs2 == 0 && r == 0: // C.EBREAK
			inst.Op = OpEBREAK
			inst.Format = FormatSystem
		case rs2 == 0: // C.JALR
			inst.Op = OpJALR
			inst.Format = FormatI
			inst.Rd = 1
			inst.Rs1 = r
		default: // C.ADD
			inst.Op = OpADD
			inst.Format = FormatR
			inst.Rd = r
			inst.Rs1 = r
			inst.Rs2 = rs2
		}
	case 0b110: // C.SWSP
		imm := uint64((bits>>9)&0xF) << 2 // bits [12:9] -> uimm[5:2]
		imm |= uint64((bits>>7)&0x3) << 6 // bits [8:7] -> uimm[7:6]
		inst.Op = OpSW
		inst.Format = FormatS
		inst.Rs1 = 2
		inst.Rs2 = rs2
		inst.Imm = int64(imm)
	case 0b111: // C.SDSP
		imm := uint64((bits>>10)&0x7) << 3 // bits [12:10] -> uimm[5:3]
		imm |= uint64((bits>>7)&0x7) << 6  // bits [9:7] -> uimm[8:6]
		inst.Op = OpSD
		inst.Format = FormatS
		inst.Rs1 = 2
		inst.Rs2 = rs2
		inst.Imm = int64(imm)
	}
}
