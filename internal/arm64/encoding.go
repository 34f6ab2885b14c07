package arm64

// encodeRegisterToRegister encodes the shifted register data processing forms with a zero shift.
// opcode21 is bits 31 to 21 of the 64-bit variant.
func encodeRegisterToRegister(opcode21 uint32, rd, rn, rm uint32, _64bit bool) uint32 {
	ret := opcode21<<21 | rm<<16 | rn<<5 | rd
	if !_64bit {
		ret &^= sfBit
	}
	return ret
}

// encodeDataProcessing2 encodes the data processing (2 source) forms, e.g. LSLV.
func encodeDataProcessing2(base uint32, rd, rn, rm uint32, _64bit bool) uint32 {
	ret := base | rm<<16 | rn<<5 | rd
	if !_64bit {
		ret &^= sfBit
	}
	return ret
}

// encodeLoadOrStoreImm12 encodes load/store with an unsigned offset already scaled by the access width.
func encodeLoadOrStoreImm12(opcode10 uint32, rt, rn uint32, imm12 uint32) uint32 {
	return opcode10<<22 | (imm12&maxImm12)<<10 | rn<<5 | rt
}

// encodeLoadOrStoreRegisterOffset encodes load/store of [rn, rm].
func encodeLoadOrStoreRegisterOffset(base uint32, rt, rn, rm uint32) uint32 {
	return base | rm<<16 | rn<<5 | rt
}

// encodeLoadLiteral encodes LDR (literal) where imm19 is the distance in words.
func encodeLoadLiteral(rt uint32, imm19 int64) uint32 {
	return insnLDRLiteral | uint32(imm19&0x7ffff)<<5 | rt
}

// encodeUnconditionalBranch encodes B, or BL if link, where imm26 is the distance in words.
func encodeUnconditionalBranch(link bool, imm26 int64) uint32 {
	ret := insnB
	if link {
		ret = insnBL
	}
	return ret | uint32(imm26&0x3ffffff)
}

// encodeCBNZ encodes CBNZ where imm19 is the distance in words.
func encodeCBNZ(rt uint32, imm19 int64, _64bit bool) uint32 {
	ret := insnCBNZ | uint32(imm19&0x7ffff)<<5 | rt
	if !_64bit {
		ret &^= sfBit
	}
	return ret
}

// encodeBranchRegister encodes BR, BLR and RET.
func encodeBranchRegister(base uint32, rn uint32) uint32 {
	return base | rn<<5
}
