package arm64

// zeroRegister is the encoding of XZR/WZR in the register fields this package emits.
const zeroRegister uint8 = 31

// linkRegister is x30.
const linkRegister uint8 = 30

// sfBit selects the 64-bit variant of data processing instructions.
const sfBit uint32 = 1 << 31

// Opcodes of the shifted register data processing forms, i.e. bits 31 to 21 of the 64-bit variant
// with shift type and amount zero.
const (
	opcodeAdd uint32 = 0b10001011000
	opcodeSub uint32 = 0b11001011000
	// opcodeMul is MADD: the accumulator field is left zero, so the product is added to x0.
	opcodeMul uint32 = 0b10011011000
	opcodeAnd uint32 = 0b10001010000
	opcodeOrr uint32 = 0b10101010000
	opcodeEor uint32 = 0b11001010000
	opcodeOrn uint32 = 0b10101010001
)

// Data processing (2 source) variable shifts, 64-bit variant.
const (
	lslv uint32 = 0x9ac02000
	lsrv uint32 = 0x9ac02400
	rorv uint32 = 0x9ac02c00
)

// Load/store with unsigned scaled immediate offset: bits 31 to 22.
const (
	opcodeStrb uint32 = 0b0011100100
	opcodeLdrb uint32 = 0b0011100101
	opcodeStrh uint32 = 0b0111100100
	opcodeLdrh uint32 = 0b0111100101
	opcodeStrw uint32 = 0b1011100100
	opcodeLdrw uint32 = 0b1011100101
	opcodeStr  uint32 = 0b1111100100
	opcodeLdr  uint32 = 0b1111100101
)

// Load/store with register offset, LSL #0.
const (
	strbRegister uint32 = 0x38206800
	ldrbRegister uint32 = 0x38606800
	strhRegister uint32 = 0x78206800
	ldrhRegister uint32 = 0x78606800
	strwRegister uint32 = 0xb8206800
	ldrwRegister uint32 = 0xb8606800
	strRegister  uint32 = 0xf8206800
	ldrRegister  uint32 = 0xf8606800
)

// insnLDRLiteral is LDR (literal) of a 64-bit register.
const insnLDRLiteral uint32 = 0x58000000

// Branches.
const (
	insnB    uint32 = 0x14000000
	insnBL   uint32 = 0x94000000
	insnCBNZ uint32 = 0xb5000000
	insnBR   uint32 = 0xd61f0000
	insnBLR  uint32 = 0xd63f0000
	insnRET  uint32 = 0xd65f0000
)

// Fixed words.
const (
	insnBRK0   uint32 = 0xd4200000
	insnDMBISH uint32 = 0xd5033bbf
)

// Ranges of PC-relative immediates counted in words.
const (
	imm19Min = -(1 << 18)
	imm19Max = 1<<18 - 1
	imm26Min = -(1 << 25)
	imm26Max = 1<<25 - 1
)

// maxImm12 is the largest scaled unsigned offset of load/store.
const maxImm12 = 1<<12 - 1
