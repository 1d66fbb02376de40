package encoder

// Word geometry. Every encoded word is 15 bits held in a 16-bit
// container; WordMask is applied on every mutation.
const (
	WordBits = 15
	WordMask = 0x7FFF
)

// Field start positions within an encoded word.
const (
	OpcodeStart         = 11 // bits 11-14
	SourceModeStart     = 7  // bits 7-10, one-hot
	TargetModeStart     = 3  // bits 3-6, one-hot
	OperandStart        = 3  // immediate value / direct address, bits 3-14
	SourceRegisterStart = 6  // bits 6-8
	TargetRegisterStart = 3  // bits 3-5
)

// The three mutually exclusive markers in the low bits.
const (
	ABit = 2 // absolute
	RBit = 1 // relocatable
	EBit = 0 // external
)

// ExternWordValue is the finalized encoding of an operand word that
// references an external symbol: only the E-bit is set.
const ExternWordValue Word = 1

// AddressingMode classifies an instruction operand. The numeric value
// selects the one-hot bit within the source/target mode fields.
type AddressingMode int

const (
	Immediate        AddressingMode = iota // #n
	Direct                                 // label
	IndirectRegister                       // *rN
	DirectRegister                         // rN
)

func (m AddressingMode) String() string {
	switch m {
	case Immediate:
		return "immediate"
	case Direct:
		return "direct"
	case IndirectRegister:
		return "indirect register"
	case DirectRegister:
		return "direct register"
	}
	return "unknown"
}

// IsRegisterMode reports whether the mode addresses a register, either
// directly or indirectly. Two register-mode operands share one word.
func (m AddressingMode) IsRegisterMode() bool {
	return m == IndirectRegister || m == DirectRegister
}

// Value ranges.
const (
	MaxImmediate = 2047  // 12-bit signed operand field
	MinImmediate = -2048
	MaxDataValue = 8191  // 14-bit signed .data literal
	MinDataValue = -8192
)

// Memory layout. Addresses begin at FirstMemoryCell; a program fits
// when FirstMemoryCell+IC+DC does not exceed MemoryCells, so the last
// usable address is MemoryCells-1.
const (
	FirstMemoryCell = 100
	MemoryCells     = 4095
)

// OpcodeSpec describes one opcode: its mnemonic, how many operands it
// takes, and which addressing modes are legal in each position.
type OpcodeSpec struct {
	Mnemonic    string
	Operands    int
	SourceModes [4]bool
	TargetModes [4]bool
}

// Mode sets used by the legality table.
var (
	allModes    = [4]bool{true, true, true, true}
	noImmediate = [4]bool{false, true, true, true}
	directOnly  = [4]bool{false, true, false, false}
	jumpTargets = [4]bool{false, true, true, false}
	noModes     = [4]bool{}
)

// Opcodes is the instruction set, indexed by opcode number.
var Opcodes = [16]OpcodeSpec{
	{Mnemonic: "mov", Operands: 2, SourceModes: allModes, TargetModes: noImmediate},
	{Mnemonic: "cmp", Operands: 2, SourceModes: allModes, TargetModes: allModes},
	{Mnemonic: "add", Operands: 2, SourceModes: allModes, TargetModes: noImmediate},
	{Mnemonic: "sub", Operands: 2, SourceModes: allModes, TargetModes: noImmediate},
	{Mnemonic: "lea", Operands: 2, SourceModes: directOnly, TargetModes: noImmediate},
	{Mnemonic: "clr", Operands: 1, SourceModes: noModes, TargetModes: noImmediate},
	{Mnemonic: "not", Operands: 1, SourceModes: noModes, TargetModes: noImmediate},
	{Mnemonic: "inc", Operands: 1, SourceModes: noModes, TargetModes: noImmediate},
	{Mnemonic: "dec", Operands: 1, SourceModes: noModes, TargetModes: noImmediate},
	{Mnemonic: "jmp", Operands: 1, SourceModes: noModes, TargetModes: jumpTargets},
	{Mnemonic: "bne", Operands: 1, SourceModes: noModes, TargetModes: jumpTargets},
	{Mnemonic: "red", Operands: 1, SourceModes: noModes, TargetModes: noImmediate},
	{Mnemonic: "prn", Operands: 1, SourceModes: noModes, TargetModes: allModes},
	{Mnemonic: "jsr", Operands: 1, SourceModes: noModes, TargetModes: jumpTargets},
	{Mnemonic: "rts", Operands: 0, SourceModes: noModes, TargetModes: noModes},
	{Mnemonic: "stop", Operands: 0, SourceModes: noModes, TargetModes: noModes},
}
