package parser

import (
	"strconv"
	"strings"

	"github.com/matanmeltz/asm15/encoder"
)

// WordBody is the body of a code word: either a finalized encoding or
// an unresolved label reference awaiting the second pass.
type WordBody interface {
	wordBody()
}

// Encoded is a finalized 15-bit word
type Encoded struct {
	Word encoder.Word
}

func (Encoded) wordBody() {}

// Pending is an unresolved reference to a label, recorded with the
// line that made the reference for later diagnostics.
type Pending struct {
	Label string
	Line  int
}

func (Pending) wordBody() {}

// CodeWord is one element of the code image
type CodeWord struct {
	Address int
	Body    WordBody
}

// DataWord is one element of the data image. Addresses are data
// counter values during the first pass and absolute addresses after
// the post-pass fixup.
type DataWord struct {
	Address int
	Word    encoder.Word
}

// Program is the product of the first pass: the three ordered
// sequences plus the final counters. IC and DC are word counts; the
// code image occupies [FirstMemoryCell, FirstMemoryCell+IC) and the
// data image follows it.
type Program struct {
	Filename string
	Code     []CodeWord
	Data     []DataWord
	Decls    *DeclTable
	IC, DC   int
}

// operand is a classified instruction operand
type operand struct {
	Mode     encoder.AddressingMode
	Register int
	Value    int
	Label    string
}

// Parser runs the first pass over the expanded stream: syntactic
// validation, operand classification, symbol collection and partial
// encoding with forward references left unresolved.
type Parser struct {
	filename string
	lines    []string
	ic, dc   int
	prog     *Program
	errors   *ErrorList
	macros   *MacroTable
}

// NewParser creates a first-pass parser over the expanded source.
// The macro table is consulted so label names cannot shadow a macro.
func NewParser(source, filename string, macros *MacroTable) *Parser {
	if macros == nil {
		macros = NewMacroTable()
	}
	return &Parser{
		filename: filename,
		lines:    strings.Split(source, "\n"),
		ic:       encoder.FirstMemoryCell,
		prog:     &Program{Filename: filename, Decls: NewDeclTable()},
		errors:   &ErrorList{},
		macros:   macros,
	}
}

// Errors returns the error list
func (p *Parser) Errors() *ErrorList {
	return p.errors
}

// FirstPass consumes the expanded stream line by line, then performs
// the post-pass fixup: data addresses and data/string declaration
// values are rebased to sit after the code region, and the final
// counters are checked against memory capacity.
func (p *Parser) FirstPass() *Program {
	for i, raw := range p.lines {
		pos := Position{Filename: p.filename, Line: i + 1}
		line := strings.TrimRight(raw, " \t\r")
		if IsBlank(line) {
			continue
		}

		label, rest, ok := p.splitLabel(line, pos)
		if !ok {
			continue
		}

		word, tail := FirstWord(rest)
		if dir := IsDirective(word); dir != NoDirective {
			switch DeclKind(dir) {
			case DeclData:
				p.handleData(label, tail, pos)
			case DeclString:
				p.handleString(label, tail, pos)
			case DeclEntry, DeclExtern:
				p.handleDeclaration(DeclKind(dir), label, tail, pos)
			}
		} else if op := IsOpcode(word); op != NoOpcode {
			p.handleInstruction(label, op, tail, pos)
		} else {
			p.errors.Errorf(pos, ErrorDirective,
				"Invalid instruction, the word: %s is not recognized by the system.", word)
		}
	}

	p.finish()
	return p.prog
}

// splitLabel detects and validates an optional label prefix. A label
// exists when ':' appears before any whitespace in the line.
func (p *Parser) splitLabel(line string, pos Position) (label, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	ci := strings.IndexByte(trimmed, ':')
	wi := strings.IndexAny(trimmed, " \t")
	if ci < 0 || (wi >= 0 && wi < ci) {
		return "", trimmed, true
	}

	label = trimmed[:ci]
	after := trimmed[ci+1:]

	if !p.validateLabelName(label, pos) {
		return "", "", false
	}
	if IsBlank(after) {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid label definition, no instruction was detected after the label: %s.", label)
		return "", "", false
	}
	if after[0] != ' ' && after[0] != '\t' {
		p.errors.Errorf(pos, ErrorNaming,
			"Invalid label declaration, additional characters after the label name: %s.", label)
		return "", "", false
	}
	return label, after, true
}

// validateLabelName enforces the identifier rules plus the macro
// shadowing rule
func (p *Parser) validateLabelName(name string, pos Position) bool {
	if p.macros.IsDefined(name) {
		p.errors.Errorf(pos, ErrorNaming,
			"Invalid label name, the name: %s is already used as a macro name.", name)
		return false
	}
	if err := ValidateIdentifier(name); err != nil {
		p.errors.Errorf(pos, ErrorNaming, "Invalid label name, %v.", err)
		return false
	}
	return true
}

// defineLabel records a definition after checking the one-definition
// rule and the extern exclusivity rule
func (p *Parser) defineLabel(name string, kind DeclKind, value int, pos Position) {
	if ext := p.prog.Decls.Extern(name); ext != nil {
		p.errors.Errorf(pos, ErrorDeclaration,
			"Invalid label, the label: %s has already been declared as extern.", name)
		return
	}
	if def := p.prog.Decls.Definition(name); def != nil {
		p.errors.Errorf(pos, ErrorDeclaration,
			"Invalid label, the label: %s has already been defined in the current file.", name)
		return
	}
	p.prog.Decls.Add(name, kind, value)
}

// handleData parses the comma-separated integer list of a .data line
// and emits one data word per value.
func (p *Parser) handleData(label, tail string, pos Position) {
	if label != "" {
		p.defineLabel(label, DeclData, p.dc, pos)
	}
	if IsBlank(tail) {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid data definition, no values were detected after .data.")
		return
	}

	fields := strings.Split(tail, ",")
	for i, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			switch {
			case i == 0:
				p.errors.Errorf(pos, ErrorDirective, "Invalid comma before the first value of .data.")
			case i == len(fields)-1:
				p.errors.Errorf(pos, ErrorDirective, "Invalid comma after the last value of .data.")
			default:
				p.errors.Errorf(pos, ErrorDirective, "Invalid multiple consecutive commas in .data.")
			}
			continue
		}
		value, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			p.errors.Errorf(pos, ErrorDirective,
				"Invalid data value: %s is not an integer.", field)
			continue
		}
		if value < encoder.MinDataValue || value > encoder.MaxDataValue {
			p.errors.Errorf(pos, ErrorDirective,
				"Invalid data value: %d is out of range.", value)
			continue
		}
		p.appendData(encoder.DataWord(int(value)))
	}
}

// handleString parses the quoted literal of a .string line and emits
// one data word per character plus a terminating zero word.
func (p *Parser) handleString(label, tail string, pos Position) {
	if label != "" {
		p.defineLabel(label, DeclString, p.dc, pos)
	}

	s := strings.TrimSpace(tail)
	if s == "" || s[0] != '"' {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid string definition, missing opening quote.")
		return
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid string definition, missing closing quote.")
		return
	}
	body := s[1 : 1+end]
	if rest := s[2+end:]; !IsBlank(rest) {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid string definition, additional characters after the string.")
		return
	}

	for i := 0; i < len(body); i++ {
		if !isPrintable(body[i]) {
			p.errors.Errorf(pos, ErrorDirective,
				"Invalid string, the character at position %d is not printable.", i+1)
			continue
		}
		p.appendData(encoder.DataWord(int(body[i])))
	}
	p.appendData(encoder.DataWord(0))
}

// handleDeclaration parses a .entry or .extern line. A leading label
// on these lines is meaningless and only warned about.
func (p *Parser) handleDeclaration(kind DeclKind, label, tail string, pos Position) {
	if label != "" {
		p.errors.Warnf(pos, "The label before %s is meaningless and was ignored.", directiveNames[kind])
	}

	name, rest := FirstWord(tail)
	if name == "" {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid declaration, no label name was detected after %s.", directiveNames[kind])
		return
	}
	if !IsBlank(rest) {
		p.errors.Errorf(pos, ErrorDirective,
			"Invalid declaration, additional characters after the label name: %s.", name)
		return
	}
	if !p.validateLabelName(name, pos) {
		return
	}

	decls := p.prog.Decls
	if kind == DeclEntry {
		if decls.Extern(name) != nil {
			p.errors.Errorf(pos, ErrorDeclaration,
				"Invalid label, the label: %s has already been declared as extern.", name)
			return
		}
	} else {
		if decls.Definition(name) != nil {
			p.errors.Errorf(pos, ErrorDeclaration,
				"Invalid label, the label: %s has already been defined in the current file.", name)
			return
		}
		if decls.Entry(name) != nil {
			p.errors.Errorf(pos, ErrorDeclaration,
				"Invalid label, the label: %s has already been declared as an entry.", name)
			return
		}
		if decls.Extern(name) != nil {
			p.errors.Errorf(pos, ErrorDeclaration,
				"Invalid label, the label: %s has already been declared as extern.", name)
			return
		}
	}
	decls.Add(name, kind, pos.Line)
}

// handleInstruction parses an instruction line: operand tokens are
// split by arity group, classified, checked against the legality
// table, and encoded into the first word plus operand words.
func (p *Parser) handleInstruction(label string, op int, tail string, pos Position) {
	if label != "" {
		p.defineLabel(label, DeclCode, p.ic, pos)
	}

	spec := encoder.Opcodes[op]
	switch spec.Operands {
	case 0:
		if !IsBlank(tail) {
			p.errors.Errorf(pos, ErrorOperand,
				"Invalid operands, the opcode: %s does not receive operands.", spec.Mnemonic)
			return
		}
		p.appendCode(Encoded{Word: encoder.FirstWord(op, 0, 0, false, false)})

	case 1:
		tok, ok := p.parseOneOperand(spec.Mnemonic, tail, pos)
		if !ok {
			return
		}
		dst, ok := p.classifyOperand(tok, pos)
		if !ok || !p.checkTargetMode(spec, dst.Mode, pos) {
			return
		}
		p.appendCode(Encoded{Word: encoder.FirstWord(op, 0, dst.Mode, false, true)})
		p.emitOperand(dst, false, pos)

	case 2:
		srcTok, dstTok, ok := p.parseTwoOperands(spec.Mnemonic, tail, pos)
		if !ok {
			return
		}
		src, okSrc := p.classifyOperand(srcTok, pos)
		dst, okDst := p.classifyOperand(dstTok, pos)
		if !okSrc || !okDst {
			return
		}
		if !p.checkSourceMode(spec, src.Mode, pos) || !p.checkTargetMode(spec, dst.Mode, pos) {
			return
		}
		p.appendCode(Encoded{Word: encoder.FirstWord(op, src.Mode, dst.Mode, true, true)})
		if src.Mode.IsRegisterMode() && dst.Mode.IsRegisterMode() {
			p.appendCode(Encoded{Word: encoder.RegisterPairWord(src.Register, dst.Register)})
		} else {
			p.emitOperand(src, true, pos)
			p.emitOperand(dst, false, pos)
		}
	}
}

// parseOneOperand extracts the single operand token of a one-operand
// instruction
func (p *Parser) parseOneOperand(mnemonic, tail string, pos Position) (string, bool) {
	tok := strings.TrimSpace(tail)
	if tok == "" {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, the opcode: %s must receive an operand.", mnemonic)
		return "", false
	}
	if strings.Contains(tok, ",") {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, the opcode: %s receives a single operand.", mnemonic)
		return "", false
	}
	if strings.ContainsAny(tok, " \t") {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, additional characters after the operand: %s.", tok)
		return "", false
	}
	return tok, true
}

// parseTwoOperands extracts the source and target tokens of a
// two-operand instruction
func (p *Parser) parseTwoOperands(mnemonic, tail string, pos Position) (src, dst string, ok bool) {
	switch strings.Count(tail, ",") {
	case 0:
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, missing comma between the operands of: %s.", mnemonic)
		return "", "", false
	case 1:
	default:
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, too many commas in the operands of: %s.", mnemonic)
		return "", "", false
	}

	parts := strings.SplitN(tail, ",", 2)
	src = strings.TrimSpace(parts[0])
	dst = strings.TrimSpace(parts[1])
	if src == "" {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, missing source operand for: %s.", mnemonic)
		return "", "", false
	}
	if dst == "" {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, missing target operand for: %s.", mnemonic)
		return "", "", false
	}
	if strings.ContainsAny(src, " \t") || strings.ContainsAny(dst, " \t") {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operands, additional characters between the operands of: %s.", mnemonic)
		return "", "", false
	}
	return src, dst, true
}

// classifyOperand determines the addressing mode of a token
func (p *Parser) classifyOperand(tok string, pos Position) (operand, bool) {
	switch {
	case strings.HasPrefix(tok, "#"):
		value, err := strconv.ParseInt(tok[1:], 10, 64)
		if err != nil {
			p.errors.Errorf(pos, ErrorOperand,
				"Invalid operand, the immediate value: %s is not an integer.", tok)
			return operand{}, false
		}
		if value < encoder.MinImmediate || value > encoder.MaxImmediate {
			p.errors.Errorf(pos, ErrorOperand,
				"Invalid operand, the immediate value: %d is out of range.", value)
			return operand{}, false
		}
		return operand{Mode: encoder.Immediate, Value: int(value)}, true

	case strings.HasPrefix(tok, "*"):
		reg := IsRegister(tok[1:])
		if reg == NoRegister {
			p.errors.Errorf(pos, ErrorOperand,
				"Invalid operand: %s, after the * must come a register.", tok)
			return operand{}, false
		}
		return operand{Mode: encoder.IndirectRegister, Register: reg}, true

	default:
		if reg := IsRegister(tok); reg != NoRegister {
			return operand{Mode: encoder.DirectRegister, Register: reg}, true
		}
		if err := ValidateIdentifier(tok); err != nil {
			p.errors.Errorf(pos, ErrorOperand, "Invalid operand, %v.", err)
			return operand{}, false
		}
		return operand{Mode: encoder.Direct, Label: tok}, true
	}
}

// checkSourceMode enforces the legality table for the source position
func (p *Parser) checkSourceMode(spec encoder.OpcodeSpec, mode encoder.AddressingMode, pos Position) bool {
	if !spec.SourceModes[mode] {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operand, the %s addressing method does not fit the source operand of: %s.",
			mode, spec.Mnemonic)
		return false
	}
	return true
}

// checkTargetMode enforces the legality table for the target position
func (p *Parser) checkTargetMode(spec encoder.OpcodeSpec, mode encoder.AddressingMode, pos Position) bool {
	if !spec.TargetModes[mode] {
		p.errors.Errorf(pos, ErrorOperand,
			"Invalid operand, the %s addressing method does not fit the target operand of: %s.",
			mode, spec.Mnemonic)
		return false
	}
	return true
}

// emitOperand appends the operand word for a non-shared operand.
// Direct references stay Pending until the second pass.
func (p *Parser) emitOperand(o operand, isSource bool, pos Position) {
	switch o.Mode {
	case encoder.Immediate:
		p.appendCode(Encoded{Word: encoder.ImmediateWord(o.Value)})
	case encoder.IndirectRegister, encoder.DirectRegister:
		if isSource {
			p.appendCode(Encoded{Word: encoder.SourceRegisterWord(o.Register)})
		} else {
			p.appendCode(Encoded{Word: encoder.TargetRegisterWord(o.Register)})
		}
	case encoder.Direct:
		p.appendCode(Pending{Label: o.Label, Line: pos.Line})
	}
}

// appendCode emits one code word at the current instruction counter
func (p *Parser) appendCode(body WordBody) {
	p.prog.Code = append(p.prog.Code, CodeWord{Address: p.ic, Body: body})
	p.ic++
}

// appendData emits one data word at the current data counter
func (p *Parser) appendData(w encoder.Word) {
	p.prog.Data = append(p.prog.Data, DataWord{Address: p.dc, Word: w})
	p.dc++
}

// finish performs the post-pass fixup once all lines are consumed
func (p *Parser) finish() {
	icCount := p.ic - encoder.FirstMemoryCell
	dcCount := p.dc

	for i := range p.prog.Data {
		p.prog.Data[i].Address += p.ic
	}
	for _, d := range p.prog.Decls.All() {
		if d.Kind == DeclData || d.Kind == DeclString {
			d.Value += p.ic
		}
	}

	p.prog.IC = icCount
	p.prog.DC = dcCount

	if encoder.FirstMemoryCell+icCount+dcCount > encoder.MemoryCells {
		p.errors.Errorf(Position{Filename: p.filename, Line: len(p.lines)}, ErrorCapacity,
			"The program is too large, %d words exceed the %d available memory cells.",
			icCount+dcCount, encoder.MemoryCells-encoder.FirstMemoryCell)
	}
}
