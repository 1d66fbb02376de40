package parser

import (
	"fmt"
	"strings"
)

// Lexical limits of the source language.
const (
	MaxLineLength  = 80 // excluding the terminating newline
	MaxLabelLength = 31
)

// Sentinel returned by the keyword classifiers when a token is not a
// member of the keyword class.
const (
	NoOpcode    = -1
	NoRegister  = -1
	NoDirective = -1
)

// opcodeNames is indexed by opcode number.
var opcodeNames = []string{
	"mov", "cmp", "add", "sub", "lea",
	"clr", "not", "inc", "dec", "jmp", "bne", "red", "prn", "jsr",
	"rts", "stop",
}

// directiveNames is indexed by declaration kind (data, string, entry,
// extern).
var directiveNames = []string{".data", ".string", ".entry", ".extern"}

// reservedRegisters are register-table identifiers that are never legal
// operands; they exist only so no label or macro can take their name.
var reservedRegisters = []string{"PSW", "PC"}

// FirstWord splits off the first whitespace-delimited token of a line
// and returns it with the remaining tail.
func FirstWord(line string) (word, tail string) {
	trimmed := strings.TrimLeft(line, " \t")
	i := strings.IndexAny(trimmed, " \t")
	if i < 0 {
		return trimmed, ""
	}
	return trimmed[:i], trimmed[i:]
}

// IsBlank reports whether only whitespace remains in s.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// IsOpcode returns the opcode number for tok, or NoOpcode.
func IsOpcode(tok string) int {
	for i, name := range opcodeNames {
		if tok == name {
			return i
		}
	}
	return NoOpcode
}

// IsRegister returns the register number for tok (r0..r7), or
// NoRegister. PSW and PC are reserved identifiers, not registers.
func IsRegister(tok string) int {
	if len(tok) == 2 && tok[0] == 'r' && tok[1] >= '0' && tok[1] <= '7' {
		return int(tok[1] - '0')
	}
	return NoRegister
}

// IsDirective returns the directive index for tok (.data=0, .string=1,
// .entry=2, .extern=3), or NoDirective.
func IsDirective(tok string) int {
	for i, name := range directiveNames {
		if tok == name {
			return i
		}
	}
	return NoDirective
}

// IsReservedWord reports whether tok collides with an opcode, register
// or directive keyword. Reserved words can never name a macro or label.
func IsReservedWord(tok string) bool {
	if IsOpcode(tok) != NoOpcode || IsRegister(tok) != NoRegister {
		return true
	}
	if IsDirective(tok) != NoDirective {
		return true
	}
	for _, name := range reservedRegisters {
		if tok == name {
			return true
		}
	}
	return tok == StartMacroKeyword || tok == EndMacroKeyword
}

// ValidateIdentifier enforces the shared name rules for macros and
// labels: starts with a letter, alphanumeric only, at most 31
// characters, not a reserved word. The returned error is the rejection
// reason, phrased for diagnostic composition.
func ValidateIdentifier(tok string) error {
	if tok == "" {
		return fmt.Errorf("the name is empty")
	}
	if IsReservedWord(tok) {
		return fmt.Errorf("the name: %s is a reserved word of the system", tok)
	}
	if !isAlpha(tok[0]) {
		return fmt.Errorf("the name: %s starts with an invalid character", tok)
	}
	for i := 1; i < len(tok); i++ {
		if !isAlpha(tok[i]) && !isDigit(tok[i]) {
			return fmt.Errorf("the name: %s contains an invalid character", tok)
		}
	}
	if len(tok) > MaxLabelLength {
		return fmt.Errorf("the name: %s is longer than %d characters", tok, MaxLabelLength)
	}
	return nil
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isPrintable reports whether ch may appear inside a .string literal.
func isPrintable(ch byte) bool {
	return ch >= 32 && ch <= 126
}
