package parser

import (
	"strings"
)

// Macro boundary keywords. A definition opens with "macr <name>" and
// closes with "endmacr"; both tolerate only trailing whitespace.
const (
	StartMacroKeyword = "macr"
	EndMacroKeyword   = "endmacr"
)

// Expander performs macro expansion on a raw source file, producing
// the expanded stream that both passes consume. Expansion makes two
// scans over the input: the first collects macro definitions and
// validates line shape, the second emits the expanded stream.
type Expander struct {
	filename string
	macros   *MacroTable
	errors   *ErrorList
}

// NewExpander creates an expander for the named source file
func NewExpander(filename string) *Expander {
	return &Expander{
		filename: filename,
		macros:   NewMacroTable(),
		errors:   &ErrorList{},
	}
}

// Expand runs both scans and returns the expanded stream. Check
// Errors() before using the result; an erroneous input still produces
// a best-effort stream.
func (e *Expander) Expand(source string) string {
	lines := strings.Split(source, "\n")
	e.collectMacros(lines)
	return e.emit(lines)
}

// Macros returns the macro table collected during expansion
func (e *Expander) Macros() *MacroTable {
	return e.macros
}

// Errors returns the error list
func (e *Expander) Errors() *ErrorList {
	return e.errors
}

// pos returns the position of a 0-based line index in the raw file
func (e *Expander) pos(index int) Position {
	return Position{Filename: e.filename, Line: index + 1}
}

// collectMacros is the first scan: it validates every line and gathers
// macro definitions into the table.
func (e *Expander) collectMacros(lines []string) {
	var current *Macro

	for i, line := range lines {
		if !e.validateLine(i, line) {
			continue
		}
		if isComment(line) || IsBlank(line) {
			continue
		}

		word, tail := FirstWord(line)
		switch word {
		case StartMacroKeyword:
			if current != nil {
				e.errors.Errorf(e.pos(i), ErrorLexical,
					"Invalid macro definition, the macro: %s was not closed with %s.", current.Name, EndMacroKeyword)
				current = nil
			}
			current = e.openMacro(i, tail)

		case EndMacroKeyword:
			if current == nil {
				e.errors.Errorf(e.pos(i), ErrorLexical,
					"Invalid macro definition, %s without a matching %s.", EndMacroKeyword, StartMacroKeyword)
				continue
			}
			if !IsBlank(tail) {
				e.errors.Errorf(e.pos(i), ErrorLexical,
					"Invalid macro definition, additional characters after %s.", EndMacroKeyword)
			}
			if err := e.macros.Define(current); err != nil {
				e.errors.Errorf(current.Pos, ErrorNaming, "Invalid macro name, %s", err)
			}
			current = nil

		default:
			if current != nil {
				current.Body = append(current.Body, line)
			}
		}
	}

	if current != nil {
		e.errors.Errorf(current.Pos, ErrorLexical,
			"Invalid macro definition, the macro: %s was not closed with %s.", current.Name, EndMacroKeyword)
	}
}

// openMacro parses the "macr <name>" header and starts a definition
func (e *Expander) openMacro(index int, tail string) *Macro {
	name, rest := FirstWord(tail)
	if name == "" {
		e.errors.Errorf(e.pos(index), ErrorNaming,
			"Invalid macro definition, no name was detected after %s.", StartMacroKeyword)
		return &Macro{Name: "", Pos: e.pos(index)}
	}
	if err := ValidateIdentifier(name); err != nil {
		e.errors.Errorf(e.pos(index), ErrorNaming, "Invalid macro name, %s.", err)
	} else if e.macros.IsDefined(name) {
		e.errors.Errorf(e.pos(index), ErrorNaming,
			"Invalid macro name, the macro: %s has already been defined.", name)
	}
	if !IsBlank(rest) {
		e.errors.Errorf(e.pos(index), ErrorLexical,
			"Invalid macro definition, additional characters after the macro name: %s.", name)
	}
	return &Macro{Name: name, Pos: e.pos(index)}
}

// emit is the second scan: comment and blank lines are dropped, macro
// definition blocks are removed, invocation lines are replaced by the
// macro body verbatim, and every other line is copied through.
func (e *Expander) emit(lines []string) string {
	var out []string
	inMacro := false

	for _, line := range lines {
		if isComment(line) || IsBlank(line) {
			continue
		}
		word, tail := FirstWord(line)
		switch {
		case word == StartMacroKeyword:
			inMacro = true
		case word == EndMacroKeyword:
			inMacro = false
		case inMacro:
			// Body lines propagate only through invocations.
		default:
			if macro, ok := e.macros.Lookup(word); ok && IsBlank(tail) {
				out = append(out, macro.Body...)
			} else {
				out = append(out, line)
			}
		}
	}

	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// validateLine enforces the lexical line rules: at most MaxLineLength
// characters, and a comment marker only in column 0. Returns false
// when the line must not be processed further.
func (e *Expander) validateLine(index int, line string) bool {
	line = strings.TrimSuffix(line, "\r")
	if len(line) > MaxLineLength {
		e.errors.Errorf(e.pos(index), ErrorLexical,
			"The line is longer than %d characters.", MaxLineLength)
		return false
	}
	if i := strings.IndexByte(line, ';'); i > 0 {
		e.errors.Errorf(e.pos(index), ErrorLexical,
			"Invalid comment, a comment must start at the beginning of the line.")
		return false
	}
	return true
}

// isComment reports whether the raw line is a whole-line comment
func isComment(line string) bool {
	return strings.HasPrefix(line, ";")
}
