package parser

import (
	"fmt"
	"strings"
)

// Position represents a location in a source or expanded file
type Position struct {
	Filename string
	Line     int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// ErrorKind categorizes a per-line diagnostic
type ErrorKind int

const (
	ErrorLexical     ErrorKind = iota // overlong line, stray ';', malformed quote
	ErrorNaming                       // reserved word, macro conflict, bad identifier
	ErrorDirective                    // malformed .data/.string/.entry/.extern
	ErrorOperand                      // illegal addressing mode, missing/extra operand
	ErrorDeclaration                  // extern/entry/definition conflicts
	ErrorCapacity                     // final address would exceed memory
	ErrorUndefined                    // label never defined or declared extern
)

// Diagnostic is a single recoverable per-line error
type Diagnostic struct {
	Pos     Position
	Kind    ErrorKind
	Message string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: error: %s", d.Pos, d.Message)
}

// Warning is a non-fatal per-line notice
type Warning struct {
	Pos     Position
	Message string
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Message)
}

// ErrorList accumulates diagnostics and warnings across a pass. The
// passes keep processing after a recoverable error; only resource
// failures (returned as plain errors) abort a run.
type ErrorList struct {
	Errors   []*Diagnostic
	Warnings []*Warning
}

// AddError appends a diagnostic
func (el *ErrorList) AddError(d *Diagnostic) {
	el.Errors = append(el.Errors, d)
}

// Errorf appends a formatted diagnostic
func (el *ErrorList) Errorf(pos Position, kind ErrorKind, format string, args ...any) {
	el.AddError(&Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// AddWarning appends a warning
func (el *ErrorList) AddWarning(w *Warning) {
	el.Warnings = append(el.Warnings, w)
}

// Warnf appends a formatted warning
func (el *ErrorList) Warnf(pos Position, format string, args ...any) {
	el.AddWarning(&Warning{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Merge appends another list's diagnostics and warnings
func (el *ErrorList) Merge(other *ErrorList) {
	if other == nil {
		return
	}
	el.Errors = append(el.Errors, other.Errors...)
	el.Warnings = append(el.Warnings, other.Warnings...)
}

// HasErrors returns true if there are any errors
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Error implements the error interface
func (el *ErrorList) Error() string {
	var sb strings.Builder
	for _, d := range el.Errors {
		sb.WriteString(d.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintWarnings formats all warnings, one per line
func (el *ErrorList) PrintWarnings() string {
	if len(el.Warnings) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, w := range el.Warnings {
		sb.WriteString(w.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
