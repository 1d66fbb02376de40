package parser

import (
	"fmt"
	"os"
)

// ExpandFile reads a raw source file and runs macro expansion,
// returning the expanded stream and the expander (for its macro table
// and diagnostics). A read failure is a resource error and is returned
// as a plain error.
func ExpandFile(path string) (string, *Expander, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided source file path
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	e := NewExpander(path)
	expanded := e.Expand(string(content))
	return expanded, e, nil
}

// Assemble runs macro expansion and the first pass over in-memory
// source, as the api service does. The returned error list merges the
// diagnostics of both stages; rawName and expandedName are the file
// names diagnostics are reported against.
func Assemble(source, rawName, expandedName string) (*Program, *ErrorList) {
	e := NewExpander(rawName)
	expanded := e.Expand(source)

	p := NewParser(expanded, expandedName, e.Macros())
	prog := p.FirstPass()

	all := &ErrorList{}
	all.Merge(e.Errors())
	all.Merge(p.Errors())
	return prog, all
}
