// Package object implements the second pass: forward references in
// the code image are resolved against the declaration table, entry
// declarations are bound to their definitions, and the three output
// artifacts are generated.
package object

import (
	"github.com/matanmeltz/asm15/encoder"
	"github.com/matanmeltz/asm15/parser"
)

// ExternalRef records one reference to an imported symbol: the name
// and the address of the referencing word. The external artifact lists
// these tuples in emission order.
type ExternalRef struct {
	Name    string
	Address int
}

// Object is a fully resolved program ready for artifact generation
type Object struct {
	Filename  string
	IC, DC    int
	Code      []parser.CodeWord
	Data      []parser.DataWord
	Entries   []*parser.Declaration
	Externals []ExternalRef
}

// Resolve runs the second pass over a first-pass program. The returned
// error list carries the pass's diagnostics; when it is non-empty the
// object is poisoned and must not be written out.
func Resolve(prog *parser.Program) (*Object, *parser.ErrorList) {
	errs := &parser.ErrorList{}

	obj := &Object{
		Filename: prog.Filename,
		IC:       prog.IC,
		DC:       prog.DC,
		Code:     prog.Code,
		Data:     prog.Data,
	}

	resolveEntries(prog, obj, errs)
	resolvePending(prog, obj, errs)
	return obj, errs
}

// resolveEntries binds every Entry declaration to the definition with
// the same name, overwriting the entry's declaration-line value with
// the definition address.
func resolveEntries(prog *parser.Program, obj *Object, errs *parser.ErrorList) {
	for _, d := range prog.Decls.All() {
		if d.Kind != parser.DeclEntry {
			continue
		}
		def := prog.Decls.NonEntry(d.Name)
		if def == nil {
			errs.Errorf(parser.Position{Filename: prog.Filename, Line: d.Value}, parser.ErrorDeclaration,
				"No definition was found for the entry: %s.", d.Name)
			continue
		}
		d.Value = def.Value
		obj.Entries = append(obj.Entries, d)
	}
}

// resolvePending finalizes every code word still in Pending state.
// External references become the sentinel extern word and are recorded
// for the external artifact; defined labels become relocatable words.
func resolvePending(prog *parser.Program, obj *Object, errs *parser.ErrorList) {
	for i := range obj.Code {
		pending, ok := obj.Code[i].Body.(parser.Pending)
		if !ok {
			continue
		}

		if ext := prog.Decls.Extern(pending.Label); ext != nil {
			obj.Code[i].Body = parser.Encoded{Word: encoder.ExternWord()}
			obj.Externals = append(obj.Externals, ExternalRef{
				Name:    pending.Label,
				Address: obj.Code[i].Address,
			})
			continue
		}

		if def := prog.Decls.Definition(pending.Label); def != nil {
			obj.Code[i].Body = parser.Encoded{Word: encoder.RelocatableWord(def.Value)}
			continue
		}

		if entry := prog.Decls.Entry(pending.Label); entry != nil {
			// The entry-resolution step has already diagnosed the
			// missing definition; the word stays poisoned.
			continue
		}

		errs.Errorf(parser.Position{Filename: prog.Filename, Line: pending.Line}, parser.ErrorUndefined,
			"The label: %s is illegal, it was not defined or declared as extern.", pending.Label)
	}
}
