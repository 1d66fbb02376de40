package object

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matanmeltz/asm15/encoder"
	"github.com/matanmeltz/asm15/parser"
)

func assemble(t *testing.T, source string) (*parser.Program, *Object, *parser.ErrorList) {
	t.Helper()
	p := parser.NewParser(source, "test.am", nil)
	prog := p.FirstPass()
	require.False(t, p.Errors().HasErrors(), "first pass failed: %v", p.Errors())

	obj, errs := Resolve(prog)
	return prog, obj, errs
}

func TestForwardReferenceAndEntry(t *testing.T) {
	source := "jmp END\n" +
		"END: stop\n" +
		".entry END\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors(), "second pass failed: %v", errs)

	// The operand word for END is (address << 3) | R
	enc, ok := obj.Code[1].Body.(parser.Encoded)
	require.True(t, ok, "operand word must be finalized")
	assert.Equal(t, encoder.Word(102<<3|2), enc.Word)

	require.Len(t, obj.Entries, 1)
	assert.Equal(t, "END", obj.Entries[0].Name)
	assert.Equal(t, 102, obj.Entries[0].Value)

	assert.Equal(t, "END 0102\n", obj.EntryListing())
	assert.Equal(t, "", obj.ExternalListing())
}

func TestObjectListingFormat(t *testing.T) {
	source := "jmp END\n" +
		"END: stop\n" +
		".entry END\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors())

	want := "   3 0\n" +
		"0100 44024\n" +
		"0101 01462\n" +
		"0102 74004\n"
	assert.Equal(t, want, obj.ObjectListing())
}

func TestExternalReference(t *testing.T) {
	source := ".extern EXT\n" +
		"mov EXT, r1\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors(), "second pass failed: %v", errs)

	// The operand word for EXT is exactly 1 (E bit only)
	enc, ok := obj.Code[1].Body.(parser.Encoded)
	require.True(t, ok)
	assert.Equal(t, encoder.ExternWordValue, enc.Word)

	require.Len(t, obj.Externals, 1)
	assert.Equal(t, "EXT", obj.Externals[0].Name)
	assert.Equal(t, 101, obj.Externals[0].Address)

	assert.Equal(t, "EXT  0101\n", obj.ExternalListing())
}

func TestUndefinedLabel(t *testing.T) {
	p := parser.NewParser("jmp NOWHERE\n", "test.am", nil)
	prog := p.FirstPass()
	require.False(t, p.Errors().HasErrors())

	_, errs := Resolve(prog)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.Errors[0].Message, "NOWHERE")
	assert.Contains(t, errs.Errors[0].Message, "not defined or declared as extern")
	assert.Equal(t, 1, errs.Errors[0].Pos.Line)
}

func TestEntryWithoutDefinition(t *testing.T) {
	p := parser.NewParser(".entry GHOST\nstop\n", "test.am", nil)
	prog := p.FirstPass()
	require.False(t, p.Errors().HasErrors())

	_, errs := Resolve(prog)
	require.True(t, errs.HasErrors())
	assert.Contains(t, errs.Errors[0].Message, "No definition was found for the entry: GHOST")
	// The diagnostic cites the declaration line
	assert.Equal(t, 1, errs.Errors[0].Pos.Line)
}

func TestEntryListingAlignment(t *testing.T) {
	source := "LONGNAME: stop\n" +
		"X: stop\n" +
		".entry LONGNAME\n" +
		".entry X\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors())

	lines := strings.Split(strings.TrimSuffix(obj.EntryListing(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "LONGNAME 0100", lines[0])
	assert.Equal(t, "X        0101", lines[1])
}

func TestExternalEmissionOrder(t *testing.T) {
	source := ".extern A\n" +
		".extern B\n" +
		"jmp B\n" +
		"jmp A\n" +
		"jmp B\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors())

	require.Len(t, obj.Externals, 3)
	assert.Equal(t, "B", obj.Externals[0].Name)
	assert.Equal(t, 101, obj.Externals[0].Address)
	assert.Equal(t, "A", obj.Externals[1].Name)
	assert.Equal(t, 103, obj.Externals[1].Address)
	assert.Equal(t, "B", obj.Externals[2].Name)
	assert.Equal(t, 105, obj.Externals[2].Address)
}

func TestDataReferenceResolvesAfterRelocation(t *testing.T) {
	source := "mov LIST, r1\n" +
		"stop\n" +
		"LIST: .data 4\n"

	_, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors())

	// IC is 4 (mov: 3 words, stop: 1), so LIST sits at 104
	enc, ok := obj.Code[1].Body.(parser.Encoded)
	require.True(t, ok)
	assert.Equal(t, encoder.RelocatableWord(104), enc.Word)
}

func TestSymbols(t *testing.T) {
	source := "MAIN: mov #1, r1\n" +
		"LIST: .data 9\n" +
		".extern W\n"

	prog, obj, errs := assemble(t, source)
	require.False(t, errs.HasErrors())

	symbols := obj.Symbols(prog.Decls)
	assert.Equal(t, map[string]int{"MAIN": 100, "LIST": 103}, symbols)
}
