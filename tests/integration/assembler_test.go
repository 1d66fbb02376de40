package integration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matanmeltz/asm15/object"
	"github.com/matanmeltz/asm15/parser"
)

// assembleBase runs the three stages over <dir>/<base>.as the way the
// driver does, writing the .am intermediate and, on success, the
// output artifacts.
func assembleBase(t *testing.T, dir, base string) (*object.Object, *parser.ErrorList) {
	t.Helper()

	inputName := filepath.Join(dir, base+".as")
	expanded, expander, err := parser.ExpandFile(inputName)
	if err != nil {
		t.Fatalf("expansion failed: %v", err)
	}
	if expander.Errors().HasErrors() {
		return nil, expander.Errors()
	}

	expandedName := filepath.Join(dir, base+".am")
	if err := os.WriteFile(expandedName, []byte(expanded), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", expandedName, err)
	}

	p := parser.NewParser(expanded, expandedName, expander.Macros())
	prog := p.FirstPass()
	obj, resolveErrs := object.Resolve(prog)

	all := &parser.ErrorList{}
	all.Merge(p.Errors())
	all.Merge(resolveErrs)

	if !all.HasErrors() {
		if err := obj.WriteFiles(dir, base); err != nil {
			t.Fatalf("failed to write artifacts: %v", err)
		}
	}
	return obj, all
}

func readArtifact(t *testing.T, dir, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(content)
}

func TestEndToEndProgram(t *testing.T) {
	source := "; demo program\n" +
		"macr mstop\n" +
		"\tstop\n" +
		"endmacr\n" +
		".entry END\n" +
		".extern EXT\n" +
		"MAIN: mov #5, r3\n" +
		"jsr EXT\n" +
		"END: add r1, r2\n" +
		"LIST: .data 7, -3\n" +
		"MSG: .string \"hi\"\n" +
		"mstop\n"

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "demo.as"), []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	_, errs := assembleBase(t, dir, "demo")
	if errs.HasErrors() {
		t.Fatalf("assembly failed: %v", errs)
	}

	// The expanded stream drops the comment and the macro block and
	// splices the invocation
	wantAM := ".entry END\n" +
		".extern EXT\n" +
		"MAIN: mov #5, r3\n" +
		"jsr EXT\n" +
		"END: add r1, r2\n" +
		"LIST: .data 7, -3\n" +
		"MSG: .string \"hi\"\n" +
		"\tstop\n"
	if got := readArtifact(t, dir, "demo.am"); got != wantAM {
		t.Errorf("demo.am = %q, want %q", got, wantAM)
	}

	wantOB := "   8 5\n" +
		"0100 00304\n" +
		"0101 00054\n" +
		"0102 00034\n" +
		"0103 64024\n" +
		"0104 00001\n" +
		"0105 12104\n" +
		"0106 00124\n" +
		"0107 74004\n" +
		"0108 00007\n" +
		"0109 77775\n" +
		"0110 00150\n" +
		"0111 00151\n" +
		"0112 00000\n"
	if got := readArtifact(t, dir, "demo.ob"); got != wantOB {
		t.Errorf("demo.ob = %q, want %q", got, wantOB)
	}

	if got := readArtifact(t, dir, "demo.ent"); got != "END 0105\n" {
		t.Errorf("demo.ent = %q, want %q", got, "END 0105\n")
	}
	if got := readArtifact(t, dir, "demo.ext"); got != "EXT  0104\n" {
		t.Errorf("demo.ext = %q, want %q", got, "EXT  0104\n")
	}
}

func TestNoArtifactsOnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.as"), []byte("bogus r1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, errs := assembleBase(t, dir, "bad")
	if !errs.HasErrors() {
		t.Fatal("expected diagnostics")
	}

	if _, err := os.Stat(filepath.Join(dir, "bad.ob")); !os.IsNotExist(err) {
		t.Error("bad.ob must not exist when diagnostics occurred")
	}
	// The expanded file is still produced: expansion itself succeeded
	if _, err := os.Stat(filepath.Join(dir, "bad.am")); err != nil {
		t.Error("bad.am should exist")
	}
}

func TestNoEntryOrExternFilesWhenUnused(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plain.as"), []byte("mov #1, r1\nstop\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, errs := assembleBase(t, dir, "plain")
	if errs.HasErrors() {
		t.Fatalf("assembly failed: %v", errs)
	}

	if _, err := os.Stat(filepath.Join(dir, "plain.ob")); err != nil {
		t.Error("plain.ob should exist")
	}
	if _, err := os.Stat(filepath.Join(dir, "plain.ent")); !os.IsNotExist(err) {
		t.Error("plain.ent must not exist without entry declarations")
	}
	if _, err := os.Stat(filepath.Join(dir, "plain.ext")); !os.IsNotExist(err) {
		t.Error("plain.ext must not exist without external references")
	}
}

func TestExpansionErrorSuppressesAll(t *testing.T) {
	dir := t.TempDir()
	source := "macr broken\nstop\n" // never closed
	if err := os.WriteFile(filepath.Join(dir, "open.as"), []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	obj, errs := assembleBase(t, dir, "open")
	if obj != nil {
		t.Error("no object should be produced")
	}
	if !errs.HasErrors() {
		t.Fatal("expected expansion diagnostics")
	}
	if _, err := os.Stat(filepath.Join(dir, "open.am")); !os.IsNotExist(err) {
		t.Error("open.am must not be written when expansion failed")
	}
}
