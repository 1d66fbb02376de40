package object

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matanmeltz/asm15/parser"
)

// Artifact file suffixes
const (
	ObjectSuffix   = ".ob"
	EntrySuffix    = ".ent"
	ExternalSuffix = ".ext"
)

// ObjectListing formats the object artifact: a header line with the
// final counters, then the code words and data words in ascending
// address order, each as a 4-digit decimal address and a 5-digit octal
// word.
func (o *Object) ObjectListing() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%4d %d\n", o.IC, o.DC)
	for _, cw := range o.Code {
		enc, ok := cw.Body.(parser.Encoded)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%04d %05o\n", cw.Address, enc.Word)
	}
	for _, dw := range o.Data {
		fmt.Fprintf(&sb, "%04d %05o\n", dw.Address, dw.Word)
	}
	return sb.String()
}

// EntryListing formats the entry artifact: one line per entry
// declaration, with the addresses column-aligned past the longest
// name. Empty when the program exports nothing.
func (o *Object) EntryListing() string {
	if len(o.Entries) == 0 {
		return ""
	}
	longest := 0
	for _, e := range o.Entries {
		if len(e.Name) > longest {
			longest = len(e.Name)
		}
	}
	var sb strings.Builder
	for _, e := range o.Entries {
		fmt.Fprintf(&sb, "%s%s%04d\n", e.Name, strings.Repeat(" ", longest-len(e.Name)+1), e.Value)
	}
	return sb.String()
}

// ExternalListing formats the external artifact: one line per external
// reference in emission order, column-aligned like the entry artifact.
func (o *Object) ExternalListing() string {
	if len(o.Externals) == 0 {
		return ""
	}
	longest := 0
	for _, ref := range o.Externals {
		if len(ref.Name) > longest {
			longest = len(ref.Name)
		}
	}
	var sb strings.Builder
	for _, ref := range o.Externals {
		fmt.Fprintf(&sb, "%s%s%04d\n", ref.Name, strings.Repeat(" ", longest-len(ref.Name)+2), ref.Address)
	}
	return sb.String()
}

// Symbols returns the definitions of the program as a name to address
// map, for the api service.
func (o *Object) Symbols(decls *parser.DeclTable) map[string]int {
	symbols := make(map[string]int)
	for _, d := range decls.All() {
		if d.Kind.IsDefinition() {
			symbols[d.Name] = d.Value
		}
	}
	return symbols
}

// WriteFiles writes the object artifact and, when present, the entry
// and external artifacts next to it. baseName carries no suffix; dir
// selects the output directory. Failures here are resource errors.
func (o *Object) WriteFiles(dir, baseName string) error {
	base := filepath.Join(dir, baseName)

	if err := writeArtifact(base+ObjectSuffix, o.ObjectListing()); err != nil {
		return err
	}
	if listing := o.EntryListing(); listing != "" {
		if err := writeArtifact(base+EntrySuffix, listing); err != nil {
			return err
		}
	}
	if listing := o.ExternalListing(); listing != "" {
		if err := writeArtifact(base+ExternalSuffix, listing); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306 -- output artifacts are world-readable
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return nil
}
