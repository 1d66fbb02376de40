package parser

import (
	"testing"
)

func TestDeclTableLookup(t *testing.T) {
	table := NewDeclTable()
	table.Add("LIST", DeclData, 0)
	table.Add("MAIN", DeclCode, 100)
	table.Add("EXT", DeclExtern, 3)
	table.Add("MAIN", DeclEntry, 5)
	table.Add("MAIN", DeclEntry, 9)

	if len(table.All()) != 5 {
		t.Fatalf("All() returned %d declarations, want 5", len(table.All()))
	}
	if len(table.Lookup("MAIN")) != 3 {
		t.Errorf("Lookup(MAIN) returned %d declarations, want 3", len(table.Lookup("MAIN")))
	}

	if def := table.Definition("MAIN"); def == nil || def.Kind != DeclCode {
		t.Error("Definition(MAIN) should be the code declaration")
	}
	if table.Definition("EXT") != nil {
		t.Error("an extern declaration is not a definition")
	}
	if ext := table.Extern("EXT"); ext == nil || ext.Value != 3 {
		t.Error("Extern(EXT) should return the extern declaration")
	}
	if entry := table.Entry("MAIN"); entry == nil || entry.Value != 5 {
		t.Error("Entry(MAIN) should return the first entry declaration")
	}
	if table.Entry("LIST") != nil {
		t.Error("Entry(LIST) should be nil")
	}

	// NonEntry prefers any declaration that is not an entry
	if ne := table.NonEntry("EXT"); ne == nil || ne.Kind != DeclExtern {
		t.Error("NonEntry(EXT) should return the extern declaration")
	}
	if table.NonEntry("missing") != nil {
		t.Error("NonEntry(missing) should be nil")
	}

	if !table.HasEntries() {
		t.Error("table has entry declarations")
	}
	if NewDeclTable().HasEntries() {
		t.Error("empty table has no entries")
	}
}

func TestDeclKindClassification(t *testing.T) {
	for _, kind := range []DeclKind{DeclData, DeclString, DeclCode} {
		if !kind.IsDefinition() {
			t.Errorf("%s should be a definition", kind)
		}
	}
	for _, kind := range []DeclKind{DeclEntry, DeclExtern} {
		if kind.IsDefinition() {
			t.Errorf("%s should not be a definition", kind)
		}
	}
}
