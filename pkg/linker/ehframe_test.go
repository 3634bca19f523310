package linker

import "testing"

func TestCieRecordEqualsByContentAndRelocIdentity(t *testing.T) {
	fileA := &ObjectFile{}
	fileB := &ObjectFile{}

	// Two distinct local symbols, one per file, both defined at the same
	// offset within their own InputSection: same identity despite
	// different symbol-table indices and different Symbol pointers.
	secA := &InputSection{File: fileA}
	secB := &InputSection{File: fileB}
	symA := NewSymbol("local")
	symA.SetInputSection(secA)
	symA.Value = 8
	symB := NewSymbol("local")
	symB.SetInputSection(secB)
	symB.Value = 8

	fileA.Symbols = []*Symbol{symA}
	fileB.Symbols = []*Symbol{symB}

	cieA := &CieRecord{
		Contents:  []byte{1, 2, 3, 4},
		Relocs:    []Relocation{{Offset: 4, Type: 1, Sym: 0, Addend: 0}},
		InputFile: fileA,
	}
	cieB := &CieRecord{
		Contents:  []byte{1, 2, 3, 4},
		Relocs:    []Relocation{{Offset: 4, Type: 1, Sym: 0, Addend: 0}},
		InputFile: fileB,
	}

	if !cieA.Equals(cieB) {
		t.Error("CIEs with identical content and pointwise-equivalent local relocations should be Equals")
	}

	// Different Value makes them distinct definitions, not merge candidates.
	symB.Value = 16
	if cieA.Equals(cieB) {
		t.Error("CIEs whose relocations resolve to different offsets within a section must not be Equals")
	}
}

func TestCieRecordNotEqualsOnContentMismatch(t *testing.T) {
	a := &CieRecord{Contents: []byte{1, 2, 3}, InputFile: &ObjectFile{}}
	b := &CieRecord{Contents: []byte{1, 2, 4}, InputFile: &ObjectFile{}}
	if a.Equals(b) {
		t.Error("CIEs with different bytes must never be Equals")
	}
}

func TestCieRecordSameSymbolPointerIsAlwaysEqual(t *testing.T) {
	file := &ObjectFile{}
	sym := NewSymbol("shared_global")
	file.Symbols = []*Symbol{sym}

	a := &CieRecord{Contents: []byte{9}, Relocs: []Relocation{{Sym: 0}}, InputFile: file}
	b := &CieRecord{Contents: []byte{9}, Relocs: []Relocation{{Sym: 0}}, InputFile: file}
	if !a.Equals(b) {
		t.Error("CIEs referencing the exact same merged Symbol must be Equals")
	}
}
