package linker

// CieRecord is a parsed Common Information Entry from a `.eh_frame`
// section: exception-unwinding metadata shared by many FDEs. Grounded
// directly on original_source/elf/input-sections.cc's
// `CieRecord<E>::equals`, which compares two CIEs by content plus
// pointwise relocation equivalence rather than by index, since two
// distinct object files can each contribute a byte-identical CIE that
// must still collapse to one entry in the merged output.
type CieRecord struct {
	Contents  []byte
	Relocs    []Relocation
	InputFile *ObjectFile
}

// Equals reports whether c and other would produce indistinguishable
// unwind behavior if merged: same bytes, same relocation count, and
// each relocation resolving to the same symbol identity and addend —
// not the same symbol *index*, since two files number their symbol
// tables independently.
func (c *CieRecord) Equals(other *CieRecord) bool {
	if len(c.Contents) != len(other.Contents) {
		return false
	}
	if string(c.Contents) != string(other.Contents) {
		return false
	}
	if len(c.Relocs) != len(other.Relocs) {
		return false
	}

	for i := range c.Relocs {
		a := c.Relocs[i]
		b := other.Relocs[i]
		if a.Offset != b.Offset || a.Type != b.Type || a.Addend != b.Addend {
			return false
		}

		symA := c.InputFile.Symbols[a.Sym]
		symB := other.InputFile.Symbols[b.Sym]
		if !sameSymbolIdentity(symA, symB) {
			return false
		}
	}

	return true
}

// sameSymbolIdentity compares two Symbol pointers by what they resolve
// to rather than by address: either the same merged Symbol (the common
// case for two references to one global), or — for local symbols that
// never get merged across files — the same defining section at the
// same value.
func sameSymbolIdentity(a, b *Symbol) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.InputSection != nil && b.InputSection != nil {
		return a.InputSection == b.InputSection && a.Value == b.Value
	}
	return false
}
