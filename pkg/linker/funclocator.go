package linker

import (
	"github.com/ianlancetaylor/demangle"
)

// Demangle demangles a C++ (Itanium ABI) mangled symbol name, returning
// the input unchanged if it isn't recognized as mangled. Grounded on
// cmd/pprof/internal/symbolizer/symbolizer.go in the pack's Go toolchain
// mirror, which demangles profiled symbol names through an internal fork
// of this exact library; github.com/ianlancetaylor/demangle is the public
// module that internal fork tracks.
func Demangle(name string) string {
	out, err := demangle.ToString(name, demangle.NoClones)
	if err != nil {
		return name
	}
	return out
}

// FuncLocator finds the function containing a given offset within an
// input section, for diagnostic purposes only (spec.md §4.5). It is a
// linear scan of the owning file's symbol table for an STT_FUNC symbol
// whose [st_value, st_value+st_size) range contains offset; ties resolve
// to the first match.
func FuncLocator(file *ObjectFile, shndx uint32, offset uint64, demangleNames bool) string {
	for i := range file.ElfSyms {
		esym := &file.ElfSyms[i]
		if esym.Shndx != uint16(shndx) || esym.Type() != STT_FUNC {
			continue
		}
		if offset < esym.Val || offset >= esym.Val+esym.Size {
			continue
		}
		name := ElfGetName(file.SymbolStrtab, esym.Name)
		if demangleNames {
			return Demangle(name)
		}
		return name
	}
	return ""
}
