package linker

// SharedFile is the engine's view of a `.so` dependency: just enough of
// its dynamic symbol table to classify references against it as
// imported-data or imported-function (spec.md §4.2's symbol classes).
// Unlike ObjectFile, a SharedFile contributes no InputSections to the
// output; it only supplies definitions, so references to them resolve
// as imported symbols and take the Action tables' imported-data or
// imported-function columns.
type SharedFile struct {
	InputFile
	Soname  string
	Symbols []*Symbol
}

func NewSharedFile(file *File) *SharedFile {
	return &SharedFile{InputFile: NewInputFile(file)}
}

// CreateSharedFile parses a shared object's dynamic symbol table, then
// registers every globally defined dynsym as an imported Symbol so
// later symbol resolution can see it. Soname is set to the file's name;
// the dynamic section (DT_SONAME) is not read.
func CreateSharedFile(ctx *Context, file *File) *SharedFile {
	CheckFileCompatibility(ctx, file)

	sf := NewSharedFile(file)
	sf.Soname = sf.File.Name

	dynsymSec := sf.FindSection(SHT_DYNSYM)
	if dynsymSec == nil {
		return sf
	}

	sf.FillUpElfSyms(dynsymSec)
	sf.SymbolStrtab = sf.GetBytesFromIdx(int64(dynsymSec.Link))

	for _, esym := range sf.ElfSyms {
		if esym.IsUndef() {
			continue
		}
		if esym.Bind() != STB_GLOBAL && esym.Bind() != STB_WEAK {
			continue
		}

		name := ElfGetName(sf.SymbolStrtab, esym.Name)
		sym := GetSymbolByName(ctx, name)

		// An object-file definition always takes priority; a shared
		// object only fills in symbols still undefined once every
		// relocatable input has been resolved, so this only records
		// the candidate definition here — ResolveSymbols performs the
		// actual precedence check once all objects are parsed.
		if sym.File == nil && sym.DefiningDso == nil {
			sym.DefiningDso = sf
			sym.IsImported = true
			sym.Value = esym.Val
			sym.Visibility = esym.StVisibility()
			sym.DsoSymSize = esym.Size
		}

		sf.Symbols = append(sf.Symbols, sym)
	}

	return sf
}
