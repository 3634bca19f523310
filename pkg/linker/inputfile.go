package linker

import (
	"fmt"

	"github.com/rod-salazar/mold/pkg/utils"
)

// InputFile is the common base of ObjectFile and SharedFile: the raw ELF
// envelope (section header array, section-header string table) shared by
// both before either's own symbol-table handling takes over.
type InputFile struct {
	File         *File
	ElfSections  []Shdr
	ShStrtab     []byte
	ElfSyms      []Sym
	FirstGlobal  int
	SymbolStrtab []byte
	IsAlive      bool
	Symbols      []*Symbol
	LocalSymbols []Symbol
}

func NewInputFile(file *File) InputFile {
	f := InputFile{File: file}

	if len(file.Contents) < EhdrSize {
		utils.Fatal("file too small: " + file.Name)
	}
	if !CheckMagic(file.Contents) {
		utils.Fatal("not an ELF file: " + file.Name)
	}

	ehdr := utils.Read[Ehdr](file.Contents)
	contents := file.Contents[ehdr.ShOff:]
	shdr := utils.Read[Shdr](contents)

	numSections := int64(ehdr.ShNum)
	if numSections == 0 {
		numSections = int64(shdr.Size)
	}

	f.ElfSections = []Shdr{shdr}
	for numSections > 1 {
		contents = contents[ShdrSize:]
		f.ElfSections = append(f.ElfSections, utils.Read[Shdr](contents))
		numSections--
	}

	shstrndx := int64(ehdr.ShStrndx)
	if ehdr.ShStrndx == SHN_XINDEX {
		shstrndx = int64(shdr.Link)
	}
	if len(f.ElfSections) > 0 {
		f.ShStrtab = f.GetBytesFromIdx(shstrndx)
	}
	return f
}

func (f *InputFile) GetBytesFromShdr(s *Shdr) []byte {
	end := s.Offset + s.Size
	if uint64(len(f.File.Contents)) < end {
		utils.Fatal(fmt.Sprintf("section header is out of range: %d", s.Offset))
	}
	return f.File.Contents[s.Offset:end]
}

func (f *InputFile) GetBytesFromIdx(idx int64) []byte {
	return f.GetBytesFromShdr(&f.ElfSections[idx])
}

func (f *InputFile) FillUpElfSyms(s *Shdr) {
	bs := f.GetBytesFromShdr(s)
	f.ElfSyms = utils.ReadSlice[Sym](bs, SymSize)
}

func (f *InputFile) FindSection(ty uint32) *Shdr {
	for i := range f.ElfSections {
		if f.ElfSections[i].Type == ty {
			return &f.ElfSections[i]
		}
	}
	return nil
}

func (f *InputFile) GetEhdr() Ehdr {
	return utils.Read[Ehdr](f.File.Contents)
}

// SourceName reports the name used in diagnostics: the archive member's
// own name, qualified with its parent archive's path when this file was
// extracted from one, matching a conventional `archive.a(member.o)`
// presentation.
func (f *InputFile) SourceName() string {
	if f.File.Parent != nil {
		return fmt.Sprintf("%s(%s)", f.File.Parent.Name, f.File.Name)
	}
	return f.File.Name
}
