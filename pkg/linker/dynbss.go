package linker

import "github.com/rod-salazar/mold/pkg/utils"

// DynbssSection reserves space in the non-PIE executable's .bss for
// copy relocations: symbols whose defining shared object holds data
// that must be duplicated into the executable's own image so ordinary
// (non-GOT) references to it keep working without a PLT indirection
// (spec.md §4.2's COPYREL action, GLOSSARY "Copy relocation").
type DynbssSection struct {
	Chunk
	Syms []*Symbol
}

func NewDynbssSection() *DynbssSection {
	d := &DynbssSection{Chunk: NewChunk()}
	d.Name = ".bss.rel.ro"
	d.Shdr.Type = SHT_NOBITS
	d.Shdr.Flags = SHF_ALLOC | SHF_WRITE
	d.Shdr.AddrAlign = 16
	return d
}

// Reserve grows the section by the size of sym's shared-object
// definition and records sym's resulting offset, so GetAddr can report
// this reservation's address instead of the DSO's.
func (d *DynbssSection) Reserve(sym *Symbol) {
	if sym.DynbssOffset >= 0 {
		return
	}

	size := sym.DsoSymSize
	if size == 0 {
		size = 8
	}

	d.Shdr.Size = utils.AlignTo(d.Shdr.Size, 16)
	sym.DynbssOffset = int64(d.Shdr.Size)
	d.Shdr.Size += size
	d.Syms = append(d.Syms, sym)
}

func (d *DynbssSection) UpdateShdr(ctx *Context) {}

func (d *DynbssSection) CopyBuf(ctx *Context) {}
