package linker

import "github.com/rod-salazar/mold/pkg/utils"

// Relocation is the REL/RELA-normalized relocation entry the rest of the
// engine consumes (spec.md §3). RISCV64 and X86_64 object files carry
// RELA (explicit r_addend). For SHT_REL entries Addend is 0: the addend
// stored in the relocated location's content is not extracted, neither
// here nor at apply time.
type Relocation struct {
	Offset uint64
	Type   uint32
	Sym    uint32
	Addend int64
}

// GetRelocations returns isec's relocations normalized to Relocation,
// reading the section's associated SHT_REL or SHT_RELA table lazily
// and caching the result.
func (i *InputSection) GetRelocations() []Relocation {
	if i.RelsecIdx == noRelsec {
		return nil
	}
	if i.Rels != nil {
		return i.Rels
	}

	shdr := &i.File.InputFile.ElfSections[i.RelsecIdx]
	bs := i.File.GetBytesFromShdr(shdr)

	if shdr.Type == SHT_RELA {
		relas := utils.ReadSlice[Rela](bs, RelaSize)
		i.Rels = make([]Relocation, len(relas))
		for idx, r := range relas {
			i.Rels[idx] = Relocation{Offset: r.Offset, Type: r.Type, Sym: r.Sym, Addend: r.Addend}
		}
		return i.Rels
	}

	rels := utils.ReadSlice[Rel](bs, RelSize)
	i.Rels = make([]Relocation, len(rels))
	for idx, r := range rels {
		i.Rels[idx] = Relocation{Offset: r.Offset, Type: r.Type, Sym: r.Sym}
	}
	return i.Rels
}
