package linker

import "github.com/rod-salazar/mold/pkg/utils"

// DynRelEntry is one pending .rela.dyn entry: the location to patch at
// load time (an output-file virtual address, not a buffer offset) plus
// enough information to emit either a symbol-relative DYNREL entry or a
// symbol-less BASEREL (image-base-relative) entry (spec.md §4.2/§4.4).
type DynRelEntry struct {
	Loc    uint64
	Type   uint32
	Sym    *Symbol // nil for BASEREL
	Addend int64
}

// RelaDynSection is the synthetic .rela.dyn output chunk. Entries are
// written into disjoint slices of entries, one per InputSection, so the
// apply pass can run many sections concurrently without any shared
// append cursor (spec.md §5's "disjoint per-file append cursors" —
// realized here per-section, the finest grain available once sections
// are bound to output offsets).
type RelaDynSection struct {
	Chunk
	entries []DynRelEntry
}

func NewRelaDynSection() *RelaDynSection {
	r := &RelaDynSection{Chunk: NewChunk()}
	r.Name = ".rela.dyn"
	r.Shdr.Type = SHT_RELA
	r.Shdr.Flags = SHF_ALLOC
	r.Shdr.EntSize = RelaSize
	r.Shdr.AddrAlign = 8
	return r
}

// Reserve grows the shared entries buffer by n slots and returns the
// base index of this section's disjoint range; callers write directly
// into entries[base:base+n] from their own goroutine without further
// synchronization.
func (r *RelaDynSection) Reserve(n int) int {
	base := len(r.entries)
	r.entries = append(r.entries, make([]DynRelEntry, n)...)
	return base
}

func (r *RelaDynSection) Set(idx int, e DynRelEntry) {
	r.entries[idx] = e
}

func (r *RelaDynSection) UpdateShdr(ctx *Context) {
	r.Shdr.Size = uint64(len(r.entries)) * RelaSize
}

func (r *RelaDynSection) CopyBuf(ctx *Context) {
	base := ctx.Buf[r.Shdr.Offset:]
	for i, e := range r.entries {
		rela := Rela{Offset: e.Loc, Type: e.Type, Addend: e.Addend}
		if e.Sym != nil {
			rela.Sym = uint32(e.Sym.DynsymIdx)
		}
		utils.Write[Rela](base[i*RelaSize:], rela)
	}
}
