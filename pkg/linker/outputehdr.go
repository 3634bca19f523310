package linker

import "github.com/rod-salazar/mold/pkg/utils"

// OutputEhdr is the synthetic chunk that emits the file's Ehdr, always
// first in Context.Chunks (spec.md §3/§6: "Lifecycles").
type OutputEhdr struct {
	Chunk
}

func NewOutputEhdr() *OutputEhdr {
	e := &OutputEhdr{Chunk: NewChunk()}
	e.Shdr.Flags = SHF_ALLOC
	e.Shdr.Size = EhdrSize
	e.Shdr.AddrAlign = 8
	return e
}

func (e *OutputEhdr) UpdateShdr(ctx *Context) {}

func (e *OutputEhdr) CopyBuf(ctx *Context) {
	ehdr := Ehdr{
		Ident:     [16]uint8{0x7f, 'E', 'L', 'F', 2, 1, 1},
		Type:      ET_DYN,
		Version:   1,
		ShOff:     ctx.Shdr.Shdr.Offset,
		EhSize:    EhdrSize,
		PhEntSize: PhdrSize,
		PhNum:     uint16(len(ctx.Phdr.Entries)),
		PhOff:     ctx.Phdr.Shdr.Offset,
		ShEntSize: ShdrSize,
		ShNum:     uint16(len(ctx.Chunks)),
		ShStrndx:  0,
	}

	if !ctx.Args.Shared && !ctx.Args.Pie {
		ehdr.Type = ET_EXEC
	}

	switch ctx.Machine {
	case MachineTypeRISCV64:
		ehdr.Machine = 243
	case MachineTypeX86_64:
		ehdr.Machine = 62
	case MachineTypePPC64:
		ehdr.Machine = 21
	}

	ehdr.Entry = findEntryAddr(ctx)

	utils.Write[Ehdr](ctx.Buf, ehdr)
}

// findEntryAddr resolves the `_start` symbol's runtime address, falling
// back to zero for shared objects, which have no entry point of their
// own.
func findEntryAddr(ctx *Context) uint64 {
	if ctx.Args.Shared {
		return 0
	}
	sym, ok := ctx.SymbolMap["_start"]
	if !ok || sym.File == nil {
		return 0
	}
	return sym.GetAddr(ctx)
}
