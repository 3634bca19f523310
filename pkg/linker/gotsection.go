package linker

import "github.com/rod-salazar/mold/pkg/utils"

// GotSection is the synthetic .got output chunk: one GotEntrySize-wide
// slot per symbol that scanning decided needs GOT residency, either for
// a plain address (NeedsGot) or for a thread-pointer offset (NeedsGotTp).
// Grounded on the teacher-family GOT section design; generalized from
// TLS-only to general GOT slots per spec.md §4.1/§4.3.
type GotSection struct {
	Chunk
	GotSyms   []*Symbol
	GotTpSyms []*Symbol
}

func NewGotSection() *GotSection {
	g := &GotSection{Chunk: NewChunk()}
	g.Name = ".got"
	g.Shdr.Type = SHT_PROGBITS
	g.Shdr.Flags = SHF_ALLOC | SHF_WRITE
	g.Shdr.AddrAlign = GotEntrySize
	return g
}

func (g *GotSection) AddGotSymbol(sym *Symbol) {
	if sym.GotIdx >= 0 {
		return
	}
	sym.GotIdx = int32(len(g.GotSyms))
	g.GotSyms = append(g.GotSyms, sym)
}

func (g *GotSection) AddGotTpSymbol(sym *Symbol) {
	if sym.GotTpIdx >= 0 {
		return
	}
	sym.GotTpIdx = int32(len(g.GotSyms) + len(g.GotTpSyms))
	g.GotTpSyms = append(g.GotTpSyms, sym)
}

func (g *GotSection) GetEntries() int {
	return len(g.GotSyms) + len(g.GotTpSyms)
}

func (g *GotSection) UpdateShdr(ctx *Context) {
	g.Shdr.Size = uint64(g.GetEntries()) * GotEntrySize
}

func (g *GotSection) CopyBuf(ctx *Context) {
	base := ctx.Buf[g.Shdr.Offset:]

	for _, sym := range g.GotSyms {
		utils.Write[uint64](base[int(sym.GotIdx)*GotEntrySize:], sym.GetAddr(ctx))
	}
	for _, sym := range g.GotTpSyms {
		utils.Write[uint64](base[int(sym.GotTpIdx)*GotEntrySize:], sym.GetAddr(ctx)-ctx.TpAddr)
	}
}
