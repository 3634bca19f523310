package linker

import "github.com/rod-salazar/mold/pkg/utils"

const pltEntrySize = 16

// PltSection is the synthetic .plt output chunk. It holds two kinds of
// stub, both ActionPlt and ActionCplt symbols landing in the same array
// (spec.md §4.2's PLT/CPLT distinction is about *why* a stub exists, not
// where it lives): a plain PLT stub lets position-independent call sites
// reach an imported function without a text relocation, while a
// canonical PLT stub additionally becomes the function's own address
// (sym.GetAddr returns the CPLT entry) so that pointer-equality across
// shared objects keeps working for non-PIE code (spec.md GLOSSARY,
// "Canonical PLT").
type PltSection struct {
	Chunk
	Syms []*Symbol
}

func NewPltSection() *PltSection {
	p := &PltSection{Chunk: NewChunk()}
	p.Name = ".plt"
	p.Shdr.Type = SHT_PROGBITS
	p.Shdr.Flags = SHF_ALLOC | SHF_EXECINSTR
	p.Shdr.AddrAlign = pltEntrySize
	return p
}

func (p *PltSection) AddSymbol(sym *Symbol) {
	if sym.PltIdx >= 0 {
		return
	}
	sym.PltIdx = int32(len(p.Syms))
	p.Syms = append(p.Syms, sym)
}

func (p *PltSection) EntryAddr(idx int32) uint64 {
	return p.Shdr.Addr + uint64(idx)*pltEntrySize
}

func (p *PltSection) UpdateShdr(ctx *Context) {
	p.Shdr.Size = uint64(len(p.Syms)) * pltEntrySize
}

// CopyBuf emits a PC-relative GOT-indirect jump stub per slot: `jmp
// *got_entry(%rip)`, padded with traps, in the shape of an x86-64
// non-lazy PLT entry; no PLT0 header entry is emitted. Other architectures reuse the same entry-size accounting
// through GetAddr/EntryAddr without this routine producing meaningful
// code for them; machine-specific stub bytes beyond x86_64 are a
// non-goal here, matching spec.md's "stay in the already-generalized
// x86_64/RISC-V pair" scope.
func (p *PltSection) CopyBuf(ctx *Context) {
	base := ctx.Buf[p.Shdr.Offset:]
	for i, sym := range p.Syms {
		stub := base[i*pltEntrySize : (i+1)*pltEntrySize]
		for j := range stub {
			stub[j] = 0xcc // INT3 filler; overwritten below for x86_64
		}
		if ctx.Machine != MachineTypeX86_64 {
			continue
		}
		gotAddr := sym.GetGotAddr(ctx)
		pltAddr := p.EntryAddr(int32(i))
		disp := int32(gotAddr - (pltAddr + 6))
		stub[0], stub[1] = 0xff, 0x25
		utils.Write[uint32](stub[2:], uint32(disp))
	}
}
