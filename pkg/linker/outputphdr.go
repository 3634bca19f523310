package linker

import "github.com/rod-salazar/mold/pkg/utils"

const (
	PT_LOAD uint32 = 1
	PT_PHDR uint32 = 6

	PF_X uint32 = 1
	PF_W uint32 = 2
	PF_R uint32 = 4
)

// OutputPhdr is the synthetic chunk that emits the program header
// table: one PT_PHDR entry covering itself, then one PT_LOAD segment
// per distinct read/write/exec permission grouping among the allocated
// chunks, in output order.
type OutputPhdr struct {
	Chunk
	Entries []Phdr
}

func NewOutputPhdr() *OutputPhdr {
	p := &OutputPhdr{Chunk: NewChunk()}
	p.Shdr.Flags = SHF_ALLOC
	p.Shdr.AddrAlign = 8
	return p
}

func (p *OutputPhdr) UpdateShdr(ctx *Context) {
	p.Entries = buildPhdrs(ctx)
	p.Shdr.Size = uint64(len(p.Entries)) * PhdrSize
}

func (p *OutputPhdr) CopyBuf(ctx *Context) {
	base := ctx.Buf[p.Shdr.Offset:]
	for i, e := range p.Entries {
		utils.Write[Phdr](base[i*PhdrSize:], e)
	}
}

func buildPhdrs(ctx *Context) []Phdr {
	var phdrs []Phdr

	phdrs = append(phdrs, Phdr{
		Type:  PT_PHDR,
		Flags: PF_R,
	})

	type segKey struct {
		writable bool
		exec     bool
	}
	var curKey segKey
	var cur *Phdr

	for _, chunk := range ctx.Chunks {
		shdr := chunk.GetShdr()
		if shdr.Flags&SHF_ALLOC == 0 {
			continue
		}

		key := segKey{
			writable: shdr.Flags&SHF_WRITE != 0,
			exec:     shdr.Flags&SHF_EXECINSTR != 0,
		}

		if cur == nil || key != curKey {
			flags := PF_R
			if key.writable {
				flags |= PF_W
			}
			if key.exec {
				flags |= PF_X
			}
			phdrs = append(phdrs, Phdr{
				Type:     PT_LOAD,
				Flags:    flags,
				Offset:   shdr.Offset,
				VAddr:    shdr.Addr,
				PAddr:    shdr.Addr,
				FileSize: 0,
				MemSize:  0,
				Align:    PageSize,
			})
			cur = &phdrs[len(phdrs)-1]
			curKey = key
		}

		end := shdr.Offset + shdr.Size
		cur.FileSize = end - cur.Offset
		if shdr.Type != SHT_NOBITS {
			cur.MemSize = cur.FileSize
		} else {
			cur.MemSize = (shdr.Addr + shdr.Size) - cur.VAddr
		}
	}

	phdrs[0].Offset = ctx.Phdr.Shdr.Offset
	phdrs[0].VAddr = ctx.Phdr.Shdr.Addr
	phdrs[0].PAddr = ctx.Phdr.Shdr.Addr
	phdrs[0].FileSize = uint64(len(phdrs)) * PhdrSize
	phdrs[0].MemSize = phdrs[0].FileSize

	return phdrs
}
