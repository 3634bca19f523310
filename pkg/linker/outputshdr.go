package linker

import "github.com/rod-salazar/mold/pkg/utils"

// OutputShdr is the synthetic chunk that emits the section header
// table itself: a null entry at index 0 followed by one Shdr per chunk
// at that chunk's position in ctx.Chunks. Grounded on the teacher-family OutputShdr
// (dongAxis-rvld's UpdateShdr/CopyBuf shape), generalized to the
// multi-output-flavor Context here.
type OutputShdr struct {
	Chunk
}

func NewOutputShdr() *OutputShdr {
	s := &OutputShdr{Chunk: NewChunk()}
	s.Shdr.AddrAlign = 8
	return s
}

func (s *OutputShdr) UpdateShdr(ctx *Context) {
	s.Shdr.Size = uint64(len(ctx.Chunks)) * ShdrSize
}

func (s *OutputShdr) CopyBuf(ctx *Context) {
	base := ctx.Buf[s.Shdr.Offset:]
	utils.Write[Shdr](base, Shdr{})

	for i, chunk := range ctx.Chunks {
		if i == 0 {
			continue
		}
		utils.Write[Shdr](base[uint64(i)*ShdrSize:], *chunk.GetShdr())
	}
}
