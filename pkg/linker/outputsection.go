package linker

// OutputSection groups every InputSection sharing an output name/type/
// flags triple (spec.md §3).
type OutputSection struct {
	Chunk
	Members []*InputSection
	Idx     uint32
}

func NewOutputSection(name string, typ uint32, flags uint64, idx uint32) *OutputSection {
	o := &OutputSection{Chunk: NewChunk()}
	o.Name = name
	o.Shdr.Type = typ
	o.Shdr.Flags = flags
	o.Idx = idx
	return o
}

// CopyBuf is deliberately a no-op: member InputSection contents (and,
// for allocated members, relocations) are written by the parallel
// ApplyRelocations pass
// (spec.md §5), not by a second, sequential walk over o.Members here.
func (o *OutputSection) CopyBuf(ctx *Context) {}

func GetOutputSection(ctx *Context, name string, typ uint32, flags uint64) *OutputSection {
	name = GetOutputName(name, flags)
	flags = flags &^ SHF_GROUP &^ SHF_COMPRESSED &^ SHF_LINK_ORDER

	for _, osec := range ctx.OutputSections {
		if name == osec.Name && typ == osec.Shdr.Type && flags == osec.Shdr.Flags {
			return osec
		}
	}

	osec := NewOutputSection(name, typ, flags, uint32(len(ctx.OutputSections)))
	ctx.OutputSections = append(ctx.OutputSections, osec)
	return osec
}
