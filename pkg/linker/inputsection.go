package linker

import (
	"math"
	"math/bits"

	"github.com/rod-salazar/mold/pkg/utils"
)

// noRelsec marks an InputSection with no associated relocation table.
const noRelsec = math.MaxUint32

// InputSection mirrors one allocated ELF section of an ObjectFile, plus
// the bookkeeping the engine layers on top of it: output placement,
// liveness, and the relocation decisions made against it during
// scanning (spec.md §3's InputSection).
type InputSection struct {
	File     *ObjectFile
	Contents []byte
	Shndx    uint32
	ShSize   uint32
	IsAlive  bool
	P2Align  uint8

	Offset        uint32
	OutputSection *OutputSection

	RelsecIdx uint32
	Rels      []Relocation

	// Actions holds, parallel to Rels, the disposition Scan assigned to
	// each relocation (spec.md §4.3). Populated by ScanRelocations.
	Actions []Action

	// DynRelBase/NumDynRelocs stake out this section's disjoint slice of
	// ctx.RelaDyn's entry buffer: [DynRelBase, DynRelBase+NumDynRelocs),
	// computed by a sequential prefix-sum pass (AssignDynRelRanges) once
	// every section has finished scanning, so that the apply pass can
	// write DYNREL/BASEREL entries from many goroutines without any
	// shared counter (spec.md §5).
	DynRelBase   int
	NumDynRelocs int
}

func NewInputSection(ctx *Context, name string, file *ObjectFile, shndx uint32) *InputSection {
	s := &InputSection{
		File:      file,
		Shndx:     shndx,
		IsAlive:   true,
		Offset:    math.MaxUint32,
		RelsecIdx: noRelsec,
		ShSize:    math.MaxUint32,
	}

	shdr := s.Shdr()
	contents := file.File.Contents[shdr.Offset : shdr.Offset+shdr.Size]
	s.Contents = UncompressSectionContents(ctx, shdr, contents)
	s.ShSize = uint32(len(s.Contents))

	toP2Align := func(align uint64) uint8 {
		if align == 0 {
			return 0
		}
		return uint8(bits.TrailingZeros64(align))
	}
	s.P2Align = toP2Align(shdr.AddrAlign)

	s.OutputSection = GetOutputSection(ctx, name, shdr.Type, shdr.Flags)
	return s
}

func (i *InputSection) Shdr() *Shdr {
	utils.Assert(i.Shndx < uint32(len(i.File.ElfSections)))
	return &i.File.ElfSections[i.Shndx]
}

func (i *InputSection) Name() string {
	return ElfGetName(i.File.ShStrtab, i.Shdr().Name)
}

func (i *InputSection) WriteTo(ctx *Context, buf []byte) {
	if i.Shdr().Type == SHT_NOBITS || i.ShSize == 0 {
		return
	}

	i.CopyContents(buf)

	if i.Shdr().Flags&SHF_ALLOC != 0 {
		i.ApplyRelocAlloc(ctx, buf)
	}
}

func (i *InputSection) CopyContents(buf []byte) {
	copy(buf, i.Contents)
}

func (i *InputSection) GetAddr() uint64 {
	return i.OutputSection.Shdr.Addr + uint64(i.Offset)
}

// IsRelrEligible reports whether a BASEREL relocation at the given
// section-relative offset can be compacted into the RELR bitmap stream
// instead of getting its own .rela.dyn entry (spec.md §4.3/§4.4's
// is_relr_reloc, SPEC_FULL.md §4): RELR packing must be requested, the
// section must be allocatable and writable (RELR only ever compacts
// base-relocations, which by construction only ever land in writable
// data), and the relocation itself must be word-aligned, since the
// bitmap stream encodes runs of consecutive word-aligned addresses.
func (i *InputSection) IsRelrEligible(ctx *Context, offset uint64) bool {
	if ctx.Args.PackDynRelocs != "relr" {
		return false
	}
	shdr := i.Shdr()
	if shdr.Flags&SHF_ALLOC == 0 || shdr.Flags&SHF_WRITE == 0 {
		return false
	}
	return offset%8 == 0
}
