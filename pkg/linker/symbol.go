package linker

import (
	"sync/atomic"

	"github.com/rod-salazar/mold/pkg/utils"
)

// Symbol capability-request flags (spec.md §3's "bag of capability flags
// the engine sets"). Accumulated via atomic fetch-or during scan, never
// cleared, per spec.md §5/§8 invariant 2. Bit 0 is kept identical to the
// teacher's NeedsGotTp to stay consistent with its TLS handling; the rest
// are additions the spec's Action tables require.
const (
	NeedsGotTp  uint32 = 1 << 0
	NeedsGot    uint32 = 1 << 1
	NeedsPlt    uint32 = 1 << 2
	NeedsCplt   uint32 = 1 << 3
	NeedsCopyrel uint32 = 1 << 4
)

// Symbol is the linker's view of one ELF symbol, shared by every
// ObjectFile that references it by name (spec.md §3). Besides the
// teacher's InputSection/SectionFragment residency pointers, it grows
// the attributes the Action tables need to classify a reference:
// IsImported, a symbol-kind accessor, visibility, and a dynamic-symtab
// index, per spec.md §3's "Symbol (as consumed)".
type Symbol struct {
	File     *ObjectFile
	Name     string
	Value    uint64
	SymIdx   int
	GotTpIdx int32
	GotIdx   int32
	PltIdx   int32
	DynbssOffset int64

	InputSection    *InputSection
	SectionFragment *SectionFragment

	// IsImported is true when this symbol is ultimately defined by a
	// shared object rather than by one of the input object files
	// (spec.md §3/§6). Set during symbol resolution.
	IsImported bool

	// DefiningDso records which shared object supplied this symbol's
	// definition when IsImported is set. Kept separate from File (which
	// is always an *ObjectFile) rather than overloading it.
	DefiningDso *SharedFile

	// Visibility is the st_other visibility of the shared-object
	// definition recorded by CreateSharedFile, and STV_DEFAULT otherwise;
	// object-file definitions and references do not update it.
	Visibility uint8

	// DynsymIdx is this symbol's index into the output .dynsym. Nothing
	// in this package assigns it; it stays -1 (as set by NewSymbol)
	// unless a caller sets it.
	DynsymIdx int32

	// DsoSymSize mirrors the defining shared object's st_size, used to
	// size a DynbssSection reservation for this symbol when it needs a
	// copy relocation.
	DsoSymSize uint64

	flags atomic.Uint32
}

func NewSymbol(name string) *Symbol {
	return &Symbol{
		Name:       name,
		SymIdx:     -1,
		GotTpIdx:   -1,
		GotIdx:       -1,
		PltIdx:       -1,
		DynsymIdx:    -1,
		DynbssOffset: -1,
		Visibility:   STV_DEFAULT,
	}
}

// SetInputSection records that this symbol is defined within isec.
func (s *Symbol) SetInputSection(isec *InputSection) {
	s.InputSection = isec
	s.SectionFragment = nil
}

// SetSectionFragment records that this symbol is defined within a
// mergeable-section fragment instead of a whole InputSection.
func (s *Symbol) SetSectionFragment(frag *SectionFragment) {
	s.InputSection = nil
	s.SectionFragment = frag
}

func GetSymbolByName(ctx *Context, name string) *Symbol {
	if sym, ok := ctx.SymbolMap[name]; ok {
		return sym
	}
	ctx.SymbolMap[name] = NewSymbol(name)
	return ctx.SymbolMap[name]
}

func (s *Symbol) ElfSym() *Sym {
	utils.Assert(s.SymIdx < len(s.File.ElfSyms))
	return &s.File.ElfSyms[s.SymIdx]
}

func (s *Symbol) Clear() {
	s.File = nil
	s.InputSection = nil
	s.SectionFragment = nil
	s.SymIdx = -1
	s.IsImported = false
}

// IsAbsolute reports whether this symbol has a fixed value not relative
// to any section (spec.md §3/§4.2's "abs" symbol class).
func (s *Symbol) IsAbsolute() bool {
	return s.InputSection == nil && s.SectionFragment == nil && s.File != nil && s.SymIdx >= 0 && s.ElfSym().IsAbs()
}

// Kind returns the symbol's STT_* type (function vs data vs other),
// consulting the defining shared-object symbol when imported.
func (s *Symbol) Kind() uint8 {
	if s.File != nil && s.SymIdx >= 0 {
		return s.ElfSym().Type()
	}
	if dso := s.DefiningDso; dso != nil {
		for i := range dso.ElfSyms {
			esym := &dso.ElfSyms[i]
			if esym.IsDefined() && ElfGetName(dso.SymbolStrtab, esym.Name) == s.Name {
				return esym.Type()
			}
		}
	}
	return STT_NOTYPE
}

// AddFlags atomically ORs bits into this symbol's capability-request
// flags. Monotonic: callers never clear bits, matching spec.md §5's
// "scan phase is monotonic" invariant, which is what makes a plain
// fetch-or race-free without locks.
func (s *Symbol) AddFlags(bits uint32) {
	for {
		old := s.flags.Load()
		if s.flags.CompareAndSwap(old, old|bits) {
			return
		}
	}
}

func (s *Symbol) Flags() uint32 {
	return s.flags.Load()
}

func (s *Symbol) NeedsGot() bool     { return s.flags.Load()&NeedsGot != 0 }
func (s *Symbol) NeedsGotTp() bool   { return s.flags.Load()&NeedsGotTp != 0 }
func (s *Symbol) NeedsPlt() bool     { return s.flags.Load()&NeedsPlt != 0 }
func (s *Symbol) NeedsCplt() bool    { return s.flags.Load()&NeedsCplt != 0 }
func (s *Symbol) NeedsCopyrel() bool { return s.flags.Load()&NeedsCopyrel != 0 }

// GetAddr returns the symbol's final runtime address S (spec.md §3/§4.4).
// For a symbol gaining a canonical PLT entry, that PLT entry's address
// *is* the symbol's address (spec.md GLOSSARY, "Canonical PLT"). A
// plain (non-canonical) PLT entry still needs to win here: any local
// reference patched against S must land on the PLT stub, which then
// indirects through the GOT to whatever the imported function actually
// resolves to.
func (s *Symbol) GetAddr(ctx *Context) uint64 {
	if (s.NeedsCplt() || s.NeedsPlt()) && s.PltIdx >= 0 {
		return ctx.Plt.EntryAddr(s.PltIdx)
	}
	if s.NeedsCopyrel() && s.DynbssOffset >= 0 {
		return ctx.Dynbss.Shdr.Addr + uint64(s.DynbssOffset)
	}
	if s.SectionFragment != nil {
		return s.SectionFragment.GetAddr() + s.Value
	}
	if s.InputSection != nil {
		return s.InputSection.GetAddr() + s.Value
	}
	return s.Value
}

func (s *Symbol) GetGotTpAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GotTpIdx)*GotEntrySize
}

func (s *Symbol) GetGotAddr(ctx *Context) uint64 {
	return ctx.Got.Shdr.Addr + uint64(s.GotIdx)*GotEntrySize
}
