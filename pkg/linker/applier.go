package linker

import "github.com/rod-salazar/mold/pkg/utils"

// ApplyRelocAlloc is the apply pass for one allocated InputSection
// (spec.md §4.4): it revisits every relocation scanSection already
// classified and either patches base directly (static resolution,
// PLT/CPLT/COPYREL addresses) or appends a DynRelEntry into this
// section's pre-reserved, disjoint slice of ctx.RelaDyn (DYNREL/
// BASEREL). Many InputSections run this concurrently; safety follows
// from isec.DynRelBase never overlapping another section's range.
func (i *InputSection) ApplyRelocAlloc(ctx *Context, base []byte) {
	switch ctx.Machine {
	case MachineTypeRISCV64:
		i.applyRelocRISCV(ctx, base)
	case MachineTypeX86_64:
		i.applyRelocX86_64(ctx, base)
	}
}

func (i *InputSection) dynRelCursor() func() int {
	next := i.DynRelBase
	return func() int {
		idx := next
		next++
		return idx
	}
}

func (i *InputSection) applyRelocX86_64(ctx *Context, base []byte) {
	rels := i.GetRelocations()
	cursor := i.dynRelCursor()

	for idx, rel := range rels {
		if rel.Type == R_X86_64_NONE {
			continue
		}

		sym := i.File.Symbols[rel.Sym]
		if sym.File == nil && sym.DefiningDso == nil {
			continue
		}

		loc := base[rel.Offset:]
		A := uint64(rel.Addend)
		P := i.GetAddr() + rel.Offset

		kind := classifyReloc(ctx.Machine, rel.Type)
		action := ActionNone
		if idx < len(i.Actions) {
			action = i.Actions[idx]
		}

		switch action {
		case ActionDynrel:
			// spec.md §4.4: write A into the content; the .rela.dyn entry
			// carries the symbol, resolved by the dynamic linker at load
			// time.
			utils.Write[uint64](loc, A)
			ctx.RelaDyn.Set(cursor(), DynRelEntry{Loc: P, Type: R_X86_64_GLOB_DAT, Sym: sym})
			continue
		case ActionBaserel:
			// spec.md §4.4: write S+A into the content regardless of RELR
			// eligibility; only the .rela.dyn entry itself is skipped when
			// the relocation is RELR-compacted instead.
			sAddr := sym.GetAddr(ctx) + A
			utils.Write[uint64](loc, sAddr)
			if !i.IsRelrEligible(ctx, rel.Offset) {
				ctx.RelaDyn.Set(cursor(), DynRelEntry{Loc: P, Type: R_X86_64_RELATIVE, Addend: int64(sAddr)})
			}
			continue
		}

		S := sym.GetAddr(ctx)
		switch kind {
		case relAbsNarrow:
			utils.Write[uint32](loc, uint32(S+A))
		case relAbsWord:
			utils.Write[uint64](loc, S+A)
		case relPCRel:
			utils.Write[uint32](loc, uint32(S+A-P))
		}
	}
}

func (i *InputSection) applyRelocRISCV(ctx *Context, base []byte) {
	rels := i.GetRelocations()
	cursor := i.dynRelCursor()

	for a := 0; a < len(rels); a++ {
		rel := rels[a]
		if rel.Type == R_RISCV_NONE || rel.Type == R_RISCV_RELAX {
			continue
		}

		sym := i.File.Symbols[rel.Sym]
		loc := base[rel.Offset:]

		if sym.File == nil && sym.DefiningDso == nil {
			continue
		}

		action := ActionNone
		if a < len(i.Actions) {
			action = i.Actions[a]
		}
		if action == ActionDynrel || action == ActionBaserel {
			P := i.GetAddr() + rel.Offset
			if action == ActionDynrel {
				// spec.md §4.4: write A into the content; the .rela.dyn
				// entry carries both the symbol and its own addend.
				utils.Write[uint64](loc, uint64(rel.Addend))
				ctx.RelaDyn.Set(cursor(), DynRelEntry{Loc: P, Type: R_RISCV_64, Sym: sym, Addend: rel.Addend})
			} else {
				sAddr := uint64(int64(sym.GetAddr(ctx)) + rel.Addend)
				utils.Write[uint64](loc, sAddr)
				if !i.IsRelrEligible(ctx, rel.Offset) {
					ctx.RelaDyn.Set(cursor(), DynRelEntry{Loc: P, Type: R_RISCV_64, Addend: int64(sAddr)})
				}
			}
			continue
		}

		S := sym.GetAddr(ctx)
		A := uint64(rel.Addend)
		P := i.GetAddr() + rel.Offset

		switch rel.Type {
		case R_RISCV_32:
			utils.Write[uint32](loc, uint32(S+A))
		case R_RISCV_64:
			utils.Write[uint64](loc, S+A)
		case R_RISCV_BRANCH:
			writeBtype(loc, uint32(S+A-P))
		case R_RISCV_JAL:
			writeJtype(loc, uint32(S+A-P))
		case R_RISCV_CALL, R_RISCV_CALL_PLT:
			val := uint32(S + A - P)
			writeUtype(loc, val)
			writeItype(loc[4:], val)
		case R_RISCV_TLS_GOT_HI20:
			utils.Write[uint32](loc, uint32(sym.GetGotTpAddr(ctx)+A-P))
		case R_RISCV_PCREL_HI20:
			utils.Write[uint32](loc, uint32(S+A-P))
		case R_RISCV_HI20:
			writeUtype(loc, uint32(S+A))
		case R_RISCV_LO12_I, R_RISCV_LO12_S:
			val := S + A
			if rel.Type == R_RISCV_LO12_I {
				writeItype(loc, uint32(val))
			} else {
				writeStype(loc, uint32(val))
			}
			if utils.SignExtend(val, 11) == val {
				setRs1(loc, 0)
			}
		case R_RISCV_TPREL_LO12_I, R_RISCV_TPREL_LO12_S:
			val := S + A - ctx.TpAddr
			if rel.Type == R_RISCV_TPREL_LO12_I {
				writeItype(loc, uint32(val))
			} else {
				writeStype(loc, uint32(val))
			}
			if utils.SignExtend(val, 11) == val {
				setRs1(loc, 4)
			}
		}
	}

	for a := 0; a < len(rels); a++ {
		if rels[a].Type != R_RISCV_PCREL_LO12_I && rels[a].Type != R_RISCV_PCREL_LO12_S {
			continue
		}
		sym := i.File.Symbols[rels[a].Sym]
		utils.Assert(sym.InputSection == i)
		loc := base[rels[a].Offset:]
		val := utils.Read[uint32](base[sym.Value:])

		if rels[a].Type == R_RISCV_PCREL_LO12_I {
			writeItype(loc, val)
		} else {
			writeStype(loc, val)
		}
	}

	for a := 0; a < len(rels); a++ {
		if rels[a].Type != R_RISCV_PCREL_HI20 && rels[a].Type != R_RISCV_TLS_GOT_HI20 {
			continue
		}
		loc := base[rels[a].Offset:]
		val := utils.Read[uint32](loc)
		utils.Write[uint32](loc, utils.Read[uint32](i.Contents[rels[a].Offset:]))
		writeUtype(loc, val)
	}
}

func itype(val uint32) uint32 {
	return val << 20
}

func stype(val uint32) uint32 {
	return utils.Bits(val, 11, 5)<<25 | utils.Bits(val, 4, 0)<<7
}

func btype(val uint32) uint32 {
	return utils.Bit(val, 12)<<31 | utils.Bits(val, 10, 5)<<25 |
		utils.Bits(val, 4, 1)<<8 | utils.Bit(val, 11)<<7
}

func utype(val uint32) uint32 {
	return (val + 0x800) & 0xffff_f000
}

func jtype(val uint32) uint32 {
	return utils.Bit(val, 20)<<31 | utils.Bits(val, 10, 1)<<21 |
		utils.Bit(val, 11)<<20 | utils.Bits(val, 19, 12)<<12
}

func writeItype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_11111_111_11111_1111111)
	utils.Write[uint32](loc, (utils.Read[uint32](loc)&mask)|itype(val))
}

func writeStype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.Read[uint32](loc)&mask)|stype(val))
}

func writeBtype(loc []byte, val uint32) {
	mask := uint32(0b000000_11111_11111_111_00000_1111111)
	utils.Write[uint32](loc, (utils.Read[uint32](loc)&mask)|btype(val))
}

func writeUtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.Read[uint32](loc)&mask)|utype(val))
}

func writeJtype(loc []byte, val uint32) {
	mask := uint32(0b000000_00000_00000_000_11111_1111111)
	utils.Write[uint32](loc, (utils.Read[uint32](loc)&mask)|jtype(val))
}

func setRs1(loc []byte, rs1 uint32) {
	utils.Write[uint32](loc, utils.Read[uint32](loc)&0b111111_11111_00000_111_11111_1111111)
	utils.Write[uint32](loc, utils.Read[uint32](loc)|(rs1<<15))
}
