package linker

// Action is the seven-valued relocation disposition of spec.md §3/§9:
// kept as literal data, not control flow, so that auditing correctness
// is a matter of reading the tables below rather than tracing dispatch
// logic. Directly grounded on original_source/elf/input-sections.cc's
// `typedef enum { NONE, ERROR, COPYREL, PLT, CPLT, DYNREL, BASEREL }
// Action;` and its three constexpr tables.
type Action int

const (
	ActionNone Action = iota
	ActionError
	ActionCopyrel
	ActionPlt
	ActionCplt
	ActionDynrel
	ActionBaserel
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "NONE"
	case ActionError:
		return "ERROR"
	case ActionCopyrel:
		return "COPYREL"
	case ActionPlt:
		return "PLT"
	case ActionCplt:
		return "CPLT"
	case ActionDynrel:
		return "DYNREL"
	case ActionBaserel:
		return "BASEREL"
	default:
		return "?"
	}
}

// OutputFlavor is the row index into an Action table: 0 = shared object,
// 1 = PIE, 2 = non-PIE executable (spec.md §4.2).
type OutputFlavor int

const (
	FlavorShared OutputFlavor = iota
	FlavorPie
	FlavorExec
)

// symClass is the column index into an Action table: 0 = absolute,
// 1 = local (non-imported, non-absolute), 2 = imported data, 3 = imported
// function.
type symClass int

const (
	symAbs symClass = iota
	symLocal
	symImportedData
	symImportedFunc
)

// actionTable is a literal [flavor][symClass]Action matrix.
type actionTable [3][4]Action

// Table A — narrow absolute relocations (spec.md §4.2). The runtime
// loader does not support narrow dynamic relocations, so any case that
// would otherwise need one is ERROR.
var tableNarrowAbs = actionTable{
	{ActionNone, ActionError, ActionError, ActionError}, // shared
	{ActionNone, ActionError, ActionError, ActionError}, // pie
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt}, // non-pie
}

// Table B — word-size absolute relocations.
var tableWordAbs = actionTable{
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel}, // shared
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel}, // pie
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt},     // non-pie
}

// Table C — PC-relative relocations. The loader does not support
// PC-relative dynamic relocations.
var tablePCRel = actionTable{
	{ActionError, ActionNone, ActionError, ActionPlt},   // shared
	{ActionError, ActionNone, ActionCopyrel, ActionPlt}, // pie
	{ActionNone, ActionNone, ActionCopyrel, ActionCplt}, // non-pie
}

// tablePPC64TocWordAbs is the §4.2 PPC64 `.toc` exception to Table B: the
// compiler-generated table-of-contents section never escapes user code,
// so no address in it can leak, and dynamic resolution is always viable
// — no COPYREL/CPLT path is ever needed.
var tablePPC64TocWordAbs = actionTable{
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel}, // shared
	{ActionNone, ActionBaserel, ActionDynrel, ActionDynrel}, // pie
	{ActionNone, ActionNone, ActionDynrel, ActionDynrel},    // non-pie
}

// getSymClass classifies sym per spec.md §4.2's get_sym_type: absolute
// symbols first, then residency, then (for imported symbols) function
// vs. data kind.
func getSymClass(sym *Symbol) symClass {
	if sym.IsAbsolute() {
		return symAbs
	}
	if !sym.IsImported {
		return symLocal
	}
	if sym.Kind() != STT_FUNC {
		return symImportedData
	}
	return symImportedFunc
}

func getOutputFlavor(ctx *Context) OutputFlavor {
	switch {
	case ctx.Args.Shared:
		return FlavorShared
	case ctx.Args.Pie:
		return FlavorPie
	default:
		return FlavorExec
	}
}

// GetRelAction indexes the appropriate Action table cell for sym given
// the link's output flavor. It does not apply the PPC64 `.toc`
// exception itself; ScanAbsDynRelAction picks the exception table before
// calling it.
func GetRelAction(ctx *Context, table actionTable, sym *Symbol) Action {
	return table[getOutputFlavor(ctx)][getSymClass(sym)]
}

// ScanAbsRelAction is Table A's entry point (spec.md §4.3: scan_abs_rel).
func ScanAbsRelAction(ctx *Context, sym *Symbol) Action {
	return GetRelAction(ctx, tableNarrowAbs, sym)
}

// ScanAbsDynRelAction is Table B's entry point, folding in the PPC64
// `.toc` exception (spec.md §4.3: scan_abs_dyn_rel).
func ScanAbsDynRelAction(ctx *Context, sym *Symbol, isec *InputSection) Action {
	if ctx.Machine == MachineTypePPC64 && isec.Name() == ".toc" {
		return GetRelAction(ctx, tablePPC64TocWordAbs, sym)
	}
	return GetRelAction(ctx, tableWordAbs, sym)
}

// ScanPCRelAction is Table C's entry point (spec.md §4.3: scan_pcrel_rel).
func ScanPCRelAction(ctx *Context, sym *Symbol) Action {
	return GetRelAction(ctx, tablePCRel, sym)
}
