package main

import (
	"fmt"
	"os"

	"github.com/rod-salazar/mold/pkg/linker"
	"github.com/rod-salazar/mold/pkg/utils"
)

func main() {
	ctx := linker.NewContext()

	remaining := parseArgs(ctx, os.Args)

	if len(remaining) == 0 {
		utils.Fatal("no input files")
	}

	// The first real input file establishes ctx.Machine (see
	// CheckFileCompatibility); a later mismatch aborts the link.
	linker.ReadInputFiles(ctx, remaining)

	linker.ResolveSymbols(ctx)
	linker.RegisterSectionPieces(ctx)
	linker.ComputeMergedSectionSizes(ctx)
	linker.CreateSyntheticSections(ctx)
	linker.BinSections(ctx)

	ctx.OutputSections = append([]*linker.OutputSection{}, ctx.OutputSections...)
	osecs := linker.CollectOutputSections(ctx)
	ctx.Chunks = append(ctx.Chunks, osecs...)

	linker.ScanRelocations(ctx)
	ctx.Diag.ReportUndefErrors(ctx.Args.UnresolvedSymbols, ctx.Args.Demangle)
	ctx.Diag.Checkpoint()

	linker.ComputeSectionSizes(ctx)
	linker.SortOutputSections(ctx)

	for _, chunk := range ctx.Chunks {
		chunk.UpdateShdr(ctx)
	}

	fileSize := linker.SetOutputSectionOffsets(ctx)
	ctx.Buf = make([]byte, fileSize)

	linker.ApplyRelocations(ctx)

	for _, chunk := range ctx.Chunks {
		chunk.CopyBuf(ctx)
	}

	if ctx.HasTextrel.Load() && ctx.Args.ZText == linker.TextrelError {
		utils.Fatal("text relocations present and -z text was requested")
	}

	out, err := os.Create(ctx.Args.Output)
	utils.MustNo(err)
	defer out.Close()

	_, err = out.Write(ctx.Buf)
	utils.MustNo(err)

	utils.MustNo(os.Chmod(ctx.Args.Output, 0777))
}

// parseArgs is a hand-rolled flag scanner in the teacher's style: no
// flag package, just closures over the raw argv slice, since this
// engine's option surface (GNU-style single- and double-dash flags,
// some taking a value, some standing alone) doesn't map cleanly onto
// Go's flag package without fighting it.
func parseArgs(ctx *linker.Context, args []string) []string {
	args = args[1:]

	readArg := func(arg string) (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		for _, opt := range []string{"-" + arg, "--" + arg} {
			if args[0] == opt {
				if len(args) == 1 {
					utils.Fatal("missing argument for " + opt)
				}
				val := args[1]
				args = args[2:]
				return val, true
			}

			if val, ok := utils.RemovePrefix(args[0], opt+"="); ok {
				args = args[1:]
				return val, true
			}
		}
		return "", false
	}

	readFlag := func(name string) bool {
		if len(args) > 0 && (args[0] == "-"+name || args[0] == "--"+name) {
			args = args[1:]
			return true
		}
		return false
	}

	var remaining []string

loop:
	for len(args) > 0 {
		if val, ok := readArg("o"); ok {
			ctx.Args.Output = val
			continue
		}
		if val, ok := readArg("output"); ok {
			ctx.Args.Output = val
			continue
		}
		if val, ok := readArg("L"); ok {
			ctx.Args.LibraryPaths = append(ctx.Args.LibraryPaths, val)
			continue
		}
		if readFlag("shared") {
			ctx.Args.Shared = true
			continue
		}
		if readFlag("pie") {
			ctx.Args.Pie = true
			continue
		}
		if readFlag("no-pie") {
			ctx.Args.Pie = false
			continue
		}
		if readFlag("z-notext") {
			ctx.Args.ZText = linker.TextrelAllow
			continue
		}
		if readFlag("z-text") {
			ctx.Args.ZText = linker.TextrelError
			continue
		}
		if readFlag("no-undefined") {
			ctx.Args.UnresolvedSymbols = linker.UnresolvedError
			continue
		}
		if readFlag("warn-unresolved-symbols") {
			ctx.Args.UnresolvedSymbols = linker.UnresolvedWarn
			continue
		}
		if readFlag("z-nocopyreloc") {
			ctx.Args.ZCopyreloc = false
			continue
		}
		if readFlag("demangle") {
			ctx.Args.Demangle = true
			continue
		}
		if readFlag("no-demangle") {
			ctx.Args.Demangle = false
			continue
		}
		if val, ok := readArg("pack-dyn-relocs"); ok {
			ctx.Args.PackDynRelocs = val
			continue
		}

		switch {
		case args[0] == "--":
			remaining = append(remaining, args[1:]...)
			break loop
		case len(args[0]) > 0 && args[0][0] == '-':
			fmt.Fprintf(os.Stderr, "mold: unknown argument: %s\n", args[0])
			os.Exit(1)
		default:
			remaining = append(remaining, args[0])
			args = args[1:]
		}
	}

	return remaining
}
