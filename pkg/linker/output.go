package linker

import "strings"

var prefixes = []string{
	".text.", ".data.rel.ro.", ".data.", ".rodata.", ".bss.rel.ro.", ".bss.",
	".init_array.", ".fini_array.", ".tbss.", ".tdata.", ".gcc_except_table.",
	".ctors.", ".dtors.",
}

// GetOutputName canonicalizes an input section's name into the handful
// of output sections the engine actually emits, merging numbered
// per-function/per-object suffixes (".text.foo" -> ".text") the way a
// standard linker script does, and splitting ".rodata" by mergeability
// kind (spec.md §4.1).
func GetOutputName(name string, flags uint64) string {
	if (name == ".rodata" || strings.HasPrefix(name, ".rodata.")) && flags&SHF_MERGE != 0 {
		if flags&SHF_STRINGS != 0 {
			return ".rodata.str"
		}
		return ".rodata.cst"
	}

	for _, prefix := range prefixes {
		stem := prefix[:len(prefix)-1]
		if name == stem || strings.HasPrefix(name, prefix) {
			return stem
		}
	}

	return name
}
