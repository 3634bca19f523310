package linker

// R_RISCV_* mirror debug/elf's RISCV relocation type numbering; kept
// locally since the rest of the ELF layer here is hand-rolled rather
// than routed through debug/elf.
const (
	R_RISCV_NONE          uint32 = 0
	R_RISCV_32            uint32 = 1
	R_RISCV_64            uint32 = 2
	R_RISCV_BRANCH        uint32 = 16
	R_RISCV_JAL           uint32 = 17
	R_RISCV_CALL          uint32 = 18
	R_RISCV_CALL_PLT      uint32 = 19
	R_RISCV_TLS_GOT_HI20  uint32 = 21
	R_RISCV_PCREL_HI20    uint32 = 23
	R_RISCV_PCREL_LO12_I  uint32 = 24
	R_RISCV_PCREL_LO12_S  uint32 = 25
	R_RISCV_HI20          uint32 = 26
	R_RISCV_LO12_I        uint32 = 27
	R_RISCV_LO12_S        uint32 = 28
	R_RISCV_TPREL_LO12_I  uint32 = 30
	R_RISCV_TPREL_LO12_S  uint32 = 31
	R_RISCV_RELAX         uint32 = 51
)

// R_X86_64_* mirror the generic ABI's x86-64 relocation type numbering.
const (
	R_X86_64_NONE       uint32 = 0
	R_X86_64_64         uint32 = 1
	R_X86_64_PC32       uint32 = 2
	R_X86_64_PLT32      uint32 = 4
	R_X86_64_COPY       uint32 = 5
	R_X86_64_GLOB_DAT   uint32 = 6
	R_X86_64_JUMP_SLOT  uint32 = 7
	R_X86_64_RELATIVE   uint32 = 8
	R_X86_64_32         uint32 = 10
	R_X86_64_32S        uint32 = 11
	R_X86_64_PC64       uint32 = 24
)
