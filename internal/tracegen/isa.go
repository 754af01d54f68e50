package tracegen

import "fmt"

type instruction struct {
	mnemonic string
	asm      string
	memory   bool
}

var instructions = []instruction{
	{"ADDI", "addi", false},
	{"ADD", "add", false},
	{"SUB", "sub", false},
	{"MV", "mv", false},
	{"LI", "li", false},
	{"LW", "lw", true},
	{"SW", "sw", true},
	{"BEQ", "beq", false},
	{"JAL", "jal", false},
	{"JALR", "jalr", false},
	{"AND", "and", false},
	{"OR", "or", false},
	{"XOR", "xor", false},
	{"SLL", "sll", false},
	{"SRL", "srl", false},
}

var registers = []string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func (g *generator) reg() string {
	return registers[g.rng.intn(0, len(registers))]
}

// disassemble draws operands for in. The draw order is part of the
// output format: rd, rs1, then any operand specific to the mnemonic.
func (g *generator) disassemble(in instruction) string {
	rd, rs1 := g.reg(), g.reg()
	switch in.mnemonic {
	case "MV":
		return fmt.Sprintf("%s  %s, %s", in.asm, rd, rs1)
	case "LI":
		return fmt.Sprintf("%s  %s, %d", in.asm, rd, g.rng.int64n(-2048, 2048))
	case "LW", "SW":
		return fmt.Sprintf("%s  %s, %d(%s)", in.asm, rd, g.rng.int64n(-100, 100), rs1)
	case "BEQ":
		rs2 := g.reg()
		return fmt.Sprintf("%s  %s, %s, %d", in.asm, rd, rs2, g.rng.int64n(-50, 50)*4)
	case "JAL":
		return fmt.Sprintf("%s  %s, %d", in.asm, rd, g.rng.int64n(-100, 100)*4)
	case "JALR":
		return fmt.Sprintf("%s  %s, %d(%s)", in.asm, rd, g.rng.int64n(-100, 100), rs1)
	case "ADDI":
		return fmt.Sprintf("%s  %s, %s, %d", in.asm, rd, rs1, g.rng.int64n(-100, 100))
	default:
		return fmt.Sprintf("%s  %s, %s, %s", in.asm, rd, rs1, g.reg())
	}
}

type stageInfo struct {
	name string
	desc string
}

var frontEnd = []stageInfo{
	{"F1", "Fetch 1. Instruction fetch request, PC generation"},
	{"F2", "Fetch 2. Instruction cache access and retrieval"},
	{"D", "Decode. Instruction decode and branch prediction"},
	{"RN", "Rename. Register renaming to eliminate false dependencies"},
	{"DS", "Dispatch. Dispatch instructions to reservation stations/issue queues"},
}

var (
	stageIssue     = stageInfo{"IS", "Issue. Issue instructions to execution units when operands are ready"}
	stageRegRead   = stageInfo{"RR", "Register Read. Read physical registers from register file"}
	stageExecute   = stageInfo{"EX", "Execute. Execute operation in ALU/FPU/other functional units"}
	stageMemory    = stageInfo{"M", "Memory. Memory access for load/store instructions"}
	stageWriteback = stageInfo{"WB", "Writeback. Write results back to physical register file"}
	stageCommit    = stageInfo{"C", "Commit/Retire. Commit instructions in program order and update architectural state"}
)
