// Package instruction defines the machine's opcode set and the fixed
// instruction word size shared by the assembler and the VM.
package instruction

import "strings"

// WordSize is the width of every encoded instruction in bytes.
const WordSize = 4

// Opcode is the numeric identifier of a machine operation. It occupies the
// first byte of every instruction word.
type Opcode byte

const (
	Load Opcode = iota
	Add
	Sub
	Mul
	Div
	Hlt
	Jmp
	Jmpf
	Jmpb
	Eq
	Neq
	Gte
	Lte
	Lt
	Gt
	Jmpe
	Nop
	Aloc
	Inc
	Dec
	Prts
	// Igl is the sentinel for an unrecognized mnemonic. Source text that
	// names an unknown operation still parses; the illegal opcode is only
	// rejected when the instruction is executed.
	Igl
)

var mnemonics = map[string]Opcode{
	"load": Load,
	"add":  Add,
	"sub":  Sub,
	"mul":  Mul,
	"div":  Div,
	"hlt":  Hlt,
	"jmp":  Jmp,
	"jmpf": Jmpf,
	"jmpb": Jmpb,
	"eq":   Eq,
	"neq":  Neq,
	"gte":  Gte,
	"lte":  Lte,
	"lt":   Lt,
	"gt":   Gt,
	"jmpe": Jmpe,
	"nop":  Nop,
	"aloc": Aloc,
	"inc":  Inc,
	"dec":  Dec,
	"prts": Prts,
}

var names = func() map[Opcode]string {
	m := make(map[Opcode]string, len(mnemonics))
	for name, op := range mnemonics {
		m[op] = name
	}
	return m
}()

// FromMnemonic maps an assembly mnemonic (case-insensitive) to its opcode.
// Unknown mnemonics map to Igl.
func FromMnemonic(s string) Opcode {
	if op, ok := mnemonics[strings.ToLower(s)]; ok {
		return op
	}
	return Igl
}

func (op Opcode) String() string {
	if name, ok := names[op]; ok {
		return name
	}
	return "igl"
}
