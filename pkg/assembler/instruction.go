package assembler

import (
	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

// maxOperands is the most operands a single instruction word can carry.
const maxOperands = 3

// Instruction is one logical source line: an optional leading label
// declaration and either an opcode or a directive (never both), with up to
// three operand tokens. A line with neither opcode nor directive does not
// parse.
type Instruction struct {
	Label     *Token
	Opcode    *Token
	Directive *Token
	Operands  []Token
}

// IsOpcode reports whether the instruction executes a machine operation.
func (i *Instruction) IsOpcode() bool { return i.Opcode != nil }

// IsDirective reports whether the instruction is an assembler directive.
func (i *Instruction) IsDirective() bool { return i.Directive != nil }

// HasLabel reports whether the instruction declares a label.
func (i *Instruction) HasLabel() bool { return i.Label != nil }

// LabelName returns the declared label's name, if any.
func (i *Instruction) LabelName() (string, bool) {
	if i.Label == nil {
		return "", false
	}
	return i.Label.Name, true
}

// DirectiveName returns the directive's name, if any.
func (i *Instruction) DirectiveName() (string, bool) {
	if i.Directive == nil {
		return "", false
	}
	return i.Directive.Name, true
}

// StringOperand returns the first string-literal operand, if any. Used for
// .asciiz content.
func (i *Instruction) StringOperand() (string, bool) {
	for _, operand := range i.Operands {
		if operand.Kind == TokenString {
			return operand.Text, true
		}
	}
	return "", false
}

// ToBytes serializes an opcode instruction into exactly one 4-byte word:
// the opcode byte, then one or more operand bytes, zero-padded to the word
// size. Label usages resolve through symbols; integer and label values
// occupy two bytes, high byte first. Only the low 16 bits of a label's
// 32-bit offset are emitted, so directly addressable offsets cap at 65535.
// That ceiling is a limitation of the object format, not a bug to widen.
func (i *Instruction) ToBytes(symbols *SymbolTable) ([]byte, error) {
	if i.Opcode == nil || i.Opcode.Kind != TokenOp {
		return nil, &Error{Kind: InvalidOperand, Detail: "non-opcode in opcode field"}
	}

	out := make([]byte, 0, instruction.WordSize)
	out = append(out, byte(i.Opcode.Op))

	for _, operand := range i.Operands {
		encoded, err := encodeOperand(operand, symbols)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
	}

	for len(out) < instruction.WordSize {
		out = append(out, 0)
	}
	return out, nil
}

func encodeOperand(t Token, symbols *SymbolTable) ([]byte, error) {
	switch t.Kind {
	case TokenRegister:
		return []byte{t.Reg}, nil
	case TokenInteger:
		converted := uint16(t.Value)
		return []byte{byte(converted >> 8), byte(converted)}, nil
	case TokenLabelUsage:
		offset, ok := symbols.Lookup(t.Name)
		if !ok {
			return nil, &Error{Kind: UnresolvedLabel, Name: t.Name}
		}
		truncated := uint16(offset)
		return []byte{byte(truncated >> 8), byte(truncated)}, nil
	default:
		// Opcode or string tokens never belong in an operand slot of an
		// executable instruction. Recoverable; the driver records it.
		return nil, &Error{Kind: InvalidOperand, Detail: t.String() + " in operand field"}
	}
}
