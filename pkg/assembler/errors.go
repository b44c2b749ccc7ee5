package assembler

import "fmt"

// ErrorKind names the category of an assembly diagnostic.
type ErrorKind int

const (
	// ParseError: the source text could not be structured into a program.
	// Fails the run before either pass executes.
	ParseError ErrorKind = iota
	// NoSegmentDeclared: a label appeared before any section directive.
	NoSegmentDeclared
	// StringConstantWithoutLabel: an .asciiz directive has no label of its
	// own to attach the string's address to.
	StringConstantWithoutLabel
	// SymbolAlreadyDeclared: a label name collides with an existing entry.
	SymbolAlreadyDeclared
	// InsufficientSections: the program does not declare exactly two
	// sections.
	InsufficientSections
	// UnresolvedLabel: a label usage did not resolve during encoding.
	UnresolvedLabel
	// InvalidOperand: a token that cannot be encoded sits in an operand or
	// opcode slot.
	InvalidOperand
)

// Error is one structured assembly diagnostic. The driver accumulates them
// across pass 1 (and encoding) so callers receive the complete batch in a
// single report.
type Error struct {
	Kind        ErrorKind
	Instruction int    // index of the offending instruction, where known
	Name        string // symbol name, for symbol-related kinds
	Detail      string
	Err         error // underlying parser diagnostic, for ParseError
}

func (e *Error) Error() string {
	switch e.Kind {
	case ParseError:
		return fmt.Sprintf("parse error: %v", e.Err)
	case NoSegmentDeclared:
		return fmt.Sprintf("no segment declared before label at instruction %d", e.Instruction)
	case StringConstantWithoutLabel:
		return fmt.Sprintf("string constant declared without label at instruction %d", e.Instruction)
	case SymbolAlreadyDeclared:
		return fmt.Sprintf("symbol %q already declared", e.Name)
	case InsufficientSections:
		return "insufficient sections: a program requires exactly one data and one code section"
	case UnresolvedLabel:
		return fmt.Sprintf("unresolved label %q at instruction %d", e.Name, e.Instruction)
	case InvalidOperand:
		return fmt.Sprintf("invalid operand at instruction %d: %s", e.Instruction, e.Detail)
	default:
		return "unknown assembly error"
	}
}

// Unwrap exposes the underlying parser diagnostic for ParseError values.
func (e *Error) Unwrap() error { return e.Err }
