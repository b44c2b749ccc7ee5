// Package assembler translates iridium assembly source into the PIE object
// format: a fixed 65-byte header followed by 4-byte instruction words. It
// runs a classic two-pass pipeline -- pass 1 collects labels and lays out
// read-only string constants, pass 2 encodes instructions against the
// completed symbol table.
package assembler

import (
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

// PieHeaderLength is the inclusive padding boundary of the object header:
// the magic prefix is followed by zero bytes through this offset, so the
// body begins at PieHeaderLength+1.
const PieHeaderLength = 64

// PieHeaderPrefix is the magic number identifying the PIE object format.
var PieHeaderPrefix = []byte{45, 50, 49, 45}

type phase int

const (
	phaseFirst phase = iota
	phaseSecond
)

// SectionKind tags a region of the program.
type SectionKind int

const (
	// SectionUnknown is the zero section, before any header directive.
	SectionUnknown SectionKind = iota
	// SectionData holds read-only constants.
	SectionData
	// SectionCode holds executable instructions.
	SectionCode
)

type section struct {
	kind  SectionKind
	start int // instruction index where the section opened
}

// Assembler drives the two-pass protocol. State is created fresh per run;
// an Assembler must not be reused across Assemble calls.
type Assembler struct {
	phase              phase
	symbols            *SymbolTable
	ro                 []byte
	roOffset           uint32
	sections           []section
	currentSection     section
	currentInstruction int
	errs               []*Error
}

// New returns an assembler ready for a single run.
func New() *Assembler {
	return &Assembler{
		phase:          phaseFirst,
		symbols:        NewSymbolTable(),
		currentSection: section{kind: SectionUnknown},
	}
}

// Assemble parses raw source and runs both passes, returning the complete
// PIE artifact. On failure it returns every accumulated diagnostic as a
// multierror of *Error values; no partial artifact is ever returned.
func (a *Assembler) Assemble(raw string) ([]byte, error) {
	program, err := Parse(raw)
	if err != nil {
		a.errs = append(a.errs, &Error{Kind: ParseError, Err: err})
		return nil, a.errorBatch()
	}

	a.processFirstPhase(program)
	if len(a.errs) > 0 {
		return nil, a.errorBatch()
	}
	if len(a.sections) != 2 {
		log.WithField("sections", len(a.sections)).Debug("section count is not two")
		a.errs = append(a.errs, &Error{Kind: InsufficientSections})
		return nil, a.errorBatch()
	}

	body := a.processSecondPhase(program)
	if len(a.errs) > 0 {
		return nil, a.errorBatch()
	}

	out := writePieHeader()
	out = append(out, body...)
	return out, nil
}

// Symbols exposes the symbol table populated by the last run.
func (a *Assembler) Symbols() *SymbolTable { return a.symbols }

// RO returns the read-only data segment laid out by pass 1: each .asciiz
// string's bytes followed by a NUL terminator, in declaration order.
func (a *Assembler) RO() []byte { return a.ro }

// Errors returns the structured diagnostics accumulated by the last run.
func (a *Assembler) Errors() []*Error { return a.errs }

// processFirstPhase walks the program registering labels and applying
// directives. The address cursor advances one word per instruction whether
// the instruction is an opcode, a directive, or a bare label; address
// accounting is uniform.
func (a *Assembler) processFirstPhase(p *Program) {
	for idx := range p.Instructions {
		a.currentInstruction = idx
		instr := &p.Instructions[idx]

		if instr.HasLabel() {
			if a.currentSection.kind == SectionUnknown {
				a.errs = append(a.errs, &Error{Kind: NoSegmentDeclared, Instruction: idx})
			} else {
				a.processLabelDeclaration(instr)
			}
		}
		if instr.IsDirective() {
			a.processDirective(instr)
		}
	}

	a.phase = phaseSecond
	log.Debug("assembler entering second phase")
}

// processSecondPhase encodes opcode instructions against the completed
// symbol table. Directives only re-track section transitions here; .asciiz
// content was fully handled in pass 1 and produces nothing. Encoding
// failures (unresolved labels, misplaced tokens) are accumulated so the
// caller sees the complete batch.
func (a *Assembler) processSecondPhase(p *Program) []byte {
	body := make([]byte, 0, len(p.Instructions)*instruction.WordSize)

	for idx := range p.Instructions {
		a.currentInstruction = idx
		instr := &p.Instructions[idx]

		switch {
		case instr.IsOpcode():
			encoded, err := instr.ToBytes(a.symbols)
			if err != nil {
				a.recordEncodeError(err, idx)
				continue
			}
			body = append(body, encoded...)
		case instr.IsDirective():
			a.processDirective(instr)
		}
	}

	return body
}

// processLabelDeclaration registers a label at the current address cursor
// (instruction index times the word size). Data labels get this offset too;
// .asciiz patches it to the read-only cursor later in the same iteration.
func (a *Assembler) processLabelDeclaration(instr *Instruction) {
	name, _ := instr.LabelName()
	if a.symbols.Has(name) {
		a.errs = append(a.errs, &Error{Kind: SymbolAlreadyDeclared, Name: name, Instruction: a.currentInstruction})
		return
	}
	offset := uint32(a.currentInstruction * instruction.WordSize)
	a.symbols.Add(Symbol{Name: name, Offset: offset, Kind: SymbolLabel})
}

// processDirective dispatches on the directive form: directives with
// operands declare constants (.asciiz), bare directives open sections.
// Unknown names are logged and ignored rather than failing the run.
func (a *Assembler) processDirective(instr *Instruction) {
	name, _ := instr.DirectiveName()

	if len(instr.Operands) > 0 {
		switch name {
		case "asciiz":
			a.handleAsciiz(instr)
		default:
			if a.phase == phaseFirst {
				log.WithField("directive", name).Warn("ignoring unknown directive with operands")
			}
		}
		return
	}

	switch name {
	case "data":
		a.startSection(SectionData)
	case "code":
		a.startSection(SectionCode)
	default:
		// Pass 2 revisits every directive for section tracking; warn only
		// the first time through.
		if a.phase == phaseFirst {
			log.WithField("directive", name).Warn("ignoring unknown section header")
		}
	}
}

// startSection records a newly opened section. The seen-sections list grows
// only during pass 1 so that pass 2's re-tracking stays idempotent.
func (a *Assembler) startSection(kind SectionKind) {
	s := section{kind: kind, start: a.currentInstruction}
	if a.phase == phaseFirst {
		a.sections = append(a.sections, s)
	}
	a.currentSection = s
}

// handleAsciiz lays out a string constant in the read-only segment and
// patches the owning label to the string's start address. Only pass 1 pays
// attention to .asciiz content; re-applying it in pass 2 would double the
// segment.
func (a *Assembler) handleAsciiz(instr *Instruction) {
	if a.phase != phaseFirst {
		return
	}

	name, ok := instr.LabelName()
	if !ok {
		a.errs = append(a.errs, &Error{Kind: StringConstantWithoutLabel, Instruction: a.currentInstruction})
		return
	}

	content, ok := instr.StringOperand()
	if !ok {
		log.WithField("label", name).Warn("asciiz directive missing string operand")
		return
	}

	a.symbols.SetOffset(name, a.roOffset)
	for i := 0; i < len(content); i++ {
		a.ro = append(a.ro, content[i])
		a.roOffset++
	}
	a.ro = append(a.ro, 0)
	a.roOffset++
}

func (a *Assembler) recordEncodeError(err error, idx int) {
	if asmErr, ok := err.(*Error); ok {
		asmErr.Instruction = idx
		a.errs = append(a.errs, asmErr)
		return
	}
	a.errs = append(a.errs, &Error{Kind: InvalidOperand, Instruction: idx, Detail: err.Error()})
}

func (a *Assembler) errorBatch() error {
	var batch *multierror.Error
	for _, e := range a.errs {
		batch = multierror.Append(batch, e)
	}
	return batch.ErrorOrNil()
}

// writePieHeader emits the magic prefix padded with zeros through the
// inclusive header boundary.
func writePieHeader() []byte {
	header := make([]byte, 0, PieHeaderLength+1)
	header = append(header, PieHeaderPrefix...)
	for len(header) <= PieHeaderLength {
		header = append(header, 0)
	}
	return header
}
