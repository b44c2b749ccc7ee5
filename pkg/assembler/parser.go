package assembler

import (
	"fmt"
	"strconv"

	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

// parser is a recursive-descent scanner over a single source buffer. It
// produces one Instruction per logical source line and a Program for the
// whole buffer. There is no error recovery: the first line that cannot be
// structured fails the whole parse.
type parser struct {
	src string
	pos int
}

// Parse structures raw source text into a Program. The grammar is greedy:
// instructions are consumed until the input is exhausted, and any trailing
// text that does not form an instruction fails the parse. An empty buffer
// (or one holding only whitespace and comments) is also a parse failure; a
// program has one or more instructions.
func Parse(raw string) (*Program, error) {
	p := &parser{src: raw}
	var instructions []Instruction

	p.skipSpace()
	for !p.eof() {
		instr, err := p.parseInstruction()
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
		p.skipSpace()
	}

	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions found in source")
	}
	return &Program{Instructions: instructions}, nil
}

// ParseInstruction structures a single source line, for callers that feed
// the assembler one instruction at a time (the REPL).
func ParseInstruction(raw string) (Instruction, error) {
	p := &parser{src: raw}
	p.skipSpace()
	instr, err := p.parseInstruction()
	if err != nil {
		return Instruction{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Instruction{}, fmt.Errorf("unexpected trailing input at offset %d: %q", p.pos, p.rest())
	}
	return instr, nil
}

// parseInstruction recognizes: [label ':'] (opcode | directive) operand{0,3}
// with comments and whitespace skippable around every element.
func (p *parser) parseInstruction() (Instruction, error) {
	var instr Instruction

	if name, ok := p.tryLabelDeclaration(); ok {
		tok := labelDeclToken(name)
		instr.Label = &tok
		p.skipSpace()
	}

	switch {
	case p.peek() == '.':
		name, err := p.parseDirectiveName()
		if err != nil {
			return instr, err
		}
		tok := directiveToken(name)
		instr.Directive = &tok
	case isLetter(p.peek()):
		word := p.takeWhile(isLetter)
		tok := opToken(instruction.FromMnemonic(word))
		instr.Opcode = &tok
	default:
		return instr, fmt.Errorf("expected opcode or directive at offset %d: %q", p.pos, p.rest())
	}

	for i := 0; i < maxOperands; i++ {
		p.skipSpace()
		operand, ok, err := p.tryOperand()
		if err != nil {
			return instr, err
		}
		if !ok {
			break
		}
		instr.Operands = append(instr.Operands, operand)
	}

	return instr, nil
}

// tryLabelDeclaration speculatively matches `identifier:`. On failure the
// cursor is restored so the identifier can be re-read as an opcode.
func (p *parser) tryLabelDeclaration() (string, bool) {
	start := p.pos
	if !isLetter(p.peek()) {
		return "", false
	}
	name := p.takeWhile(isIdentChar)
	if p.peek() != ':' {
		p.pos = start
		return "", false
	}
	p.pos++
	return name, true
}

// tryOperand matches one operand using the fixed alternation order:
// integer, label usage, register, string. Operand prefixes (#, @, $, ')
// are unambiguous, so the order carries no semantic weight.
func (p *parser) tryOperand() (Token, bool, error) {
	switch p.peek() {
	case '#':
		tok, err := p.parseInteger()
		return tok, err == nil, err
	case '@':
		p.pos++
		if !isLetter(p.peek()) {
			return Token{}, false, fmt.Errorf("expected label name after '@' at offset %d", p.pos)
		}
		return labelUsageToken(p.takeWhile(isIdentChar)), true, nil
	case '$':
		tok, err := p.parseRegister()
		return tok, err == nil, err
	case '\'':
		tok, err := p.parseString()
		return tok, err == nil, err
	default:
		return Token{}, false, nil
	}
}

func (p *parser) parseInteger() (Token, error) {
	p.pos++ // consume '#'
	start := p.pos
	if p.peek() == '-' || p.peek() == '+' {
		p.pos++
	}
	if digits := p.takeWhile(isDigit); digits == "" {
		return Token{}, fmt.Errorf("expected digits after '#' at offset %d", start)
	}
	value, err := strconv.ParseInt(p.src[start:p.pos], 10, 32)
	if err != nil {
		return Token{}, fmt.Errorf("invalid integer literal %q: %v", p.src[start:p.pos], err)
	}
	return integerToken(int32(value)), nil
}

func (p *parser) parseRegister() (Token, error) {
	p.pos++ // consume '$'
	digits := p.takeWhile(isDigit)
	if digits == "" {
		return Token{}, fmt.Errorf("expected register number after '$' at offset %d", p.pos)
	}
	reg, err := strconv.ParseUint(digits, 10, 8)
	if err != nil {
		return Token{}, fmt.Errorf("invalid register number %q: %v", digits, err)
	}
	return registerToken(uint8(reg)), nil
}

// parseString matches a single-quoted literal. There is no escape
// processing; the literal runs to the next quote.
func (p *parser) parseString() (Token, error) {
	p.pos++ // consume opening quote
	start := p.pos
	for !p.eof() && p.src[p.pos] != '\'' {
		p.pos++
	}
	if p.eof() {
		return Token{}, fmt.Errorf("unterminated string literal starting at offset %d", start)
	}
	text := p.src[start:p.pos]
	p.pos++ // consume closing quote
	return stringToken(text), nil
}

func (p *parser) parseDirectiveName() (string, error) {
	p.pos++ // consume '.'
	name := p.takeWhile(isLetter)
	if name == "" {
		return "", fmt.Errorf("expected directive name after '.' at offset %d", p.pos)
	}
	return name, nil
}

// skipSpace consumes whitespace and ';' comments, which are skippable
// anywhere whitespace is.
func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == ';':
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) takeWhile(pred func(byte) bool) string {
	start := p.pos
	for !p.eof() && pred(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) rest() string {
	const window = 20
	if p.pos+window < len(p.src) {
		return p.src[p.pos:p.pos+window] + "..."
	}
	return p.src[p.pos:]
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

// Identifiers, mnemonics, and directive names are ASCII-only; classifying
// bytes with unicode predicates would split multi-byte runes.
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
