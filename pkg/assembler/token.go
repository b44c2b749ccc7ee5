package assembler

import (
	"fmt"

	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

// TokenKind discriminates the closed set of lexical categories the grammar
// produces.
type TokenKind int

const (
	// TokenOp is an operation mnemonic resolved against the opcode table.
	TokenOp TokenKind = iota
	// TokenRegister is a register index written as $N.
	TokenRegister
	// TokenInteger is a signed integer literal written as #N.
	TokenInteger
	// TokenLabelDecl is an identifier followed by ':' at the head of an
	// instruction.
	TokenLabelDecl
	// TokenLabelUsage is @identifier, used wherever a value is expected.
	TokenLabelUsage
	// TokenDirective is .name, e.g. .data, .code, .asciiz.
	TokenDirective
	// TokenString is a single-quoted literal, the operand of .asciiz.
	TokenString
)

// Token is an immutable lexical value. Equality is structural; two tokens
// compare equal exactly when every field matches.
type Token struct {
	Kind  TokenKind
	Op    instruction.Opcode
	Reg   uint8
	Value int32
	Name  string
	Text  string
}

func opToken(op instruction.Opcode) Token { return Token{Kind: TokenOp, Op: op} }
func registerToken(reg uint8) Token { return Token{Kind: TokenRegister, Reg: reg} }
func integerToken(value int32) Token { return Token{Kind: TokenInteger, Value: value} }
func labelDeclToken(name string) Token { return Token{Kind: TokenLabelDecl, Name: name} }
func labelUsageToken(name string) Token { return Token{Kind: TokenLabelUsage, Name: name} }
func directiveToken(name string) Token { return Token{Kind: TokenDirective, Name: name} }
func stringToken(text string) Token { return Token{Kind: TokenString, Text: text} }

func (t Token) String() string {
	switch t.Kind {
	case TokenOp:
		return t.Op.String()
	case TokenRegister:
		return fmt.Sprintf("$%d", t.Reg)
	case TokenInteger:
		return fmt.Sprintf("#%d", t.Value)
	case TokenLabelDecl:
		return t.Name + ":"
	case TokenLabelUsage:
		return "@" + t.Name
	case TokenDirective:
		return "." + t.Name
	case TokenString:
		return "'" + t.Text + "'"
	default:
		return "unknown token"
	}
}
