package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

func TestParseInstructionForms(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Instruction
	}{
		{
			name: "opcode with register and integer",
			line: "load $0 #100",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Load)),
				Operands: []Token{registerToken(0), integerToken(100)},
			},
		},
		{
			name: "bare opcode",
			line: "hlt",
			want: Instruction{Opcode: tokenPtr(opToken(instruction.Hlt))},
		},
		{
			name: "labeled opcode",
			line: "test: inc $0",
			want: Instruction{
				Label:    tokenPtr(labelDeclToken("test")),
				Opcode:   tokenPtr(opToken(instruction.Inc)),
				Operands: []Token{registerToken(0)},
			},
		},
		{
			name: "label usage operand",
			line: "jmpe @test",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Jmpe)),
				Operands: []Token{labelUsageToken("test")},
			},
		},
		{
			name: "three register operands",
			line: "add $0 $1 $2",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Add)),
				Operands: []Token{registerToken(0), registerToken(1), registerToken(2)},
			},
		},
		{
			name: "negative integer",
			line: "load $3 #-42",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Load)),
				Operands: []Token{registerToken(3), integerToken(-42)},
			},
		},
		{
			name: "unknown mnemonic becomes illegal sentinel",
			line: "aold $0",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Igl)),
				Operands: []Token{registerToken(0)},
			},
		},
		{
			name: "section directive",
			line: ".data",
			want: Instruction{Directive: tokenPtr(directiveToken("data"))},
		},
		{
			name: "labeled string directive",
			line: "hello: .asciiz 'Hello everyone!'",
			want: Instruction{
				Label:     tokenPtr(labelDeclToken("hello")),
				Directive: tokenPtr(directiveToken("asciiz")),
				Operands:  []Token{stringToken("Hello everyone!")},
			},
		},
		{
			name: "comment before and after",
			line: "; leading\nneq $0 $2 ; trailing",
			want: Instruction{
				Opcode:   tokenPtr(opToken(instruction.Neq)),
				Operands: []Token{registerToken(0), registerToken(2)},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInstruction(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseInstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty input", ""},
		{"bare label", "test:"},
		{"integer without digits", "load $0 #"},
		{"register without digits", "load $ #1"},
		{"unterminated string", ".asciiz 'oops"},
		{"directive without name", ". data"},
		{"trailing garbage", "hlt !!!"},
		{"label usage without name", "jmp @"},
		{"non-ascii identifier", "héllo: inc $0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseInstruction(tc.line)
			assert.Error(t, err)
		})
	}
}

func TestParseProgram(t *testing.T) {
	source := ".data\nhello: .asciiz 'Hello everyone!'\n.code\nhlt"
	program, err := Parse(source)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 4)
	assert.True(t, program.Instructions[0].IsDirective())
	assert.True(t, program.Instructions[1].HasLabel())
	assert.True(t, program.Instructions[3].IsOpcode())
}

func TestParseProgramIsGreedy(t *testing.T) {
	// Any trailing text that cannot form an instruction fails the whole
	// parse; there is no partial-success mode.
	_, err := Parse("load $0 #100\n$5")
	assert.Error(t, err)
}

func TestParseProgramEmpty(t *testing.T) {
	for _, source := range []string{"", "   \n\t", "; only a comment\n"} {
		_, err := Parse(source)
		assert.Error(t, err, "source %q", source)
	}
}

func tokenPtr(t Token) *Token { return &t }
