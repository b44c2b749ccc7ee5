package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

func TestInstructionToBytes(t *testing.T) {
	symbols := NewSymbolTable()
	symbols.Add(Symbol{Name: "test", Offset: 20, Kind: SymbolLabel})
	symbols.Add(Symbol{Name: "big", Offset: 0x12345, Kind: SymbolLabel})

	tests := []struct {
		name string
		line string
		want []byte
	}{
		{"register and integer", "load $0 #100", []byte{0, 0, 0, 100}},
		{"integer high byte", "load $1 #500", []byte{0, 1, 1, 244}},
		{"negative integer wraps to 16 bits", "load $0 #-1", []byte{0, 0, 255, 255}},
		{"no operands pads the word", "hlt", []byte{5, 0, 0, 0}},
		{"two registers", "neq $0 $2", []byte{10, 0, 2, 0}},
		{"three registers", "add $0 $1 $2", []byte{1, 0, 1, 2}},
		{"label usage resolves through the table", "jmpe @test", []byte{15, 0, 20, 0}},
		{"only the low 16 bits of an offset are emitted", "jmp @big", []byte{6, 0x23, 0x45, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			instr, err := ParseInstruction(tc.line)
			require.NoError(t, err)
			got, err := instr.ToBytes(symbols)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, instruction.WordSize)
		})
	}
}

func TestInstructionToBytesUnresolvedLabel(t *testing.T) {
	instr, err := ParseInstruction("jmp @nowhere")
	require.NoError(t, err)

	_, err = instr.ToBytes(NewSymbolTable())
	require.Error(t, err)
	asmErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, UnresolvedLabel, asmErr.Kind)
	assert.Equal(t, "nowhere", asmErr.Name)
}

func TestInstructionToBytesMisplacedTokens(t *testing.T) {
	// An opcode token in an operand slot is a recoverable encode error, not
	// a process exit.
	add := opToken(instruction.Add)
	instr := Instruction{
		Opcode:   tokenPtr(opToken(instruction.Load)),
		Operands: []Token{add},
	}
	_, err := instr.ToBytes(NewSymbolTable())
	require.Error(t, err)
	assert.Equal(t, InvalidOperand, err.(*Error).Kind)

	// A non-opcode token in the opcode field is rejected the same way.
	broken := Instruction{Opcode: tokenPtr(registerToken(1))}
	_, err = broken.ToBytes(NewSymbolTable())
	require.Error(t, err)
	assert.Equal(t, InvalidOperand, err.(*Error).Kind)
}

func TestRegisterRoundTrip(t *testing.T) {
	// Encoding then decoding by the engine's layout (operand byte 1 is the
	// raw register index) recovers every register index.
	for reg := 0; reg < 32; reg++ {
		instr := Instruction{
			Opcode:   tokenPtr(opToken(instruction.Inc)),
			Operands: []Token{registerToken(uint8(reg))},
		}
		got, err := instr.ToBytes(NewSymbolTable())
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(instruction.Inc), byte(reg), 0, 0}, got)
	}
}

func TestProgramToBytes(t *testing.T) {
	program, err := Parse("load $0 #100\nhlt")
	require.NoError(t, err)

	bytecode, err := program.ToBytes(NewSymbolTable())
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 100, 5, 0, 0, 0}, bytecode)
}
