// Package vm implements the iridium register machine: 32 general-purpose
// registers, a program byte slice in the PIE object format, and a read-only
// data segment for string constants.
package vm

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/bradford-hamilton/iridium/pkg/assembler"
	"github.com/bradford-hamilton/iridium/pkg/instruction"
)

// RegisterCount is the size of the register file.
const RegisterCount = 32

// VM executes encoded instruction words. Each instance carries a unique ID
// so concurrent machines can be told apart in logs.
type VM struct {
	ID        uuid.UUID
	Registers [RegisterCount]int32

	// Output receives PRTS writes. Defaults to stdout.
	Output io.Writer

	program   []byte
	ro        []byte
	heap      []byte
	pc        int
	remainder uint32
	equalFlag bool
}

// New returns a halted machine with an empty program.
func New() *VM {
	vm := &VM{ID: uuid.New(), Output: os.Stdout}
	log.WithField("vm", vm.ID).Debug("created vm")
	return vm
}

// LoadProgram validates a PIE artifact's magic prefix, strips the header,
// and installs the body as the machine's program. The previous program and
// pc are discarded.
func (vm *VM) LoadProgram(artifact []byte) error {
	if len(artifact) <= assembler.PieHeaderLength {
		return fmt.Errorf("artifact too short to contain a PIE header: %d bytes", len(artifact))
	}
	if !bytes.Equal(artifact[:len(assembler.PieHeaderPrefix)], assembler.PieHeaderPrefix) {
		return fmt.Errorf("artifact does not begin with the PIE magic prefix")
	}
	vm.program = append([]byte(nil), artifact[assembler.PieHeaderLength+1:]...)
	vm.pc = 0
	return nil
}

// LoadBytes appends raw instruction words to the program without header
// processing. The REPL uses this to feed one line at a time.
func (vm *VM) LoadBytes(bs []byte) {
	vm.program = append(vm.program, bs...)
}

// SetROData installs the read-only segment produced by the assembler.
func (vm *VM) SetROData(ro []byte) {
	vm.ro = append([]byte(nil), ro...)
}

// Program returns the loaded program body.
func (vm *VM) Program() []byte { return vm.program }

// Reset discards the program, read-only data, and all machine state except
// the identity.
func (vm *VM) Reset() {
	vm.program = nil
	vm.ro = nil
	vm.heap = nil
	vm.pc = 0
	vm.remainder = 0
	vm.equalFlag = false
	vm.Registers = [RegisterCount]int32{}
}

// Run steps the machine until it halts or faults.
func (vm *VM) Run() error {
	for {
		done, err := vm.Step()
		if err != nil || done {
			return err
		}
	}
}

// RunOnce executes a single instruction if one is available.
func (vm *VM) RunOnce() error {
	_, err := vm.Step()
	return err
}

// Step decodes and executes the instruction at pc. It reports done when the
// machine halts or runs off the end of the program. Every instruction
// occupies one word; jumps overwrite the advanced pc.
func (vm *VM) Step() (bool, error) {
	if vm.pc >= len(vm.program) {
		return true, nil
	}
	if vm.pc+instruction.WordSize > len(vm.program) {
		return true, fmt.Errorf("truncated instruction at offset %d", vm.pc)
	}

	op := instruction.Opcode(vm.program[vm.pc])
	next := vm.pc + instruction.WordSize

	switch op {
	case instruction.Load:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		vm.Registers[reg] = int32(int16(vm.operand16(2)))
	case instruction.Add:
		if err := vm.arithmetic(func(a, b int32) int32 { return a + b }); err != nil {
			return true, err
		}
	case instruction.Sub:
		if err := vm.arithmetic(func(a, b int32) int32 { return a - b }); err != nil {
			return true, err
		}
	case instruction.Mul:
		if err := vm.arithmetic(func(a, b int32) int32 { return a * b }); err != nil {
			return true, err
		}
	case instruction.Div:
		a, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		b, err := vm.operandReg(2)
		if err != nil {
			return true, err
		}
		dst, err := vm.operandReg(3)
		if err != nil {
			return true, err
		}
		if vm.Registers[b] == 0 {
			return true, fmt.Errorf("division by zero at offset %d", vm.pc)
		}
		vm.Registers[dst] = vm.Registers[a] / vm.Registers[b]
		vm.remainder = uint32(vm.Registers[a] % vm.Registers[b])
	case instruction.Hlt:
		vm.pc = next
		return true, nil
	case instruction.Jmp:
		if err := vm.jump(int(vm.operand16(1))); err != nil {
			return true, err
		}
		return false, nil
	case instruction.Jmpf:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		if err := vm.jump(next + int(vm.Registers[reg])); err != nil {
			return true, err
		}
		return false, nil
	case instruction.Jmpb:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		if err := vm.jump(next - int(vm.Registers[reg])); err != nil {
			return true, err
		}
		return false, nil
	case instruction.Eq:
		if err := vm.compare(func(a, b int32) bool { return a == b }); err != nil {
			return true, err
		}
	case instruction.Neq:
		if err := vm.compare(func(a, b int32) bool { return a != b }); err != nil {
			return true, err
		}
	case instruction.Gte:
		if err := vm.compare(func(a, b int32) bool { return a >= b }); err != nil {
			return true, err
		}
	case instruction.Lte:
		if err := vm.compare(func(a, b int32) bool { return a <= b }); err != nil {
			return true, err
		}
	case instruction.Lt:
		if err := vm.compare(func(a, b int32) bool { return a < b }); err != nil {
			return true, err
		}
	case instruction.Gt:
		if err := vm.compare(func(a, b int32) bool { return a > b }); err != nil {
			return true, err
		}
	case instruction.Jmpe:
		if vm.equalFlag {
			if err := vm.jump(int(vm.operand16(1))); err != nil {
				return true, err
			}
			return false, nil
		}
	case instruction.Nop:
	case instruction.Aloc:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		vm.heap = append(vm.heap, make([]byte, vm.Registers[reg])...)
	case instruction.Inc:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		vm.Registers[reg]++
	case instruction.Dec:
		reg, err := vm.operandReg(1)
		if err != nil {
			return true, err
		}
		vm.Registers[reg]--
	case instruction.Prts:
		if err := vm.printString(int(vm.operand16(1))); err != nil {
			return true, err
		}
	default:
		return true, fmt.Errorf("illegal opcode %d at offset %d", byte(op), vm.pc)
	}

	vm.pc = next
	return false, nil
}

// arithmetic applies op to the registers named by operand bytes 1 and 2 and
// stores the result in the register named by byte 3.
func (vm *VM) arithmetic(op func(a, b int32) int32) error {
	a, err := vm.operandReg(1)
	if err != nil {
		return err
	}
	b, err := vm.operandReg(2)
	if err != nil {
		return err
	}
	dst, err := vm.operandReg(3)
	if err != nil {
		return err
	}
	vm.Registers[dst] = op(vm.Registers[a], vm.Registers[b])
	return nil
}

// compare applies op to the registers named by operand bytes 1 and 2 and
// records the result in the equal flag.
func (vm *VM) compare(op func(a, b int32) bool) error {
	a, err := vm.operandReg(1)
	if err != nil {
		return err
	}
	b, err := vm.operandReg(2)
	if err != nil {
		return err
	}
	vm.equalFlag = op(vm.Registers[a], vm.Registers[b])
	return nil
}

// jump moves pc to target. A target outside the program is a fault, not a
// halt; the source encoded a branch the machine cannot take.
func (vm *VM) jump(target int) error {
	if target < 0 || target >= len(vm.program) {
		return fmt.Errorf("jump target %d outside program of %d bytes", target, len(vm.program))
	}
	vm.pc = target
	return nil
}

// Remainder returns the remainder of the last division.
func (vm *VM) Remainder() uint32 { return vm.remainder }

// EqualFlag returns the result of the last comparison.
func (vm *VM) EqualFlag() bool { return vm.equalFlag }

// HeapSize returns the number of allocated heap bytes.
func (vm *VM) HeapSize() int { return len(vm.heap) }

// printString writes the NUL-terminated string at the given read-only
// offset to Output.
func (vm *VM) printString(offset int) error {
	if offset < 0 || offset >= len(vm.ro) {
		return fmt.Errorf("prts offset %d outside read-only segment of %d bytes", offset, len(vm.ro))
	}
	end := offset
	for end < len(vm.ro) && vm.ro[end] != 0 {
		end++
	}
	_, err := vm.Output.Write(vm.ro[offset:end])
	return err
}

// operandReg reads the register index in operand byte n of the current
// word, faulting on indices outside the register file.
func (vm *VM) operandReg(n int) (int, error) {
	idx := int(vm.program[vm.pc+n])
	if idx >= RegisterCount {
		return 0, fmt.Errorf("register index %d out of range at offset %d", idx, vm.pc)
	}
	return idx, nil
}

// operand16 reads the 16-bit value starting at operand byte n, high byte
// first, matching the encoder's layout.
func (vm *VM) operand16(n int) uint16 {
	return uint16(vm.program[vm.pc+n])<<8 | uint16(vm.program[vm.pc+n+1])
}
