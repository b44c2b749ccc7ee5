// Package repl provides the interactive front end: meta commands prefixed
// with '.', and direct assembly of anything else onto an embedded VM.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/bradford-hamilton/iridium/pkg/assembler"
	"github.com/bradford-hamilton/iridium/pkg/config"
	"github.com/bradford-hamilton/iridium/pkg/instruction"
	"github.com/bradford-hamilton/iridium/pkg/vm"
)

// REPL wraps a VM with a readline loop. Bare instruction lines are
// assembled one at a time and executed immediately; whole files loaded via
// .load_file go through the full two-pass assembler.
type REPL struct {
	vm            *vm.VM
	out           io.Writer
	cfg           config.Config
	commandBuffer []string
	symbols       *assembler.SymbolTable
	quit          bool
}

// New returns a REPL writing to stdout.
func New(cfg config.Config) *REPL {
	machine := vm.New()
	return &REPL{
		vm:      machine,
		out:     os.Stdout,
		cfg:     cfg,
		symbols: assembler.NewSymbolTable(),
	}
}

// SetOutput redirects REPL and VM output, used by tests.
func (r *REPL) SetOutput(w io.Writer) {
	r.out = w
	r.vm.Output = w
}

// Run reads lines until .quit or EOF.
func (r *REPL) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      r.cfg.Prompt,
		HistoryFile: r.cfg.HistoryFile,
	})
	if err != nil {
		return errors.Wrap(err, "initializing readline")
	}
	defer rl.Close()

	fmt.Fprintln(r.out, "Welcome to Iridium! Let's be productive.")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}

		r.Execute(line)
		if r.quit {
			return nil
		}
	}
}

// Execute processes a single input line: a meta command when it starts with
// '.', otherwise assembly source.
func (r *REPL) Execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	r.commandBuffer = append(r.commandBuffer, line)

	if strings.HasPrefix(line, ".") {
		r.executeMeta(line)
		return
	}
	r.assembleLine(line)
}

func (r *REPL) executeMeta(line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".quit":
		fmt.Fprintln(r.out, "Farewell!")
		r.quit = true
	case ".history":
		for _, cmd := range r.commandBuffer {
			fmt.Fprintln(r.out, cmd)
		}
	case ".program":
		fmt.Fprintln(r.out, "Listing instructions currently in VM's program vector:")
		program := r.vm.Program()
		for i := 0; i+instruction.WordSize <= len(program); i += instruction.WordSize {
			fmt.Fprintf(r.out, "%02x %02x %02x %02x\n", program[i], program[i+1], program[i+2], program[i+3])
		}
		fmt.Fprintln(r.out, "End of Program Listing")
	case ".registers":
		fmt.Fprintln(r.out, "Listing registers and all contents:")
		fmt.Fprintf(r.out, "%v\n", r.vm.Registers)
		fmt.Fprintln(r.out, "End of Register Listing")
	case ".symbols":
		for _, s := range r.symbols.Symbols() {
			fmt.Fprintf(r.out, "%s -> %d\n", s.Name, s.Offset)
		}
	case ".clear":
		r.vm.Reset()
		fmt.Fprintln(r.out, "VM cleared")
	case ".load_file":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: .load_file <path>")
			return
		}
		if err := r.loadFile(fields[1]); err != nil {
			r.printDiagnostics(err)
		}
	default:
		fmt.Fprintf(r.out, "unknown command %q\n", fields[0])
	}
}

// assembleLine parses one instruction and feeds its bytes straight to the
// VM. Label usages resolve against symbols from the last loaded file; there
// is no two-pass protocol in line mode.
func (r *REPL) assembleLine(line string) {
	instr, err := assembler.ParseInstruction(line)
	if err != nil {
		fmt.Fprintf(r.out, "unable to parse input: %v\n", err)
		return
	}
	if !instr.IsOpcode() {
		fmt.Fprintln(r.out, "directives require a full program; use .load_file")
		return
	}

	encoded, err := instr.ToBytes(r.symbols)
	if err != nil {
		r.printDiagnostics(err)
		return
	}
	r.vm.LoadBytes(encoded)
	if err := r.vm.RunOnce(); err != nil {
		fmt.Fprintf(r.out, "execution error: %v\n", err)
	}
}

// loadFile runs the full two-pass assembler over a file's contents and, on
// success, replaces the VM's program and read-only data. A failed assembly
// leaves the VM untouched; partial results are never applied.
func (r *REPL) loadFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading program file %q", path)
	}

	asm := assembler.New()
	artifact, err := asm.Assemble(string(source))
	if err != nil {
		return err
	}

	r.vm.Reset()
	if err := r.vm.LoadProgram(artifact); err != nil {
		return err
	}
	r.vm.SetROData(asm.RO())
	r.symbols = asm.Symbols()
	return r.vm.Run()
}

// printDiagnostics renders an assembly failure as user-facing diagnostics,
// one line per accumulated error.
func (r *REPL) printDiagnostics(err error) {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			fmt.Fprintf(r.out, "error: %v\n", e)
		}
		return
	}
	fmt.Fprintf(r.out, "error: %v\n", err)
}
