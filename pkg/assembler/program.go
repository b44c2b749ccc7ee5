package assembler

// Program is an ordered sequence of instructions; insertion order is source
// order is execution order. It is pure data and performs no validation --
// that is the driver's job.
type Program struct {
	Instructions []Instruction
}

// ToBytes flattens the program by delegating to each opcode instruction's
// encoder and concatenating the words in source order. Directive and
// label-only instructions contribute no bytes. The first encoding failure
// aborts the flatten; callers wanting batch diagnostics use the Assembler.
func (p *Program) ToBytes(symbols *SymbolTable) ([]byte, error) {
	var out []byte
	for idx := range p.Instructions {
		instr := &p.Instructions[idx]
		if !instr.IsOpcode() {
			continue
		}
		encoded, err := instr.ToBytes(symbols)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
	}
	return out, nil
}
