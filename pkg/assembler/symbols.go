package assembler

import "sort"

// SymbolKind classifies a symbol table entry. Labels are the only kind the
// assembler currently produces.
type SymbolKind int

const (
	// SymbolLabel is a source-level label resolved to a numeric offset.
	SymbolLabel SymbolKind = iota
)

// Symbol is a named offset owned by the symbol table. Code labels get their
// offset at creation; data labels are patched via SetOffset once the
// read-only segment's cursor is known.
type Symbol struct {
	Name   string
	Offset uint32
	Kind   SymbolKind
}

// SymbolTable maps label names to symbols for the duration of one assembly
// run. Names are unique: the driver checks Has before Add, and a duplicate
// declaration is a driver-level error rather than an overwrite.
type SymbolTable struct {
	symbols map[string]Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Add inserts a symbol. Uniqueness is the caller's responsibility.
func (st *SymbolTable) Add(s Symbol) {
	st.symbols[s.Name] = s
}

// Has reports whether a symbol with the given name exists.
func (st *SymbolTable) Has(name string) bool {
	_, ok := st.symbols[name]
	return ok
}

// Lookup returns the resolved offset for name, if declared.
func (st *SymbolTable) Lookup(name string) (uint32, bool) {
	s, ok := st.symbols[name]
	if !ok {
		return 0, false
	}
	return s.Offset, true
}

// SetOffset patches the offset of an already-declared symbol. It reports
// whether the symbol existed.
func (st *SymbolTable) SetOffset(name string, offset uint32) bool {
	s, ok := st.symbols[name]
	if !ok {
		return false
	}
	s.Offset = offset
	st.symbols[name] = s
	return true
}

// Len returns the number of declared symbols.
func (st *SymbolTable) Len() int { return len(st.symbols) }

// Symbols returns all entries sorted by name, for listings.
func (st *SymbolTable) Symbols() []Symbol {
	out := make([]Symbol, 0, len(st.symbols))
	for _, s := range st.symbols {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
