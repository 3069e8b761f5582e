package hv2asm

import "fmt"

// SymbolTable tracks global labels plus the locals scoped to whichever
// global label is "current" (the most recently seen non-local label),
// mirroring the assembler's own two-tier symbol model.
type SymbolTable struct {
	globals map[string]uint32
	locals  map[string]map[string]uint32

	current string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{globals: map[string]uint32{}, locals: map[string]map[string]uint32{}}
}

// Define records label at vaddr, routing to the global or current-scoped
// local table depending on LocalDecl.
func (st *SymbolTable) Define(label string, localDecl bool, vaddr uint32) {
	if !localDecl {
		st.globals[label] = vaddr
		st.current = label
		st.locals[label] = map[string]uint32{}
		return
	}
	if st.locals[st.current] == nil {
		st.locals[st.current] = map[string]uint32{}
	}
	st.locals[st.current][label] = vaddr
}

// Lookup resolves name first as a global, then as a local scoped to
// 'current' (the global label active when the reference is encountered).
func (st *SymbolTable) Lookup(name, current string) (uint32, bool) {
	if v, ok := st.globals[name]; ok {
		return v, true
	}
	if scope, ok := st.locals[current]; ok {
		if v, ok := scope[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// PipelineConfig bundles the two --Xasm settings that affect symbol
// resolution: the pipeline depth (in instructions) and whether branches
// flush the pipeline instead of assuming a fixed delay-slot count.
type PipelineConfig struct {
	Size  int
	Flush bool
}

func (p PipelineConfig) offset() int32 {
	if p.Flush {
		return 0
	}
	return int32(p.Size) * 4
}

// Resolve computes the operand value for a symbol reference: the raw symbol
// value for an absolute ('!'-prefixed) reference, otherwise a PC-relative
// displacement compensated by the pipeline offset.
func Resolve(st *SymbolTable, name string, absolute bool, current string, vaddr uint32, pipeline PipelineConfig) (int32, error) {
	value, ok := st.Lookup(name, current)
	if !ok {
		return 0, fmt.Errorf("undefined symbol %q", name)
	}
	if absolute {
		return int32(value), nil
	}
	return int32(value) - (int32(vaddr) + pipeline.offset()), nil
}
