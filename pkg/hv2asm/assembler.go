package hv2asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Section accumulates the bytes emitted under a single '.section' directive.
type Section struct {
	Name  string
	Flags string
	Addr  uint32
	Data  []byte
}

// Assembler runs the two-pass hv2 assembly algorithm described by the
// two-pass contract: pass 0 resolves every label's address by walking the
// source and tracking vaddr/position, pass 1 re-walks and emits the encoded
// bytes, now that every forward reference is resolvable.
type Assembler struct {
	Pipeline PipelineConfig

	sections []*Section
	entry    uint32
	entrySet bool
}

func NewAssembler(pipeline PipelineConfig) *Assembler {
	return &Assembler{Pipeline: pipeline}
}

// Assemble runs both passes over stmts and returns the final section list
// plus the resolved entry-point address (0 if no .entry directive appeared).
func (a *Assembler) Assemble(stmts []Statement) ([]*Section, uint32, error) {
	st := NewSymbolTable()

	if err := a.pass0(stmts, st); err != nil {
		return nil, 0, fmt.Errorf("pass 0: %w", err)
	}

	a.sections = nil
	a.entry, a.entrySet = 0, false
	if err := a.pass1(stmts, st); err != nil {
		return nil, 0, fmt.Errorf("pass 1: %w", err)
	}

	return a.sections, a.entry, nil
}

func (a *Assembler) pass0(stmts []Statement, st *SymbolTable) error {
	vaddr := uint32(0)

	for _, s := range stmts {
		switch {
		case s.Label != "":
			st.Define(s.Label, s.LocalDecl, vaddr)

		case s.Directive != "":
			n, err := directiveSize(s, vaddr)
			if err != nil {
				return err
			}
			if s.Directive == ".org" {
				v, _ := parseIntLiteral(s.DirArgs[0])
				vaddr = uint32(v)
				continue
			}
			vaddr += n

		case s.Mnemonic != "":
			vaddr += instructionSize(s.Mnemonic) * 4
		}
	}
	return nil
}

func instructionSize(mnemonic string) uint32 {
	switch mnemonic {
	case "push", "pop", "li.w":
		return 2
	case "ret", "swap":
		return 4
	case "call.i":
		return 5
	case "xch":
		return 3
	default:
		return 1
	}
}

func directiveSize(s Statement, vaddr uint32) (uint32, error) {
	switch s.Directive {
	case ".db":
		return uint32(len(s.DirArgs)), nil
	case ".ds":
		return uint32(len(s.DirArgs)) * 2, nil
	case ".dl":
		return uint32(len(s.DirArgs)) * 4, nil
	case ".ascii":
		return uint32(len(strings.Trim(s.DirArgs[0], "\""))), nil
	case ".asciiz":
		return uint32(len(strings.Trim(s.DirArgs[0], "\""))) + 1, nil
	case ".align":
		n, _ := strconv.Atoi(s.DirArgs[0])
		if n <= 0 {
			return 0, nil
		}
		rem := vaddr % uint32(n)
		if rem == 0 {
			return 0, nil
		}
		return uint32(n) - rem, nil
	case ".entry", ".section", ".org":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown directive %q", s.Directive)
	}
}

func (a *Assembler) currentSection() *Section {
	if len(a.sections) == 0 {
		a.sections = append(a.sections, &Section{Name: ""})
	}
	return a.sections[len(a.sections)-1]
}

func (a *Assembler) emit4(w uint32) {
	sec := a.currentSection()
	sec.Data = append(sec.Data, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
}

func (a *Assembler) pass1(stmts []Statement, st *SymbolTable) error {
	vaddr := uint32(0)
	current := ""

	for _, s := range stmts {
		switch {
		case s.Label != "":
			if !s.LocalDecl {
				current = s.Label
			}

		case s.Directive == ".entry":
			if len(s.DirArgs) == 1 {
				name := strings.TrimPrefix(s.DirArgs[0], "!")
				if v, ok := st.Lookup(name, current); ok {
					a.entry, a.entrySet = v, true
				}
			}
			continue

		case s.Directive != "":
			if err := a.runDirective(s, &vaddr); err != nil {
				return err
			}
			continue

		case s.Mnemonic != "":
			n, err := a.assembleInstruction(s, st, current, vaddr)
			if err != nil {
				return fmt.Errorf("line %d: %w", s.Line, err)
			}
			vaddr += n * 4
			continue
		}
	}
	return nil
}

func (a *Assembler) runDirective(s Statement, vaddr *uint32) error {
	sec := a.currentSection()
	switch s.Directive {
	case ".org":
		v, _ := parseIntLiteral(s.DirArgs[0])
		*vaddr = uint32(v)
		sec.Addr = *vaddr
	case ".section":
		name := s.DirArgs[0]
		flags := ""
		if len(s.DirArgs) > 1 {
			flags = strings.Trim(s.DirArgs[1], "\"")
		}
		a.sections = append(a.sections, &Section{Name: name, Flags: flags, Addr: *vaddr})
	case ".db":
		for _, arg := range s.DirArgs {
			v, _ := parseIntLiteral(arg)
			sec.Data = append(sec.Data, byte(v))
			*vaddr++
		}
	case ".ds":
		for _, arg := range s.DirArgs {
			v, _ := parseIntLiteral(arg)
			sec.Data = append(sec.Data, byte(v), byte(v>>8))
			*vaddr += 2
		}
	case ".dl":
		for _, arg := range s.DirArgs {
			v, _ := parseIntLiteral(arg)
			sec.Data = append(sec.Data, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
			*vaddr += 4
		}
	case ".ascii":
		text := strings.Trim(s.DirArgs[0], "\"")
		sec.Data = append(sec.Data, []byte(text)...)
		*vaddr += uint32(len(text))
	case ".asciiz":
		text := strings.Trim(s.DirArgs[0], "\"")
		sec.Data = append(sec.Data, []byte(text)...)
		sec.Data = append(sec.Data, 0)
		*vaddr += uint32(len(text)) + 1
	case ".align":
		n, _ := strconv.Atoi(s.DirArgs[0])
		if n > 0 {
			for int(*vaddr)%n != 0 {
				sec.Data = append(sec.Data, 0)
				*vaddr++
			}
		}
	}
	return nil
}
