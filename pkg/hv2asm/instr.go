package hv2asm

import (
	"fmt"
	"strings"
)

// assembleInstruction resolves operands against st and emits the encoded
// word(s) for one source line, returning the number of 4-byte instruction
// words written (matching instructionSize's pass-0 estimate).
func (a *Assembler) assembleInstruction(s Statement, st *SymbolTable, current string, vaddr uint32) (uint32, error) {
	if IsPseudo(s.Mnemonic) {
		return a.assemblePseudo(s.Mnemonic, s, st, current, vaddr)
	}

	base, suffix := splitSuffix(s.Mnemonic)

	switch {
	case isALUMnemonic(base):
		return a.assembleALU(base, suffix, s)
	case s.Mnemonic == "li.u":
		return a.assembleLoadImmediate(s)
	case base == "load" || base == "store" || base == "lea":
		return a.assembleLoadStore(base, suffix, s)
	case base == "beq" || base == "bne" || base == "b":
		return a.assembleBranch(base, s, st, current, vaddr)
	case strings.HasPrefix(base, "s") && cmpOpByMnemonic(base):
		return a.assembleSetCond(base, s)
	default:
		return 0, fmt.Errorf("unknown mnemonic %q", s.Mnemonic)
	}
}

func splitSuffix(mnemonic string) (base, suffix string) {
	if i := strings.LastIndex(mnemonic, "."); i >= 0 {
		return mnemonic[:i], mnemonic[i+1:]
	}
	return mnemonic, ""
}

func isALUMnemonic(base string) bool {
	_, ok := aluOp[base]
	return ok
}

func cmpOpByMnemonic(base string) bool {
	_, ok := cmpOp[base]
	return ok
}

func regNum(op Operand) (int, error) {
	if op.Kind != OprRegister {
		return 0, fmt.Errorf("expected register operand, got %+v", op)
	}
	n, ok := RegisterNumber(op.Reg)
	if !ok {
		return 0, fmt.Errorf("unknown register %q", op.Reg)
	}
	return n, nil
}

func (a *Assembler) assembleALU(base, suffix string, s Statement) (uint32, error) {
	if len(s.Operands) != 3 {
		return 0, fmt.Errorf("%s expects 3 operands, got %d", s.Mnemonic, len(s.Operands))
	}
	d, err := regNum(s.Operands[0])
	if err != nil {
		return 0, err
	}
	s0, err := regNum(s.Operands[1])
	if err != nil {
		return 0, err
	}
	signed := suffix == "s"

	if s.Operands[2].Kind == OprInt {
		if s0 != d {
			return 0, fmt.Errorf("%s: immediate form has no separate source register, d and s0 must match (got d=%d, s0=%d)", s.Mnemonic, d, s0)
		}
		w, err := EncodeALUImmediate(base, signed, d, uint16(s.Operands[2].Int))
		if err != nil {
			return 0, err
		}
		a.emit4(w)
		return 1, nil
	}

	s1, err := regNum(s.Operands[2])
	if err != nil {
		return 0, err
	}
	w, err := EncodeALURegister(base, signed, d, s0, s1)
	if err != nil {
		return 0, err
	}
	a.emit4(w)
	return 1, nil
}

func (a *Assembler) assembleSetCond(base string, s Statement) (uint32, error) {
	if len(s.Operands) != 3 {
		return 0, fmt.Errorf("%s expects 3 operands, got %d", s.Mnemonic, len(s.Operands))
	}
	d, err := regNum(s.Operands[0])
	if err != nil {
		return 0, err
	}
	s0, err := regNum(s.Operands[1])
	if err != nil {
		return 0, err
	}
	if s.Operands[2].Kind != OprInt {
		return 0, fmt.Errorf("%s requires an immediate third operand", s.Mnemonic)
	}
	w, err := EncodeSetCondImmediate(base, d, s0, uint16(s.Operands[2].Int))
	if err != nil {
		return 0, err
	}
	a.emit4(w)
	return 1, nil
}

func (a *Assembler) assembleLoadImmediate(s Statement) (uint32, error) {
	if len(s.Operands) != 2 {
		return 0, fmt.Errorf("li.u expects 2 operands, got %d", len(s.Operands))
	}
	d, err := regNum(s.Operands[0])
	if err != nil {
		return 0, err
	}
	if s.Operands[1].Kind != OprInt {
		return 0, fmt.Errorf("li.u requires a resolved immediate operand (symbols are resolved upstream)")
	}
	w := EncodeLoadImmediate(d, uint32(s.Operands[1].Int))
	a.emit4(w)
	return 1, nil
}

func (a *Assembler) assembleLoadStore(base, suffix string, s Statement) (uint32, error) {
	if len(s.Operands) != 2 {
		return 0, fmt.Errorf("%s expects 2 operands, got %d", s.Mnemonic, len(s.Operands))
	}
	reg, idx := s.Operands[0], s.Operands[1]
	if idx.Kind != OprIndexed {
		return 0, fmt.Errorf("%s expects an indexed second operand", s.Mnemonic)
	}

	d, err := regNum(reg)
	if err != nil {
		return 0, err
	}
	baseReg, ok := RegisterNumber(idx.Base)
	if !ok {
		return 0, fmt.Errorf("unknown base register %q", idx.Base)
	}

	var imm int64
	if idx.Offset != nil {
		imm = idx.Offset.Int
	}

	size := byte('l')
	if suffix != "" {
		size = suffix[0]
	}

	w, err := EncodeLoadStoreFixed(base, size, d, baseReg, int32(imm))
	if err != nil {
		return 0, err
	}
	a.emit4(w)
	return 1, nil
}

func (a *Assembler) assembleBranch(base string, s Statement, st *SymbolTable, current string, vaddr uint32) (uint32, error) {
	var s0, s1 int
	var target Operand

	switch len(s.Operands) {
	case 1:
		target = s.Operands[0]
	case 3:
		r0, err := regNum(s.Operands[0])
		if err != nil {
			return 0, err
		}
		r1, err := regNum(s.Operands[1])
		if err != nil {
			return 0, err
		}
		s0, s1 = r0, r1
		target = s.Operands[2]
	default:
		return 0, fmt.Errorf("%s expects 1 or 3 operands, got %d", s.Mnemonic, len(s.Operands))
	}

	disp, err := resolveOperand(target, st, current, vaddr, a.Pipeline)
	if err != nil {
		return 0, err
	}

	w, err := EncodeBranchImmediate(base, false, s0, s1, disp)
	if err != nil {
		return 0, err
	}
	a.emit4(w)
	return 1, nil
}

// resolveOperand turns a symbol/absolute-symbol/int operand into a concrete
// 32-bit value, applying pipeline-offset compensation for PC-relative
// symbol references.
func resolveOperand(op Operand, st *SymbolTable, current string, vaddr uint32, pipeline PipelineConfig) (int32, error) {
	switch op.Kind {
	case OprInt:
		return int32(op.Int), nil
	case OprSymbol:
		return Resolve(st, op.Symbol, false, current, vaddr, pipeline)
	case OprAbsSymbol:
		return Resolve(st, op.Symbol, true, current, vaddr, pipeline)
	default:
		return 0, fmt.Errorf("operand %+v is not resolvable to a value", op)
	}
}

func (a *Assembler) assemblePseudo(base string, s Statement, st *SymbolTable, current string, vaddr uint32) (uint32, error) {
	var d, s0 int
	var imm int64
	var err error

	if base == "call.i" {
		// call.i's sole operand is the call target, not a destination
		// register: resolve it straight into imm.
		if len(s.Operands) != 1 {
			return 0, fmt.Errorf("call.i expects 1 operand, got %d", len(s.Operands))
		}
		v, rerr := resolveOperand(s.Operands[0], st, current, vaddr, a.Pipeline)
		if rerr != nil {
			return 0, rerr
		}
		imm = int64(v)
	} else {
		if len(s.Operands) > 0 {
			if s.Operands[0].Kind == OprRegister {
				d, err = regNum(s.Operands[0])
			}
		}
		if err != nil {
			return 0, err
		}
		if len(s.Operands) > 1 && s.Operands[1].Kind == OprRegister {
			s0, _ = regNum(s.Operands[1])
		}
		if len(s.Operands) > 1 && (s.Operands[1].Kind == OprInt || s.Operands[1].Kind == OprSymbol || s.Operands[1].Kind == OprAbsSymbol) {
			v, rerr := resolveOperand(s.Operands[1], st, current, vaddr, a.Pipeline)
			if rerr != nil {
				return 0, rerr
			}
			imm = int64(v)
		}
	}

	reals := expandPseudo(base, d, s0, 0, imm, a.Pipeline.offset())
	if reals == nil {
		return 0, fmt.Errorf("unknown pseudo-instruction %q", base)
	}

	for _, r := range reals {
		w, err := encodeReal(r)
		if err != nil {
			return 0, err
		}
		a.emit4(w)
	}
	return uint32(len(reals)), nil
}

func encodeReal(r Real) (uint32, error) {
	switch r.Mnemonic {
	case "add", "sub", "and", "or", "xor", "mul", "div", "lsl", "lsr":
		if r.Imm != 0 {
			return EncodeALUImmediate(r.Mnemonic, r.Signed, r.D, uint16(r.Imm))
		}
		return EncodeALURegister(r.Mnemonic, r.Signed, r.D, r.S0, r.S1)
	case "load", "store":
		return EncodeLoadStoreFixed(r.Mnemonic, 'l', r.D, r.S0, int32(r.Imm))
	case "li.u":
		return EncodeLoadImmediate(r.D, uint32(r.Imm)), nil
	default:
		return 0, fmt.Errorf("encodeReal: unhandled pseudo expansion mnemonic %q", r.Mnemonic)
	}
}
