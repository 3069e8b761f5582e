package hv2asm

// Real is a fully-resolved instruction ready for encoding: a mnemonic plus
// already-numeric operands (registers resolved, symbols resolved to
// PC-relative or absolute displacements by the symbol-resolution pass).
type Real struct {
	Mnemonic string
	D, S0, S1 int
	Imm      int64
	Size     byte
	Signed   bool
}

// expandPseudo mirrors the pseudo-instruction table: each pseudo-mnemonic
// expands into a short, fixed sequence of real ALU/load/store/branch
// instructions. This is the REDESIGN FLAG adopted by this implementation: a
// table of Go functions returning real instructions, not textual
// re-assembly through a sub-assembler.
//
// d/s0/s1 are pre-resolved register numbers; imm is a pre-resolved
// displacement or immediate. Returns nil if mnemonic isn't a pseudo-op.
func expandPseudo(mnemonic string, d, s0, s1 int, imm int64, pipelineOffset int32) []Real {
	switch mnemonic {
	case "nop":
		return []Real{{Mnemonic: "add", D: 0, S0: 0, S1: 0}}
	case "move":
		return []Real{{Mnemonic: "add", D: d, S0: 0, S1: s0}}
	case "push":
		return []Real{
			{Mnemonic: "sub", D: 28 /* sp */, S0: 28, S1: 0, Imm: 4},
			{Mnemonic: "store", D: d, S0: 28, Size: 'l'},
		}
	case "pop":
		return []Real{
			{Mnemonic: "add", D: 28, S0: 28, S1: 0, Imm: 4},
			{Mnemonic: "load", D: d, S0: 28, Size: 'l', Imm: -4},
		}
	case "ret":
		return []Real{
			{Mnemonic: "add", D: 28, S0: 28, S1: 0, Imm: 4},
			{Mnemonic: "load", D: 1 /* at */, S0: 28, Size: 'l', Imm: -4},
			{Mnemonic: "add", D: 1, S0: 1, S1: 0, Imm: int64(pipelineOffset)},
			{Mnemonic: "add", D: 31 /* pc */, S0: 1, S1: 0},
		}
	case "inc":
		return []Real{{Mnemonic: "add", D: d, S0: d, S1: 0, Imm: 1}}
	case "dec":
		return []Real{{Mnemonic: "sub", D: d, S0: d, S1: 0, Imm: 1}}
	case "clr":
		return []Real{{Mnemonic: "add", D: d, S0: 0, S1: 0}}
	case "not":
		return []Real{{Mnemonic: "xor", D: d, S0: d, S1: 0, Imm: -1}}
	case "li.w":
		return expandLoadImmediateWide(d, imm)
	case "call.i":
		reals := []Real{
			{Mnemonic: "sub", D: 28 /* sp */, S0: 28, S1: 0, Imm: 4},
			{Mnemonic: "store", D: 31 /* pc */, S0: 28, Size: 'l'},
		}
		reals = append(reals, expandLoadImmediateWide(1 /* at */, imm)...)
		reals = append(reals, Real{Mnemonic: "add", D: 31 /* pc */, S0: 0, S1: 1})
		return reals
	case "xch":
		return []Real{
			{Mnemonic: "xor", D: d, S0: d, S1: s0},
			{Mnemonic: "xor", D: s0, S0: s0, S1: d},
			{Mnemonic: "xor", D: d, S0: d, S1: s0},
		}
	case "zx.b":
		return []Real{{Mnemonic: "and", D: d, S0: d, S1: 0, Imm: 0xff}}
	case "zx.s":
		return []Real{{Mnemonic: "and", D: d, S0: d, S1: 0, Imm: 0xffff}}
	case "swap":
		return []Real{
			{Mnemonic: "add", D: 1 /* at */, S0: 0, S1: d},
			{Mnemonic: "lsl", D: d, S0: d, S1: 0, Imm: 16},
			{Mnemonic: "lsr", D: 1, S0: 1, S1: 0, Imm: 16},
			{Mnemonic: "or", D: d, S0: d, S1: 1},
		}
	}
	return nil
}

// expandLoadImmediateWide is li.w's 2-instruction expansion: li.u can only
// round-trip a value whose significant bits fit a 16-bit window starting at
// its lowest set bit, which no label or string address is guaranteed to do,
// so li.w always goes through the high/low halves instead.
func expandLoadImmediateWide(d int, imm int64) []Real {
	v := uint32(imm)
	upper := v & 0xffff0000
	lower := int64(v & 0x0000ffff)
	return []Real{
		{Mnemonic: "li.u", D: d, Imm: int64(upper)},
		{Mnemonic: "or", D: d, S0: d, S1: 0, Imm: lower},
	}
}

// IsPseudo reports whether mnemonic names a pseudo-instruction.
func IsPseudo(mnemonic string) bool {
	switch mnemonic {
	case "nop", "move", "push", "pop", "ret", "inc", "dec", "clr", "not",
		"li.w", "call.i", "xch", "zx.b", "zx.s", "swap":
		return true
	}
	return false
}
