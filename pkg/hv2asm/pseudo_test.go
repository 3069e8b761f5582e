package hv2asm

import "testing"

// TestLoadImmediateWideRoundTrips proves li.w's 2-instruction expansion can
// represent a value whose significant bits don't fit the single-word li.u
// encoder's 16-bit window (0x40014 has set bits at both ends of the word, so
// the lowest-set-bit trick alone would have to discard one side).
func TestLoadImmediateWideRoundTrips(t *testing.T) {
	values := []uint32{0x40014, 0x400a4, 0xdeadbeef, 1}

	for _, value := range values {
		reals := expandPseudo("li.w", 3, 0, 0, int64(value), 0)
		if len(reals) != 2 {
			t.Fatalf("value %#x: expected 2 real instructions, got %d", value, len(reals))
		}

		got := uint32(0)
		for _, r := range reals {
			w, err := encodeReal(r)
			if err != nil {
				t.Fatalf("value %#x: encodeReal(%+v): %v", value, r, err)
			}
			switch r.Mnemonic {
			case "li.u":
				shift := (w >> 1) & 0x1f
				top16 := (w >> 6) & 0xffff
				got |= top16 << shift
			case "or":
				imm := uint32(r.Imm) & 0xffff
				got |= imm
			default:
				t.Fatalf("value %#x: unexpected expansion mnemonic %q", value, r.Mnemonic)
			}
		}

		if got != value {
			t.Errorf("value %#x: round-tripped to %#x", value, got)
		}
	}
}

func TestExpandPseudoSizesMatchInstructionSize(t *testing.T) {
	cases := []struct {
		mnemonic string
		d, s0    int
	}{
		{"li.w", 3, 0},
		{"call.i", 0, 0},
		{"xch", 2, 3},
		{"zx.b", 4, 0},
		{"zx.s", 4, 0},
		{"swap", 5, 0},
	}
	for _, c := range cases {
		if !IsPseudo(c.mnemonic) {
			t.Errorf("%s: expected IsPseudo to report true", c.mnemonic)
		}
		reals := expandPseudo(c.mnemonic, c.d, c.s0, 0, 0x1234, 0)
		want := instructionSize(c.mnemonic)
		if uint32(len(reals)) != want {
			t.Errorf("%s: expandPseudo produced %d instructions, instructionSize says %d", c.mnemonic, len(reals), want)
		}
	}
}

func TestXchSwapsRegistersViaThreeXors(t *testing.T) {
	reals := expandPseudo("xch", 2, 3, 0, 0, 0)
	if len(reals) != 3 {
		t.Fatalf("expected 3 real instructions, got %d", len(reals))
	}
	for _, r := range reals {
		if r.Mnemonic != "xor" {
			t.Errorf("expected xor, got %q", r.Mnemonic)
		}
	}
}
