package hv2asm

import "testing"

// TestALURegisterRoundTrip checks that the packed fields can be recovered by
// unpacking them with the same layout the encoder used, i.e. the encoding is
// self-consistent even where the exact bit positions are this
// implementation's own choice rather than a verified external reference.
func TestALURegisterRoundTrip(t *testing.T) {
	w, err := EncodeALURegister("add", false, 1, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotType := (w >> 27) & 0x1f
	gotD := (w >> 22) & 0x1f
	gotS0 := (w >> 17) & 0x1f
	gotS1 := (w >> 12) & 0x1f
	gotMode := (w >> 1) & 0x1

	test := func(name string, got, want uint32) {
		if got != want {
			t.Errorf("%s: got %d, want %d", name, got, want)
		}
	}
	test("type", gotType, itALU)
	test("d", gotD, 1)
	test("s0", gotS0, 2)
	test("s1", gotS1, 3)
	test("mode", gotMode, 0)
}

func TestALUImmediateMode(t *testing.T) {
	w, err := EncodeALUImmediate("add", false, 1, 0xbeef)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode := (w >> 1) & 0x1; mode != 1 {
		t.Errorf("expected immediate mode bit set, got %d", mode)
	}
	if imm := (w >> 6) & 0xffff; imm != 0xbeef {
		t.Errorf("expected imm=0xbeef, got %#x", imm)
	}
	if d := (w >> 22) & 0x1f; d != 1 {
		t.Errorf("expected d=1, got %d", d)
	}
}

func TestEncodeUnknownALUOp(t *testing.T) {
	if _, err := EncodeALURegister("frobnicate", false, 0, 0, 0); err == nil {
		t.Fatal("expected error for unknown ALU op")
	}
}

func TestBranchImmediateDisplacement(t *testing.T) {
	w, err := EncodeBranchImmediate("beq", false, 1, 2, -8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gotDisp := int32((w>>1)&0x1ffff) << 15 >> 15 // sign-extend 17 bits
	if gotDisp != -8 {
		t.Errorf("expected disp -8, got %d", gotDisp)
	}
}

func TestLoadStoreFixedSizes(t *testing.T) {
	cases := []struct {
		size byte
		want uint32
	}{
		{'b', 0},
		{'s', 1},
		{'l', 2},
	}
	for _, c := range cases {
		w, err := EncodeLoadStoreFixed("load", c.size, 1, 28, -4)
		if err != nil {
			t.Fatalf("unexpected error for size %q: %v", c.size, err)
		}
		if sz := (w >> 2) & 0x3; sz != c.want {
			t.Errorf("size %q: got %d, want %d", c.size, sz, c.want)
		}
	}
}

func TestLoadImmediateFirstSetBit(t *testing.T) {
	w := EncodeLoadImmediate(5, 0x100)
	shift := (w >> 1) & 0x1f
	if shift != 8 {
		t.Errorf("expected shift 8 for 0x100, got %d", shift)
	}
	top16 := (w >> 6) & 0xffff
	if top16 != 1 {
		t.Errorf("expected top16 1, got %d", top16)
	}
}

func TestLoadImmediateZero(t *testing.T) {
	w := EncodeLoadImmediate(0, 0)
	if shift := (w >> 1) & 0x1f; shift != 0 {
		t.Errorf("expected shift 0 for value 0, got %d", shift)
	}
}

func TestSetCondImmediate(t *testing.T) {
	w, err := EncodeSetCondImmediate("slt", 1, 2, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cc := (w >> 24) & 0x7; cc != cmpOp["slt"] {
		t.Errorf("expected cc %d, got %d", cmpOp["slt"], cc)
	}
}
