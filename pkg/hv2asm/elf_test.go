package hv2asm

import (
	"bytes"
	"testing"
)

func TestWriteELF32Magic(t *testing.T) {
	sections := []*Section{{Name: ".text", Data: []byte{0, 0, 0, 0}}}
	img, err := WriteELF32(sections, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(img, []byte{0x7f, 'E', 'L', 'F'}) {
		t.Fatalf("got prefix %x, want 7f454c46", img[:4])
	}
}

func TestWriteELF32MachineByte(t *testing.T) {
	sections := []*Section{{Name: ".text", Data: []byte{0, 0, 0, 0}}}
	img, err := WriteELF32(sections, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img[18] != 0x32 {
		t.Errorf("got byte 18 = %#x, want 0x32", img[18])
	}
}

func TestWriteELF32RequiresTextSection(t *testing.T) {
	if _, err := WriteELF32(nil, 0); err == nil {
		t.Fatal("expected error when no .text section is present")
	}
}

func TestWriteELF32ShstrtabContents(t *testing.T) {
	sections := []*Section{
		{Name: ".text", Data: []byte{0, 0, 0, 0}},
		{Name: ".rodata", Data: []byte{1, 2, 3, 4}},
	}
	img, err := WriteELF32(sections, 0x40000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "\x00.text\x00.rodata\x00.shstrtab\x00"
	if !bytes.Contains(img, []byte(want)) {
		t.Fatalf("expected shstrtab %q to appear in output", want)
	}
}

func TestWriteELF32HeaderFields(t *testing.T) {
	sections := []*Section{{Name: ".text", Data: []byte{0, 0, 0, 0}}}
	img, err := WriteELF32(sections, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	phoff := le16(img[28:30])
	if phoff != 0x34 {
		t.Errorf("got e_phoff %#x, want 0x34", phoff)
	}
	phnum := le16(img[44:46])
	if phnum != 3 {
		t.Errorf("got e_phnum %d, want 3", phnum)
	}
}

func le16(b []byte) uint32 { return uint32(b[0]) | uint32(b[1])<<8 }
