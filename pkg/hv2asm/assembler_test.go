package hv2asm

import "testing"

func assembleSource(t *testing.T, src string) ([]*Section, uint32) {
	t.Helper()
	stmts, err := NewParser().Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sections, entry, err := NewAssembler(PipelineConfig{Size: 2}).Assemble(stmts)
	if err != nil {
		t.Fatalf("assemble error: %v", err)
	}
	return sections, entry
}

func TestAssembleSingleALUInstruction(t *testing.T) {
	sections, _ := assembleSource(t, "add.u x1, x2, x3\n")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if len(sections[0].Data) != 4 {
		t.Fatalf("got %d bytes, want 4", len(sections[0].Data))
	}
}

func TestAssembleResolvesForwardLabel(t *testing.T) {
	src := `
main:
	b target
	add x1, x1, x1
target:
	add x2, x2, x2
`
	sections, _ := assembleSource(t, src)
	// main's b + 2 add instructions, 4 bytes each = 12
	if got := len(sections[0].Data); got != 12 {
		t.Fatalf("got %d bytes, want 12", got)
	}
}

func TestAssembleEntryDirective(t *testing.T) {
	src := `
main:
	add x1, x1, x1
.entry main
`
	_, entry := assembleSource(t, src)
	if entry != 0 {
		t.Errorf("got entry %#x, want 0", entry)
	}
}

func TestAssembleSections(t *testing.T) {
	src := `
.section .text
main:
	add x1, x1, x1
.section .rodata
.db 1, 2, 3
`
	sections, _ := assembleSource(t, src)
	// The unnamed sentinel section always heads the list.
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}
	if sections[0].Name != "" || sections[1].Name != ".text" || sections[2].Name != ".rodata" {
		t.Errorf("got section names %q, %q, %q", sections[0].Name, sections[1].Name, sections[2].Name)
	}
	if len(sections[2].Data) != 3 {
		t.Errorf("got %d rodata bytes, want 3", len(sections[2].Data))
	}
}

func TestAssemblePushPopExpandsToTwoWords(t *testing.T) {
	sections, _ := assembleSource(t, "push x1\npop x2\n")
	// push -> 2 words, pop -> 2 words = 16 bytes
	if got := len(sections[0].Data); got != 16 {
		t.Fatalf("got %d bytes, want 16", got)
	}
}

func TestAssembleRetExpandsToFourWords(t *testing.T) {
	sections, _ := assembleSource(t, "ret\n")
	if got := len(sections[0].Data); got != 16 {
		t.Fatalf("got %d bytes, want 16", got)
	}
}

func TestAssembleUnknownMnemonicErrors(t *testing.T) {
	stmts, err := NewParser().Parse("frobnicate x1, x2, x3\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, _, err := NewAssembler(PipelineConfig{}).Assemble(stmts); err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}

func TestAssembleAlignPadsToBoundary(t *testing.T) {
	src := `
.db 1
.align 4
.db 2
`
	sections, _ := assembleSource(t, src)
	if got := len(sections[0].Data); got != 5 {
		t.Fatalf("got %d bytes, want 5 (1 byte + 3 pad + 1 byte)", got)
	}
}
