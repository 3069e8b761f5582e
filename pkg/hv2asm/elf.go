package hv2asm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	elfHeaderSize    = 52
	programHeaderSize = 32
	sectionHeaderSize = 40
	elfMachineHV2    = 0x1332
	elfTypeExec      = 2
	elfPhOff         = 0x34
	stackTop         = 0xC0000000
	stackSize        = 0x80000
)

// elf32Header mirrors Elf32_Ehdr's fixed layout, byte-for-byte.
type elf32Header struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// elf32ProgramHeader mirrors Elf32_Phdr.
type elf32ProgramHeader struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

// elf32SectionHeader mirrors Elf32_Shdr.
type elf32SectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

const (
	shtNull    = 0
	shtProgbits = 1
	shtStrtab  = 3

	shfWrite   = 0x1
	shfAlloc   = 0x2
	shfExecinstr = 0x4
	shfStrings = 0x20

	ptLoad = 1

	pfExec  = 0x1
	pfWrite = 0x2
	pfRead  = 0x4
)

// WriteELF32 assembles sections into a minimal ET_EXEC ELF32 image targeting
// the hv2 machine value, per the documented layout: a null section, .text,
// .rodata (if present) and .shstrtab, wrapped by three fixed PT_LOAD program
// headers (text, rodata, stack).
func WriteELF32(sections []*Section, entry uint32) ([]byte, error) {
	text := findSection(sections, ".text")
	rodata := findSection(sections, ".rodata")
	if text == nil {
		return nil, fmt.Errorf("elf32 output requires a .text section")
	}

	names := []string{"", ".text"}
	sizes := []uint32{uint32(len(text.Data))}
	if rodata != nil {
		names = append(names, ".rodata")
		sizes = append(sizes, uint32(len(rodata.Data)))
	}
	names = append(names, ".shstrtab")

	textOffset := uint32(elfHeaderSize + 3*programHeaderSize)
	rodataOffset := textOffset + uint32(len(text.Data))
	textEnd := rodataOffset
	if rodata != nil {
		textEnd = rodataOffset + uint32(len(rodata.Data))
	}

	shstrtab, nameOffsets := buildShstrtab(names)
	shstrtabOffset := textEnd

	shoff := textEnd + uint32(len(shstrtab))

	shnum := uint16(len(names)) // null + .text [+ .rodata] + .shstrtab
	shstrndx := shnum - 1

	hdr := elf32Header{
		Type:      elfTypeExec,
		Machine:   elfMachineHV2,
		Version:   1,
		Entry:     entry,
		Phoff:     elfPhOff,
		Shoff:     shoff,
		Ehsize:    elfHeaderSize,
		Phentsize: programHeaderSize,
		Phnum:     3,
		Shentsize: sectionHeaderSize,
		Shnum:     shnum,
		Shstrndx:  shstrndx,
	}
	hdr.Ident[0], hdr.Ident[1], hdr.Ident[2], hdr.Ident[3] = 0x7f, 'E', 'L', 'F'
	hdr.Ident[4] = 1 // ELFCLASS32
	hdr.Ident[5] = 1 // ELFDATA2LSB

	phText := elf32ProgramHeader{
		Type: ptLoad, Offset: textOffset, Vaddr: text.Addr, Paddr: text.Addr,
		Filesz: uint32(len(text.Data)), Memsz: uint32(len(text.Data)), Flags: pfExec | pfRead | pfWrite, Align: 32,
	}
	phRodata := elf32ProgramHeader{Type: ptLoad, Align: 1}
	if rodata != nil {
		phRodata = elf32ProgramHeader{
			Type: ptLoad, Offset: rodataOffset, Vaddr: rodata.Addr, Paddr: rodata.Addr,
			Filesz: uint32(len(rodata.Data)), Memsz: uint32(len(rodata.Data)), Flags: pfRead, Align: 1,
		}
	}
	phStack := elf32ProgramHeader{
		Type: ptLoad, Offset: 7, Vaddr: stackTop - stackSize, Paddr: stackTop - stackSize,
		Filesz: 1, Memsz: stackSize, Flags: pfRead | pfWrite, Align: 32,
	}

	var buf bytes.Buffer
	write := func(v any) error { return binary.Write(&buf, binary.LittleEndian, v) }

	if err := write(hdr); err != nil {
		return nil, err
	}
	if err := write(phText); err != nil {
		return nil, err
	}
	if err := write(phRodata); err != nil {
		return nil, err
	}
	if err := write(phStack); err != nil {
		return nil, err
	}

	buf.Write(text.Data)
	if rodata != nil {
		buf.Write(rodata.Data)
	}
	buf.Write(shstrtab)

	shdrs := []elf32SectionHeader{{}} // null section
	shdrs = append(shdrs, elf32SectionHeader{
		Name: nameOffsets[".text"], Type: shtProgbits, Flags: shfAlloc | shfExecinstr,
		Addr: text.Addr, Offset: textOffset, Size: sizes[0], Addralign: 4,
	})
	if rodata != nil {
		shdrs = append(shdrs, elf32SectionHeader{
			Name: nameOffsets[".rodata"], Type: shtProgbits, Flags: shfAlloc,
			Addr: rodata.Addr, Offset: rodataOffset, Size: sizes[1], Addralign: 4,
		})
	}
	shdrs = append(shdrs, elf32SectionHeader{
		Name: nameOffsets[".shstrtab"], Type: shtStrtab, Flags: shfStrings,
		Offset: shstrtabOffset, Size: uint32(len(shstrtab)), Addralign: 1,
	})

	for _, sh := range shdrs {
		if err := write(sh); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func findSection(sections []*Section, name string) *Section {
	for _, s := range sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// buildShstrtab concatenates names null-terminated, the first an empty
// sentinel, and returns each name's byte offset within the blob.
func buildShstrtab(names []string) ([]byte, map[string]uint32) {
	var buf bytes.Buffer
	offsets := map[string]uint32{}
	for _, n := range names {
		offsets[n] = uint32(buf.Len())
		buf.WriteString(n)
		buf.WriteByte(0)
	}
	return buf.Bytes(), offsets
}
