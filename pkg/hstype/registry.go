package hstype

import (
	"fmt"

	"its-hmny.dev/hsc/pkg/utils"
)

// Registry interns Types by signature, exactly mirroring type_system_t's
// type_map + typedef_map pair: a canonical type table plus an alias table
// consulted first by Get. The type table is insertion-ordered so --debug-*
// dumps list types in the order they were first interned rather than Go's
// randomized map order.
type Registry struct {
	types   utils.OrderedMap[string, *Type]
	aliases map[string]string
}

// NewRegistry builds a Registry with the base integral types and their
// aliases pre-registered: u8/u16/u32/i8/i16/i32 plus
// void->none, byte->u8, char->i8, short->u16, int->i32, long->u32.
func NewRegistry() *Registry {
	r := &Registry{aliases: map[string]string{}}

	r.types.Set("none", &Type{Tag: None, Size: 0})
	for _, sz := range []uint32{1, 2, 4} {
		r.Add(&Type{Tag: Integral, Size: sz, Signed: false})
		r.Add(&Type{Tag: Integral, Size: sz, Signed: true})
	}

	r.TypeDef("void", "none")
	r.TypeDef("byte", "u8")
	r.TypeDef("char", "i8")
	r.TypeDef("short", "u16")
	r.TypeDef("int", "i32")
	r.TypeDef("long", "u32")

	return r
}

// TypeDef installs an alias, exactly as type_system_t::typedef_map.
func (r *Registry) TypeDef(alias, target string) { r.aliases[alias] = target }

// Get resolves a signature to its interned Type, consulting the alias table
// first. Returns the 'none' sentinel (never nil) if nothing resolves.
func (r *Registry) Get(signature string) *Type {
	if target, ok := r.aliases[signature]; ok {
		signature = target
	}
	if t, ok := r.types.Get(signature); ok {
		return t
	}
	none, _ := r.types.Get("none")
	return none
}

// Exists reports whether signature resolves to anything but 'none'.
func (r *Registry) Exists(signature string) bool {
	return r.Get(signature).Tag != None
}

// Add interns t under its own signature, returning the pre-existing handle
// if an equal-signature type was already registered (idempotent insertion).
func (r *Registry) Add(t *Type) *Type {
	sig := t.Signature()
	if existing, ok := r.types.Get(sig); ok {
		return existing
	}
	r.types.Set(sig, t)
	return t
}

// Signatures returns every interned type's signature in interning order, for
// --debug-* dumps and symbol listings.
func (r *Registry) Signatures() []string {
	return r.types.Keys()
}

// Pointer returns (interning as needed) the pointer-to-target type.
func (r *Registry) Pointer(target *Type) *Type {
	return r.Add(&Type{Tag: Pointer, Size: 4, Target: target})
}

// Struct returns (interning as needed) a named struct type with the given
// ordered member list.
func (r *Registry) Struct(name string, members []Field) *Type {
	size := uint32(0)
	for _, m := range members {
		size += m.Type.Size
	}
	return r.Add(&Type{Tag: Struct, Size: size, StructName: name, Members: members})
}

// Function returns (interning as needed) a function type; its Size is
// always 4 (a function value is a code-pointer / label address).
func (r *Registry) Function(args []Field, ret *Type) *Type {
	return r.Add(&Type{Tag: Function, Size: 4, Args: args, Return: ret})
}

// Modified returns a copy of t with the mut/static modifiers applied. It is
// re-interned under the modified signature.
func (r *Registry) Modified(t *Type, mut, static bool) *Type {
	cp := *t
	cp.Mut, cp.Static = mut, static
	return r.Add(&cp)
}

// Eq reports structural equality between a and b: same tag, size, modifiers,
// then kind-specific recursion. Equivalent to Signature(a) == Signature(b).
func Eq(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Signature() == b.Signature()
}

// Describe is a debug helper mirroring the original's verbose dump of a type
// record, used by --debug-parser-output.
func Describe(t *Type) string {
	return fmt.Sprintf("%s (tag=%d size=%d)", t.Signature(), t.Tag, t.Size)
}
