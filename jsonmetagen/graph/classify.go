package graph

import (
	"github.com/broady/jsonmeta/jsonmetagen/ir"
	"github.com/broady/jsonmeta/jsonmetagen/provider"
)

// Classify returns the shape of d as seen from generated code in package
// pkgPath. A type that cannot be spelled there is Unsupported. Otherwise
// the checks run in strict priority order: Simple, Array, List,
// Dictionary, Pointer, UnsupportedEnumerable, Object. Anything left over
// is Unsupported.
func Classify(p provider.Port, d *ir.TypeDescriptor, pkgPath string) ir.Shape {
	if !d.Expr.AccessibleFrom(pkgPath) {
		return ir.ShapeUnsupported
	}
	if _, ok := ir.LookupSimple(d); ok {
		return ir.ShapeSimple
	}

	switch {
	case d.IsArray():
		return ir.ShapeArray
	case d.IsListLike():
		return ir.ShapeList
	case d.IsDictionaryLike():
		if _, ok := keyCodec(p, d.Key); ok {
			return ir.ShapeDictionary
		}
		return ir.ShapeUnsupported
	case d.IsNullableWrapper():
		// Methods cannot be declared on named pointer types, and the
		// runtime helper builds metadata for *E only.
		if d.IsNamed() {
			return ir.ShapeUnsupported
		}
		return ir.ShapePointer
	case d.IsEnumerableLike():
		return ir.ShapeUnsupportedEnumerable
	case d.IsStruct() && d.IsNamed():
		return ir.ShapeObject
	}
	return ir.ShapeUnsupported
}

// keyCodec returns the runtime key codec for a map key type. Keys must be
// simple with a string or integer kind.
func keyCodec(p provider.Port, key ir.TypeID) (string, bool) {
	d, err := p.Describe(key)
	if err != nil {
		return "", false
	}
	st, ok := ir.LookupSimple(d)
	if !ok {
		return "", false
	}
	return st.KeyCodec()
}
