package ir

import "reflect"

// Well-known interfaces recorded in TypeDescriptor.Implements.
const (
	TextMarshaler = "encoding.TextMarshaler" // MarshalText and UnmarshalText on *T
	JSONMarshaler = "encoding/json.Marshaler" // MarshalJSON and UnmarshalJSON on *T
)

// TypeDescriptor is the structural description of one Go type as seen
// through a provider. Descriptors are immutable once returned; two
// descriptors describe the same type exactly when their IDs are equal.
type TypeDescriptor struct {
	ID   TypeID
	Expr *TypeExpr

	// Name is the type name without type arguments, empty for unnamed types.
	Name string

	// Package is the import path of a named type.
	Package string

	// Kind is the kind of the underlying type.
	Kind reflect.Kind

	// TypeArgs holds the type arguments of an instantiated generic type.
	TypeArgs []TypeID

	// Elem is the element type of slices, arrays, pointers and channels,
	// and the value type of maps.
	Elem TypeID

	// Key is the key type of a map.
	Key TypeID

	// Len is the length of an array.
	Len int

	// Fields holds the serializable members of a struct in declaration order.
	Fields []Member

	// Iterable is set for range-over-func types and for types with an
	// All method returning one.
	Iterable bool

	// Implements lists the well-known interfaces the type satisfies.
	Implements []string

	// Source is the declaration site, if known.
	Source Source
}

// Member is one serializable struct field.
type Member struct {
	// Name is the Go field name.
	Name string

	// WireName is the JSON member name, from the json tag when present.
	WireName string

	// Type is the field's type.
	Type TypeID

	// Embedded is set for embedded fields.
	Embedded bool

	// Tag is the raw struct tag.
	Tag string
}

// IsNamed reports whether the type is a defined type.
func (d *TypeDescriptor) IsNamed() bool { return d.Name != "" }

// IsStruct reports whether the underlying type is a struct.
func (d *TypeDescriptor) IsStruct() bool { return d.Kind == reflect.Struct }

// IsArray reports whether the underlying type is a fixed-length array.
func (d *TypeDescriptor) IsArray() bool { return d.Kind == reflect.Array }

// IsListLike reports whether the underlying type is a slice.
func (d *TypeDescriptor) IsListLike() bool { return d.Kind == reflect.Slice }

// IsDictionaryLike reports whether the underlying type is a map.
func (d *TypeDescriptor) IsDictionaryLike() bool { return d.Kind == reflect.Map }

// IsNullableWrapper reports whether the type is a pointer.
func (d *TypeDescriptor) IsNullableWrapper() bool { return d.Kind == reflect.Pointer }

// IsEnumerableLike reports whether values of the type can be ranged over
// without being a slice, array, map or string.
func (d *TypeDescriptor) IsEnumerableLike() bool {
	return d.Kind == reflect.Chan || d.Iterable
}

// Satisfies reports whether the type implements the named well-known
// interface.
func (d *TypeDescriptor) Satisfies(iface string) bool {
	for _, name := range d.Implements {
		if name == iface {
			return true
		}
	}
	return false
}
