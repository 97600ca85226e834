// Package jsonmeta is the runtime half of the jsonmeta code generator.
//
// Code generated by jsonmetagen builds one TypeInfo per reachable Go type.
// A TypeInfo knows how to construct a value, write it to a JSON token stream
// and read it back. Generated code never uses reflection; the helpers in this
// package cover the simple types and the collection shapes (slices, fixed
// arrays, maps and pointers) so that generated routines only deal with
// struct members.
//
// The wire format is a JSON object token stream: object start, then each
// member's name followed by its value in declaration order, then object end.
package jsonmeta

import (
	"github.com/go-json-experiment/json/jsontext"
)

// Kind classifies a TypeInfo by the JSON shape it reads and writes.
type Kind int

const (
	KindValue   Kind = iota // A simple value (number, string, boolean)
	KindObject              // A struct with named members
	KindArray               // A fixed-length Go array
	KindList                // A Go slice
	KindMap                 // A Go map with string or integer keys
	KindPointer             // A pointer; nil is written as null
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindPointer:
		return "Pointer"
	default:
		return "Unknown"
	}
}

// Metadata is the type-erased view of a TypeInfo.
type Metadata interface {
	TypeName() string
	TypeKind() Kind
}

// TypeInfo holds the metadata for one Go type T.
//
// Object metadata carries one Property per serialized member, in declaration
// order. Write and Read are always set; New is set for objects.
type TypeInfo[T any] struct {
	Name       string
	Kind       Kind
	Properties []Property[T]

	// New constructs a fresh value.
	New func() *T

	// Write writes v as exactly one JSON value.
	Write func(enc *jsontext.Encoder, v *T) error

	// Read reads exactly one JSON value into v.
	Read func(dec *jsontext.Decoder, v *T) error
}

// TypeName returns the name of the described type.
func (ti *TypeInfo[T]) TypeName() string { return ti.Name }

// TypeKind returns the kind of the described type.
func (ti *TypeInfo[T]) TypeKind() Kind { return ti.Kind }

// Property returns the property with the given wire name.
func (ti *TypeInfo[T]) Property(name string) (Property[T], bool) {
	for _, p := range ti.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property[T]{}, false
}

// construct returns a new zero value, using New when set.
func (ti *TypeInfo[T]) construct() *T {
	if ti.New != nil {
		return ti.New()
	}
	return new(T)
}
