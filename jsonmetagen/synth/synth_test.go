package synth

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// mapResolver resolves simple kinds and identifiers from fixed tables.
type mapResolver struct {
	simple      map[ir.TypeID]ir.SimpleType
	identifiers map[ir.TypeID]string
}

func (r mapResolver) Resolve(id ir.TypeID) (ir.MetaRef, error) {
	if st, ok := r.simple[id]; ok {
		return ir.MetaRef{Type: ir.Basic(string(id)), Simple: &st}, nil
	}
	if ident, ok := r.identifiers[id]; ok {
		return ir.MetaRef{Type: ir.Named("example.com/m", string(id)), Identifier: ident}, nil
	}
	return ir.MetaRef{}, errors.New("unresolved " + string(id))
}

var resolver = mapResolver{
	simple: map[ir.TypeID]ir.SimpleType{
		"int":    {Kind: ir.SimpleInt, Helper: "Int", Generic: true},
		"string": {Kind: ir.SimpleString, Helper: "String", Generic: true},
		"bool":   {Kind: ir.SimpleBool, Helper: "Bool", Generic: true},
	},
	identifiers: map[ir.TypeID]string{
		"Node": "PtrToNode",
	},
}

func TestSynthesize_Object(t *testing.T) {
	expr := ir.Named("example.com/m", "Node")
	d := &ir.TypeDescriptor{
		ID:   expr.ID(),
		Expr: expr,
		Name: "Node",
		Kind: reflect.Struct,
		Fields: []ir.Member{
			{Name: "Value", WireName: "value", Type: "int"},
			{Name: "Next", WireName: "next", Type: "Node"},
			{Name: "Label", WireName: "label", Type: "string"},
		},
	}

	a, err := Synthesize(Input{Identifier: "Node", Descriptor: d, Shape: ir.ShapeObject}, resolver)
	require.NoError(t, err)

	assert.Equal(t, "Node", a.Identifier)
	require.NotNil(t, a.Construct)
	assert.Equal(t, expr, a.Construct.Type)

	require.Len(t, a.Bindings, 3)
	assert.Equal(t, "Value", a.Bindings[0].Field)
	assert.Equal(t, "value", a.Bindings[0].Name)
	assert.Equal(t, "PtrToNode", a.Bindings[1].Meta.Identifier)

	assert.Equal(t, []ir.SerializeStmt{
		{Name: "value", Property: 0},
		{Name: "next", Property: 1},
		{Name: "label", Property: 2},
	}, a.Serialize)
	assert.Equal(t, []ir.DeserializeBranch{
		{Match: "value", Property: 0},
		{Match: "next", Property: 1},
		{Match: "label", Property: 2},
	}, a.Deserialize)
}

func TestSynthesize_Collections(t *testing.T) {
	tests := []struct {
		name  string
		shape ir.Shape
		desc  *ir.TypeDescriptor
		check func(t *testing.T, a *ir.Artifact)
	}{
		{
			name:  "list",
			shape: ir.ShapeList,
			desc:  &ir.TypeDescriptor{ID: "[]int", Expr: ir.SliceOf(ir.Basic("int")), Kind: reflect.Slice, Elem: "int"},
			check: func(t *testing.T, a *ir.Artifact) {
				require.NotNil(t, a.Element)
				assert.Equal(t, "Int", a.Element.Simple.Helper)
			},
		},
		{
			name:  "array",
			shape: ir.ShapeArray,
			desc:  &ir.TypeDescriptor{ID: "[3]Node", Expr: ir.ArrayOf(3, ir.Basic("Node")), Kind: reflect.Array, Elem: "Node", Len: 3},
			check: func(t *testing.T, a *ir.Artifact) {
				assert.Equal(t, 3, a.Len)
				assert.Equal(t, "PtrToNode", a.Element.Identifier)
			},
		},
		{
			name:  "dictionary",
			shape: ir.ShapeDictionary,
			desc:  &ir.TypeDescriptor{ID: "map[string]bool", Expr: ir.MapOf(ir.Basic("string"), ir.Basic("bool")), Kind: reflect.Map, Key: "string", Elem: "bool"},
			check: func(t *testing.T, a *ir.Artifact) {
				require.NotNil(t, a.Key)
				assert.Equal(t, "StringKey", a.Key.Helper)
				assert.Equal(t, "Bool", a.Element.Simple.Helper)
			},
		},
		{
			name:  "pointer",
			shape: ir.ShapePointer,
			desc:  &ir.TypeDescriptor{ID: "*Node", Expr: ir.PointerTo(ir.Basic("Node")), Kind: reflect.Pointer, Elem: "Node"},
			check: func(t *testing.T, a *ir.Artifact) {
				assert.Equal(t, "PtrToNode", a.Element.Identifier)
				assert.Nil(t, a.Construct)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Synthesize(Input{Identifier: "X", Descriptor: tt.desc, Shape: tt.shape}, resolver)
			require.NoError(t, err)
			tt.check(t, a)
		})
	}
}

func TestSynthesize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		shape ir.Shape
		desc  *ir.TypeDescriptor
	}{
		{"duplicate wire name", ir.ShapeObject, &ir.TypeDescriptor{ID: "m.A", Fields: []ir.Member{
			{Name: "A", WireName: "x", Type: "int"},
			{Name: "B", WireName: "x", Type: "int"},
		}}},
		{"unresolved member", ir.ShapeObject, &ir.TypeDescriptor{ID: "m.A", Fields: []ir.Member{{Name: "B", Type: "m.B"}}}},
		{"non-simple key", ir.ShapeDictionary, &ir.TypeDescriptor{ID: "map[Node]int", Key: "Node", Elem: "int"}},
		{"bool key", ir.ShapeDictionary, &ir.TypeDescriptor{ID: "map[bool]int", Key: "bool", Elem: "int"}},
		{"unsupported shape", ir.ShapeUnsupportedEnumerable, &ir.TypeDescriptor{ID: "m.Ring"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(Input{Identifier: "X", Descriptor: tt.desc, Shape: tt.shape}, resolver)
			assert.Error(t, err)
		})
	}
}

func TestDuplicateWireName(t *testing.T) {
	members := []ir.Member{
		{Name: "A", WireName: "a"},
		{Name: "B", WireName: "x"},
		{Name: "C", WireName: "X"},
		{Name: "D", WireName: "x"},
	}
	dup, first, ok := DuplicateWireName(members)
	require.True(t, ok)
	assert.Equal(t, "D", dup.Name)
	assert.Equal(t, "B", first.Name)

	_, _, ok = DuplicateWireName(members[:3])
	assert.False(t, ok, "names differing in case are distinct")
}
