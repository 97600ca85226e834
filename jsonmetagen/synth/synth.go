// Package synth turns a walked type into its artifact: the structured
// metadata unit the renderers emit as source.
//
// Synthesis is a pure function of its input and of identifier resolution.
// It never decides whether a type is generated; the walker does.
package synth

import (
	"fmt"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// Input is one walked type.
type Input struct {
	Identifier string
	Descriptor *ir.TypeDescriptor
	Shape      ir.Shape
}

// Resolver resolves the metadata reference for a type: a simple helper, or
// the identifier of a registered or still pending entry.
type Resolver interface {
	Resolve(id ir.TypeID) (ir.MetaRef, error)
}

// Synthesize builds the artifact for in.
func Synthesize(in Input, r Resolver) (*ir.Artifact, error) {
	d := in.Descriptor
	a := &ir.Artifact{
		Identifier: in.Identifier,
		ID:         d.ID,
		Type:       d.Expr,
		Shape:      in.Shape,
	}

	var err error
	switch in.Shape {
	case ir.ShapeObject:
		err = synthesizeObject(a, d, r)
	case ir.ShapeArray:
		a.Len = d.Len
		a.Element, err = element(r, d.Elem)
	case ir.ShapeList, ir.ShapePointer:
		a.Element, err = element(r, d.Elem)
	case ir.ShapeDictionary:
		err = synthesizeDictionary(a, d, r)
	default:
		err = fmt.Errorf("shape %s has no metadata", in.Shape)
	}
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", d.ID, err)
	}
	return a, nil
}

// synthesizeObject emits one binding per member. Serialize statements and
// deserialize branches follow declaration order. Wire names must be unique.
func synthesizeObject(a *ir.Artifact, d *ir.TypeDescriptor, r Resolver) error {
	a.Construct = &ir.Construct{Type: d.Expr}

	if m, first, ok := DuplicateWireName(d.Fields); ok {
		return fmt.Errorf("members %s and %s share the JSON name %q", first.Name, m.Name, m.WireName)
	}
	for i, m := range d.Fields {
		ref, err := r.Resolve(m.Type)
		if err != nil {
			return fmt.Errorf("member %s: %w", m.Name, err)
		}
		a.Bindings = append(a.Bindings, ir.PropertyBinding{
			Name:  m.WireName,
			Field: m.Name,
			Meta:  ref,
		})
		a.Serialize = append(a.Serialize, ir.SerializeStmt{Name: m.WireName, Property: i})
		a.Deserialize = append(a.Deserialize, ir.DeserializeBranch{Match: m.WireName, Property: i})
	}
	return nil
}

// DuplicateWireName returns the first member whose wire name was already
// used by an earlier member, together with that earlier member. A JSON
// object cannot carry the same member name twice.
func DuplicateWireName(members []ir.Member) (dup, first ir.Member, ok bool) {
	seen := make(map[string]int, len(members))
	for i, m := range members {
		if j, taken := seen[m.WireName]; taken {
			return m, members[j], true
		}
		seen[m.WireName] = i
	}
	return ir.Member{}, ir.Member{}, false
}

func synthesizeDictionary(a *ir.Artifact, d *ir.TypeDescriptor, r Resolver) error {
	key, err := r.Resolve(d.Key)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	if !key.IsSimple() {
		return fmt.Errorf("key type %s is not simple", d.Key)
	}
	helper, ok := key.Simple.KeyCodec()
	if !ok {
		return fmt.Errorf("key type %s cannot name a JSON member", d.Key)
	}
	a.Key = &ir.KeyCodec{Helper: helper, Type: key.Type}

	a.Element, err = element(r, d.Elem)
	return err
}

func element(r Resolver, id ir.TypeID) (*ir.MetaRef, error) {
	ref, err := r.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("element: %w", err)
	}
	return &ref, nil
}
