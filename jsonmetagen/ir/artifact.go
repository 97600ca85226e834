package ir

// Artifact is the synthesized metadata unit for one registered type. It is
// a small tree of binding, serialize and deserialize nodes; renderers turn
// it into source text.
type Artifact struct {
	// Identifier is the name assigned by the session registry.
	Identifier string

	ID    TypeID
	Type  *TypeExpr
	Shape Shape

	// Construct is set for objects.
	Construct *Construct

	// Bindings holds one binding per member, in declaration order.
	Bindings []PropertyBinding

	// Serialize writes the members in declaration order.
	Serialize []SerializeStmt

	// Deserialize holds the name dispatch of the read routine, one branch
	// per member. Names without a branch are skipped.
	Deserialize []DeserializeBranch

	// Element is the element metadata of arrays, lists and pointers, and
	// the value metadata of dictionaries.
	Element *MetaRef

	// Key is the key codec of dictionaries.
	Key *KeyCodec

	// Len is the array length.
	Len int
}

// Construct creates a zero value with the type's composite literal.
type Construct struct {
	Type *TypeExpr
}

// PropertyBinding binds one struct field.
type PropertyBinding struct {
	// Name is the wire name.
	Name string

	// Field is the Go field name used by the getter and setter.
	Field string

	// Meta references the field type's metadata.
	Meta MetaRef
}

// SerializeStmt writes Name followed by the value of binding Property.
type SerializeStmt struct {
	Name     string
	Property int
}

// DeserializeBranch reads the value of binding Property when the member
// name equals Match.
type DeserializeBranch struct {
	Match    string
	Property int
}

// MetaRef references the metadata for a type: either a simple type's
// runtime helper or a registry identifier. The identifier may belong to a
// frame that was still pending when the reference was made.
type MetaRef struct {
	Type       *TypeExpr
	Simple     *SimpleType
	Identifier string
}

// IsSimple reports whether the reference resolves to a runtime helper.
func (r MetaRef) IsSimple() bool { return r.Simple != nil }

// KeyCodec names the runtime codec for dictionary keys.
type KeyCodec struct {
	Helper string
	Type   *TypeExpr
}

// References returns every metadata reference held by the artifact.
func (a *Artifact) References() []MetaRef {
	var refs []MetaRef
	for _, b := range a.Bindings {
		refs = append(refs, b.Meta)
	}
	if a.Element != nil {
		refs = append(refs, *a.Element)
	}
	return refs
}
