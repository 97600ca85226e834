package jsonmeta

import (
	"fmt"

	"github.com/go-json-experiment/json/jsontext"
)

// Property binds one member of an object type T.
type Property[T any] struct {
	// Name is the member's wire name.
	Name string

	// Get returns the member value of owner.
	Get func(owner *T) any

	// Set assigns value to the member of owner. It fails if value does not
	// have the member's type.
	Set func(owner *T, value any) error

	// Type returns the metadata of the member's type.
	Type func() Metadata

	write func(enc *jsontext.Encoder, owner *T) error
	read  func(dec *jsontext.Decoder, owner *T) error
}

// Write writes the member value of owner, without its name.
func (p Property[T]) Write(enc *jsontext.Encoder, owner *T) error {
	return p.write(enc, owner)
}

// Read reads one value and assigns it to the member of owner.
func (p Property[T]) Read(dec *jsontext.Decoder, owner *T) error {
	if err := p.read(dec, owner); err != nil {
		return atProperty(err, p.Name)
	}
	return nil
}

// Bind creates the property binding for a member of type F.
// The info function is only called when the property is read or written,
// so it may refer to metadata that is constructed later, including the
// owner's own metadata.
func Bind[T, F any](name string, get func(*T) F, set func(*T, F), info func() *TypeInfo[F]) Property[T] {
	return Property[T]{
		Name: name,
		Get: func(owner *T) any {
			return get(owner)
		},
		Set: func(owner *T, value any) error {
			f, ok := value.(F)
			if !ok {
				return Errorf(CodeInvalidArgument, "property %s: cannot assign %T", name, value)
			}
			set(owner, f)
			return nil
		},
		Type: func() Metadata {
			return info()
		},
		write: func(enc *jsontext.Encoder, owner *T) error {
			f := get(owner)
			if err := info().Write(enc, &f); err != nil {
				return fmt.Errorf("property %s: %w", name, err)
			}
			return nil
		},
		read: func(dec *jsontext.Decoder, owner *T) error {
			var f F
			if err := info().Read(dec, &f); err != nil {
				return err
			}
			set(owner, f)
			return nil
		},
	}
}
