package jsonmeta

import (
	"slices"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
)

// Slice returns the metadata for a slice type. A nil slice is written as
// null and null reads back as nil; an empty array reads back as an empty,
// non-nil slice.
func Slice[S ~[]E, E any](elem func() *TypeInfo[E]) *TypeInfo[S] {
	return &TypeInfo[S]{
		Name: typeName[S](),
		Kind: KindList,
		Write: func(enc *jsontext.Encoder, v *S) error {
			if *v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			return writeElems(enc, elem(), *v)
		},
		Read: func(dec *jsontext.Decoder, v *S) error {
			if isNull, err := readNull(dec); err != nil || isNull {
				*v = nil
				return err
			}
			if _, err := readToken(dec, "array start", '['); err != nil {
				return err
			}
			info := elem()
			s := make(S, 0)
			for i := 0; dec.PeekKind() != ']'; i++ {
				var e E
				if err := info.Read(dec, &e); err != nil {
					return atProperty(err, strconv.Itoa(i))
				}
				s = append(s, e)
			}
			if _, err := dec.ReadToken(); err != nil {
				return wrapRead(err)
			}
			*v = s
			return nil
		},
	}
}

// Array returns the metadata for a fixed-length array type A of length
// elements. The view function exposes the array as a slice sharing its
// storage. Reading fewer elements leaves the rest at their zero value;
// reading more is a malformed document.
func Array[A, E any](elem func() *TypeInfo[E], length int, view func(*A) []E) *TypeInfo[A] {
	return &TypeInfo[A]{
		Name: typeName[A](),
		Kind: KindArray,
		Write: func(enc *jsontext.Encoder, v *A) error {
			return writeElems(enc, elem(), view(v))
		},
		Read: func(dec *jsontext.Decoder, v *A) error {
			if _, err := readToken(dec, "array start", '['); err != nil {
				return err
			}
			var zero A
			*v = zero
			info := elem()
			elems := view(v)
			for i := 0; dec.PeekKind() != ']'; i++ {
				if i >= length {
					return Malformedf("array has more than %d elements", length)
				}
				if err := info.Read(dec, &elems[i]); err != nil {
					return atProperty(err, strconv.Itoa(i))
				}
			}
			if _, err := dec.ReadToken(); err != nil {
				return wrapRead(err)
			}
			return nil
		},
	}
}

func writeElems[E any](enc *jsontext.Encoder, info *TypeInfo[E], elems []E) error {
	if err := enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for i := range elems {
		if err := info.Write(enc, &elems[i]); err != nil {
			return err
		}
	}
	return enc.WriteToken(jsontext.EndArray)
}

// KeyCodec converts map keys to and from JSON member names.
type KeyCodec[K comparable] struct {
	Format func(K) string
	Parse  func(string) (K, error)
}

// StringKey returns the key codec for string keys.
func StringKey[K ~string]() KeyCodec[K] {
	return KeyCodec[K]{
		Format: func(k K) string { return string(k) },
		Parse:  func(s string) (K, error) { return K(s), nil },
	}
}

// IntKey returns the key codec for signed integer keys.
func IntKey[K Signed]() KeyCodec[K] {
	return KeyCodec[K]{
		Format: func(k K) string { return strconv.FormatInt(int64(k), 10) },
		Parse: func(s string) (K, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || int64(K(n)) != n {
				return 0, Malformedf("map key %q does not fit %s", s, typeName[K]())
			}
			return K(n), nil
		},
	}
}

// UintKey returns the key codec for unsigned integer keys.
func UintKey[K Unsigned]() KeyCodec[K] {
	return KeyCodec[K]{
		Format: func(k K) string { return strconv.FormatUint(uint64(k), 10) },
		Parse: func(s string) (K, error) {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil || uint64(K(n)) != n {
				return 0, Malformedf("map key %q does not fit %s", s, typeName[K]())
			}
			return K(n), nil
		},
	}
}

// Map returns the metadata for a map type, written as a JSON object.
// Members are written in sorted key order. A nil map is written as null.
func Map[M ~map[K]V, K comparable, V any](key KeyCodec[K], value func() *TypeInfo[V]) *TypeInfo[M] {
	return &TypeInfo[M]{
		Name: typeName[M](),
		Kind: KindMap,
		Write: func(enc *jsontext.Encoder, v *M) error {
			if *v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			keys := make(map[string]K, len(*v))
			names := make([]string, 0, len(*v))
			for k := range *v {
				name := key.Format(k)
				keys[name] = k
				names = append(names, name)
			}
			slices.Sort(names)

			info := value()
			if err := enc.WriteToken(jsontext.BeginObject); err != nil {
				return err
			}
			for _, name := range names {
				if err := enc.WriteToken(jsontext.String(name)); err != nil {
					return err
				}
				val := (*v)[keys[name]]
				if err := info.Write(enc, &val); err != nil {
					return err
				}
			}
			return enc.WriteToken(jsontext.EndObject)
		},
		Read: func(dec *jsontext.Decoder, v *M) error {
			if isNull, err := readNull(dec); err != nil || isNull {
				*v = nil
				return err
			}
			if err := ReadObjectStart(dec); err != nil {
				return err
			}
			info := value()
			m := make(M)
			for {
				name, ok, err := ReadPropertyName(dec)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				k, err := key.Parse(name)
				if err != nil {
					return err
				}
				var val V
				if err := info.Read(dec, &val); err != nil {
					return atProperty(err, name)
				}
				m[k] = val
			}
			*v = m
			return nil
		},
	}
}

// Pointer returns the metadata for a pointer type. A nil pointer is written
// as null and null reads back as nil.
func Pointer[E any](elem func() *TypeInfo[E]) *TypeInfo[*E] {
	return &TypeInfo[*E]{
		Name: typeName[*E](),
		Kind: KindPointer,
		Write: func(enc *jsontext.Encoder, v **E) error {
			if *v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			return elem().Write(enc, *v)
		},
		Read: func(dec *jsontext.Decoder, v **E) error {
			if isNull, err := readNull(dec); err != nil || isNull {
				*v = nil
				return err
			}
			info := elem()
			p := info.construct()
			if err := info.Read(dec, p); err != nil {
				return err
			}
			*v = p
			return nil
		},
	}
}
