package jsonmeta

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"strconv"
	"time"

	"github.com/Masterminds/semver"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
)

// Signed is the set of signed integer types.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is the set of unsigned integer types.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Floating is the set of floating point types.
type Floating interface {
	~float32 | ~float64
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

// Bool returns the metadata for a boolean type.
func Bool[T ~bool]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			return enc.WriteToken(jsontext.Bool(bool(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			tok, err := readToken(dec, "boolean", 't', 'f')
			if err != nil {
				return err
			}
			*v = T(tok.Bool())
			return nil
		},
	}
}

// Int returns the metadata for a signed integer type.
// Reading a number that does not fit T is a malformed document.
func Int[T Signed]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			return enc.WriteToken(jsontext.Int(int64(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			s, err := readNumber(dec)
			if err != nil {
				return err
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || int64(T(n)) != n {
				return Malformedf("number %s does not fit %s", s, typeName[T]())
			}
			*v = T(n)
			return nil
		},
	}
}

// Uint returns the metadata for an unsigned integer type.
func Uint[T Unsigned]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			return enc.WriteToken(jsontext.Uint(uint64(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			s, err := readNumber(dec)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil || uint64(T(n)) != n {
				return Malformedf("number %s does not fit %s", s, typeName[T]())
			}
			*v = T(n)
			return nil
		},
	}
}

// Float returns the metadata for a floating point type.
func Float[T Floating]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			return enc.WriteToken(jsontext.Float(float64(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			s, err := readNumber(dec)
			if err != nil {
				return err
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Malformedf("number %s does not fit %s", s, typeName[T]())
			}
			*v = T(f)
			return nil
		},
	}
}

// String returns the metadata for a string type.
func String[T ~string]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			return enc.WriteToken(jsontext.String(string(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			tok, err := readToken(dec, "string", '"')
			if err != nil {
				return err
			}
			*v = T(tok.String())
			return nil
		},
	}
}

// Bytes returns the metadata for a byte slice type, written as a
// base64 string. A nil slice is written as null.
func Bytes[T ~[]byte]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			if *v == nil {
				return enc.WriteToken(jsontext.Null)
			}
			return enc.WriteToken(jsontext.String(base64.StdEncoding.EncodeToString(*v)))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			if isNull, err := readNull(dec); err != nil || isNull {
				*v = nil
				return err
			}
			tok, err := readToken(dec, "base64 string", '"')
			if err != nil {
				return err
			}
			b, err := base64.StdEncoding.DecodeString(tok.String())
			if err != nil {
				return &Error{Code: CodeMalformedDocument, Message: "invalid base64", Err: err}
			}
			*v = T(b)
			return nil
		},
	}
}

// Time returns the metadata for time.Time, written in RFC 3339 format.
func Time() *TypeInfo[time.Time] {
	return textValue("time.Time",
		func(v *time.Time) (string, error) {
			b, err := v.MarshalText()
			return string(b), err
		},
		func(s string, v *time.Time) error {
			return v.UnmarshalText([]byte(s))
		})
}

// UUID returns the metadata for uuid.UUID.
func UUID() *TypeInfo[uuid.UUID] {
	return textValue("uuid.UUID",
		func(v *uuid.UUID) (string, error) {
			return v.String(), nil
		},
		func(s string, v *uuid.UUID) error {
			id, err := uuid.Parse(s)
			if err != nil {
				return err
			}
			*v = id
			return nil
		})
}

// URL returns the metadata for url.URL.
func URL() *TypeInfo[url.URL] {
	return textValue("url.URL",
		func(v *url.URL) (string, error) {
			return v.String(), nil
		},
		func(s string, v *url.URL) error {
			u, err := url.Parse(s)
			if err != nil {
				return err
			}
			*v = *u
			return nil
		})
}

// Version returns the metadata for semver.Version.
func Version() *TypeInfo[semver.Version] {
	return textValue("semver.Version",
		func(v *semver.Version) (string, error) {
			return v.String(), nil
		},
		func(s string, v *semver.Version) error {
			parsed, err := semver.NewVersion(s)
			if err != nil {
				return err
			}
			*v = *parsed
			return nil
		})
}

// BigInt returns the metadata for big.Int, written as a JSON number of
// arbitrary size.
func BigInt() *TypeInfo[big.Int] {
	return &TypeInfo[big.Int]{
		Name: "big.Int",
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *big.Int) error {
			return enc.WriteValue(jsontext.Value(v.String()))
		},
		Read: func(dec *jsontext.Decoder, v *big.Int) error {
			s, err := readNumber(dec)
			if err != nil {
				return err
			}
			if _, ok := v.SetString(s, 10); !ok {
				return Malformedf("number %s is not an integer", s)
			}
			return nil
		},
	}
}

// BigFloat returns the metadata for big.Float, the decimal type. Values are
// written as the exact decimal expansion of their binary value, whatever
// their precision. Reading into a zero big.Float sets the precision to the
// one that holds the number exactly, and at least 64 bits; a value with a
// precision already set is rounded to it. Infinities cannot be written.
func BigFloat() *TypeInfo[big.Float] {
	return &TypeInfo[big.Float]{
		Name: "big.Float",
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *big.Float) error {
			if v.IsInf() {
				return Errorf(CodeInvalidArgument, "%s has no JSON representation", v.String())
			}
			return enc.WriteValue(jsontext.Value(v.Text('g', exactDigits(v))))
		},
		Read: func(dec *jsontext.Decoder, v *big.Float) error {
			s, err := readNumber(dec)
			if err != nil {
				return err
			}
			return parseDecimal(s, v)
		},
	}
}

// exactDigits returns a number of significant decimal digits that spells
// the finite value v without rounding.
func exactDigits(v *big.Float) int {
	if v.Sign() == 0 {
		return 1
	}
	prec := int(v.MinPrec())
	exp := v.MantExp(nil)
	// v is an integer of prec bits scaled by 2^(exp-prec).
	frac := prec - exp
	if frac <= 0 {
		return int(math.Ceil(float64(exp)*math.Log10(2))) + 1
	}
	return int(math.Ceil(float64(prec)*math.Log10(2)+float64(frac)*math.Log10(5))) + 1
}

// maxExactExp bounds the binary exponent of numbers parsed exactly.
// Larger magnitudes are rounded to 64 bits instead of expanded.
const maxExactExp = 1 << 16

// parseDecimal sets v to the JSON number s.
func parseDecimal(s string, v *big.Float) error {
	f, _, err := big.ParseFloat(s, 10, 64, big.ToNearestEven)
	if err != nil {
		return &Error{Code: CodeMalformedDocument, Message: "number " + s + " is not a decimal", Err: err}
	}
	if exp := f.MantExp(nil); exp > maxExactExp || exp < -maxExactExp {
		v.Set(f)
		return nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Malformedf("number %s is not a decimal", s)
	}
	v.SetRat(r)
	return nil
}

// textValue builds metadata for a type written as a JSON string.
func textValue[T any](name string, format func(*T) (string, error), parse func(string, *T) error) *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: name,
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			s, err := format(v)
			if err != nil {
				return err
			}
			return enc.WriteToken(jsontext.String(s))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			tok, err := readToken(dec, "string", '"')
			if err != nil {
				return err
			}
			if err := parse(tok.String(), v); err != nil {
				return &Error{Code: CodeMalformedDocument, Message: "invalid " + name, Err: err}
			}
			return nil
		},
	}
}

// readNumber reads a JSON number and returns its literal text.
func readNumber(dec *jsontext.Decoder) (string, error) {
	val, err := dec.ReadValue()
	if err != nil {
		return "", wrapRead(err)
	}
	if val.Kind() != '0' {
		return "", Malformedf("expected number, found %s", kindName(val.Kind()))
	}
	return string(val), nil
}

// TextCodec is the constraint for types read and written through
// encoding.TextMarshaler and encoding.TextUnmarshaler.
type TextCodec[T any] interface {
	*T
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

// Text returns the metadata for a type implementing encoding.TextMarshaler
// and encoding.TextUnmarshaler on its pointer, written as a JSON string.
func Text[T any, PT TextCodec[T]]() *TypeInfo[T] {
	return textValue(typeName[T](),
		func(v *T) (string, error) {
			b, err := PT(v).MarshalText()
			return string(b), err
		},
		func(s string, v *T) error {
			return PT(v).UnmarshalText([]byte(s))
		})
}

// JSONCodec is the constraint for types read and written through
// json.Marshaler and json.Unmarshaler.
type JSONCodec[T any] interface {
	*T
	json.Marshaler
	json.Unmarshaler
}

// JSON returns the metadata for a type implementing json.Marshaler and
// json.Unmarshaler on its pointer. The value it produces is written as is.
func JSON[T any, PT JSONCodec[T]]() *TypeInfo[T] {
	return &TypeInfo[T]{
		Name: typeName[T](),
		Kind: KindValue,
		Write: func(enc *jsontext.Encoder, v *T) error {
			b, err := PT(v).MarshalJSON()
			if err != nil {
				return err
			}
			return enc.WriteValue(jsontext.Value(b))
		},
		Read: func(dec *jsontext.Decoder, v *T) error {
			val, err := dec.ReadValue()
			if err != nil {
				return wrapRead(err)
			}
			if err := PT(v).UnmarshalJSON(val.Clone()); err != nil {
				return &Error{Code: CodeMalformedDocument, Message: "invalid " + typeName[T](), Err: err}
			}
			return nil
		},
	}
}
