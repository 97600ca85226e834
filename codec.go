package jsonmeta

import (
	"bytes"
	"errors"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// Marshal writes v as a JSON document using info.
func Marshal[T any](info *TypeInfo[T], v *T) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, info, v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Encode writes v to w as a single JSON value followed by a newline.
func Encode[T any](w io.Writer, info *TypeInfo[T], v *T) error {
	if info == nil || info.Write == nil {
		return NewError(CodeInvalidArgument, "metadata has no write routine")
	}
	enc := jsontext.NewEncoder(w)
	return info.Write(enc, v)
}

// Unmarshal reads a complete JSON document into a new value.
// On failure it returns a nil value and an error matching ErrMalformedDocument;
// partially read values are never returned.
func Unmarshal[T any](info *TypeInfo[T], data []byte) (*T, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	v, err := decode(dec, info)
	if err != nil {
		return nil, err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		return nil, Malformedf("unexpected data after top-level value")
	}
	return v, nil
}

// Decode reads the next JSON value from r into a new value.
func Decode[T any](r io.Reader, info *TypeInfo[T]) (*T, error) {
	return decode(jsontext.NewDecoder(r), info)
}

func decode[T any](dec *jsontext.Decoder, info *TypeInfo[T]) (*T, error) {
	if info == nil || info.Read == nil {
		return nil, NewError(CodeInvalidArgument, "metadata has no read routine")
	}
	v := info.construct()
	if err := info.Read(dec, v); err != nil {
		return nil, wrapRead(err)
	}
	return v, nil
}

// ReadObjectStart reads the token that opens an object.
func ReadObjectStart(dec *jsontext.Decoder) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return wrapRead(err)
	}
	if tok.Kind() != '{' {
		return Malformedf("expected object start, found %s", kindName(tok.Kind()))
	}
	return nil
}

// ReadPropertyName reads the next member name of an object.
// It returns ok == false once the closing token of the object was read.
func ReadPropertyName(dec *jsontext.Decoder) (name string, ok bool, err error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return "", false, wrapRead(err)
	}
	switch tok.Kind() {
	case '}':
		return "", false, nil
	case '"':
		return tok.String(), true, nil
	default:
		return "", false, Malformedf("expected property name, found %s", kindName(tok.Kind()))
	}
}

// SkipValue reads and discards exactly one value.
func SkipValue(dec *jsontext.Decoder) error {
	return wrapRead(dec.SkipValue())
}

// readNull consumes a null token if one is next.
func readNull(dec *jsontext.Decoder) (bool, error) {
	if dec.PeekKind() != 'n' {
		return false, nil
	}
	if _, err := dec.ReadToken(); err != nil {
		return false, wrapRead(err)
	}
	return true, nil
}

// readToken reads one token and checks its kind against want.
func readToken(dec *jsontext.Decoder, what string, want ...jsontext.Kind) (jsontext.Token, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return jsontext.Token{}, wrapRead(err)
	}
	for _, k := range want {
		if tok.Kind() == k {
			return tok, nil
		}
	}
	return jsontext.Token{}, Malformedf("expected %s, found %s", what, kindName(tok.Kind()))
}
