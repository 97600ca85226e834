package ir

import "reflect"

// SimpleKind identifies an entry of the simple type registry.
type SimpleKind int

const (
	SimpleBool SimpleKind = iota
	SimpleInt
	SimpleUint
	SimpleFloat
	SimpleString
	SimpleBytes    // []byte, base64 string on the wire
	SimpleTime     // time.Time
	SimpleUUID     // uuid.UUID
	SimpleURL      // url.URL
	SimpleVersion  // semver.Version
	SimpleBigInt   // big.Int
	SimpleBigFloat // big.Float, the decimal type
	SimpleText     // encoding.TextMarshaler implementations
	SimpleJSON     // json.Marshaler implementations
)

var simpleKindNames = [...]string{
	SimpleBool:     "Bool",
	SimpleInt:      "Int",
	SimpleUint:     "Uint",
	SimpleFloat:    "Float",
	SimpleString:   "String",
	SimpleBytes:    "Bytes",
	SimpleTime:     "Time",
	SimpleUUID:     "UUID",
	SimpleURL:      "URL",
	SimpleVersion:  "Version",
	SimpleBigInt:   "BigInt",
	SimpleBigFloat: "BigFloat",
	SimpleText:     "Text",
	SimpleJSON:     "JSON",
}

// String returns the string representation of the simple kind.
func (k SimpleKind) String() string {
	if k >= 0 && int(k) < len(simpleKindNames) {
		return simpleKindNames[k]
	}
	return "Unknown"
}

// SimpleType is a registry entry: the runtime helper that builds the
// metadata for a simple type.
type SimpleType struct {
	Kind SimpleKind

	// Helper is the runtime function name. It is also the String of Kind.
	Helper string

	// Generic is set when Helper takes the Go type as its type argument
	// (jsonmeta.Int[pkg.Level]); otherwise Helper is called without one
	// (jsonmeta.Time).
	Generic bool
}

// wellKnown maps the fixed simple types by identity.
var wellKnown = map[TypeID]SimpleKind{
	"time.Time":                             SimpleTime,
	"github.com/google/uuid.UUID":           SimpleUUID,
	"net/url.URL":                           SimpleURL,
	"github.com/Masterminds/semver.Version": SimpleVersion,
	"math/big.Int":                          SimpleBigInt,
	"math/big.Float":                        SimpleBigFloat,
}

// LookupSimple reports whether the type is in the simple type registry.
// Simple types need no generated metadata; callers reference the runtime
// helper directly.
func LookupSimple(d *TypeDescriptor) (SimpleType, bool) {
	if d == nil {
		return SimpleType{}, false
	}
	if k, ok := wellKnown[d.ID]; ok {
		return SimpleType{Kind: k, Helper: k.String()}, true
	}
	if d.Kind == reflect.Pointer || d.Kind == reflect.Interface {
		return SimpleType{}, false
	}
	if d.Satisfies(JSONMarshaler) {
		return generic(SimpleJSON), true
	}
	if d.Satisfies(TextMarshaler) {
		return generic(SimpleText), true
	}

	switch d.Kind {
	case reflect.Bool:
		return generic(SimpleBool), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return generic(SimpleInt), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return generic(SimpleUint), true
	case reflect.Float32, reflect.Float64:
		return generic(SimpleFloat), true
	case reflect.String:
		return generic(SimpleString), true
	case reflect.Slice:
		if d.Elem == "uint8" {
			return generic(SimpleBytes), true
		}
	}
	return SimpleType{}, false
}

func generic(k SimpleKind) SimpleType {
	return SimpleType{Kind: k, Helper: k.String(), Generic: true}
}

// KeyCodec returns the runtime key codec for a simple type usable as a
// JSON object member name. Only string and integer kinds qualify.
func (s SimpleType) KeyCodec() (string, bool) {
	switch s.Kind {
	case SimpleString:
		return "StringKey", true
	case SimpleInt:
		return "IntKey", true
	case SimpleUint:
		return "UintKey", true
	default:
		return "", false
	}
}
