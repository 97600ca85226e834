// Package provider implements the type introspection port: the narrow
// interface through which the walker reads Go types. Two implementations
// exist, one backed by runtime reflection and one backed by go/types.
//
// Both derive type identity from ir.TypeExpr.ID, so the same Go type gets
// the same ir.TypeID no matter which provider described it.
package provider

import (
	"errors"
	"strings"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// Port describes types by identity.
//
// Describe returns the same descriptor for repeated calls with the same ID.
// IDs are obtained from the provider itself: from a Root method or from a
// descriptor's Elem, Key or Fields.
type Port interface {
	Describe(id ir.TypeID) (*ir.TypeDescriptor, error)
}

// ErrUnknownType is returned by Describe for an ID the provider never
// handed out.
var ErrUnknownType = errors.New("unknown type")

// parseJSONTag parses a json struct tag and returns the wire name and
// whether the field is skipped. Options after the name are ignored.
func parseJSONTag(tag, fieldName string) (jsonName string, skip bool) {
	if tag == "" {
		return fieldName, false
	}

	parts := strings.Split(tag, ",")
	jsonName = parts[0]

	// If name is exactly "-" and there are no options, skip the field
	if jsonName == "-" && len(parts) == 1 {
		return "", true
	}

	// If name is empty string (e.g., ",omitempty"), use field name
	if jsonName == "" {
		jsonName = fieldName
	}

	return jsonName, false
}
