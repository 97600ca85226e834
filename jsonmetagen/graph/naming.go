package graph

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// naturalName returns the identifier a type gets when nothing else holds
// it: the simple name for named types with type arguments folded in
// (Pair[int,string] is Pair_int_string), and a descriptive name for
// collections (ListOfPoint, Array4OfInt, MapOfStringToInt, PtrToNode).
func naturalName(e *ir.TypeExpr) string {
	return identifierFor(e, false)
}

// qualifiedName is the collision fallback: like naturalName, but named
// types are spelled with their full import path.
func qualifiedName(e *ir.TypeExpr) string {
	return identifierFor(e, true)
}

func identifierFor(e *ir.TypeExpr, qualified bool) string {
	switch e.Kind {
	case ir.ExprNamed:
		name := e.Name
		if qualified {
			name = e.Package + "." + e.Name
		}
		parts := []string{sanitize(name)}
		for _, arg := range e.Args {
			parts = append(parts, identifierFor(arg, qualified))
		}
		return strings.Join(parts, "_")
	case ir.ExprSlice:
		return "ListOf" + exported(identifierFor(e.Elem, qualified))
	case ir.ExprArray:
		return "Array" + strconv.Itoa(e.Len) + "Of" + exported(identifierFor(e.Elem, qualified))
	case ir.ExprMap:
		return "MapOf" + exported(identifierFor(e.Key, qualified)) + "To" + exported(identifierFor(e.Elem, qualified))
	case ir.ExprPointer:
		return "PtrTo" + exported(identifierFor(e.Elem, qualified))
	default:
		return sanitize(e.Name)
	}
}

// sanitize turns a type spelling into a Go identifier fragment.
func sanitize(name string) string {
	result := strings.ReplaceAll(name, ".", "_")
	result = strings.ReplaceAll(result, "/", "_")
	result = strings.ReplaceAll(result, "-", "_")
	result = strings.ReplaceAll(result, "[", "_")
	result = strings.ReplaceAll(result, "]", "")
	result = strings.ReplaceAll(result, ",", "_")
	result = strings.ReplaceAll(result, " ", "")
	result = strings.ReplaceAll(result, "*", "Ptr")
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, result)
}

// exported upper-cases the first letter of s.
func exported(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// assignIdentifier picks the identifier for id: the natural name when it is
// free, otherwise the qualified fallback, otherwise the fallback with the
// first free numeric suffix. It reports the type holding the natural name
// when a rename happened.
func assignIdentifier(r *Registry, id ir.TypeID, e *ir.TypeExpr) (identifier string, collidedWith ir.TypeID) {
	natural := naturalName(e)
	owner, taken := r.Owner(natural)
	if !taken || owner == id {
		return natural, ""
	}

	fallback := qualifiedName(e)
	candidate := fallback
	for n := 2; ; n++ {
		if _, taken := r.Owner(candidate); !taken {
			return candidate, owner
		}
		candidate = fallback + "_" + strconv.Itoa(n)
	}
}
