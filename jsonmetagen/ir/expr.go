package ir

import (
	"go/token"
	"strconv"
	"strings"
)

// ExprKind identifies the form of a TypeExpr.
type ExprKind int

const (
	ExprBasic   ExprKind = iota // Predeclared type (int, string, ...)
	ExprNamed                   // Defined type, possibly instantiated with type arguments
	ExprSlice                   // []Elem
	ExprArray                   // [Len]Elem
	ExprMap                     // map[Key]Elem
	ExprPointer                 // *Elem
	ExprOther                   // Anything without a JSON mapping (func, chan, interface literal, ...)
)

// String returns the string representation of the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprBasic:
		return "Basic"
	case ExprNamed:
		return "Named"
	case ExprSlice:
		return "Slice"
	case ExprArray:
		return "Array"
	case ExprMap:
		return "Map"
	case ExprPointer:
		return "Pointer"
	case ExprOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// TypeExpr spells a Go type. It is the single source of type identity:
// providers build a TypeExpr and derive the TypeID from it.
type TypeExpr struct {
	Kind ExprKind

	// Name is the predeclared name for ExprBasic, the type name without
	// type arguments for ExprNamed, and the Go spelling for ExprOther.
	Name string

	// Package is the import path of an ExprNamed type. Empty for
	// predeclared named types such as error.
	Package string

	// Args holds the type arguments of an instantiated generic type,
	// in declaration order.
	Args []*TypeExpr

	// Key is the key type of an ExprMap.
	Key *TypeExpr

	// Elem is the element type of slices, arrays and pointers, and the
	// value type of maps.
	Elem *TypeExpr

	// Len is the length of an ExprArray.
	Len int
}

// Basic returns the expression for a predeclared type.
func Basic(name string) *TypeExpr {
	return &TypeExpr{Kind: ExprBasic, Name: name}
}

// Named returns the expression for a defined type.
func Named(pkg, name string, args ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprNamed, Package: pkg, Name: name, Args: args}
}

// SliceOf returns the expression for []elem.
func SliceOf(elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprSlice, Elem: elem}
}

// ArrayOf returns the expression for [n]elem.
func ArrayOf(n int, elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprArray, Len: n, Elem: elem}
}

// MapOf returns the expression for map[key]elem.
func MapOf(key, elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprMap, Key: key, Elem: elem}
}

// PointerTo returns the expression for *elem.
func PointerTo(elem *TypeExpr) *TypeExpr {
	return &TypeExpr{Kind: ExprPointer, Elem: elem}
}

// Other returns an expression for a type with no JSON mapping, keeping
// its Go spelling for diagnostics.
func Other(spelling string) *TypeExpr {
	return &TypeExpr{Kind: ExprOther, Name: spelling}
}

// ID returns the canonical structural identity of the type.
func (e *TypeExpr) ID() TypeID {
	return TypeID(e.format(func(pkg string) string { return pkg }))
}

// String returns the type spelled with package base names, as a Go
// programmer would read it ("pair.Pair[int,string]").
func (e *TypeExpr) String() string {
	return e.format(baseName)
}

// ShortString returns the type spelled without any package qualifier
// ("Pair[int,string]", "[]Item").
func (e *TypeExpr) ShortString() string {
	return e.format(func(string) string { return "" })
}

// Spelling returns the type as Go source. qualify maps an import path to
// the package name used in the generated file, or "" for the file's own
// package.
func (e *TypeExpr) Spelling(qualify func(pkg string) string) string {
	return e.format(qualify)
}

func (e *TypeExpr) format(qualify func(pkg string) string) string {
	var sb strings.Builder
	e.write(&sb, qualify)
	return sb.String()
}

func (e *TypeExpr) write(sb *strings.Builder, qualify func(pkg string) string) {
	if e == nil {
		sb.WriteString("invalid")
		return
	}
	switch e.Kind {
	case ExprNamed:
		if e.Package != "" {
			if q := qualify(e.Package); q != "" {
				sb.WriteString(q)
				sb.WriteByte('.')
			}
		}
		sb.WriteString(e.Name)
		if len(e.Args) > 0 {
			sb.WriteByte('[')
			for i, arg := range e.Args {
				if i > 0 {
					sb.WriteByte(',')
				}
				arg.write(sb, qualify)
			}
			sb.WriteByte(']')
		}
	case ExprSlice:
		sb.WriteString("[]")
		e.Elem.write(sb, qualify)
	case ExprArray:
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(e.Len))
		sb.WriteByte(']')
		e.Elem.write(sb, qualify)
	case ExprMap:
		sb.WriteString("map[")
		e.Key.write(sb, qualify)
		sb.WriteByte(']')
		e.Elem.write(sb, qualify)
	case ExprPointer:
		sb.WriteByte('*')
		e.Elem.write(sb, qualify)
	default:
		sb.WriteString(e.Name)
	}
}

// Packages returns the import paths referenced by the expression, in
// first-use order.
func (e *TypeExpr) Packages() []string {
	var pkgs []string
	seen := make(map[string]bool)
	var walk func(*TypeExpr)
	walk = func(x *TypeExpr) {
		if x == nil {
			return
		}
		if x.Kind == ExprNamed && x.Package != "" && !seen[x.Package] {
			seen[x.Package] = true
			pkgs = append(pkgs, x.Package)
		}
		for _, arg := range x.Args {
			walk(arg)
		}
		walk(x.Key)
		walk(x.Elem)
	}
	walk(e)
	return pkgs
}

// AccessibleFrom reports whether the type can be spelled in a file of
// package pkg: every named type it mentions is exported or declared in pkg.
func (e *TypeExpr) AccessibleFrom(pkg string) bool {
	if e == nil {
		return true
	}
	if e.Kind == ExprNamed && e.Package != "" && e.Package != pkg && !token.IsExported(e.Name) {
		return false
	}
	for _, arg := range e.Args {
		if !arg.AccessibleFrom(pkg) {
			return false
		}
	}
	return e.Key.AccessibleFrom(pkg) && e.Elem.AccessibleFrom(pkg)
}

// baseName returns the last element of an import path, skipping a major
// version suffix ("example.com/api/v2" -> "api").
func baseName(pkg string) string {
	parts := strings.Split(pkg, "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && isMajorVersion(name) {
		name = parts[len(parts)-2]
	}
	return name
}

// PackageName returns the conventional package name for an import path.
func PackageName(pkg string) string {
	name := baseName(pkg)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}
