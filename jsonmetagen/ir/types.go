// Package ir defines the intermediate representation shared by the jsonmeta
// generator stages: type descriptors produced by providers, the shapes the
// walker assigns to them, and the artifacts the synthesizer emits for the
// renderer.
package ir

// TypeID is the structural identity of a Go type.
//
// A TypeID is always produced by TypeExpr.ID, so two providers describing
// the same type produce the same TypeID. Examples:
// "example.com/shapes.Point", "[]example.com/shapes.Point",
// "map[string]int", "*example.com/list.Node",
// "example.com/pair.Pair[int,string]".
type TypeID string

// String returns the identity as a string.
func (id TypeID) String() string { return string(id) }

// Source represents source code location information.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}

// PackageInfo describes the Go package generated code is written into.
type PackageInfo struct {
	// Path is the import path (e.g., "github.com/foo/bar").
	Path string

	// Name is the package name (e.g., "bar").
	Name string
}

// IsZero returns true if the package info is empty.
func (p PackageInfo) IsZero() bool {
	return p.Path == "" && p.Name == ""
}
