package golang

import (
	"path"
	"slices"
	"strconv"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

const (
	runtimePath  = "github.com/broady/jsonmeta"
	jsontextPath = "github.com/go-json-experiment/json/jsontext"
)

// importSet assigns a unique package name to every import path used by
// the generated file.
type importSet struct {
	local string // import path of the output package
	names map[string]string
	taken map[string]bool
}

// fixedImports are the imports of the generated code itself. Their names
// are reserved up front so user packages never shadow them.
var fixedImports = map[string]string{
	"sync":       "sync",
	runtimePath:  "jsonmeta",
	jsontextPath: "jsontext",
}

func newImportSet(local, localName string) *importSet {
	s := &importSet{
		local: local,
		names: make(map[string]string),
		taken: map[string]bool{localName: true},
	}
	for _, name := range fixedImports {
		s.taken[name] = true
	}
	return s
}

// add records path and returns its package name.
func (s *importSet) add(pkg string) string {
	if pkg == s.local {
		return ""
	}
	if name, ok := s.names[pkg]; ok {
		return name
	}
	if name, ok := fixedImports[pkg]; ok {
		s.names[pkg] = name
		return name
	}
	base := ir.PackageName(pkg)
	name := base
	for n := 2; s.taken[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	s.taken[name] = true
	s.names[pkg] = name
	return name
}

// qualify is the qualifier for ir.TypeExpr.Spelling.
func (s *importSet) qualify(pkg string) string {
	return s.add(pkg)
}

// specs returns the import lines sorted by path. Paths whose package name
// differs from the last path element get an explicit name.
func (s *importSet) specs() []string {
	paths := make([]string, 0, len(s.names))
	for p := range s.names {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	specs := make([]string, 0, len(paths))
	for _, p := range paths {
		name := s.names[p]
		if name == path.Base(p) {
			specs = append(specs, strconv.Quote(p))
			continue
		}
		specs = append(specs, name+" "+strconv.Quote(p))
	}
	return specs
}
