// Package directive finds jsonmeta directives in Go source files.
//
// Directives are line comments in the form:
//
//	//jsonmeta:generate
//	//jsonmeta:context name=APIContext file=api_jsonmeta.go
//
// The generate directive marks the type declaration that follows it as a
// root type. In a grouped declaration it may also precede a single spec.
//
// The context directive configures the generated context type. It belongs
// in the package doc comment and takes key=value options. Only one
// context directive is allowed per package.
package directive

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gorilla/schema"
	"golang.org/x/tools/go/packages"
)

var optionDecoder = schema.NewDecoder()

// Root is a type marked with //jsonmeta:generate.
type Root struct {
	TypeName string         // name of the marked type
	Pos      token.Position // location of the directive
}

// ContextOptions are the options of a //jsonmeta:context directive.
type ContextOptions struct {
	// Name is the generated context type name.
	Name string `schema:"name"`

	// File is the generated file name.
	File string `schema:"file"`

	// Manifest enables the YAML manifest next to the generated file.
	Manifest bool `schema:"manifest"`

	// Provider selects the type provider: "source" or "reflection".
	Provider string `schema:"provider"`

	Pos token.Position `schema:"-"`
}

// Result contains all directives found in a package.
type Result struct {
	// Roots holds the marked types in file and declaration order.
	Roots []Root

	// Context is the //jsonmeta:context directive, if any.
	Context *ContextOptions

	// PackagePath is the import path of the parsed package.
	PackagePath string

	// PackageName is the package clause name.
	PackageName string

	// Dir is the directory containing the package.
	Dir string
}

// Parse scans a Go package for jsonmeta directives.
//
// The pattern follows go command semantics and must match exactly one
// package: "." for the current directory, an import path, or a directory
// path.
//
// Returns an error if:
//   - The package cannot be loaded
//   - Multiple //jsonmeta:context directives are found
//   - A generate directive is not followed by a type declaration
//   - A generate directive marks a generic type
func Parse(pattern string) (*Result, error) {
	return ParseDir(pattern, "")
}

// ParseDir is like Parse but allows specifying a working directory.
// If dir is empty, the current directory is used.
func ParseDir(pattern, dir string) (*Result, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:  dir,
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found matching %q", pattern)
	}

	if len(pkgs) > 1 {
		return nil, fmt.Errorf("multiple packages found matching %q; specify a single package", pattern)
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("package errors: %v", pkg.Errors[0])
	}

	result := &Result{
		PackagePath: pkg.PkgPath,
		PackageName: pkg.Name,
	}

	if len(pkg.GoFiles) > 0 {
		result.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	fset := token.NewFileSet()
	for _, filename := range pkg.GoFiles {
		f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filename, err)
		}

		roots, ctx, err := parseFile(fset, f)
		if err != nil {
			return nil, err
		}
		result.Roots = append(result.Roots, roots...)

		if ctx != nil {
			if result.Context != nil {
				return nil, fmt.Errorf("multiple //jsonmeta:context directives found:\n  %s\n  %s",
					result.Context.Pos, ctx.Pos)
			}
			result.Context = ctx
		}
	}

	return result, nil
}

// parseFile extracts the directives of a single file.
func parseFile(fset *token.FileSet, f *ast.File) ([]Root, *ContextOptions, error) {
	var ctx *ContextOptions

	// Directive comment groups keyed by their end position, so they can be
	// matched to the declaration they document.
	generate := make(map[token.Pos]token.Position)

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, "//jsonmeta:") {
				continue
			}

			text := strings.TrimPrefix(c.Text, "//jsonmeta:")
			parts := strings.Fields(text)
			if len(parts) == 0 {
				continue
			}

			pos := fset.Position(c.Pos())
			switch parts[0] {
			case "generate":
				if len(parts) > 1 {
					return nil, nil, fmt.Errorf("%s: //jsonmeta:generate takes no arguments", pos)
				}
				generate[cg.End()] = pos
			case "context":
				if f.Doc == nil || cg != f.Doc {
					return nil, nil, fmt.Errorf("%s: //jsonmeta:context must be in the package doc comment", pos)
				}
				if ctx != nil {
					return nil, nil, fmt.Errorf("multiple //jsonmeta:context directives found:\n  %s\n  %s", ctx.Pos, pos)
				}
				opts, err := parseContext(parts[1:])
				if err != nil {
					return nil, nil, fmt.Errorf("%s: %w", pos, err)
				}
				opts.Pos = pos
				ctx = opts
			default:
				return nil, nil, fmt.Errorf("%s: unknown directive //jsonmeta:%s", pos, parts[0])
			}
		}
	}

	var roots []Root
	mark := func(doc *ast.CommentGroup, spec *ast.TypeSpec) error {
		if doc == nil {
			return nil
		}
		pos, ok := generate[doc.End()]
		if !ok {
			return nil
		}
		delete(generate, doc.End())
		if spec.TypeParams != nil && spec.TypeParams.NumFields() > 0 {
			return fmt.Errorf("%s: cannot generate generic type %s; mark a type that instantiates it", pos, spec.Name.Name)
		}
		roots = append(roots, Root{TypeName: spec.Name.Name, Pos: pos})
		return nil
	}

	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			if err := mark(ts.Doc, ts); err != nil {
				return nil, nil, err
			}
		}
		// A directive on an ungrouped declaration documents the GenDecl.
		if !gen.Lparen.IsValid() && len(gen.Specs) == 1 {
			if err := mark(gen.Doc, gen.Specs[0].(*ast.TypeSpec)); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, pos := range generate {
		return nil, nil, fmt.Errorf("%s: //jsonmeta:generate directive must be followed by a type declaration", pos)
	}

	return roots, ctx, nil
}

// parseContext decodes key=value options.
func parseContext(args []string) (*ContextOptions, error) {
	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context option %q, expected key=value", arg)
		}
		values.Add(key, value)
	}

	opts := &ContextOptions{}
	if err := optionDecoder.Decode(opts, values); err != nil {
		return nil, fmt.Errorf("invalid context options: %w", err)
	}
	return opts, nil
}
