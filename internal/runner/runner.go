// Package runner executes jsonmeta code generation with the reflection
// provider by building and running a small program that imports the
// user's package.
//
// For library packages the program lives in a temporary subdirectory of
// the package. For package main, it uses Go's -overlay flag to replace the
// user's main() with the runner's.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

// Options configures the runner.
type Options struct {
	// PkgDir is the directory containing the package.
	PkgDir string

	// PkgPath is the import path of the package.
	PkgPath string

	// PkgName is the package clause name.
	PkgName string

	// Roots are the names of the root types, declared in the package.
	Roots []string

	// OutDir is the output directory for generated files.
	OutDir string

	// Context and FileName override the generated context type and file
	// names when set.
	Context  string
	FileName string

	Manifest bool
	Strict   bool

	// CheckMode generates in memory and writes nothing.
	CheckMode bool
}

// runnerFile is the name of the generated runner source.
const runnerFile = "jsonmeta_runner_main_.go"

// Exec builds and runs the generator and returns its combined output.
func Exec(ctx context.Context, opts Options) (output []byte, err error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("no root types in %s", opts.PkgPath)
	}
	src, err := Generate(opts)
	if err != nil {
		return nil, fmt.Errorf("generate runner: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "jsonmeta-gen-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := []string{"build", "-mod=mod", "-tags", "jsonmeta_gen_runner"}
	buildDir := opts.PkgDir

	if opts.PkgName == "main" {
		overlayFile, err := writeOverlay(tmpDir, opts.PkgDir, src)
		if err != nil {
			return nil, err
		}
		args = append(args, "-overlay", overlayFile)
	} else {
		// The runner imports the package from a subdirectory, so internal
		// packages of the module stay importable.
		runDir, err := os.MkdirTemp(opts.PkgDir, "_jsonmeta_run")
		if err != nil {
			return nil, fmt.Errorf("create runner dir: %w", err)
		}
		defer os.RemoveAll(runDir)
		if err := os.WriteFile(filepath.Join(runDir, runnerFile), src, 0o644); err != nil {
			return nil, fmt.Errorf("write runner: %w", err)
		}
		buildDir = runDir
	}

	binaryPath := filepath.Join(tmpDir, "runner")
	args = append(args, "-o", binaryPath, ".")
	buildCmd := exec.CommandContext(ctx, "go", args...)
	buildCmd.Dir = buildDir
	buildCmd.Env = append(os.Environ(), "GOWORK=off")
	if buildOut, err := buildCmd.CombinedOutput(); err != nil {
		return buildOut, fmt.Errorf("build: %w\n%s", err, buildOut)
	}

	runCmd := exec.CommandContext(ctx, binaryPath)
	runCmd.Dir = opts.PkgDir
	output, err = runCmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("run: %w", err)
	}
	return output, nil
}

// writeOverlay writes the overlay that removes main() from the package's
// files and adds the runner, and returns the overlay file path.
func writeOverlay(tmpDir, pkgDir string, runner []byte) (string, error) {
	overlay := make(map[string]string)

	files, err := filepath.Glob(filepath.Join(pkgDir, "*.go"))
	if err != nil {
		return "", fmt.Errorf("glob: %w", err)
	}
	for _, file := range files {
		if strings.HasSuffix(file, "_test.go") {
			continue
		}

		hasMain, modified, err := removeMain(file)
		if err != nil {
			return "", fmt.Errorf("process %s: %w", file, err)
		}
		if !hasMain {
			continue
		}
		tmpFile := filepath.Join(tmpDir, filepath.Base(file))
		if err := os.WriteFile(tmpFile, modified, 0o644); err != nil {
			return "", fmt.Errorf("write modified %s: %w", file, err)
		}
		overlay[file] = tmpFile
	}

	tmpRunner := filepath.Join(tmpDir, runnerFile)
	if err := os.WriteFile(tmpRunner, runner, 0o644); err != nil {
		return "", fmt.Errorf("write runner: %w", err)
	}
	overlay[filepath.Join(pkgDir, runnerFile)] = tmpRunner

	data, err := json.Marshal(struct {
		Replace map[string]string `json:"Replace"`
	}{Replace: overlay})
	if err != nil {
		return "", fmt.Errorf("marshal overlay: %w", err)
	}
	overlayFile := filepath.Join(tmpDir, "overlay.json")
	if err := os.WriteFile(overlayFile, data, 0o644); err != nil {
		return "", fmt.Errorf("write overlay: %w", err)
	}
	return overlayFile, nil
}

// removeMain parses a Go file and returns a version with func main() removed.
// Returns (hasMain, modifiedSource, error).
func removeMain(filename string) (bool, []byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return false, nil, err
	}

	hasMain := false
	var newDecls []ast.Decl
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if ok && fn.Name.Name == "main" && fn.Recv == nil {
			hasMain = true
			continue
		}
		newDecls = append(newDecls, decl)
	}
	if !hasMain {
		return false, nil, nil
	}
	f.Decls = newDecls

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return false, nil, err
	}
	return true, buf.Bytes(), nil
}

// Generate returns the runner main() source for opts.
func Generate(opts Options) ([]byte, error) {
	tmpl, err := template.New("runner").Funcs(template.FuncMap{
		"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	}).Parse(runnerTemplate)
	if err != nil {
		return nil, err
	}

	// Reflection reports "main" as the import path of package main.
	qualifier, genPath := "target.", opts.PkgPath
	if opts.PkgName == "main" {
		qualifier, genPath = "", "main"
	}
	data := struct {
		Options
		Qualifier string
		GenPath   string
	}{opts, qualifier, genPath}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format runner: %w\n%s", err, buf.Bytes())
	}
	return out, nil
}

const runnerTemplate = `//go:build jsonmeta_gen_runner

package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/broady/jsonmeta/jsonmetagen"
{{- if .Qualifier}}
	target {{quote .PkgPath}}
{{- end}}
)

func main() {
	g := jsonmetagen.FromTypes(
{{- range .Roots}}
		reflect.TypeFor[{{$.Qualifier}}{{.}}](),
{{- end}}
	).Package({{quote .PkgName}}, {{quote .GenPath}})
{{- if .Context}}
	g = g.Context({{quote .Context}})
{{- end}}
{{- if .FileName}}
	g = g.FileName({{quote .FileName}})
{{- end}}
{{- if .Manifest}}
	g = g.WithManifest()
{{- end}}
{{- if .Strict}}
	g = g.Strict()
{{- end}}
{{if .CheckMode}}
	result, err := g.Generate()
{{- else}}
	result, err := g.ToDir({{quote .OutDir}})
{{- end}}
	if err != nil {
		fmt.Fprintf(os.Stderr, "jsonmeta: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(result.Diagnostics.FormatAll(false))
	fmt.Println(result.Diagnostics.Summary())
{{- if .CheckMode}}
	if result.Diagnostics.HasErrors() {
		os.Exit(2)
	}
{{- end}}
}
`
