package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		contains []string // strings that must appear in output
		excludes []string // strings that must not appear in output
	}{
		{
			name: "library package",
			opts: Options{
				PkgPath: "example.com/app/api",
				PkgName: "api",
				Roots:   []string{"User", "Order"},
				OutDir:  "/tmp/out",
			},
			contains: []string{
				"//go:build jsonmeta_gen_runner",
				`target "example.com/app/api"`,
				"reflect.TypeFor[target.User]()",
				"reflect.TypeFor[target.Order]()",
				`.Package("api", "example.com/app/api")`,
				`g.ToDir("/tmp/out")`,
			},
			excludes: []string{
				"g.Context(",
				"WithManifest",
				"Strict()",
				"os.Exit(2)",
			},
		},
		{
			name: "main package",
			opts: Options{
				PkgPath: "example.com/app",
				PkgName: "main",
				Roots:   []string{"Config"},
				OutDir:  "/tmp/out",
			},
			contains: []string{
				"reflect.TypeFor[Config]()",
				`.Package("main", "main")`,
			},
			excludes: []string{
				"target",
			},
		},
		{
			name: "all options",
			opts: Options{
				PkgPath:  "example.com/app/api",
				PkgName:  "api",
				Roots:    []string{"User"},
				OutDir:   "/tmp/out",
				Context:  "APIContext",
				FileName: "api_gen.go",
				Manifest: true,
				Strict:   true,
			},
			contains: []string{
				`g = g.Context("APIContext")`,
				`g = g.FileName("api_gen.go")`,
				"g = g.WithManifest()",
				"g = g.Strict()",
			},
		},
		{
			name: "check mode",
			opts: Options{
				PkgPath:   "example.com/app/api",
				PkgName:   "api",
				Roots:     []string{"User"},
				CheckMode: true,
			},
			contains: []string{
				"g.Generate()",
				"os.Exit(2)",
			},
			excludes: []string{
				"ToDir",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Generate(tt.opts)
			if err != nil {
				t.Fatalf("Generate() error: %v", err)
			}

			code := string(output)

			for _, want := range tt.contains {
				if !strings.Contains(code, want) {
					t.Errorf("output missing %q\n\nGot:\n%s", want, code)
				}
			}

			for _, unwant := range tt.excludes {
				if strings.Contains(code, unwant) {
					t.Errorf("output should not contain %q\n\nGot:\n%s", unwant, code)
				}
			}
		})
	}
}

func TestRemoveMain(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	src := `package main

import "fmt"

type Config struct{ Name string }

func main() {
	fmt.Println("hi")
}

func (Config) main() {}
`
	if err := os.WriteFile(file, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	hasMain, modified, err := removeMain(file)
	if err != nil {
		t.Fatalf("removeMain() error: %v", err)
	}
	if !hasMain {
		t.Fatal("main() not found")
	}
	code := string(modified)
	if strings.Contains(code, "func main()") {
		t.Errorf("main() not removed:\n%s", code)
	}
	if !strings.Contains(code, "func (Config) main()") {
		t.Errorf("method main removed:\n%s", code)
	}
	if !strings.Contains(code, "type Config struct") {
		t.Errorf("declarations lost:\n%s", code)
	}
}

func TestRemoveMain_NoMain(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lib.go")
	if err := os.WriteFile(file, []byte("package lib\n\nfunc Run() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	hasMain, modified, err := removeMain(file)
	if err != nil {
		t.Fatalf("removeMain() error: %v", err)
	}
	if hasMain || modified != nil {
		t.Errorf("hasMain = %v, modified = %q", hasMain, modified)
	}
}

func TestExec_NoRoots(t *testing.T) {
	_, err := Exec(t.Context(), Options{PkgPath: "example.com/app"})
	if err == nil || !strings.Contains(err.Error(), "no root types") {
		t.Errorf("err = %v, want no root types", err)
	}
}
