package jsonmetagen

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/broady/jsonmeta/internal/testfixtures"
	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/broady/jsonmeta/jsonmetagen/sink"
)

const fixtures = "github.com/broady/jsonmeta/internal/testfixtures"

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestApplyConfigDefaults(t *testing.T) {
	tests := []struct {
		name   string
		input  *Config
		check  func(*Config) bool
		errMsg string
	}{
		{
			name:  "empty config gets defaults",
			input: &Config{},
			check: func(c *Config) bool {
				return c.ContextName == "Context" &&
					c.FileName == "jsonmeta_gen.go" &&
					c.Logger != nil
			},
			errMsg: "defaults not applied correctly",
		},
		{
			name: "explicit values preserved",
			input: &Config{
				ContextName: "API",
				FileName:    "api_gen.go",
			},
			check: func(c *Config) bool {
				return c.ContextName == "API" && c.FileName == "api_gen.go"
			},
			errMsg: "explicit values not preserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyConfigDefaults(tt.input)
			if !tt.check(got) {
				t.Error(tt.errMsg)
			}
			if got == tt.input {
				t.Error("applyConfigDefaults returned its input")
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return applyConfigDefaults(&Config{
			Provider:    ProviderReflection,
			PackageName: "api",
		})
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "ast" },
			wantErr: "Config.Provider",
		},
		{
			name:    "missing package name",
			mutate:  func(c *Config) { c.PackageName = "" },
			wantErr: "Config.PackageName",
		},
		{
			name:    "package name is not an identifier",
			mutate:  func(c *Config) { c.PackageName = "my-api" },
			wantErr: "goident",
		},
		{
			name:    "context name is not an identifier",
			mutate:  func(c *Config) { c.ContextName = "API Context" },
			wantErr: "Config.ContextName",
		},
		{
			name:    "test file name",
			mutate:  func(c *Config) { c.FileName = "gen_test.go" },
			wantErr: "gofile",
		},
		{
			name:    "file name with directory",
			mutate:  func(c *Config) { c.FileName = "out/gen.go" },
			wantErr: "gofile",
		},
		{
			name:    "empty package pattern",
			mutate:  func(c *Config) { c.Packages = []string{"./api", ""} },
			wantErr: "Config.Packages[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_FromTypes(t *testing.T) {
	result, err := FromTypes(testfixtures.Point{}, testfixtures.Node{}).
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src, ok := result.Files["jsonmeta_gen.go"]
	if !ok {
		t.Fatalf("missing jsonmeta_gen.go, got %v", keys(result.Files))
	}
	code := string(src)

	// Types from a single package generate into that package.
	if !strings.HasPrefix(code, "// Code generated") {
		t.Error("missing generated code header")
	}
	if !strings.Contains(code, "package testfixtures\n") {
		t.Error("generated file is not in package testfixtures")
	}
	for _, want := range []string{"func (c *Context) Point()", "func (c *Context) Node()", "func (c *Context) PtrToNode()"} {
		if !strings.Contains(code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	if strings.Contains(code, "testfixtures.Point") {
		t.Error("local types should be referenced unqualified")
	}

	if got := result.Diagnostics.Count(diag.KindGenerated); got != 2 {
		t.Errorf("generated count = %d, want 2", got)
	}
	if result.Diagnostics.HasErrors() {
		t.Errorf("unexpected errors:\n%s", result.Diagnostics.FormatAll(false))
	}
	if got := len(result.Schema.Artifacts); got != 3 {
		t.Errorf("artifacts = %d, want 3", got)
	}
}

func TestGenerate_ReflectTypeRoots(t *testing.T) {
	result, err := FromTypes(reflect.TypeFor[testfixtures.Line]()).
		Package("orders", "example.com/orders").
		Context("Orders").
		FileName("orders_gen.go").
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code := string(result.Files["orders_gen.go"])
	if !strings.Contains(code, "package orders\n") {
		t.Error("package clause not applied")
	}
	if !strings.Contains(code, "func (c *Orders) Line() *jsonmeta.TypeInfo[testfixtures.Line]") {
		t.Errorf("missing qualified accessor:\n%s", code)
	}
	if !strings.Contains(code, `"`+fixtures+`"`) {
		t.Error("missing fixtures import")
	}
}

func TestGenerate_FailuresAreDiagnostics(t *testing.T) {
	result, err := FromTypes(testfixtures.Holder{}, testfixtures.Point{}).
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Diagnostics.HasErrors() {
		t.Error("expected error diagnostics for Holder")
	}
	code := string(result.Files["jsonmeta_gen.go"])
	if strings.Contains(code, "Holder()") || strings.Contains(code, "Bag()") {
		t.Error("failed types must not be generated")
	}
	if !strings.Contains(code, "func (c *Context) Point()") {
		t.Error("Point should be generated")
	}

	failed := result.Registry.Failed()
	if len(failed) != 3 {
		t.Errorf("failed = %v, want Ring, Bag and Holder", failed)
	}
}

func TestGenerate_UnexportedTypesOutsideTheirPackage(t *testing.T) {
	result, err := FromTypes(testfixtures.Envelope{}).
		Package("out", "example.com/out").
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := result.Diagnostics.Count(diag.KindUnsupportedMember); n != 2 {
		t.Errorf("expected 2 unsupported members, got %d:\n%s", n, result.Diagnostics.FormatAll(false))
	}
	code := string(result.Files["jsonmeta_gen.go"])
	for _, name := range []string{"testfixtures.inner", "testfixtures.code", "Envelope()", "Outer()"} {
		if strings.Contains(code, name) {
			t.Errorf("generated code must not reference %s:\n%s", name, code)
		}
	}
	if !strings.Contains(code, "func (c *Context) Point()") {
		t.Error("Point should be generated")
	}
}

func TestGenerate_Manifest(t *testing.T) {
	result, err := FromTypes(testfixtures.Bag{}, testfixtures.Point{}).
		WithManifest().
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := result.Files["jsonmeta_gen.manifest.yaml"]
	if !ok {
		t.Fatalf("missing manifest, got %v", keys(result.Files))
	}
	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m.Package != fixtures || m.Context != "Context" {
		t.Errorf("manifest header = %q %q", m.Package, m.Context)
	}
	if len(m.Types) != 1 || m.Types[0].Identifier != "Point" || m.Types[0].Shape != "Object" {
		t.Errorf("types = %+v, want only Point", m.Types)
	}
	if len(m.Failed) != 2 {
		t.Errorf("failed = %v, want Ring and Bag", m.Failed)
	}
	var unsupported int
	for _, d := range m.Diagnostics {
		if d.Severity == "info" {
			t.Errorf("info diagnostic in manifest: %+v", d)
		}
		if d.Kind == string(diag.KindUnsupportedMember) {
			unsupported++
			if d.Member != "Items" {
				t.Errorf("unsupported member = %q, want Items", d.Member)
			}
		}
	}
	if unsupported != 1 {
		t.Errorf("unsupported member diagnostics = %d, want 1", unsupported)
	}
}

func TestGenerate_SourceProviderMatchesReflection(t *testing.T) {
	reflected, err := FromTypes(testfixtures.Order{}).
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("reflection: %v", err)
	}
	sourced, err := FromTypes(testfixtures.Order{}).
		Provider(ProviderSource).
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	if a, b := string(reflected.Files["jsonmeta_gen.go"]), string(sourced.Files["jsonmeta_gen.go"]); a != b {
		t.Errorf("providers generated different code\nreflection:\n%s\nsource:\n%s", a, b)
	}
}

func TestGenerate_FromPackages(t *testing.T) {
	result, err := FromPackages(fixtures+"/tagged").
		WithLogger(quiet()).
		Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The context directive names the type and enables the manifest.
	code := string(result.Files["jsonmeta_gen.go"])
	if !strings.Contains(code, "package tagged\n") {
		t.Error("package clause not taken from the scanned package")
	}
	if !strings.Contains(code, "type TaggedContext struct") {
		t.Error("context name not taken from directive")
	}
	for _, want := range []string{"Event()", "Person()", "ListOfPerson()"} {
		if !strings.Contains(code, want) {
			t.Errorf("generated code missing %q", want)
		}
	}
	if strings.Contains(code, "Draft") {
		t.Error("unmarked type was generated")
	}
	if _, ok := result.Files["jsonmeta_gen.manifest.yaml"]; !ok {
		t.Error("manifest not enabled by directive")
	}
}

func TestGenerate_FromPackagesRequiresSource(t *testing.T) {
	_, err := FromPackages(fixtures+"/tagged").
		Provider(ProviderReflection).
		WithLogger(quiet()).
		Generate()
	if err == nil || !strings.Contains(err.Error(), "source provider") {
		t.Errorf("err = %v, want source provider error", err)
	}
}

func TestGenerate_NilRoot(t *testing.T) {
	_, err := FromTypes(nil).WithLogger(quiet()).Generate()
	if err == nil {
		t.Error("expected error for nil root")
	}
}

func TestGenerate_InvalidConfig(t *testing.T) {
	_, err := FromTypes(testfixtures.Point{}).
		Context("not valid").
		WithLogger(quiet()).
		Generate()
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("err = %v, want invalid config", err)
	}
}

func TestToDir(t *testing.T) {
	outDir := t.TempDir()

	result, err := FromTypes(testfixtures.Point{}).
		WithLogger(quiet()).
		ToDir(outDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OutDir != outDir {
		t.Errorf("OutDir = %q, want %q", result.OutDir, outDir)
	}

	content, err := os.ReadFile(filepath.Join(outDir, "jsonmeta_gen.go"))
	if err != nil {
		t.Fatalf("generated file not written: %v", err)
	}
	if string(content) != string(result.Files["jsonmeta_gen.go"]) {
		t.Error("written file differs from result")
	}
}

func TestToSink_Verify(t *testing.T) {
	outDir := t.TempDir()
	gen := FromTypes(testfixtures.Point{}).WithLogger(quiet())

	verify := sink.NewVerifySink(outDir)
	if _, err := gen.ToSink(context.Background(), verify); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := verify.Stale(); len(got) != 1 || got[0] != "jsonmeta_gen.go" {
		t.Errorf("stale before generation = %v", got)
	}

	if _, err := gen.ToDir(outDir); err != nil {
		t.Fatalf("ToDir: %v", err)
	}
	verify = sink.NewVerifySink(outDir)
	if _, err := gen.ToSink(context.Background(), verify); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := verify.Stale(); len(got) != 0 {
		t.Errorf("stale after generation = %v", got)
	}
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
