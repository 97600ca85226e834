// Package jsonmetagen generates reflection-free JSON metadata for Go types.
//
// Given root types, it walks every type reachable through exported struct
// fields and emits, for each one exactly once, a Go accessor building the
// jsonmeta.TypeInfo that constructs, writes and reads it. Types that cannot
// be generated are reported as diagnostics, not errors, and only remove
// the types that depend on them.
//
// Example:
//
//	jsonmetagen.FromPackages("./api").
//	    Context("APIContext").
//	    ToDir("./api")
package jsonmetagen

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"reflect"
	"strings"

	"github.com/broady/jsonmeta/internal/directive"
	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/broady/jsonmeta/jsonmetagen/golang"
	"github.com/broady/jsonmeta/jsonmetagen/graph"
	"github.com/broady/jsonmeta/jsonmetagen/ir"
	"github.com/broady/jsonmeta/jsonmetagen/provider"
	"github.com/broady/jsonmeta/jsonmetagen/sink"
)

// Generator provides a fluent API for code generation.
// Create with FromTypes() or FromPackages() and configure with method
// chaining.
type Generator struct {
	types []reflect.Type
	cfg   Config
}

// FromTypes creates a Generator for the given root types. Pass zero values
// or reflect.Type values.
//
// Example:
//
//	jsonmetagen.FromTypes(User{}, Order{}).
//	    Package("api", "example.com/app/api").
//	    ToDir("./api")
//
// By default, this uses the reflection provider. Use .Provider("source")
// to describe the same types from source instead.
func FromTypes(values ...any) *Generator {
	g := &Generator{cfg: Config{Provider: ProviderReflection}}
	for _, v := range values {
		if t, ok := v.(reflect.Type); ok {
			g.types = append(g.types, t)
			continue
		}
		g.types = append(g.types, reflect.TypeOf(v))
	}
	return g
}

// FromPackages creates a Generator for the types marked with
// //jsonmeta:generate in the packages matching patterns.
func FromPackages(patterns ...string) *Generator {
	return &Generator{cfg: Config{Provider: ProviderSource, Packages: patterns}}
}

// Provider sets the type introspection strategy.
// Valid values: "source", "reflection".
func (g *Generator) Provider(p string) *Generator {
	g.cfg.Provider = p
	return g
}

// Package sets the package the generated file belongs to.
func (g *Generator) Package(name, importPath string) *Generator {
	g.cfg.PackageName = name
	g.cfg.PackagePath = importPath
	return g
}

// Context sets the name of the generated context type.
func (g *Generator) Context(name string) *Generator {
	g.cfg.ContextName = name
	return g
}

// FileName sets the name of the generated file.
func (g *Generator) FileName(name string) *Generator {
	g.cfg.FileName = name
	return g
}

// Dir sets the working directory for loading packages.
func (g *Generator) Dir(dir string) *Generator {
	g.cfg.Dir = dir
	return g
}

// WithManifest enables the YAML manifest output.
func (g *Generator) WithManifest() *Generator {
	g.cfg.Manifest = true
	return g
}

// Strict reports identifier collisions as errors.
func (g *Generator) Strict() *Generator {
	g.cfg.Strict = true
	return g
}

// WithLogger sets the logger for generation progress.
// If not set, slog.Default() will be used.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	g.cfg.Logger = logger
	return g
}

// ToDir generates files into dir.
// This is a terminal operation that writes files to disk.
func (g *Generator) ToDir(dir string) (*GenerateResult, error) {
	g.cfg.OutDir = dir
	return g.generate(context.Background(), nil)
}

// ToSink generates files into s.
func (g *Generator) ToSink(ctx context.Context, s sink.OutputSink) (*GenerateResult, error) {
	return g.generate(ctx, s)
}

// Generate returns generated files in memory without writing to disk.
// Use ToDir() to write files to disk instead.
func (g *Generator) Generate() (*GenerateResult, error) {
	return g.generate(context.Background(), sink.NewMemorySink())
}

// GenerateResult is the outcome of one generation session.
type GenerateResult struct {
	// Files holds the generated files by path.
	Files map[string][]byte

	// Schema holds the registered artifacts in finalization order.
	Schema *ir.Schema

	// Registry is the session registry, including failed types.
	Registry *graph.Registry

	// Diagnostics is the session log.
	Diagnostics *diag.Collector

	// OutDir is the directory files were written to, if any.
	OutDir string
}

// root is a root type waiting for a provider to resolve it.
type root struct {
	typ  reflect.Type // reflection
	name string       // source: "importpath.Name"
}

// generate runs a session. A nil sink writes to the output directory.
func (g *Generator) generate(ctx context.Context, out sink.OutputSink) (*GenerateResult, error) {
	cfg := applyConfigDefaults(&g.cfg)

	roots, err := g.collect(cfg)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if out == nil {
		if cfg.OutDir == "" {
			return nil, fmt.Errorf("OutDir is required")
		}
		out = sink.NewFilesystemSink(cfg.OutDir)
	}

	logger := cfg.Logger
	port, ids, err := resolveRoots(ctx, cfg, roots)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root types: %w", err)
	}

	pkg := ir.PackageInfo{Path: cfg.PackagePath, Name: cfg.PackageName}
	session := graph.NewSession(port).
		WithLogger(logger).
		WithCollector(diag.NewCollector(cfg.Strict)).
		Package(pkg)
	for _, id := range ids {
		ok := session.Process(id)
		logger.Info("processed root type",
			slog.String("type", string(id)),
			slog.Bool("ok", ok))
	}

	schema := session.Schema()
	if errs := schema.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("generated schema is inconsistent: %v", errs[0])
	}

	src, err := golang.Render(schema, golang.Options{
		PackageName: cfg.PackageName,
		PackagePath: cfg.PackagePath,
		ContextName: cfg.ContextName,
		FileName:    cfg.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render Go code: %w", err)
	}

	result := &GenerateResult{
		Files:       map[string][]byte{cfg.FileName: src},
		Schema:      schema,
		Registry:    session.Registry(),
		Diagnostics: session.Diagnostics(),
		OutDir:      cfg.OutDir,
	}
	if cfg.Manifest {
		data, err := buildManifest(cfg, session).Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to encode manifest: %w", err)
		}
		result.Files[manifestName(cfg.FileName)] = data
	}

	for name, content := range result.Files {
		if err := out.WriteFile(ctx, name, content); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	logger.Info("generation complete",
		slog.String("file", cfg.FileName),
		slog.String("summary", session.Diagnostics().Summary()))
	return result, nil
}

// collect gathers the root types and fills package defaults into cfg.
func (g *Generator) collect(cfg *Config) ([]root, error) {
	if len(g.cfg.Packages) > 0 && len(g.types) == 0 {
		return collectDirectives(cfg)
	}

	var roots []root
	var pkgs []string
	seen := make(map[string]bool)
	for _, t := range g.types {
		if t == nil {
			return nil, fmt.Errorf("nil root type")
		}
		roots = append(roots, root{typ: t, name: t.PkgPath() + "." + t.Name()})
		if p := t.PkgPath(); p != "" && !seen[p] {
			seen[p] = true
			pkgs = append(pkgs, p)
		}
	}
	if cfg.Provider == ProviderSource && len(cfg.Packages) == 0 {
		cfg.Packages = pkgs
	}
	// Types from a single package generate into that package by default.
	if cfg.PackageName == "" && cfg.PackagePath == "" && len(pkgs) == 1 {
		cfg.PackagePath = pkgs[0]
		cfg.PackageName = ir.PackageName(pkgs[0])
	}
	return roots, nil
}

// collectDirectives scans the configured packages for directives.
func collectDirectives(cfg *Config) ([]root, error) {
	if cfg.Provider != ProviderSource {
		return nil, fmt.Errorf("generating from packages requires the source provider, got %q", cfg.Provider)
	}

	var roots []root
	for i, pattern := range cfg.Packages {
		res, err := directive.ParseDir(pattern, cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
		}
		for _, r := range res.Roots {
			roots = append(roots, root{name: res.PackagePath + "." + r.TypeName})
		}
		if i > 0 {
			continue
		}

		// The first package provides the output defaults.
		if cfg.PackageName == "" && cfg.PackagePath == "" {
			cfg.PackageName = res.PackageName
			cfg.PackagePath = res.PackagePath
		}
		if cfg.OutDir == "" {
			cfg.OutDir = res.Dir
		}
		if c := res.Context; c != nil {
			applyContextOptions(cfg, c)
		}
	}
	return roots, nil
}

// applyContextOptions fills the fields a //jsonmeta:context directive
// sets, unless the caller already set them. The provider option is read
// by the jsonmeta command; packages are always scanned from source here.
func applyContextOptions(cfg *Config, c *directive.ContextOptions) {
	if c.Name != "" && (cfg.ContextName == "" || cfg.ContextName == "Context") {
		cfg.ContextName = c.Name
	}
	if c.File != "" && (cfg.FileName == "" || cfg.FileName == "jsonmeta_gen.go") {
		cfg.FileName = c.File
	}
	cfg.Manifest = cfg.Manifest || c.Manifest
}

// resolveRoots builds the provider and turns roots into type identities.
func resolveRoots(ctx context.Context, cfg *Config, roots []root) (provider.Port, []ir.TypeID, error) {
	var ids []ir.TypeID
	switch cfg.Provider {
	case ProviderReflection:
		p := provider.NewReflectionProvider()
		for _, r := range roots {
			if r.typ == nil {
				return nil, nil, fmt.Errorf("reflection provider needs Go types, got %s", r.name)
			}
			ids = append(ids, p.Root(r.typ))
		}
		return p, ids, nil

	case ProviderSource:
		if len(cfg.Packages) == 0 {
			return nil, nil, fmt.Errorf("packages is required when using source provider")
		}
		p, err := provider.NewSourceProvider(ctx, cfg.Dir, cfg.Packages...)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range roots {
			id, err := p.Root(r.name)
			if err != nil {
				return nil, nil, err
			}
			ids = append(ids, id)
		}
		return p, ids, nil

	default:
		return nil, nil, fmt.Errorf("unknown provider: %q (expected %q or %q)", cfg.Provider, ProviderSource, ProviderReflection)
	}
}

// manifestName derives the manifest file name from the Go file name.
func manifestName(fileName string) string {
	return strings.TrimSuffix(path.Base(fileName), ".go") + ".manifest.yaml"
}
