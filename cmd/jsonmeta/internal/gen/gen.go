package gen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/broady/jsonmeta/cmd/jsonmeta/internal/report"
	"github.com/broady/jsonmeta/internal/directive"
	"github.com/broady/jsonmeta/internal/runner"
	"github.com/broady/jsonmeta/jsonmetagen"
)

type Cmd struct {
	Out string `arg:"" optional:"" help:"Output directory (default: the package directory)."`

	Options `embed:""`

	Verbose bool `help:"Print every generated type." short:"v"`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	outDir := c.Out
	if outDir != "" {
		// Resolve output directory to absolute path
		abs, err := filepath.Abs(outDir)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		outDir = abs
	}

	res, provider, err := c.Resolve()
	if err != nil {
		return err
	}

	if provider == jsonmetagen.ProviderReflection {
		if outDir == "" {
			outDir = res.Dir
		}
		opts, err := c.Runner(res, outDir)
		if err != nil {
			return err
		}
		output, err := runner.Exec(context.Background(), opts)
		os.Stdout.Write(output)
		return err
	}

	result, err := c.Generator(logger).ToDir(outDir)
	if err != nil {
		return err
	}

	report.Print(os.Stderr, result.Diagnostics, c.Verbose)
	for name := range result.Files {
		fmt.Printf("✓ Wrote %s\n", filepath.Join(result.OutDir, name))
	}
	return nil
}

// Options are the generator settings shared by gen and check.
type Options struct {
	Package     string `help:"Package to scan (default: current directory)." short:"p" default:"."`
	PackageName string `help:"Package clause of the generated file (default: the scanned package)." name:"package-name"`
	Context     string `help:"Name of the generated context type." short:"c"`
	File        string `help:"Name of the generated file." short:"f"`
	Provider    string `help:"Type provider: source or reflection (default: the context directive's, else source)." placeholder:"PROVIDER"`
	Manifest    bool   `help:"Also write a YAML manifest next to the generated file." short:"m"`
	Strict      bool   `help:"Report identifier collisions as errors."`
}

func (o Options) pattern() string {
	if o.Package == "" {
		return "."
	}
	return o.Package
}

// Resolve scans the package for directives and selects the provider.
func (o Options) Resolve() (*directive.Result, string, error) {
	res, err := directive.Parse(o.pattern())
	if err != nil {
		return nil, "", fmt.Errorf("scan %s: %w", o.pattern(), err)
	}

	provider := o.Provider
	if provider == "" && res.Context != nil {
		provider = res.Context.Provider
	}
	switch provider {
	case "":
		provider = jsonmetagen.ProviderSource
	case jsonmetagen.ProviderSource, jsonmetagen.ProviderReflection:
	default:
		return nil, "", fmt.Errorf("unknown provider %q (expected %q or %q)", provider, jsonmetagen.ProviderSource, jsonmetagen.ProviderReflection)
	}
	return res, provider, nil
}

// Generator returns a source-provider generator for o.
func (o Options) Generator(logger *slog.Logger) *jsonmetagen.Generator {
	g := jsonmetagen.FromPackages(o.pattern()).WithLogger(logger)
	if o.PackageName != "" {
		g = g.Package(o.PackageName, "")
	}
	if o.Context != "" {
		g = g.Context(o.Context)
	}
	if o.File != "" {
		g = g.FileName(o.File)
	}
	if o.Manifest {
		g = g.WithManifest()
	}
	if o.Strict {
		g = g.Strict()
	}
	return g
}

// Runner returns the options that generate res with the reflection
// provider. Flags take precedence over the context directive.
func (o Options) Runner(res *directive.Result, outDir string) (runner.Options, error) {
	if o.PackageName != "" {
		return runner.Options{}, fmt.Errorf("--package-name is not supported with the reflection provider")
	}
	opts := runner.Options{
		PkgDir:   res.Dir,
		PkgPath:  res.PackagePath,
		PkgName:  res.PackageName,
		OutDir:   outDir,
		Context:  o.Context,
		FileName: o.File,
		Manifest: o.Manifest,
		Strict:   o.Strict,
	}
	for _, r := range res.Roots {
		opts.Roots = append(opts.Roots, r.TypeName)
	}
	if c := res.Context; c != nil {
		if opts.Context == "" {
			opts.Context = c.Name
		}
		if opts.FileName == "" {
			opts.FileName = c.File
		}
		opts.Manifest = opts.Manifest || c.Manifest
	}
	return opts, nil
}
