package check

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/broady/jsonmeta/cmd/jsonmeta/internal/gen"
	"github.com/broady/jsonmeta/cmd/jsonmeta/internal/report"
	"github.com/broady/jsonmeta/internal/runner"
	"github.com/broady/jsonmeta/jsonmetagen"
	"github.com/broady/jsonmeta/jsonmetagen/sink"
)

type Cmd struct {
	gen.Options `embed:""`

	Verify  string `help:"Fail if the generated files in this directory are out of date." placeholder:"DIR"`
	Verbose bool   `help:"Print every generated type." short:"v"`
}

func (c *Cmd) Run(logger *slog.Logger) error {
	res, provider, err := c.Resolve()
	if err != nil {
		return err
	}

	if provider == jsonmetagen.ProviderReflection {
		if c.Verify != "" {
			return fmt.Errorf("--verify requires the source provider")
		}
		opts, err := c.Runner(res, "")
		if err != nil {
			return err
		}
		opts.CheckMode = true
		output, err := runner.Exec(context.Background(), opts)
		os.Stdout.Write(output)
		return err
	}

	g := c.Generator(logger)
	var (
		result *jsonmetagen.GenerateResult
		verify *sink.VerifySink
	)
	if c.Verify != "" {
		dir, err := filepath.Abs(c.Verify)
		if err != nil {
			return fmt.Errorf("resolve verify path: %w", err)
		}
		verify = sink.NewVerifySink(dir)
		result, err = g.ToSink(context.Background(), verify)
		if err != nil {
			return err
		}
	} else {
		result, err = g.Generate()
		if err != nil {
			return err
		}
	}

	report.Print(os.Stdout, result.Diagnostics, c.Verbose)

	if n := result.Diagnostics.ErrorCount(); n > 0 {
		return fmt.Errorf("%d error(s)", n)
	}
	if verify != nil {
		if stale := verify.Stale(); len(stale) > 0 {
			return fmt.Errorf("generated files are out of date: %v (run jsonmeta gen)", stale)
		}
		fmt.Println("✓ Generated files are up to date")
	}
	fmt.Printf("✓ %d types registered\n", result.Registry.Len())
	return nil
}
