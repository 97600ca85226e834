// Command jsonmeta generates reflection-free JSON metadata for the types
// marked with //jsonmeta:generate.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
	"github.com/broady/jsonmeta/cmd/jsonmeta/internal/check"
	"github.com/broady/jsonmeta/cmd/jsonmeta/internal/gen"
)

type CLI struct {
	LogLevel string `help:"Log level." enum:"debug,info,warn,error" default:"warn" name:"log-level"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate JSON metadata for marked types."`
	Check   check.Cmd  `cmd:"" help:"Walk marked types and report diagnostics without writing files."`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("jsonmeta"),
		kong.Description("Generate reflection-free JSON metadata for Go types."),
		kong.UsageOnError(),
		// Flags override values from the config files.
		kong.Configuration(kongyaml.Loader, ".jsonmeta.yaml", ".jsonmeta.yml"),
		kong.Configuration(kongtoml.Loader, ".jsonmeta.toml"),
	)

	ctx.Bind(newLogger(cli.LogLevel))
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
