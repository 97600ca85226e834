package jsonmetagen

import (
	"fmt"
	"go/token"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Provider names accepted by Config.Provider.
const (
	ProviderSource     = "source"
	ProviderReflection = "reflection"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
		return token.IsIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("gofile", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") && !strings.ContainsAny(name, `/\`)
	})
	return v
}

// Config holds the configuration for code generation.
type Config struct {
	// OutDir is the directory generated files are written to by ToDir.
	// Defaults to the directory of the package when generating from a
	// single package.
	OutDir string

	// Dir is the working directory for loading packages.
	// If empty, the current directory is used.
	Dir string

	// Provider selects the type introspection strategy.
	// "source" - analyzes Go source with go/packages (default for FromPackages)
	// "reflection" - uses runtime reflection (default for FromTypes)
	Provider string `validate:"required,oneof=source reflection"`

	// Packages are the package patterns to scan for //jsonmeta:generate
	// directives when using the source provider.
	Packages []string `validate:"dive,required"`

	// PackageName is the package clause of the generated file.
	PackageName string `validate:"required,goident"`

	// PackagePath is the import path of the generated file's package.
	// Types in this package are referenced unqualified.
	PackagePath string

	// ContextName is the name of the generated context type.
	// Default: "Context"
	ContextName string `validate:"required,goident"`

	// FileName is the name of the generated Go file.
	// Default: "jsonmeta_gen.go"
	FileName string `validate:"required,gofile"`

	// Manifest enables a YAML manifest of identifiers, types and
	// diagnostics next to the generated file.
	Manifest bool

	// Strict reports identifier collisions as errors instead of warnings.
	Strict bool

	// Logger receives generation progress. If nil, slog.Default() is used.
	Logger *slog.Logger `validate:"-"`
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if result.ContextName == "" {
		result.ContextName = "Context"
	}
	if result.FileName == "" {
		result.FileName = "jsonmeta_gen.go"
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}

	return &result
}

// validateConfig checks cfg and returns a readable error listing every
// invalid field.
func validateConfig(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %q)", fe.Namespace(), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
