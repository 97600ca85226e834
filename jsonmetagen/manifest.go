package jsonmetagen

import (
	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/broady/jsonmeta/jsonmetagen/graph"
	"gopkg.in/yaml.v3"
)

// Manifest is a YAML summary of a generation session, written next to the
// generated file when enabled.
type Manifest struct {
	Package     string               `yaml:"package"`
	Context     string               `yaml:"context"`
	Types       []ManifestType       `yaml:"types,omitempty"`
	Failed      []string             `yaml:"failed,omitempty"`
	Diagnostics []ManifestDiagnostic `yaml:"diagnostics,omitempty"`
}

// ManifestType is one registered type.
type ManifestType struct {
	Identifier string `yaml:"identifier"`
	Type       string `yaml:"type"`
	Shape      string `yaml:"shape"`
}

// ManifestDiagnostic is one warning or error of the session log.
type ManifestDiagnostic struct {
	Kind     string `yaml:"kind"`
	Severity string `yaml:"severity"`
	Type     string `yaml:"type"`
	Member   string `yaml:"member,omitempty"`
	Message  string `yaml:"message"`
	File     string `yaml:"file,omitempty"`
	Line     int    `yaml:"line,omitempty"`
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// ParseManifest decodes a manifest written by Marshal.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func buildManifest(cfg *Config, s *graph.Session) *Manifest {
	m := &Manifest{
		Package: cfg.PackagePath,
		Context: cfg.ContextName,
	}
	if m.Package == "" {
		m.Package = cfg.PackageName
	}
	for _, e := range s.Registry().Entries() {
		m.Types = append(m.Types, ManifestType{
			Identifier: e.Identifier,
			Type:       string(e.ID),
			Shape:      e.Shape.String(),
		})
	}
	for _, id := range s.Registry().Failed() {
		m.Failed = append(m.Failed, string(id))
	}
	for _, d := range s.Diagnostics().Diagnostics() {
		if d.Severity == diag.SeverityInfo {
			continue
		}
		m.Diagnostics = append(m.Diagnostics, ManifestDiagnostic{
			Kind:     string(d.Kind),
			Severity: d.Severity.String(),
			Type:     d.Type,
			Member:   d.Member,
			Message:  d.Message,
			File:     d.File,
			Line:     d.Line,
		})
	}
	return m
}
