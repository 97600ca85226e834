package main

import (
	_ "embed"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver"
)

//go:embed VERSION
var embeddedVersion string

type VersionCmd struct {
	Short bool `help:"Print only the release version, without build metadata." short:"s"`
}

func (c *VersionCmd) Run() error {
	v, err := buildVersion(embeddedVersion, readBuildInfo())
	if err != nil {
		return err
	}
	if c.Short {
		fmt.Printf("%d.%d.%d\n", v.Major(), v.Minor(), v.Patch())
		return nil
	}
	fmt.Println(v)
	return nil
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

// buildVersion derives the reported version. A module build reports the
// module version. A local build reports the embedded release as a "devel"
// prerelease carrying the VCS revision, and "dirty" for modified trees, as
// build metadata: 0.1.0-devel+abc1234.dirty.
func buildVersion(embedded string, info *debug.BuildInfo) (*semver.Version, error) {
	base, err := semver.NewVersion(strings.TrimSpace(embedded))
	if err != nil {
		return nil, fmt.Errorf("invalid embedded version %q: %w", embedded, err)
	}
	if info == nil {
		return base, nil
	}
	if mv := info.Main.Version; mv != "" && mv != "(devel)" {
		return semver.NewVersion(mv)
	}

	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) >= 7 {
				rev = s.Value[:7]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	var meta []string
	if rev != "" {
		meta = append(meta, rev)
	}
	if dirty {
		meta = append(meta, "dirty")
	}

	v, err := base.SetPrerelease("devel")
	if err != nil {
		return nil, err
	}
	v, err = v.SetMetadata(strings.Join(meta, "."))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
