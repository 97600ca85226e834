package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/fatih/color"
)

func TestPrint(t *testing.T) {
	color.NoColor = true

	c := diag.NewCollector(false)
	c.Generated(diag.Position{}, "ex.Root", "ex.Root", "Root")
	c.Unsupported(diag.Position{File: "root.go", Line: 12}, "ex.Root", "ex.Root", "Ch", "chan int", "Unsupported")
	c.Collision(diag.Position{}, "ex.Root", "v2.Item", "v2_Item", "v1.Item")

	tests := []struct {
		name    string
		verbose bool
		want    []string
	}{
		{
			name: "quiet",
			want: []string{
				"root.go:12 error: member ex.Root.Ch has unsupported Unsupported type chan int (root ex.Root)",
				"warning: v2.Item renamed to v2_Item: natural identifier is used by v1.Item",
				"1 generated, 1 error(s), 1 warning(s)",
			},
		},
		{
			name:    "verbose",
			verbose: true,
			want: []string{
				"info: generated ex.Root as Root (root ex.Root)",
				"root.go:12 error: member ex.Root.Ch has unsupported Unsupported type chan int (root ex.Root)",
				"warning: v2.Item renamed to v2_Item: natural identifier is used by v1.Item",
				"1 generated, 1 error(s), 1 warning(s)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Print(&buf, c, tt.verbose)
			got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines, want %d:\n%s", len(got), len(tt.want), buf.String())
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPrint_Empty(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	Print(&buf, diag.NewCollector(false), false)
	if got := buf.String(); got != "0 generated\n" {
		t.Errorf("got %q", got)
	}
}
