package provider

import (
	"context"
	"reflect"
	"testing"

	"github.com/broady/jsonmeta/internal/testfixtures"
	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

func loadFixtures(t *testing.T) *SourceProvider {
	t.Helper()
	p, err := NewSourceProvider(context.Background(), "", fixtures)
	if err != nil {
		t.Fatalf("NewSourceProvider: %v", err)
	}
	return p
}

func TestSourceProvider_Root(t *testing.T) {
	p := loadFixtures(t)

	id, err := p.Root("Point")
	if err != nil {
		t.Fatal(err)
	}
	if id != fixtures+".Point" {
		t.Errorf("Root(Point) = %q", id)
	}

	qualified, err := p.Root(fixtures + ".Node")
	if err != nil {
		t.Fatal(err)
	}
	if qualified != fixtures+".Node" {
		t.Errorf("Root(qualified) = %q", qualified)
	}

	if _, err := p.Root("Missing"); err == nil {
		t.Error("expected error for missing type")
	}
	if _, err := p.Root("Pair"); err == nil {
		t.Error("expected error for uninstantiated generic type")
	}
}

func TestSourceProvider_Descriptor(t *testing.T) {
	p := loadFixtures(t)
	id, _ := p.Root("Point3")
	d, err := p.Describe(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Fields) != 2 {
		t.Errorf("expected Z to be skipped, got %+v", d.Fields)
	}
	if d.Source.IsZero() || d.Source.Line == 0 {
		t.Errorf("expected a source position, got %+v", d.Source)
	}
}

func TestSourceProvider_Implements(t *testing.T) {
	p := loadFixtures(t)

	tests := []struct {
		name string
		want bool
	}{
		{"Level", true},
		{"Label", false},
		{"Point", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := p.Root(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			d, err := p.Describe(id)
			if err != nil {
				t.Fatal(err)
			}
			if got := d.Satisfies(ir.TextMarshaler); got != tt.want {
				t.Errorf("Satisfies(TextMarshaler) = %v, want %v", got, tt.want)
			}
		})
	}
}

// The two providers must agree on identity and structure.
func TestSourceProvider_MatchesReflection(t *testing.T) {
	src := loadFixtures(t)
	refl := NewReflectionProvider()

	roots := []struct {
		name string
		typ  reflect.Type
	}{
		{"Order", reflect.TypeFor[testfixtures.Order]()},
		{"Node", reflect.TypeFor[testfixtures.Node]()},
		{"Bag", reflect.TypeFor[testfixtures.Bag]()},
		{"Tail", reflect.TypeFor[testfixtures.Tail]()},
		{"Catalog", reflect.TypeFor[testfixtures.Catalog]()},
		{"Derived", reflect.TypeFor[testfixtures.Derived]()},
		{"Labelled", reflect.TypeFor[testfixtures.Labelled]()},
		{"Outer", reflect.TypeFor[testfixtures.Outer]()},
	}

	for _, root := range roots {
		t.Run(root.name, func(t *testing.T) {
			srcID, err := src.Root(root.name)
			if err != nil {
				t.Fatal(err)
			}
			reflID := refl.Root(root.typ)
			if srcID != reflID {
				t.Fatalf("IDs differ: source %q, reflection %q", srcID, reflID)
			}
			compareClosure(t, src, refl, srcID, map[ir.TypeID]bool{})
		})
	}
}

func compareClosure(t *testing.T, a, b Port, id ir.TypeID, seen map[ir.TypeID]bool) {
	t.Helper()
	if seen[id] {
		return
	}
	seen[id] = true

	da, errA := a.Describe(id)
	db, errB := b.Describe(id)
	if errA != nil || errB != nil {
		t.Fatalf("Describe(%s): %v / %v", id, errA, errB)
	}
	if da.Kind != db.Kind || da.Name != db.Name || da.Elem != db.Elem || da.Key != db.Key || da.Len != db.Len {
		t.Errorf("%s: descriptors differ:\nsource     %+v\nreflection %+v", id, da, db)
	}
	if da.IsEnumerableLike() != db.IsEnumerableLike() {
		t.Errorf("%s: enumerable-like differs", id)
	}
	if !reflect.DeepEqual(da.Implements, db.Implements) {
		t.Errorf("%s: implements differ: %v vs %v", id, da.Implements, db.Implements)
	}
	if len(da.Fields) != len(db.Fields) {
		t.Fatalf("%s: field count differs: %d vs %d", id, len(da.Fields), len(db.Fields))
	}
	for i := range da.Fields {
		fa, fb := da.Fields[i], db.Fields[i]
		if fa.Name != fb.Name || fa.WireName != fb.WireName || fa.Type != fb.Type || fa.Embedded != fb.Embedded {
			t.Errorf("%s: field %d differs: %+v vs %+v", id, i, fa, fb)
		}
		if da.Kind == reflect.Struct && da.IsNamed() && !isWellKnown(fa.Type) {
			compareClosure(t, a, b, fa.Type, seen)
		}
	}
	for _, next := range []ir.TypeID{da.Elem, da.Key} {
		if next != "" {
			compareClosure(t, a, b, next, seen)
		}
	}
}

// Well-known library types are compared by identity only; their
// unexported layout is not part of the contract.
func isWellKnown(id ir.TypeID) bool {
	_, ok := ir.LookupSimple(&ir.TypeDescriptor{ID: id})
	return ok
}
