package provider

import (
	"errors"
	"reflect"
	"testing"

	"github.com/broady/jsonmeta/internal/testfixtures"
	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

const fixtures = "github.com/broady/jsonmeta/internal/testfixtures"

func describeField(t *testing.T, p Port, owner *ir.TypeDescriptor, name string) *ir.TypeDescriptor {
	t.Helper()
	for _, m := range owner.Fields {
		if m.Name == name {
			d, err := p.Describe(m.Type)
			if err != nil {
				t.Fatalf("Describe(%s): %v", m.Type, err)
			}
			return d
		}
	}
	t.Fatalf("%s has no field %s", owner.ID, name)
	return nil
}

func TestReflectionProvider_Point(t *testing.T) {
	p := NewReflectionProvider()
	id := p.Root(reflect.TypeFor[testfixtures.Point]())

	if id != fixtures+".Point" {
		t.Fatalf("Root() = %q", id)
	}
	d, err := p.Describe(id)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Name != "Point" || d.Package != fixtures || d.Kind != reflect.Struct {
		t.Errorf("unexpected descriptor %+v", d)
	}
	if len(d.Fields) != 2 || d.Fields[0].Name != "X" || d.Fields[1].Name != "Y" {
		t.Fatalf("fields = %+v, want X, Y", d.Fields)
	}
	if d.Fields[0].Type != "int" {
		t.Errorf("X type = %q, want int", d.Fields[0].Type)
	}

	again, _ := p.Describe(id)
	if again != d {
		t.Error("Describe should return the cached descriptor")
	}
}

func TestReflectionProvider_SkipsTaggedAndUnexported(t *testing.T) {
	p := NewReflectionProvider()
	d, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Point3]()))
	if len(d.Fields) != 2 {
		t.Errorf("expected Z to be skipped, got %+v", d.Fields)
	}

	order, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Order]()))
	for _, m := range order.Fields {
		if m.Name == "internal" {
			t.Error("unexported field should be skipped")
		}
	}
	if order.Fields[0].WireName != "id" {
		t.Errorf("json tag not honored: %+v", order.Fields[0])
	}
}

func TestReflectionProvider_Shapes(t *testing.T) {
	p := NewReflectionProvider()
	order, err := p.Describe(p.Root(reflect.TypeFor[testfixtures.Order]()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		field string
		id    ir.TypeID
		kind  reflect.Kind
	}{
		{"ID", "github.com/google/uuid.UUID", reflect.Array},
		{"Placed", "time.Time", reflect.Struct},
		{"Tags", "[]string", reflect.Slice},
		{"Lines", "[]" + fixtures + ".Line", reflect.Slice},
		{"Grid", "[2][2]int", reflect.Array},
		{"Counts", "map[string]int", reflect.Map},
		{"ByCode", "map[uint16]*" + fixtures + ".Line", reflect.Map},
		{"Labels", fixtures + ".Pair[int,string]", reflect.Struct},
		{"Origin", "*" + fixtures + ".Point", reflect.Pointer},
		{"Raw", "[]uint8", reflect.Slice},
		{"Timeout", "time.Duration", reflect.Int64},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			d := describeField(t, p, order, tt.field)
			if d.ID != tt.id {
				t.Errorf("ID = %q, want %q", d.ID, tt.id)
			}
			if d.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", d.Kind, tt.kind)
			}
		})
	}

	grid := describeField(t, p, order, "Grid")
	if grid.Len != 2 || grid.Elem != "[2]int" {
		t.Errorf("grid = %+v", grid)
	}
	byCode := describeField(t, p, order, "ByCode")
	if byCode.Key != "uint16" {
		t.Errorf("map key = %q", byCode.Key)
	}
}

func TestReflectionProvider_Generics(t *testing.T) {
	p := NewReflectionProvider()
	d, err := p.Describe(p.Root(reflect.TypeFor[testfixtures.Pair[string, []testfixtures.Point]]()))
	if err != nil {
		t.Fatal(err)
	}

	if d.Name != "Pair" {
		t.Errorf("Name = %q, want Pair", d.Name)
	}
	want := []ir.TypeID{"string", "[]" + fixtures + ".Point"}
	if !reflect.DeepEqual(d.TypeArgs, want) {
		t.Errorf("TypeArgs = %v, want %v", d.TypeArgs, want)
	}
	if got := d.Expr.ShortString(); got != "Pair[string,[]Point]" {
		t.Errorf("ShortString() = %q", got)
	}
	if d.Fields[1].Type != "[]"+fixtures+".Point" {
		t.Errorf("Value type = %q", d.Fields[1].Type)
	}
}

func TestReflectionProvider_Enumerables(t *testing.T) {
	p := NewReflectionProvider()
	bag, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Bag]()))
	ring := describeField(t, p, bag, "Items")
	if !ring.IsEnumerableLike() {
		t.Error("Ring should be enumerable-like through All")
	}

	tail, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Tail]()))
	events := describeField(t, p, tail, "Events")
	if events.Kind != reflect.Chan || !events.IsEnumerableLike() {
		t.Errorf("chan should be enumerable-like: %+v", events)
	}

	if point, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Point]())); point.IsEnumerableLike() {
		t.Error("Point must not be enumerable-like")
	}
}

func TestReflectionProvider_Implements(t *testing.T) {
	p := NewReflectionProvider()
	level, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Level]()))
	if !level.Satisfies(ir.TextMarshaler) {
		t.Errorf("Level should implement TextMarshaler, got %v", level.Implements)
	}
	color, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Color]()))
	if len(color.Implements) != 0 {
		t.Errorf("Color implements nothing, got %v", color.Implements)
	}
}

func TestReflectionProvider_Embedded(t *testing.T) {
	p := NewReflectionProvider()
	d, _ := p.Describe(p.Root(reflect.TypeFor[testfixtures.Derived]()))
	if len(d.Fields) != 2 || d.Fields[0].Name != "Base" || !d.Fields[0].Embedded {
		t.Errorf("embedded field should be a member: %+v", d.Fields)
	}
}

func TestReflectionProvider_UnknownID(t *testing.T) {
	p := NewReflectionProvider()
	_, err := p.Describe("example.com/never.Seen")
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestParseTypeString(t *testing.T) {
	tests := []struct {
		in   string
		want ir.TypeID
		kind ir.ExprKind
	}{
		{"int", "int", ir.ExprBasic},
		{"[]string", "[]string", ir.ExprSlice},
		{"[4]uint8", "[4]uint8", ir.ExprArray},
		{"map[string][]int", "map[string][]int", ir.ExprMap},
		{"*example.com/a.B", "*example.com/a.B", ir.ExprPointer},
		{"gopkg.in/yaml.v3.Node", "gopkg.in/yaml.v3.Node", ir.ExprNamed},
		{"example.com/p.Pair[int,example.com/q.R[string]]", "example.com/p.Pair[int,example.com/q.R[string]]", ir.ExprNamed},
		{"interface {}", "interface {}", ir.ExprOther},
		{"func(int) bool", "func(int) bool", ir.ExprOther},
		{"chan int", "chan int", ir.ExprOther},
		{"[x]int", "[x]int", ir.ExprOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseTypeString(tt.in)
			if got.ID() != tt.want {
				t.Errorf("ID() = %q, want %q", got.ID(), tt.want)
			}
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
		})
	}
}

func TestParseJSONTag(t *testing.T) {
	tests := []struct {
		tag      string
		wantName string
		wantSkip bool
	}{
		{"", "Field", false},
		{"name", "name", false},
		{"name,omitempty", "name", false},
		{",omitempty", "Field", false},
		{"-", "", true},
		{"-,", "-", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			name, skip := parseJSONTag(tt.tag, "Field")
			if name != tt.wantName || skip != tt.wantSkip {
				t.Errorf("parseJSONTag(%q) = (%q, %v), want (%q, %v)", tt.tag, name, skip, tt.wantName, tt.wantSkip)
			}
		})
	}
}
