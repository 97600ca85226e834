// Package testfixtures provides types used for testing the jsonmeta generator.
package testfixtures

import (
	"iter"
	"math/big"
	"net/url"
	"time"

	"github.com/Masterminds/semver"
	"github.com/broady/jsonmeta/internal/testfixtures/shop"
	shopv2 "github.com/broady/jsonmeta/internal/testfixtures/shop/v2"
	"github.com/google/uuid"
)

// Point is a test fixture with two simple members.
type Point struct {
	X int
	Y int
}

// Point3 is a test fixture with a skipped member.
type Point3 struct {
	X int
	Y int
	Z int `json:"-"`
}

// Node is a self-referential test fixture.
type Node struct {
	Value int
	Next  *Node
}

// Ring is enumerable through its All method but is neither a slice nor a map.
type Ring struct {
	items []int
}

// All yields the ring's items.
func (r *Ring) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, v := range r.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Bag holds a member of an unsupported collection shape.
type Bag struct {
	Label string
	Items Ring
}

// Holder depends on Bag and therefore cannot be generated either.
type Holder struct {
	Bag   Bag
	Point Point
}

// Left and Right reference each other.
type Left struct {
	Name  string
	Right *Right
}

// Right is the other half of the Left/Right cycle.
type Right struct {
	Left []Left
}

// Head is the entry of a cycle that contains a failing type.
type Head struct {
	Tail *Tail
}

// Tail closes the cycle back to Head and owns an unsupported channel.
type Tail struct {
	Head   *Head
	Events chan int
}

// Pair is a generic test fixture.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Level is a named integer with a text form.
type Level int

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	switch l {
	case 0:
		return []byte("low"), nil
	default:
		return []byte("high"), nil
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	if string(b) == "low" {
		*l = 0
	} else {
		*l = 1
	}
	return nil
}

// Color is a named string.
type Color string

// Order exercises every supported shape.
type Order struct {
	ID       uuid.UUID  `json:"id"`
	Placed   time.Time  `json:"placed"`
	Total    big.Float  `json:"total"`
	Serial   big.Int    `json:"serial"`
	Callback url.URL    `json:"callback"`
	Schema   semver.Version
	Priority Level
	Color    Color
	Timeout  time.Duration
	Raw      []byte
	Tags     []string
	Lines    []Line
	Grid     [2][2]int
	Counts   map[string]int
	ByCode   map[uint16]*Line
	Labels   Pair[int, string]
	Origin   *Point
	Nested   [][]Point
	internal int
}

// Line is an order line.
type Line struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"qty"`
}

// Catalog holds both Item types.
type Catalog struct {
	Current shop.Item
	Next    shopv2.Item
}

// Callbacks holds members that have no JSON mapping.
type Callbacks struct {
	OnDone  func()
	Payload any
	Phase   complex128
	Anon    struct{ A int }
	ByPoint map[Point]string
}

// Base is embedded by Derived.
type Base struct {
	ID string
}

// Derived embeds Base as a regular member.
type Derived struct {
	Base
	Name string
}

// Outer has members whose types are not exported.
type Outer struct {
	Name  string
	Inner inner
	Codes []code
}

type inner struct {
	A int
}

type code int

// Envelope depends on Outer.
type Envelope struct {
	Body  Outer
	Point Point
}

// Clash has two members sharing one JSON name.
type Clash struct {
	A     int `json:"x"`
	B     int `json:"x"`
	Point Point
}

// Label has text methods whose signatures do not match
// encoding.TextMarshaler.
type Label struct {
	Text string
}

// MarshalText returns the text as a string, not a byte slice.
func (l Label) MarshalText() (string, error) { return l.Text, nil }

// UnmarshalText takes a string, not a byte slice.
func (l *Label) UnmarshalText(s string) error {
	l.Text = s
	return nil
}

// Labelled holds a Label and a real text marshaler.
type Labelled struct {
	Label Label
	Level Level
}
