package provider

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	jsonMarshalerType   = reflect.TypeFor[json.Marshaler]()
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
)

// ReflectionProvider describes types using runtime reflection.
// It sees instantiated types only and has no source positions.
type ReflectionProvider struct {
	types map[ir.TypeID]reflect.Type
	descs map[ir.TypeID]*ir.TypeDescriptor
}

// NewReflectionProvider creates an empty reflection provider.
func NewReflectionProvider() *ReflectionProvider {
	return &ReflectionProvider{
		types: make(map[ir.TypeID]reflect.Type),
		descs: make(map[ir.TypeID]*ir.TypeDescriptor),
	}
}

// Root registers t and returns its identity.
func (p *ReflectionProvider) Root(t reflect.Type) ir.TypeID {
	return p.register(t)
}

// Describe returns the descriptor for id.
func (p *ReflectionProvider) Describe(id ir.TypeID) (*ir.TypeDescriptor, error) {
	if d, ok := p.descs[id]; ok {
		return d, nil
	}
	t, ok := p.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}
	d := p.describe(t, id)
	p.descs[id] = d
	return d, nil
}

func (p *ReflectionProvider) register(t reflect.Type) ir.TypeID {
	id := reflectExpr(t).ID()
	if _, ok := p.types[id]; !ok {
		p.types[id] = t
	}
	return id
}

func (p *ReflectionProvider) describe(t reflect.Type, id ir.TypeID) *ir.TypeDescriptor {
	expr := reflectExpr(t)
	d := &ir.TypeDescriptor{
		ID:   id,
		Expr: expr,
		Kind: t.Kind(),
	}
	if expr.Kind == ir.ExprNamed {
		d.Name = expr.Name
		d.Package = expr.Package
		for _, arg := range expr.Args {
			d.TypeArgs = append(d.TypeArgs, arg.ID())
		}
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Pointer, reflect.Chan:
		d.Elem = p.register(t.Elem())
	case reflect.Array:
		d.Elem = p.register(t.Elem())
		d.Len = t.Len()
	case reflect.Map:
		d.Key = p.register(t.Key())
		d.Elem = p.register(t.Elem())
	case reflect.Func:
		d.Iterable = isReflectSeq(t)
	case reflect.Struct:
		if d.IsNamed() {
			d.Fields = p.fields(t)
		}
	}

	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer {
		d.Iterable = d.Iterable || hasReflectAll(t)
		d.Implements = reflectImplements(t)
	}
	return d
}

// fields returns the exported, non-skipped fields in declaration order.
func (p *ReflectionProvider) fields(t reflect.Type) []ir.Member {
	var members []ir.Member
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		jsonName, skip := parseJSONTag(field.Tag.Get("json"), field.Name)
		if skip {
			continue
		}

		members = append(members, ir.Member{
			Name:     field.Name,
			WireName: jsonName,
			Type:     p.register(field.Type),
			Embedded: field.Anonymous,
			Tag:      string(field.Tag),
		})
	}
	return members
}

// isReflectSeq reports whether t has the shape of iter.Seq or iter.Seq2.
func isReflectSeq(t reflect.Type) bool {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	yield := t.In(0)
	return yield.Kind() == reflect.Func &&
		yield.NumIn() <= 2 &&
		yield.NumOut() == 1 &&
		yield.Out(0).Kind() == reflect.Bool
}

// hasReflectAll reports whether t or *t has an All method returning an
// iterator.
func hasReflectAll(t reflect.Type) bool {
	for _, rt := range []reflect.Type{t, reflect.PointerTo(t)} {
		m, ok := rt.MethodByName("All")
		if !ok {
			continue
		}
		// Method types include the receiver.
		if m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && isReflectSeq(m.Type.Out(0)) {
			return true
		}
	}
	return false
}

func reflectImplements(t reflect.Type) []string {
	pt := reflect.PointerTo(t)
	var ifaces []string
	if pt.Implements(jsonMarshalerType) && pt.Implements(jsonUnmarshalerType) {
		ifaces = append(ifaces, ir.JSONMarshaler)
	}
	if pt.Implements(textMarshalerType) && pt.Implements(textUnmarshalerType) {
		ifaces = append(ifaces, ir.TextMarshaler)
	}
	return ifaces
}

// reflectExpr builds the TypeExpr for t.
func reflectExpr(t reflect.Type) *ir.TypeExpr {
	if name := t.Name(); name != "" {
		if t.PkgPath() == "" {
			return ir.Basic(name)
		}
		return parseNamed(t.PkgPath(), name)
	}

	switch t.Kind() {
	case reflect.Slice:
		return ir.SliceOf(reflectExpr(t.Elem()))
	case reflect.Array:
		return ir.ArrayOf(t.Len(), reflectExpr(t.Elem()))
	case reflect.Map:
		return ir.MapOf(reflectExpr(t.Key()), reflectExpr(t.Elem()))
	case reflect.Pointer:
		return ir.PointerTo(reflectExpr(t.Elem()))
	default:
		return ir.Other(t.String())
	}
}

// parseNamed builds the expression for a named type from its reflect name.
// Instantiated generic types carry their type arguments in the name, spelled
// with full import paths: "Pair[int,example.com/shop.Item]".
func parseNamed(pkg, name string) *ir.TypeExpr {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return ir.Named(pkg, name)
	}
	var args []*ir.TypeExpr
	for _, arg := range splitTopLevel(name[open+1 : len(name)-1]) {
		args = append(args, parseTypeString(arg))
	}
	return ir.Named(pkg, name[:open], args...)
}

// parseTypeString parses a type spelled the way reflect spells generic type
// arguments.
func parseTypeString(s string) *ir.TypeExpr {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "[]"):
		return ir.SliceOf(parseTypeString(s[2:]))
	case strings.HasPrefix(s, "["):
		end := strings.IndexByte(s, ']')
		n, err := strconv.Atoi(s[1:max(end, 1)])
		if end < 0 || err != nil {
			return ir.Other(s)
		}
		return ir.ArrayOf(n, parseTypeString(s[end+1:]))
	case strings.HasPrefix(s, "map["):
		end := matchBracket(s, 3)
		if end < 0 {
			return ir.Other(s)
		}
		return ir.MapOf(parseTypeString(s[4:end]), parseTypeString(s[end+1:]))
	case strings.HasPrefix(s, "*"):
		return ir.PointerTo(parseTypeString(s[1:]))
	}

	head := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		head = s[:i]
	}
	if strings.ContainsAny(head, " {(") {
		return ir.Other(s)
	}
	if dot := strings.LastIndexByte(head, '.'); dot >= 0 {
		return parseNamed(s[:dot], s[dot+1:])
	}
	if !strings.Contains(s, "[") {
		return ir.Basic(s)
	}
	return ir.Other(s)
}

// matchBracket returns the index of the ']' matching the '[' at open.
func matchBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits a type argument list at commas outside brackets,
// braces and parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
