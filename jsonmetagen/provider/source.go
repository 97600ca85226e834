package provider

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"reflect"
	"strings"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
	"golang.org/x/tools/go/packages"
)

// SourceProvider describes types by analyzing Go source code with go/types.
type SourceProvider struct {
	pkgs  []*packages.Package
	types map[ir.TypeID]types.Type
	descs map[ir.TypeID]*ir.TypeDescriptor
}

// NewSourceProvider loads the packages matching patterns, relative to dir
// (the current directory if empty).
func NewSourceProvider(ctx context.Context, dir string, patterns ...string) (*SourceProvider, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedImports |
			packages.NeedTypes |
			packages.NeedSyntax |
			packages.NeedTypesInfo,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for errors in loaded packages
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}

	return &SourceProvider{
		pkgs:  pkgs,
		types: make(map[ir.TypeID]types.Type),
		descs: make(map[ir.TypeID]*ir.TypeDescriptor),
	}, nil
}

// Packages returns the loaded packages in load order.
func (p *SourceProvider) Packages() []*packages.Package {
	return p.pkgs
}

// Root resolves a type name and returns its identity. The name is either
// qualified with an import path ("example.com/shop.Item") or a bare name
// looked up in every loaded package.
func (p *SourceProvider) Root(name string) (ir.TypeID, error) {
	pkgPath := ""
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		pkgPath, name = name[:dot], name[dot+1:]
	}

	for _, pkg := range p.pkgs {
		if pkgPath != "" && pkg.PkgPath != pkgPath {
			continue
		}
		obj := pkg.Types.Scope().Lookup(name)
		if obj == nil {
			continue
		}

		typeName, ok := obj.(*types.TypeName)
		if !ok {
			continue
		}
		if named, ok := typeName.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
			return "", fmt.Errorf("type %s is generic; use an instantiation in a field instead", name)
		}
		return p.register(typeName.Type()), nil
	}
	return "", fmt.Errorf("type %s not found in any package", name)
}

// Describe returns the descriptor for id.
func (p *SourceProvider) Describe(id ir.TypeID) (*ir.TypeDescriptor, error) {
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

func (p *SourceProvider) register(t types.Type) ir.TypeID {
	t = types.Unalias(t)
	id := sourceExpr(t).ID()
	if _, ok := p.types[id]; !ok {
		p.types[id] = t
	}
	return id
}

func (p *SourceProvider) describe(t types.Type, id ir.TypeID) *ir.TypeDescriptor {
	expr := sourceExpr(t)
	d := &ir.TypeDescriptor{
		ID:   id,
		Expr: expr,
		Kind: kindOf(t),
	}
	if named, ok := t.(*types.Named); ok && expr.Kind == ir.ExprNamed {
		d.Name = expr.Name
		d.Package = expr.Package
		for _, arg := range expr.Args {
			d.TypeArgs = append(d.TypeArgs, arg.ID())
		}
		d.Source = p.source(named.Obj())
	}

	switch u := t.Underlying().(type) {
	case *types.Slice:
		d.Elem = p.register(u.Elem())
	case *types.Pointer:
		d.Elem = p.register(u.Elem())
	case *types.Chan:
		d.Elem = p.register(u.Elem())
	case *types.Array:
		d.Elem = p.register(u.Elem())
		d.Len = int(u.Len())
	case *types.Map:
		d.Key = p.register(u.Key())
		d.Elem = p.register(u.Elem())
	case *types.Signature:
		d.Iterable = isSourceSeq(u)
	case *types.Struct:
		if d.IsNamed() {
			d.Fields = p.fields(u)
		}
	}

	if d.Kind != reflect.Interface && d.Kind != reflect.Pointer {
		ms := types.NewMethodSet(types.NewPointer(t))
		d.Iterable = d.Iterable || hasSourceAll(ms)
		d.Implements = sourceImplements(t)
	}
	return d
}

// fields returns the exported, non-skipped fields in declaration order.
func (p *SourceProvider) fields(st *types.Struct) []ir.Member {
	var members []ir.Member
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)

		// Skip unexported fields
		if !field.Exported() {
			continue
		}

		tag := reflect.StructTag(st.Tag(i))
		jsonName, skip := parseJSONTag(tag.Get("json"), field.Name())
		if skip {
			continue
		}

		members = append(members, ir.Member{
			Name:     field.Name(),
			WireName: jsonName,
			Type:     p.register(field.Type()),
			Embedded: field.Embedded(),
			Tag:      string(tag),
		})
	}
	return members
}

// source extracts source location information.
func (p *SourceProvider) source(obj types.Object) ir.Source {
	pos := obj.Pos()
	if !pos.IsValid() {
		return ir.Source{}
	}

	for _, pkg := range p.pkgs {
		if pkg.Fset != nil {
			position := pkg.Fset.Position(pos)
			return ir.Source{
				File:   position.Filename,
				Line:   position.Line,
				Column: position.Column,
			}
		}
	}

	return ir.Source{}
}

// sourceExpr builds the TypeExpr for t. Basic types use their canonical
// names, so byte and rune spell as uint8 and int32 the way reflect does.
func sourceExpr(t types.Type) *ir.TypeExpr {
	switch t := types.Unalias(t).(type) {
	case *types.Basic:
		return ir.Basic(types.Typ[t.Kind()].Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return ir.Basic(obj.Name())
		}
		var args []*ir.TypeExpr
		targs := t.TypeArgs()
		for i := 0; i < targs.Len(); i++ {
			args = append(args, sourceExpr(targs.At(i)))
		}
		return ir.Named(obj.Pkg().Path(), obj.Name(), args...)
	case *types.Slice:
		return ir.SliceOf(sourceExpr(t.Elem()))
	case *types.Array:
		return ir.ArrayOf(int(t.Len()), sourceExpr(t.Elem()))
	case *types.Map:
		return ir.MapOf(sourceExpr(t.Key()), sourceExpr(t.Elem()))
	case *types.Pointer:
		return ir.PointerTo(sourceExpr(t.Elem()))
	default:
		return ir.Other(types.TypeString(t, nil))
	}
}

var basicKinds = map[types.BasicKind]reflect.Kind{
	types.Bool:          reflect.Bool,
	types.Int:           reflect.Int,
	types.Int8:          reflect.Int8,
	types.Int16:         reflect.Int16,
	types.Int32:         reflect.Int32,
	types.Int64:         reflect.Int64,
	types.Uint:          reflect.Uint,
	types.Uint8:         reflect.Uint8,
	types.Uint16:        reflect.Uint16,
	types.Uint32:        reflect.Uint32,
	types.Uint64:        reflect.Uint64,
	types.Uintptr:       reflect.Uintptr,
	types.Float32:       reflect.Float32,
	types.Float64:       reflect.Float64,
	types.Complex64:     reflect.Complex64,
	types.Complex128:    reflect.Complex128,
	types.String:        reflect.String,
	types.UnsafePointer: reflect.UnsafePointer,
}

// kindOf maps the underlying type of t to the reflect kind it has at run time.
func kindOf(t types.Type) reflect.Kind {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return basicKinds[u.Kind()]
	case *types.Struct:
		return reflect.Struct
	case *types.Slice:
		return reflect.Slice
	case *types.Array:
		return reflect.Array
	case *types.Map:
		return reflect.Map
	case *types.Pointer:
		return reflect.Pointer
	case *types.Interface:
		return reflect.Interface
	case *types.Signature:
		return reflect.Func
	case *types.Chan:
		return reflect.Chan
	default:
		return reflect.Invalid
	}
}

// isSourceSeq reports whether sig has the shape of iter.Seq or iter.Seq2.
func isSourceSeq(sig *types.Signature) bool {
	if sig.Params().Len() != 1 || sig.Results().Len() != 0 {
		return false
	}
	yield, ok := sig.Params().At(0).Type().Underlying().(*types.Signature)
	if !ok || yield.Params().Len() > 2 || yield.Results().Len() != 1 {
		return false
	}
	b, ok := yield.Results().At(0).Type().Underlying().(*types.Basic)
	return ok && b.Kind() == types.Bool
}

// hasSourceAll reports whether the method set has an All method returning
// an iterator.
func hasSourceAll(ms *types.MethodSet) bool {
	sel := ms.Lookup(nil, "All")
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 0 || sig.Results().Len() != 1 {
		return false
	}
	seq, ok := sig.Results().At(0).Type().Underlying().(*types.Signature)
	return ok && isSourceSeq(seq)
}

// Method sets of the encoding.TextMarshaler and json.Marshaler families,
// built without loading those packages.
var (
	textMarshalerIface   = methodIface("MarshalText", nil, []types.Type{byteSlice, errorType})
	textUnmarshalerIface = methodIface("UnmarshalText", []types.Type{byteSlice}, []types.Type{errorType})
	jsonMarshalerIface   = methodIface("MarshalJSON", nil, []types.Type{byteSlice, errorType})
	jsonUnmarshalerIface = methodIface("UnmarshalJSON", []types.Type{byteSlice}, []types.Type{errorType})
)

var (
	byteSlice = types.NewSlice(types.Typ[types.Byte])
	errorType = types.Universe.Lookup("error").Type()
)

func methodIface(name string, params, results []types.Type) *types.Interface {
	tuple := func(ts []types.Type) *types.Tuple {
		vars := make([]*types.Var, len(ts))
		for i, t := range ts {
			vars[i] = types.NewParam(token.NoPos, nil, "", t)
		}
		return types.NewTuple(vars...)
	}
	sig := types.NewSignatureType(nil, nil, nil, tuple(params), tuple(results), false)
	fn := types.NewFunc(token.NoPos, nil, name, sig)
	return types.NewInterfaceType([]*types.Func{fn}, nil).Complete()
}

// sourceImplements checks *t for marshaler pairs.
func sourceImplements(t types.Type) []string {
	pt := types.NewPointer(t)
	var ifaces []string
	if types.Implements(pt, jsonMarshalerIface) && types.Implements(pt, jsonUnmarshalerIface) {
		ifaces = append(ifaces, ir.JSONMarshaler)
	}
	if types.Implements(pt, textMarshalerIface) && types.Implements(pt, textUnmarshalerIface) {
		ifaces = append(ifaces, ir.TextMarshaler)
	}
	return ifaces
}
