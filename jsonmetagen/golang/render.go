// Package golang renders a schema of artifacts as Go source that builds
// jsonmeta.TypeInfo values without reflection.
//
// The output declares one context type. Each artifact gets an accessor
// method on the context that constructs its metadata on first use and
// caches it for the lifetime of the context. Object artifacts also get
// construct, write and read routines.
package golang

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/tools/imports"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// Options configures rendering.
type Options struct {
	// PackageName is the package clause of the generated file.
	// Defaults to the schema package name.
	PackageName string

	// PackagePath is the import path of the generated file's package.
	// Types in this package are not qualified. Defaults to the schema
	// package path.
	PackagePath string

	// ContextName is the name of the generated context type.
	// Default: "Context"
	ContextName string

	// FileName is used in error messages from formatting.
	FileName string
}

// Render renders schema as a formatted Go source file.
func Render(schema *ir.Schema, opts Options) ([]byte, error) {
	if opts.PackageName == "" {
		opts.PackageName = schema.Package.Name
	}
	if opts.PackagePath == "" {
		opts.PackagePath = schema.Package.Path
	}
	if opts.ContextName == "" {
		opts.ContextName = "Context"
	}
	if opts.FileName == "" {
		opts.FileName = "jsonmeta_gen.go"
	}
	if opts.PackageName == "" {
		return nil, fmt.Errorf("package name is required")
	}

	r := &renderer{
		schema:  schema,
		opts:    opts,
		imports: newImportSet(opts.PackagePath, opts.PackageName),
	}

	if len(schema.Artifacts) > 0 {
		r.imports.add("sync")
		r.imports.add(runtimePath)
	}

	var body bytes.Buffer
	for _, a := range schema.Artifacts {
		if err := r.renderArtifact(&body, a); err != nil {
			return nil, fmt.Errorf("render %s: %w", a.Identifier, err)
		}
	}

	// The header needs the complete import set, so it is written last.
	var buf bytes.Buffer
	r.renderHeader(&buf)
	buf.Write(body.Bytes())

	out, err := imports.Process(opts.FileName, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

type renderer struct {
	schema  *ir.Schema
	opts    Options
	imports *importSet
}

func (r *renderer) ctx() string { return r.opts.ContextName }

// typ spells a type in the generated file, recording its imports.
func (r *renderer) typ(e *ir.TypeExpr) string {
	return e.Spelling(r.imports.qualify)
}

// meta returns the expression of type func() *jsonmeta.TypeInfo[T] for ref.
func (r *renderer) meta(ref ir.MetaRef) string {
	if !ref.IsSimple() {
		return "c." + ref.Identifier
	}
	if ref.Simple.Generic {
		return "jsonmeta." + ref.Simple.Helper + "[" + r.typ(ref.Type) + "]"
	}
	return "jsonmeta." + ref.Simple.Helper
}

func (r *renderer) renderHeader(buf *bytes.Buffer) {
	buf.WriteString("// Code generated by jsonmetagen. DO NOT EDIT.\n\n")
	fmt.Fprintf(buf, "package %s\n\n", r.opts.PackageName)

	buf.WriteString("import (\n")
	for _, spec := range r.imports.specs() {
		fmt.Fprintf(buf, "\t%s\n", spec)
	}
	buf.WriteString(")\n\n")

	ctx := r.ctx()
	fmt.Fprintf(buf, "// %s holds the JSON metadata of the generated types. Metadata is\n", ctx)
	buf.WriteString("// built on first use and cached for the lifetime of the context.\n")
	fmt.Fprintf(buf, "type %s struct {\n", ctx)
	for _, a := range r.schema.Artifacts {
		fmt.Fprintf(buf, "\tinfo%s func() *jsonmeta.TypeInfo[%s]\n", a.Identifier, r.typ(a.Type))
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "// New%s creates a %s.\n", ctx, ctx)
	fmt.Fprintf(buf, "func New%s() *%s {\n", ctx, ctx)
	fmt.Fprintf(buf, "\tc := &%s{}\n", ctx)
	for _, a := range r.schema.Artifacts {
		fmt.Fprintf(buf, "\tc.info%s = sync.OnceValue(c.build%s)\n", a.Identifier, a.Identifier)
	}
	buf.WriteString("\treturn c\n}\n\n")
}

func (r *renderer) renderArtifact(buf *bytes.Buffer, a *ir.Artifact) error {
	t := r.typ(a.Type)

	fmt.Fprintf(buf, "// %s returns the metadata for %s.\n", a.Identifier, t)
	fmt.Fprintf(buf, "func (c *%s) %s() *jsonmeta.TypeInfo[%s] {\n", r.ctx(), a.Identifier, t)
	fmt.Fprintf(buf, "\treturn c.info%s()\n}\n\n", a.Identifier)

	fmt.Fprintf(buf, "func (c *%s) build%s() *jsonmeta.TypeInfo[%s] {\n", r.ctx(), a.Identifier, t)
	switch a.Shape {
	case ir.ShapeObject:
		r.renderObjectInfo(buf, a, t)
	case ir.ShapeList:
		fmt.Fprintf(buf, "\treturn jsonmeta.Slice[%s](%s)\n", t, r.meta(*a.Element))
	case ir.ShapeArray:
		elem := r.typ(a.Element.Type)
		fmt.Fprintf(buf, "\treturn jsonmeta.Array[%s](%s, %d, func(a *%s) []%s { return a[:] })\n",
			t, r.meta(*a.Element), a.Len, t, elem)
	case ir.ShapeDictionary:
		fmt.Fprintf(buf, "\treturn jsonmeta.Map[%s](jsonmeta.%s[%s](), %s)\n",
			t, a.Key.Helper, r.typ(a.Key.Type), r.meta(*a.Element))
	case ir.ShapePointer:
		fmt.Fprintf(buf, "\treturn jsonmeta.Pointer(%s)\n", r.meta(*a.Element))
	default:
		return fmt.Errorf("shape %s cannot be rendered", a.Shape)
	}
	buf.WriteString("}\n\n")

	if a.Shape == ir.ShapeObject {
		r.imports.add(jsontextPath)
		r.renderNew(buf, a, t)
		r.renderWrite(buf, a, t)
		r.renderRead(buf, a, t)
	}
	return nil
}

func (r *renderer) renderObjectInfo(buf *bytes.Buffer, a *ir.Artifact, t string) {
	fmt.Fprintf(buf, "\treturn &jsonmeta.TypeInfo[%s]{\n", t)
	fmt.Fprintf(buf, "\t\tName: %s,\n", strconv.Quote(a.Type.ShortString()))
	buf.WriteString("\t\tKind: jsonmeta.KindObject,\n")
	fmt.Fprintf(buf, "\t\tProperties: []jsonmeta.Property[%s]{\n", t)
	for _, b := range a.Bindings {
		ft := r.typ(b.Meta.Type)
		fmt.Fprintf(buf, "\t\t\tjsonmeta.Bind(%s,\n", strconv.Quote(b.Name))
		fmt.Fprintf(buf, "\t\t\t\tfunc(v *%s) %s { return v.%s },\n", t, ft, b.Field)
		fmt.Fprintf(buf, "\t\t\t\tfunc(v *%s, x %s) { v.%s = x },\n", t, ft, b.Field)
		fmt.Fprintf(buf, "\t\t\t\t%s),\n", r.meta(b.Meta))
	}
	buf.WriteString("\t\t},\n")
	fmt.Fprintf(buf, "\t\tNew:   c.new%s,\n", a.Identifier)
	fmt.Fprintf(buf, "\t\tWrite: c.write%s,\n", a.Identifier)
	fmt.Fprintf(buf, "\t\tRead:  c.read%s,\n", a.Identifier)
	buf.WriteString("\t}\n")
}

func (r *renderer) renderNew(buf *bytes.Buffer, a *ir.Artifact, t string) {
	fmt.Fprintf(buf, "func (c *%s) new%s() *%s {\n", r.ctx(), a.Identifier, t)
	fmt.Fprintf(buf, "\treturn &%s{}\n}\n\n", r.typ(a.Construct.Type))
}

func (r *renderer) renderWrite(buf *bytes.Buffer, a *ir.Artifact, t string) {
	fmt.Fprintf(buf, "func (c *%s) write%s(enc *jsontext.Encoder, v *%s) error {\n", r.ctx(), a.Identifier, t)
	if len(a.Serialize) > 0 {
		fmt.Fprintf(buf, "\tprops := c.%s().Properties\n", a.Identifier)
	}
	buf.WriteString("\tif err := enc.WriteToken(jsontext.BeginObject); err != nil {\n\t\treturn err\n\t}\n")
	for _, stmt := range a.Serialize {
		fmt.Fprintf(buf, "\tif err := enc.WriteToken(jsontext.String(%s)); err != nil {\n\t\treturn err\n\t}\n", strconv.Quote(stmt.Name))
		fmt.Fprintf(buf, "\tif err := props[%d].Write(enc, v); err != nil {\n\t\treturn err\n\t}\n", stmt.Property)
	}
	buf.WriteString("\treturn enc.WriteToken(jsontext.EndObject)\n}\n\n")
}

func (r *renderer) renderRead(buf *bytes.Buffer, a *ir.Artifact, t string) {
	fmt.Fprintf(buf, "func (c *%s) read%s(dec *jsontext.Decoder, v *%s) error {\n", r.ctx(), a.Identifier, t)
	if len(a.Deserialize) > 0 {
		fmt.Fprintf(buf, "\tprops := c.%s().Properties\n", a.Identifier)
	}
	buf.WriteString("\tif err := jsonmeta.ReadObjectStart(dec); err != nil {\n\t\treturn err\n\t}\n")
	buf.WriteString("\tfor {\n")
	buf.WriteString("\t\tname, ok, err := jsonmeta.ReadPropertyName(dec)\n")
	buf.WriteString("\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n")
	buf.WriteString("\t\tif !ok {\n\t\t\treturn nil\n\t\t}\n")
	buf.WriteString("\t\tswitch name {\n")
	for _, br := range a.Deserialize {
		fmt.Fprintf(buf, "\t\tcase %s:\n", strconv.Quote(br.Match))
		fmt.Fprintf(buf, "\t\t\terr = props[%d].Read(dec, v)\n", br.Property)
	}
	buf.WriteString("\t\tdefault:\n\t\t\terr = jsonmeta.SkipValue(dec)\n\t\t}\n")
	buf.WriteString("\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n")
	buf.WriteString("\t}\n}\n\n")
}
