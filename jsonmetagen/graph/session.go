// Package graph walks the type graph reachable from root types, assigns
// identifiers, and collects the artifacts of every type that can be
// generated.
//
// Every type that needs generated metadata (objects, collections and
// pointers) gets a frame. A frame reserves its identifier before its
// members are visited, so a cyclic reference finds the frame pending and
// refers to the reserved identifier. Frames are finalized per strongly
// connected component: a frame that reached a pending ancestor stays open
// until that ancestor completes, and then the whole component is either
// registered or failed together. A failing type therefore takes down
// everything that depends on it, cycles included, while independent
// subgraphs are unaffected.
package graph

import (
	"fmt"
	"log/slog"

	"github.com/broady/jsonmeta/jsonmetagen/diag"
	"github.com/broady/jsonmeta/jsonmetagen/ir"
	"github.com/broady/jsonmeta/jsonmetagen/provider"
	"github.com/broady/jsonmeta/jsonmetagen/synth"
)

// Session is one generation pass over any number of roots. Roots are
// processed sequentially and share the registry, so a type reached from
// several roots is generated once.
//
// A Session is not safe for concurrent use.
type Session struct {
	port     provider.Port
	registry *Registry
	diags    *diag.Collector
	logger   *slog.Logger
	pkg      ir.PackageInfo

	root   ir.TypeID
	index  int
	stack  []*frame
	frames map[ir.TypeID]*frame
}

// frame is the open work item for one type.
type frame struct {
	entry *Entry
	site  site
	ok    bool

	index   int
	lowlink int
}

// site names the object member a type was reached through, for
// diagnostics about unsupported element types.
type site struct {
	owner  ir.TypeID
	member string
}

// NewSession creates a session reading types through port.
func NewSession(port provider.Port) *Session {
	return &Session{
		port:     port,
		registry: NewRegistry(),
		diags:    diag.NewCollector(false),
		logger:   slog.Default(),
		frames:   make(map[ir.TypeID]*frame),
	}
}

// WithLogger sets the logger for frame lifecycle events.
// If not set, slog.Default() will be used.
func (s *Session) WithLogger(logger *slog.Logger) *Session {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithCollector records diagnostics into c instead of a fresh collector.
func (s *Session) WithCollector(c *diag.Collector) *Session {
	if c != nil {
		s.diags = c
	}
	return s
}

// Package sets the package recorded in the schema.
func (s *Session) Package(pkg ir.PackageInfo) *Session {
	s.pkg = pkg
	return s
}

// Registry returns the session registry.
func (s *Session) Registry() *Registry { return s.registry }

// Diagnostics returns the session diagnostics.
func (s *Session) Diagnostics() *diag.Collector { return s.diags }

// Schema returns the registered artifacts in finalization order.
func (s *Session) Schema() *ir.Schema {
	schema := &ir.Schema{Package: s.pkg}
	for _, e := range s.registry.Entries() {
		schema.AddArtifact(e.Artifact)
	}
	return schema
}

// Process walks root and everything reachable from it. It reports whether
// root's metadata is available: true for simple roots and for roots that
// were generated, now or by an earlier call.
func (s *Session) Process(root ir.TypeID) bool {
	s.root = root
	defer func() { s.root = "" }()

	d, err := s.port.Describe(root)
	if err != nil {
		s.logger.Warn("cannot describe root type",
			slog.String("type", string(root)),
			slog.Any("error", err))
		s.diags.Failed(diag.Position{}, string(root), string(root))
		s.registry.fail(root)
		return false
	}

	shape := Classify(s.port, d, s.pkg.Path)
	switch {
	case shape == ir.ShapeSimple:
		s.logger.Debug("root type is simple, nothing to generate",
			slog.String("type", string(root)))
		return true
	case !shape.NeedsFrame():
		s.logger.Warn("root type has no supported shape",
			slog.String("type", string(root)),
			slog.String("shape", shape.String()))
		s.diags.Failed(position(d), string(root), string(root))
		s.registry.fail(root)
		return false
	}

	return s.visit(nil, d, shape, site{owner: root, member: "element"})
}

// visit walks a type that needs a frame. parent is nil for the root.
func (s *Session) visit(parent *frame, d *ir.TypeDescriptor, shape ir.Shape, at site) bool {
	switch s.registry.Status(d.ID) {
	case StatusRegistered:
		return true
	case StatusFailed:
		return false
	case StatusPending:
		if f := s.frames[d.ID]; f != nil && parent != nil {
			parent.lowlink = min(parent.lowlink, f.index)
		}
		return true
	}

	f := s.open(d, shape, at)
	if f == nil {
		return false
	}

	switch shape {
	case ir.ShapeObject:
		if m, first, dup := synth.DuplicateWireName(d.Fields); dup {
			s.logger.Warn("duplicate member name",
				slog.String("type", string(d.ID)),
				slog.String("member", m.Name),
				slog.String("name", m.WireName))
			s.diags.DuplicateMember(position(d), string(s.root), string(d.ID), m.Name, first.Name, m.WireName)
			f.ok = false
		}
		for _, m := range d.Fields {
			// Keep checking after a failure to report every problem.
			if !s.member(f, site{owner: d.ID, member: m.Name}, m.Type) {
				f.ok = false
			}
		}
	case ir.ShapeArray, ir.ShapeList, ir.ShapePointer, ir.ShapeDictionary:
		// Dictionary keys are simple by classification.
		f.ok = s.member(f, f.site, d.Elem)
	}

	if f.lowlink == f.index {
		s.close(f)
	}
	if parent != nil {
		parent.lowlink = min(parent.lowlink, f.lowlink)
	}
	return f.ok
}

// member checks one member or element type of f.
func (s *Session) member(f *frame, at site, id ir.TypeID) bool {
	d, err := s.port.Describe(id)
	if err != nil {
		s.logger.Warn("cannot describe member type",
			slog.String("owner", string(at.owner)),
			slog.String("member", at.member),
			slog.Any("error", err))
		s.diags.Unsupported(s.position(at.owner), string(s.root), string(at.owner), at.member, string(id), "unknown")
		s.registry.fail(id)
		return false
	}

	shape := Classify(s.port, d, s.pkg.Path)
	switch {
	case shape == ir.ShapeSimple:
		return true
	case !shape.NeedsFrame():
		s.logger.Warn("unsupported member type",
			slog.String("owner", string(at.owner)),
			slog.String("member", at.member),
			slog.String("type", string(id)),
			slog.String("shape", shape.String()))
		s.diags.Unsupported(s.position(at.owner), string(s.root), string(at.owner), at.member, string(id), shape.String())
		s.registry.fail(id)
		return false
	}

	return s.visit(f, d, shape, at)
}

// open reserves an identifier for d and pushes its frame.
func (s *Session) open(d *ir.TypeDescriptor, shape ir.Shape, at site) *frame {
	identifier, other := assignIdentifier(s.registry, d.ID, d.Expr)
	e := &Entry{
		ID:         d.ID,
		Identifier: identifier,
		Descriptor: d,
		Shape:      shape,
	}
	if err := s.registry.reserve(e); err != nil {
		s.logger.Error("cannot reserve identifier",
			slog.String("type", string(d.ID)),
			slog.Any("error", err))
		s.registry.fail(d.ID)
		return nil
	}
	if other != "" {
		s.diags.Collision(position(d), string(s.root), string(d.ID), identifier, string(other))
	}

	f := &frame{
		entry:   e,
		site:    at,
		ok:      true,
		index:   s.index,
		lowlink: s.index,
	}
	s.index++
	s.stack = append(s.stack, f)
	s.frames[d.ID] = f

	s.logger.Debug("frame opened",
		slog.String("type", string(d.ID)),
		slog.String("identifier", identifier),
		slog.String("shape", shape.String()))
	return f
}

// close pops the component rooted at f and finalizes or fails it as a
// whole. Components are finalized deepest frame first.
func (s *Session) close(f *frame) {
	var component []*frame
	for {
		top := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		delete(s.frames, top.entry.ID)
		component = append(component, top)
		if top == f {
			break
		}
	}

	ok := true
	for _, c := range component {
		ok = ok && c.ok
	}

	artifacts := make([]*ir.Artifact, len(component))
	if ok {
		for i, c := range component {
			a, err := synth.Synthesize(synth.Input{
				Identifier: c.entry.Identifier,
				Descriptor: c.entry.Descriptor,
				Shape:      c.entry.Shape,
			}, resolver{s})
			if err != nil {
				s.logger.Error("synthesis failed",
					slog.String("type", string(c.entry.ID)),
					slog.Any("error", err))
				ok = false
				break
			}
			artifacts[i] = a
		}
	}

	for i, c := range component {
		c.ok = ok
		e := c.entry
		if ok {
			s.registry.finalize(e.ID, artifacts[i])
			if e.Shape == ir.ShapeObject {
				s.diags.Generated(position(e.Descriptor), string(s.root), string(e.ID), e.Identifier)
			}
			s.logger.Debug("frame finalized",
				slog.String("type", string(e.ID)),
				slog.String("identifier", e.Identifier))
			continue
		}

		s.registry.fail(e.ID)
		if e.Shape == ir.ShapeObject {
			s.diags.Failed(position(e.Descriptor), string(s.root), string(e.ID))
		}
		s.logger.Warn("frame failed",
			slog.String("type", string(e.ID)),
			slog.String("root", string(s.root)))
	}
}

// position returns the source position of the type with the given id.
func (s *Session) position(id ir.TypeID) diag.Position {
	d, err := s.port.Describe(id)
	if err != nil {
		return diag.Position{}
	}
	return position(d)
}

func position(d *ir.TypeDescriptor) diag.Position {
	return diag.Position{File: d.Source.File, Line: d.Source.Line}
}

// resolver resolves metadata references against the session.
type resolver struct {
	s *Session
}

func (r resolver) Resolve(id ir.TypeID) (ir.MetaRef, error) {
	d, err := r.s.port.Describe(id)
	if err != nil {
		return ir.MetaRef{}, err
	}
	if st, ok := ir.LookupSimple(d); ok {
		return ir.MetaRef{Type: d.Expr, Simple: &st}, nil
	}
	identifier, ok := r.s.registry.Identifier(id)
	if !ok {
		return ir.MetaRef{}, fmt.Errorf("no metadata for %s", id)
	}
	return ir.MetaRef{Type: d.Expr, Identifier: identifier}, nil
}
