package graph

import (
	"fmt"

	"github.com/broady/jsonmeta/jsonmetagen/ir"
)

// Status is the state of a type within one session.
type Status int

const (
	StatusUnseen     Status = iota // Never reached
	StatusPending                  // Frame open, identifier reserved
	StatusRegistered               // Finalized with an artifact
	StatusFailed                   // Permanently failed, never retried
)

func (s Status) String() string {
	switch s {
	case StatusUnseen:
		return "unseen"
	case StatusPending:
		return "pending"
	case StatusRegistered:
		return "registered"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is the registry record of one type that needs generated metadata.
type Entry struct {
	ID         ir.TypeID
	Identifier string
	Descriptor *ir.TypeDescriptor
	Shape      ir.Shape

	// Artifact is set once the entry is registered.
	Artifact *ir.Artifact
}

// Registry maps type identity to assigned identifiers and artifacts for
// the lifetime of one session. A type is in at most one of the pending,
// registered and failed sets.
//
// Collection and pointer metadata are entries like any other, keyed by
// the concrete collection type, so nothing is cached beyond the session.
type Registry struct {
	pending     map[ir.TypeID]*Entry
	registered  map[ir.TypeID]*Entry
	order       []*Entry
	failed      map[ir.TypeID]bool
	failedOrder []ir.TypeID

	// identifiers maps every reserved identifier to its owner.
	identifiers map[string]ir.TypeID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pending:     make(map[ir.TypeID]*Entry),
		registered:  make(map[ir.TypeID]*Entry),
		failed:      make(map[ir.TypeID]bool),
		identifiers: make(map[string]ir.TypeID),
	}
}

// Status returns the state of id.
func (r *Registry) Status(id ir.TypeID) Status {
	switch {
	case r.registered[id] != nil:
		return StatusRegistered
	case r.pending[id] != nil:
		return StatusPending
	case r.failed[id]:
		return StatusFailed
	default:
		return StatusUnseen
	}
}

// Lookup returns the registered entry for id.
func (r *Registry) Lookup(id ir.TypeID) (*Entry, bool) {
	e, ok := r.registered[id]
	return e, ok
}

// Identifier returns the identifier reserved for id, whether the entry is
// registered or still pending.
func (r *Registry) Identifier(id ir.TypeID) (string, bool) {
	if e, ok := r.registered[id]; ok {
		return e.Identifier, true
	}
	if e, ok := r.pending[id]; ok {
		return e.Identifier, true
	}
	return "", false
}

// Owner returns the type holding identifier, if any.
func (r *Registry) Owner(identifier string) (ir.TypeID, bool) {
	id, ok := r.identifiers[identifier]
	return id, ok
}

// Entries returns the registered entries in finalization order.
func (r *Registry) Entries() []*Entry {
	return append([]*Entry(nil), r.order...)
}

// Failed returns the failed types in the order they failed.
func (r *Registry) Failed() []ir.TypeID {
	return append([]ir.TypeID(nil), r.failedOrder...)
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.order)
}

// reserve opens a pending entry and reserves its identifier.
func (r *Registry) reserve(e *Entry) error {
	if s := r.Status(e.ID); s != StatusUnseen {
		return fmt.Errorf("cannot reserve %s: already %s", e.ID, s)
	}
	if owner, ok := r.identifiers[e.Identifier]; ok {
		return fmt.Errorf("identifier %s already reserved by %s", e.Identifier, owner)
	}
	r.identifiers[e.Identifier] = e.ID
	r.pending[e.ID] = e
	return nil
}

// finalize moves a pending entry into the registered set.
func (r *Registry) finalize(id ir.TypeID, a *ir.Artifact) {
	e := r.pending[id]
	delete(r.pending, id)
	e.Artifact = a
	r.registered[id] = e
	r.order = append(r.order, e)
}

// fail moves id into the failed set, releasing any reserved identifier.
func (r *Registry) fail(id ir.TypeID) {
	if e, ok := r.pending[id]; ok {
		delete(r.identifiers, e.Identifier)
		delete(r.pending, id)
	}
	if r.failed[id] || r.registered[id] != nil {
		return
	}
	r.failed[id] = true
	r.failedOrder = append(r.failedOrder, id)
}
