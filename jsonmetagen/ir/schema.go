package ir

import "strconv"

// Schema is the output of one generation session: the finalized artifacts
// in finalization order (every artifact follows the artifacts it references,
// except within cycles).
type Schema struct {
	// Package is the package generated code is written into.
	Package PackageInfo

	// Artifacts holds one artifact per registered type.
	Artifacts []*Artifact
}

// AddArtifact adds an artifact to the schema.
func (s *Schema) AddArtifact(a *Artifact) {
	s.Artifacts = append(s.Artifacts, a)
}

// Find looks up an artifact by identifier. Returns nil if not found.
func (s *Schema) Find(identifier string) *Artifact {
	for _, a := range s.Artifacts {
		if a.Identifier == identifier {
			return a
		}
	}
	return nil
}

// FindType looks up an artifact by type identity. Returns nil if not found.
func (s *Schema) FindType(id TypeID) *Artifact {
	for _, a := range s.Artifacts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Validate checks the schema for structural issues.
// Returns all validation errors found (not just the first).
func (s *Schema) Validate() []error {
	var errors []error

	identifiers := make(map[string]bool)
	ids := make(map[TypeID]bool)
	for _, a := range s.Artifacts {
		if identifiers[a.Identifier] {
			errors = append(errors, &ValidationError{
				Code:    "duplicate_identifier",
				Message: "duplicate identifier: " + a.Identifier,
			})
		}
		identifiers[a.Identifier] = true
		if ids[a.ID] {
			errors = append(errors, &ValidationError{
				Code:    "duplicate_type",
				Message: "type registered twice: " + string(a.ID),
			})
		}
		ids[a.ID] = true
	}

	for _, a := range s.Artifacts {
		for _, ref := range a.References() {
			if !ref.IsSimple() && !identifiers[ref.Identifier] {
				errors = append(errors, &ValidationError{
					Code:    "missing_reference",
					Message: a.Identifier + " references unknown metadata: " + ref.Identifier,
				})
			}
		}
		errors = append(errors, validateArtifact(a)...)
	}

	return errors
}

func validateArtifact(a *Artifact) []error {
	var errors []error
	invalid := func(msg string) {
		errors = append(errors, &ValidationError{
			Code:    "invalid_artifact",
			Message: a.Identifier + ": " + msg,
		})
	}

	switch a.Shape {
	case ShapeObject:
		if a.Construct == nil {
			invalid("object has no construction node")
		}
		if len(a.Serialize) != len(a.Bindings) {
			invalid("serialize statements do not cover every binding")
		}
		names := make(map[string]bool)
		for i, stmt := range a.Serialize {
			if stmt.Property != i {
				invalid("serialize statement " + strconv.Itoa(i) + " is out of declaration order")
			}
			if names[stmt.Name] {
				invalid("member name " + strconv.Quote(stmt.Name) + " is written twice")
			}
			names[stmt.Name] = true
		}
		for _, br := range a.Deserialize {
			if br.Property < 0 || br.Property >= len(a.Bindings) {
				invalid("deserialize branch " + strconv.Quote(br.Match) + " has no binding")
			}
		}
	case ShapeArray, ShapeList, ShapePointer:
		if a.Element == nil {
			invalid(a.Shape.String() + " has no element metadata")
		}
	case ShapeDictionary:
		if a.Element == nil || a.Key == nil {
			invalid("dictionary needs key codec and value metadata")
		}
	default:
		invalid("shape " + a.Shape.String() + " cannot be generated")
	}
	return errors
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
