// Package tagged holds directive-marked types for generator tests.
//
//jsonmeta:context name=TaggedContext manifest=true
package tagged

// Event is a generated root.
//
//jsonmeta:generate
type Event struct {
	Name     string
	Attendee []Person
}

// Person is reached through Event.
type Person struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Draft is not marked and not reachable.
type Draft struct {
	Body string
}
