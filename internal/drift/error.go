package drift

import "fmt"

// Kind decides the response shape of a failed follow operation.
type Kind string

const (
	// KindSetup means the schema must be fixed by an operator.
	KindSetup Kind = "setup"
	// KindQuery is a genuine query failure.
	KindQuery Kind = "query"
)

// Error wraps a backend failure with its classification.
type Error struct {
	Kind  Kind
	Class Class
	Err   error
}

// Wrap classifies err. Migration symptoms become KindSetup, everything else
// KindQuery. Wrap(nil) returns nil.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	class := Classify(err)
	kind := KindQuery
	if class.IsMigrationSymptom() {
		kind = KindSetup
	}
	return &Error{Kind: kind, Class: class, Err: err}
}

// Query wraps err as a genuine query failure regardless of its text.
func Query(err error) *Error {
	return &Error{Kind: KindQuery, Class: ClassUnclassified, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure (%s): %v", e.Kind, e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Detail is the raw backend message surfaced to clients.
func (e *Error) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// SetupRequired reports whether an operator has to apply SetupSQL.
func (e *Error) SetupRequired() bool {
	return e.Kind == KindSetup
}
