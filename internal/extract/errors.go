package extract

import "fmt"

// ParseError means the input drawing could not be decoded into any closed
// ring. It is terminal for the job; a corrupt source file will fail the
// same way on every retry.
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

// GeometryError means a ring was found but is unusable: non-positive
// outer area or a self-intersecting outer boundary. Terminal for the job.
type GeometryError struct {
	Source string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry %s: %s", e.Source, e.Reason)
}
