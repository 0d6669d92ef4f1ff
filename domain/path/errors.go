package path

import "fmt"

// SyntaxError reports a malformed path template.
type SyntaxError struct {
	Template string
	Offset   int
	Reason   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path template %q at offset %d: %s", e.Template, e.Offset, e.Reason)
}

// ParamRedeclaredError reports a parameter name reused with a
// different kind within one path.
type ParamRedeclaredError struct {
	Name   string
	First  Kind
	Second Kind
}

func (e *ParamRedeclaredError) Error() string {
	return fmt.Sprintf("parameter %q redeclared as %s (first declared as %s)", e.Name, e.Second, e.First)
}

// IncomparableError reports two segments the specificity ordering is
// not defined for. Callers must treat this as a hard failure, never as
// a tie.
type IncomparableError struct {
	A, B Segment
}

func (e *IncomparableError) Error() string {
	return fmt.Sprintf("segments are incomparable: %T vs %T", e.A, e.B)
}
