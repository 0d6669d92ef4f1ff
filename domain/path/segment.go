// Package path compiles file-system-style route path templates into
// matchable service paths and defines the specificity ordering used to
// rank competing routes.
//
// Template grammar: segments are separated by "/", a leading "/" marks
// an absolute path, and each segment is literal text (letters, digits,
// ".", "_", "-", percent escapes), a parameter "[name]", a catch-all
// "[...name]", an optional catch-all "[[...name]]", or a mix of
// literal text and parameters within one segment ("prefix-[id]").
package path

// Kind classifies a path segment.
//
// The parameter kinds are ordered by decreasing specificity: a single
// parameter is more specific than a catch-all, which is more specific
// than an optional catch-all.
type Kind int

const (
	// KindParam captures exactly one path component.
	KindParam Kind = iota

	// KindCatchAll captures one or more trailing components.
	KindCatchAll

	// KindOptional captures zero or more trailing components.
	KindOptional

	// KindLiteral is fixed text matched verbatim.
	KindLiteral

	// KindMixed is literal text and parameters within one component.
	KindMixed
)

// String returns the segment type tag.
func (k Kind) String() string {
	switch k {
	case KindParam:
		return "parameter"
	case KindCatchAll:
		return "catchall"
	case KindOptional:
		return "optional"
	case KindLiteral:
		return "literal"
	case KindMixed:
		return "mixed"
	default:
		return "invalid"
	}
}

// ParseFunc converts a captured path component into a typed value.
type ParseFunc func(string) (any, error)

// FormatFunc converts a typed value back into a path component.
type FormatFunc func(any) (string, error)

// Segment is one "/"-delimited component of a path template.
type Segment interface {
	// Kind reports the segment classification.
	Kind() Kind

	// template renders the segment in source form.
	template() string
}

// Literal is fixed text matched verbatim.
type Literal string

// Kind reports KindLiteral.
func (Literal) Kind() Kind { return KindLiteral }

func (l Literal) template() string { return string(l) }

// Param is a named placeholder. K selects between a single-component
// parameter, a catch-all and an optional catch-all. Parse and Format
// are honored for single-component parameters; catch-all values are
// always lists of raw string components.
type Param struct {
	Name   string
	K      Kind
	Parse  ParseFunc
	Format FormatFunc
}

// Kind reports the parameter kind.
func (p Param) Kind() Kind { return p.K }

func (p Param) template() string {
	switch p.K {
	case KindCatchAll:
		return "[..." + p.Name + "]"
	case KindOptional:
		return "[[..." + p.Name + "]]"
	default:
		return "[" + p.Name + "]"
	}
}

// Mixed is an ordered sequence of literal and single-parameter
// fragments within one path component.
type Mixed []Segment

// Kind reports KindMixed.
func (Mixed) Kind() Kind { return KindMixed }

func (m Mixed) template() string {
	out := ""
	for _, part := range m {
		out += part.template()
	}
	return out
}

// NewParam returns a single-component parameter segment.
func NewParam(name string) Param {
	return Param{Name: name, K: KindParam}
}

// NewCatchAll returns a catch-all parameter segment.
func NewCatchAll(name string) Param {
	return Param{Name: name, K: KindCatchAll}
}

// NewOptional returns an optional catch-all parameter segment.
func NewOptional(name string) Param {
	return Param{Name: name, K: KindOptional}
}
