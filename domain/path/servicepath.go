package path

import (
	"fmt"
	"strings"

	"github.com/artpar/pathsource/domain/pattern"
)

// ParamInfo describes one named parameter of a compiled path.
type ParamInfo struct {
	Kind  Kind
	parse ParseFunc
}

// ServicePath is a compiled, immutable path template. Its matcher is
// anchored at the start of the input and only succeeds when the
// matched region ends at a "/" boundary or at the end of the input, so
// partial-segment prefixes never match.
type ServicePath struct {
	segments []Segment
	absolute bool
	template string
	params   map[string]ParamInfo
	pat      *pattern.Pattern
}

// Parse compiles a path template string.
func Parse(template string) (*ServicePath, error) {
	segs, absolute, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	return compile(segs, absolute, template)
}

// FromSegments compiles an explicit segment list into an absolute path.
func FromSegments(segs ...Segment) (*ServicePath, error) {
	return compile(segs, true, "")
}

func compile(segs []Segment, absolute bool, template string) (*ServicePath, error) {
	params := make(map[string]ParamInfo)
	b := pattern.NewBuilder().Raw(`\A`)

	// declare registers a parameter occurrence and reports whether it
	// compiles to a back-reference.
	declare := func(p Param) (bool, error) {
		k := p.Kind()
		if info, seen := params[p.Name]; seen {
			if info.Kind != k {
				return false, &ParamRedeclaredError{Name: p.Name, First: info.Kind, Second: k}
			}
			return true, nil
		}
		params[p.Name] = ParamInfo{Kind: k, parse: p.Parse}
		return false, nil
	}

	emitParam := func(g *pattern.Builder, p Param, inMixed bool) error {
		backref, err := declare(p)
		if err != nil {
			return err
		}
		if backref {
			g.Backref(p.Name)
			return nil
		}
		body := `[^/]+`
		switch {
		case p.Kind() == KindCatchAll || p.Kind() == KindOptional:
			body = `[^/]+(?:/[^/]+)*`
		case inMixed:
			// lazy, so trailing literal fragments still match
			body = `[^/]+?`
		}
		g.Group(p.Name, func(gg *pattern.Builder) { gg.Raw(body) })
		return nil
	}

	for i, seg := range segs {
		if seg == nil {
			return nil, fmt.Errorf("nil segment at index %d", i)
		}
		sep := i > 0 || absolute

		switch s := seg.(type) {
		case Literal:
			if sep {
				b.Literal("/")
			}
			b.Literal(string(s))

		case Param:
			switch s.Kind() {
			case KindOptional:
				if i == 0 && absolute {
					// "/[[...x]]" must still match the bare root
					b.Literal("/")
					var emitErr error
					b.Group("", func(g *pattern.Builder) {
						emitErr = emitParam(g, s, false)
					}).Raw("?")
					if emitErr != nil {
						return nil, emitErr
					}
				} else {
					// the separator joins the optional tail
					var emitErr error
					b.Group("", func(g *pattern.Builder) {
						if sep {
							g.Literal("/")
						}
						emitErr = emitParam(g, s, false)
					}).Raw("?")
					if emitErr != nil {
						return nil, emitErr
					}
				}
			default:
				if sep {
					b.Literal("/")
				}
				if err := emitParam(b, s, false); err != nil {
					return nil, err
				}
			}

		case Mixed:
			if sep {
				b.Literal("/")
			}
			for _, part := range s {
				switch p := part.(type) {
				case Literal:
					b.Literal(string(p))
				case Param:
					if p.Kind() != KindParam {
						return nil, &SyntaxError{
							Template: template,
							Reason:   fmt.Sprintf("%s parameter %q cannot appear inside a mixed segment", p.Kind(), p.Name),
						}
					}
					if err := emitParam(b, p, true); err != nil {
						return nil, err
					}
				default:
					return nil, fmt.Errorf("mixed segment may only contain literal and parameter parts, got %T", part)
				}
			}

		default:
			return nil, fmt.Errorf("unknown segment type %T", seg)
		}
	}

	if len(segs) == 0 && absolute {
		b.Literal("/")
	}

	// segment boundary: the matched region must end at "/" or end of input
	b.Raw(`(?=/|\z)`)

	pat, err := b.Compile()
	if err != nil {
		return nil, err
	}

	if template == "" {
		template = renderTemplate(segs, absolute)
	}

	return &ServicePath{
		segments: append([]Segment(nil), segs...),
		absolute: absolute,
		template: template,
		params:   params,
		pat:      pat,
	}, nil
}

func renderTemplate(segs []Segment, absolute bool) string {
	parts := make([]string, len(segs))
	for i, seg := range segs {
		parts[i] = seg.template()
	}
	joined := strings.Join(parts, "/")
	if absolute {
		return "/" + joined
	}
	return joined
}

// Segments returns a copy of the segment list.
func (sp *ServicePath) Segments() []Segment {
	return append([]Segment(nil), sp.segments...)
}

// Absolute reports whether the template started with "/".
func (sp *ServicePath) Absolute() bool { return sp.absolute }

// Params returns the parameter names and kinds of the compiled path.
func (sp *ServicePath) Params() map[string]Kind {
	out := make(map[string]Kind, len(sp.params))
	for name, info := range sp.params {
		out[name] = info.Kind
	}
	return out
}

// String renders the canonical template.
func (sp *ServicePath) String() string { return sp.template }

// Format renders a concrete request path by substituting values for
// the template's parameters. Single parameters take their segment's
// Format function when one is set, otherwise the value must be a
// string; catch-alls take a []string, and an optional catch-all with an
// empty list drops its segment.
func (sp *ServicePath) Format(values map[string]any) (string, error) {
	var parts []string
	format := func(p Param) (string, bool, error) {
		v, ok := values[p.Name]
		if !ok {
			return "", false, fmt.Errorf("missing value for parameter %q", p.Name)
		}
		switch p.K {
		case KindCatchAll, KindOptional:
			list, ok := v.([]string)
			if !ok {
				return "", false, fmt.Errorf("parameter %q: want []string, got %T", p.Name, v)
			}
			if len(list) == 0 {
				if p.K == KindOptional {
					return "", true, nil
				}
				return "", false, fmt.Errorf("parameter %q: catch-all needs at least one component", p.Name)
			}
			for _, c := range list {
				if c == "" || strings.Contains(c, "/") {
					return "", false, fmt.Errorf("parameter %q: component %q is not a single path component", p.Name, c)
				}
			}
			return strings.Join(list, "/"), false, nil
		default:
			var text string
			if p.Format != nil {
				out, err := p.Format(v)
				if err != nil {
					return "", false, fmt.Errorf("format parameter %q: %w", p.Name, err)
				}
				text = out
			} else {
				s, ok := v.(string)
				if !ok {
					return "", false, fmt.Errorf("parameter %q: want string, got %T", p.Name, v)
				}
				text = s
			}
			if text == "" || strings.Contains(text, "/") {
				return "", false, fmt.Errorf("parameter %q: value %q is not a single path component", p.Name, text)
			}
			return text, false, nil
		}
	}

	for _, seg := range sp.segments {
		switch s := seg.(type) {
		case Literal:
			parts = append(parts, string(s))
		case Param:
			text, skip, err := format(s)
			if err != nil {
				return "", err
			}
			if !skip {
				parts = append(parts, text)
			}
		case Mixed:
			var sb strings.Builder
			for _, part := range s {
				switch p := part.(type) {
				case Literal:
					sb.WriteString(string(p))
				case Param:
					text, _, err := format(p)
					if err != nil {
						return "", err
					}
					sb.WriteString(text)
				}
			}
			parts = append(parts, sb.String())
		}
	}

	joined := strings.Join(parts, "/")
	if sp.absolute {
		return "/" + joined, nil
	}
	return joined, nil
}

// Match tests a request path starting at offset 0. It returns nil when
// the path does not match.
func (sp *ServicePath) Match(requestPath string) *Match {
	m, err := sp.pat.Find(requestPath)
	if err != nil || m == nil || m.Index() != 0 {
		return nil
	}
	return &Match{sp: sp, m: m}
}

// Match is one successful application of a ServicePath matcher.
type Match struct {
	sp *ServicePath
	m  *pattern.Match
}

// Path returns the matched prefix of the request path.
func (m *Match) Path() string { return m.m.Text() }

// Raw returns the uninterpreted text captured for a parameter. The
// second result is false for an unknown parameter or an optional
// catch-all that consumed nothing.
func (m *Match) Raw(name string) (string, bool) {
	if _, ok := m.sp.params[name]; !ok {
		return "", false
	}
	return m.m.Group(name)
}

// Param returns the typed value of a parameter: the parsed value for a
// single-component parameter, or the list of consumed components for a
// catch-all (empty for an absent optional catch-all).
func (m *Match) Param(name string) (any, error) {
	info, ok := m.sp.params[name]
	if !ok {
		return nil, fmt.Errorf("unknown parameter %q", name)
	}
	raw, captured := m.m.Group(name)
	switch info.Kind {
	case KindCatchAll, KindOptional:
		if !captured {
			if info.Kind == KindOptional {
				return []string{}, nil
			}
			return nil, fmt.Errorf("parameter %q did not participate in the match", name)
		}
		return strings.Split(raw, "/"), nil
	default:
		if !captured {
			return nil, fmt.Errorf("parameter %q did not participate in the match", name)
		}
		if info.parse != nil {
			v, err := info.parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parse parameter %q: %w", name, err)
			}
			return v, nil
		}
		return raw, nil
	}
}

// Values returns all parameter values of the match.
func (m *Match) Values() (map[string]any, error) {
	out := make(map[string]any, len(m.sp.params))
	for name := range m.sp.params {
		v, err := m.Param(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
