package path

import (
	"fmt"
	"strings"

	"github.com/artpar/pathsource/domain/pattern"
)

// parseTemplate tokenizes a path template into segments.
func parseTemplate(template string) ([]Segment, bool, error) {
	if template == "" {
		return nil, false, &SyntaxError{Template: template, Reason: "empty template"}
	}

	rest := template
	absolute := false
	offset := 0
	if strings.HasPrefix(rest, "/") {
		absolute = true
		rest = rest[1:]
		offset = 1
	}

	// Root path.
	if rest == "" {
		if absolute {
			return nil, true, nil
		}
		return nil, false, &SyntaxError{Template: template, Reason: "empty template"}
	}

	parts := strings.Split(rest, "/")
	segs := make([]Segment, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, false, &SyntaxError{Template: template, Offset: offset, Reason: "empty segment"}
		}
		seg, err := parseSegment(part, template, offset)
		if err != nil {
			return nil, false, err
		}
		k := seg.Kind()
		if (k == KindCatchAll || k == KindOptional) && i != len(parts)-1 {
			return nil, false, &SyntaxError{
				Template: template,
				Offset:   offset,
				Reason:   fmt.Sprintf("%s segment must be the final segment", k),
			}
		}
		segs = append(segs, seg)
		offset += len(part) + 1
	}
	return segs, absolute, nil
}

// parseSegment tokenizes one "/"-delimited segment.
func parseSegment(part, template string, base int) (Segment, error) {
	// Optional catch-all: the [[...name]] form must be the whole segment.
	if strings.HasPrefix(part, "[[") {
		if !strings.HasPrefix(part, "[[...") || !strings.HasSuffix(part, "]]") || len(part) < 8 {
			return nil, &SyntaxError{
				Template: template,
				Offset:   base,
				Reason:   "optional catch-all must use the [[...name]] form",
			}
		}
		name := part[5 : len(part)-2]
		if err := pattern.ValidateName(name); err != nil {
			return nil, &SyntaxError{
				Template: template,
				Offset:   base + 5,
				Reason:   fmt.Sprintf("invalid parameter name %q", name),
			}
		}
		return NewOptional(name), nil
	}

	// Catch-all: the [...name] form must be the whole segment.
	if strings.HasPrefix(part, "[...") {
		if !strings.HasSuffix(part, "]") || strings.IndexByte(part, ']') != len(part)-1 || len(part) < 6 {
			return nil, &SyntaxError{
				Template: template,
				Offset:   base,
				Reason:   "catch-all must use the [...name] form and stand alone in its segment",
			}
		}
		name := part[4 : len(part)-1]
		if err := pattern.ValidateName(name); err != nil {
			return nil, &SyntaxError{
				Template: template,
				Offset:   base + 4,
				Reason:   fmt.Sprintf("invalid parameter name %q", name),
			}
		}
		return NewCatchAll(name), nil
	}

	var parts []Segment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, Literal(lit.String()))
			lit.Reset()
		}
	}

	i := 0
	for i < len(part) {
		c := part[i]
		switch {
		case c == '[':
			if strings.HasPrefix(part[i:], "[...") || strings.HasPrefix(part[i:], "[[") {
				return nil, &SyntaxError{
					Template: template,
					Offset:   base + i,
					Reason:   "catch-all parameters cannot be mixed with other fragments",
				}
			}
			j := strings.IndexByte(part[i:], ']')
			if j < 0 {
				return nil, &SyntaxError{
					Template: template,
					Offset:   base + i,
					Reason:   "unterminated parameter",
				}
			}
			name := part[i+1 : i+j]
			if err := pattern.ValidateName(name); err != nil {
				return nil, &SyntaxError{
					Template: template,
					Offset:   base + i + 1,
					Reason:   fmt.Sprintf("invalid parameter name %q", name),
				}
			}
			flush()
			parts = append(parts, NewParam(name))
			i += j + 1
		case c == ']':
			return nil, &SyntaxError{
				Template: template,
				Offset:   base + i,
				Reason:   "unmatched ]",
			}
		case c == '%':
			if i+2 >= len(part) || !isHexDigit(part[i+1]) || !isHexDigit(part[i+2]) {
				return nil, &SyntaxError{
					Template: template,
					Offset:   base + i,
					Reason:   "invalid percent escape",
				}
			}
			lit.WriteString(part[i : i+3])
			i += 3
		case isLiteralChar(c):
			lit.WriteByte(c)
			i++
		default:
			return nil, &SyntaxError{
				Template: template,
				Offset:   base + i,
				Reason:   fmt.Sprintf("character %q not allowed in a literal segment", string(c)),
			}
		}
	}
	flush()

	if len(parts) == 1 {
		return parts[0], nil
	}
	return Mixed(parts), nil
}

// isLiteralChar reports whether c belongs to the restricted literal
// charset (percent escapes are handled separately).
func isLiteralChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == '-':
		return true
	default:
		return false
	}
}

func isHexDigit(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	default:
		return false
	}
}
