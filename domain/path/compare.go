package path

import "strings"

// Compare totally orders two segment lists by decreasing specificity:
// a negative result means a sorts before (is more specific than) b.
// The ordering is pairwise over segments, then lexicographic over the
// list; when every compared segment ties, the longer list sorts first
// because more structure means higher specificity.
//
// Structurally invalid segments make the pair incomparable, which is
// reported as an error and never coerced to a tie.
func Compare(a, b []Segment) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := compareSegment(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) > len(b):
		return -1, nil
	case len(a) < len(b):
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal reports whether two segment lists are structurally identical:
// the same shapes with equal literals and matching parameter kinds,
// parameter names ignored. This is narrower than an ordering tie. A
// parameter and a parameter-led mixed segment compare equal in
// specificity yet match different request paths.
func Equal(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !identicalSegment(a[i], b[i]) {
			return false
		}
	}
	return true
}

func identicalSegment(a, b Segment) bool {
	switch a := a.(type) {
	case Literal:
		b, ok := b.(Literal)
		return ok && a == b
	case Param:
		b, ok := b.(Param)
		return ok && a.K == b.K
	case Mixed:
		b, ok := b.(Mixed)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !identicalSegment(a[i], b[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// paramRank orders parameter kinds by decreasing specificity.
func paramRank(k Kind) (int, bool) {
	switch k {
	case KindParam:
		return 0, true
	case KindCatchAll:
		return 1, true
	case KindOptional:
		return 2, true
	default:
		return 0, false
	}
}

func compareSegment(a, b Segment) (int, error) {
	switch a := a.(type) {
	case Literal:
		switch b := b.(type) {
		case Literal:
			return strings.Compare(string(a), string(b)), nil
		case Param, Mixed:
			// a literal is strictly more specific than anything else
			return -1, nil
		}

	case Param:
		if _, ok := paramRank(a.K); !ok {
			break
		}
		switch b := b.(type) {
		case Literal:
			return 1, nil
		case Param:
			ra, _ := paramRank(a.K)
			rb, ok := paramRank(b.K)
			if !ok {
				return 0, &IncomparableError{A: a, B: b}
			}
			switch {
			case ra < rb:
				return -1, nil
			case ra > rb:
				return 1, nil
			default:
				return 0, nil
			}
		case Mixed:
			return compareParamMixed(a, b)
		}

	case Mixed:
		switch b := b.(type) {
		case Literal:
			return 1, nil
		case Param:
			c, err := compareParamMixed(b, a)
			if err != nil {
				return 0, err
			}
			return -c, nil
		case Mixed:
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			for i := 0; i < n; i++ {
				c, err := compareSegment(a[i], b[i])
				if err != nil {
					return 0, err
				}
				if c != 0 {
					return c, nil
				}
			}
			switch {
			case len(a) > len(b):
				return -1, nil
			case len(a) < len(b):
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, &IncomparableError{A: a, B: b}
}

// compareParamMixed orders a parameter segment against a mixed segment
// from the parameter's perspective. A mixed segment that starts with a
// literal fragment (or is empty) carries literal structure and sorts
// first; otherwise the ordering recurses into the mixed segment's
// first element.
func compareParamMixed(p Param, m Mixed) (int, error) {
	if _, ok := paramRank(p.K); !ok {
		return 0, &IncomparableError{A: p, B: m}
	}
	if len(m) == 0 {
		return 1, nil
	}
	if _, isLit := m[0].(Literal); isLit {
		return 1, nil
	}
	return compareSegment(p, m[0])
}
