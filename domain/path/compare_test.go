package path_test

import (
	"errors"
	"testing"

	"github.com/artpar/pathsource/domain/path"
)

func segments(t *testing.T, template string) []path.Segment {
	t.Helper()
	sp, err := path.Parse(template)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", template, err)
	}
	return sp.Segments()
}

func TestCompare_Ordering(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical literals", "/users", "/users", 0},
		{"literal lexicographic", "/admin", "/users", -1},
		{"literal beats parameter", "/users/admin", "/users/[id]", -1},
		{"literal beats catch-all", "/files/static", "/files/[...p]", -1},
		{"literal beats mixed", "/v1", "/v[n]", -1},
		{"parameter beats catch-all", "/a/[id]", "/a/[...rest]", -1},
		{"parameter beats optional", "/a/[id]", "/a/[[...rest]]", -1},
		{"catch-all beats optional", "/a/[...rest]", "/a/[[...rest]]", -1},
		{"parameters tie", "/a/[id]", "/a/[name]", 0},
		{"catch-alls tie", "/a/[...x]", "/a/[...y]", 0},
		{"longer list first", "/a/b", "/a", -1},
		{"longer list first with params", "/a/[id]/c", "/a/[id]", -1},
		{"literal-led mixed beats parameter", "/a/v[n]", "/a/[id]", -1},
		{"parameter-led mixed ties with parameter", "/a/[n]x", "/a/[id]", 0},
		{"mixed element-wise", "/a/v[n]", "/a/w[n]", -1},
		{"mixed longer first", "/a/v[n].[m]", "/a/v[n]", -1},
		{"earlier difference wins", "/admin/[...rest]", "/users/static", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := segments(t, tt.a), segments(t, tt.b)

			got, err := path.Compare(a, b)
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if sign(got) != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}

			// The ordering is antisymmetric.
			rev, err := path.Compare(b, a)
			if err != nil {
				t.Fatalf("reverse Compare failed: %v", err)
			}
			if sign(rev) != -tt.want {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.b, tt.a, rev, -tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCompare_Transitive(t *testing.T) {
	// Specificity chain from most to least specific.
	chain := [][]path.Segment{
		segments(t, "/users/admin"),
		segments(t, "/users/v[n]"),
		segments(t, "/users/[id]"),
		segments(t, "/users/[...rest]"),
		segments(t, "/users/[[...rest]]"),
		segments(t, "/users"),
	}
	for i := 0; i < len(chain); i++ {
		for j := i + 1; j < len(chain); j++ {
			c, err := path.Compare(chain[i], chain[j])
			if err != nil {
				t.Fatalf("Compare(%d, %d) failed: %v", i, j, err)
			}
			if c >= 0 {
				t.Errorf("chain[%d] should sort before chain[%d], got %d", i, j, c)
			}
		}
	}
}

func TestCompare_Incomparable(t *testing.T) {
	bogus := []path.Segment{path.Param{Name: "x", K: path.KindLiteral}}
	good := []path.Segment{path.NewParam("id")}

	_, err := path.Compare(bogus, good)
	var ie *path.IncomparableError
	if !errors.As(err, &ie) {
		t.Fatalf("Compare error = %v, want IncomparableError", err)
	}

	// Incomparability is an error in both directions, never a tie.
	if _, err := path.Compare(good, bogus); !errors.As(err, &ie) {
		t.Errorf("reverse Compare error = %v, want IncomparableError", err)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"parameter names ignored", "/users/[id]", "/users/[name]", true},
		{"identical literals", "/users/static", "/users/static", true},
		{"mixed same shape", "/a/v[n].[m]", "/a/v[x].[y]", true},
		{"catch-alls same kind", "/a/[...rest]", "/a/[...tail]", true},
		{"different literals", "/users/static", "/users/other", false},
		{"parameter vs literal", "/users/[id]", "/users/static", false},
		{"parameter vs catch-all", "/a/[id]", "/a/[...rest]", false},
		{"catch-all vs optional", "/a/[...rest]", "/a/[[...rest]]", false},
		{"parameter vs parameter-led mixed", "/a/[id]", "/a/[n]x", false},
		{"mixed different literals", "/a/v[n]", "/a/w[n]", false},
		{"mixed different shape", "/a/v[n].[m]", "/a/v[n]", false},
		{"different lengths", "/a/b", "/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := segments(t, tt.a), segments(t, tt.b)
			if got := path.Equal(a, b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Structural identity is symmetric.
			if got := path.Equal(b, a); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}
