package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// node is one element of the pattern AST.
type node interface{ isNode() }

type literalNode string

type rawNode string

type classNode string

type groupNode struct {
	name string // empty means non-capturing
	body []node
}

type backrefNode struct {
	name string
}

func (literalNode) isNode() {}
func (rawNode) isNode()     {}
func (classNode) isNode()   {}
func (groupNode) isNode()   {}
func (backrefNode) isNode() {}

// Builder accumulates pattern fragments and yields one compiled
// Pattern. Group occurrence counters are builder-local, so repeated or
// concurrent compilations never interfere.
//
// Builder methods are chainable; the first error encountered sticks
// and is reported by Compile.
type Builder struct {
	nodes []node
	flags Flags
	err   error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithFlags merges the given flags into the builder.
func (b *Builder) WithFlags(f Flags) *Builder {
	if b.err != nil {
		return b
	}
	merged, err := b.flags.Merge(f)
	if err != nil {
		b.err = err
		return b
	}
	b.flags = merged
	return b
}

// Literal appends fixed text, quoted so regex metacharacters match
// verbatim.
func (b *Builder) Literal(text string) *Builder {
	if b.err == nil && text != "" {
		b.nodes = append(b.nodes, literalNode(text))
	}
	return b
}

// Raw appends an already-escaped regex fragment.
func (b *Builder) Raw(fragment string) *Builder {
	if b.err == nil && fragment != "" {
		b.nodes = append(b.nodes, rawNode(fragment))
	}
	return b
}

// Class appends a character class with the given set body.
func (b *Builder) Class(set string) *Builder {
	if b.err == nil {
		b.nodes = append(b.nodes, classNode(set))
	}
	return b
}

// Group appends a group built by body. An empty name produces a
// non-capturing group; any other name produces a capturing group whose
// identifier is assigned at compile time from the builder's occurrence
// counter for that logical name.
func (b *Builder) Group(name string, body func(g *Builder)) *Builder {
	if b.err != nil {
		return b
	}
	if name != "" {
		if err := ValidateName(name); err != nil {
			b.err = err
			return b
		}
	}
	g := &Builder{}
	body(g)
	if g.err != nil {
		b.err = g.err
		return b
	}
	merged, err := b.flags.Merge(g.flags)
	if err != nil {
		b.err = err
		return b
	}
	b.flags = merged
	b.nodes = append(b.nodes, groupNode{name: name, body: g.nodes})
	return b
}

// Backref appends a back-reference to the first capture group compiled
// for the given logical name.
func (b *Builder) Backref(name string) *Builder {
	if b.err != nil {
		return b
	}
	if err := ValidateName(name); err != nil {
		b.err = err
		return b
	}
	b.nodes = append(b.nodes, backrefNode{name: name})
	return b
}

// Append splices a previously compiled pattern into the builder.
// Its capture groups are renumbered against this builder's occurrence
// counters at compile time; its flags are merged and must reconcile.
func (b *Builder) Append(p *Pattern) *Builder {
	if b.err != nil {
		return b
	}
	merged, err := b.flags.Merge(p.flags)
	if err != nil {
		b.err = err
		return b
	}
	b.flags = merged
	b.nodes = append(b.nodes, p.ast...)
	return b
}

// Compile renders the accumulated AST and compiles it.
func (b *Builder) Compile() (*Pattern, error) {
	if b.err != nil {
		return nil, b.err
	}
	r := renderer{
		occ:    make(map[string]int),
		groups: make(map[string][]string),
	}
	var sb strings.Builder
	if err := r.render(&sb, b.nodes); err != nil {
		return nil, err
	}
	expr := sb.String()
	re, err := regexp2.Compile(expr, b.flags.options())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{
		expr:   expr,
		flags:  b.flags,
		re:     re,
		groups: r.groups,
		ast:    b.nodes,
	}, nil
}

// renderer serializes the AST, assigning capture-group identifiers in
// encounter order.
type renderer struct {
	occ    map[string]int      // logical name -> occurrences so far
	groups map[string][]string // logical name -> assigned identifiers
}

func (r *renderer) render(sb *strings.Builder, nodes []node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case literalNode:
			sb.WriteString(regexp.QuoteMeta(string(n)))
		case rawNode:
			sb.WriteString(string(n))
		case classNode:
			open, _ := GroupStart(ClassGroup, 0)
			closer, _ := GroupEnd(ClassGroup, 0)
			sb.WriteString(open)
			sb.WriteString(string(n))
			sb.WriteString(closer)
		case groupNode:
			occ := 0
			if n.name != "" {
				occ = r.occ[n.name]
				r.occ[n.name]++
				r.groups[n.name] = append(r.groups[n.name], GroupID(n.name, occ))
			}
			open, err := GroupStart(n.name, occ)
			if err != nil {
				return err
			}
			sb.WriteString(open)
			if err := r.render(sb, n.body); err != nil {
				return err
			}
			closer, err := GroupEnd(n.name, occ)
			if err != nil {
				return err
			}
			sb.WriteString(closer)
		case backrefNode:
			ids := r.groups[n.name]
			if len(ids) == 0 {
				return fmt.Errorf("backreference to unknown group %q", n.name)
			}
			sb.WriteString(`\k<` + ids[0] + `>`)
		default:
			return fmt.Errorf("unknown pattern node %T", n)
		}
	}
	return nil
}

// Pattern is an immutable compiled expression.
type Pattern struct {
	expr   string
	flags  Flags
	re     *regexp2.Regexp
	groups map[string][]string
	ast    []node
}

// Expr returns the serialized regex source.
func (p *Pattern) Expr() string { return p.expr }

// PatternFlags returns the reconciled flags the pattern was compiled with.
func (p *Pattern) PatternFlags() Flags { return p.flags }

// GroupIDs returns the capture-group identifiers assigned to a logical
// name, in occurrence order.
func (p *Pattern) GroupIDs(name string) []string {
	ids := p.groups[name]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Find runs the pattern against input. It returns nil when the pattern
// does not match.
func (p *Pattern) Find(input string) (*Match, error) {
	m, err := p.re.FindStringMatch(input)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return &Match{m: m, p: p}, nil
}

// Match is one successful application of a Pattern.
type Match struct {
	m *regexp2.Match
	p *Pattern
}

// Index returns the offset of the matched region.
func (m *Match) Index() int { return m.m.Index }

// Length returns the length of the matched region.
func (m *Match) Length() int { return m.m.Length }

// Text returns the matched region.
func (m *Match) Text() string { return m.m.String() }

// Group returns the text captured by the first occurrence of the given
// logical name. The second result is false when the group did not
// participate in the match.
func (m *Match) Group(name string) (string, bool) {
	ids := m.p.groups[name]
	if len(ids) == 0 {
		return "", false
	}
	g := m.m.GroupByName(ids[0])
	if g == nil || len(g.Captures) == 0 {
		return "", false
	}
	return g.String(), true
}
