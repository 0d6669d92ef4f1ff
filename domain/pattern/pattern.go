// Package pattern assembles regular expressions from composable
// fragments. It owns group-name bookkeeping (the same logical parameter
// name may appear as several distinct capture groups within one
// expression) and reconciles regex flags across merged fragments.
//
// Expressions are modeled as a small AST and only serialized to
// regexp2 syntax when compiled, so group naming and collision handling
// stay explicit instead of being string surgery.
package pattern

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/dlclark/regexp2"
)

// ClassGroup is the sentinel group name that opens and closes a
// character class instead of a capturing group.
const ClassGroup = "[]"

// nameRe is the grammar for logical group names.
var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InvalidNameError reports a group name that violates the naming grammar.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid group name %q: must match [A-Za-z_][A-Za-z0-9_]*", e.Name)
}

// ValidateName checks a logical group name against the naming grammar.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}

// GroupID returns the capture-group identifier for the given logical
// name and occurrence index. Occurrence 0 is the bare name; later
// occurrences get a numeric suffix so the identifiers stay unique
// within one expression.
func GroupID(name string, occurrence int) string {
	if occurrence <= 0 {
		return name
	}
	return name + strconv.Itoa(occurrence)
}

// GroupStart returns the opening fragment for a group.
// An empty name opens a non-capturing group, the ClassGroup sentinel
// opens a character class, and any other name must satisfy the naming
// grammar and opens a named capturing group.
func GroupStart(name string, occurrence int) (string, error) {
	switch name {
	case "":
		return "(?:", nil
	case ClassGroup:
		return "[", nil
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return "(?<" + GroupID(name, occurrence) + ">", nil
}

// GroupEnd returns the closing fragment matching GroupStart.
func GroupEnd(name string, occurrence int) (string, error) {
	switch name {
	case "":
		return ")", nil
	case ClassGroup:
		return "]", nil
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return ")", nil
}

// Flags selects regex engine behavior for a compiled pattern.
type Flags uint32

const (
	// FlagIgnoreCase enables case-insensitive matching.
	FlagIgnoreCase Flags = 1 << iota

	// FlagMultiline makes ^ and $ match at line boundaries.
	FlagMultiline

	// FlagECMAScript requests ECMAScript-compatible behavior.
	FlagECMAScript

	// FlagRE2 requests RE2-compatible behavior.
	FlagRE2
)

// FlagConflictError reports two fragments whose flags cannot be honored
// in a single compiled expression.
type FlagConflictError struct {
	A, B Flags
}

func (e *FlagConflictError) Error() string {
	return fmt.Sprintf("conflicting regex flags %s and %s", e.A, e.B)
}

// String renders the flag set for diagnostics.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	names := ""
	add := func(s string) {
		if names != "" {
			names += "|"
		}
		names += s
	}
	if f&FlagIgnoreCase != 0 {
		add("ignorecase")
	}
	if f&FlagMultiline != 0 {
		add("multiline")
	}
	if f&FlagECMAScript != 0 {
		add("ecmascript")
	}
	if f&FlagRE2 != 0 {
		add("re2")
	}
	return names
}

// Merge combines two flag sets, failing when the union is
// irreconcilable. ECMAScript and RE2 dialects cannot be mixed.
func (f Flags) Merge(other Flags) (Flags, error) {
	merged := f | other
	if merged&FlagECMAScript != 0 && merged&FlagRE2 != 0 {
		return 0, &FlagConflictError{A: f, B: other}
	}
	return merged, nil
}

// options maps Flags onto the regexp2 engine's option bits.
func (f Flags) options() regexp2.RegexOptions {
	opts := regexp2.None
	if f&FlagIgnoreCase != 0 {
		opts |= regexp2.IgnoreCase
	}
	if f&FlagMultiline != 0 {
		opts |= regexp2.Multiline
	}
	if f&FlagECMAScript != 0 {
		opts |= regexp2.ECMAScript
	}
	if f&FlagRE2 != 0 {
		opts |= regexp2.RE2
	}
	return opts
}
