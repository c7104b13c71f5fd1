package conferr

import (
	"fmt"
	"strings"
)

// Code categorizes a configuration violation.
type Code string

const (
	CodeIO              Code = "io_error"          // file unreadable or unwritable
	CodeParse           Code = "parse_error"       // malformed file syntax
	CodeTypeMismatch    Code = "type_mismatch"     // value cannot be coerced to the field kind
	CodeOutOfRange      Code = "out_of_range"      // value outside the allowed range
	CodeInvalidEnum     Code = "invalid_enum"      // value not in the allowed set
	CodeInvalidPath     Code = "invalid_path"      // filesystem path is syntactically invalid
	CodeInvalidShape    Code = "invalid_shape"     // value has the wrong structure
	CodeUnknownKey      Code = "unknown_key"       // key not present in the schema (warning unless strict)
	CodePathConflict    Code = "path_conflict"     // dot-path used both as leaf and as branch
	CodeKeyNotFound     Code = "key_not_found"     // lookup of a key that does not exist
	CodeProfileNotFound Code = "profile_not_found" // lookup of an undefined profile
)

// Violation describes a single configuration problem with enough context for
// an operator to fix it: the field, the layer that supplied the offending
// value, and the expected versus actual value.
type Violation struct {
	// Code categorizes the violation.
	Code Code

	// Field is the dotted path to the affected field (e.g.
	// "rate_limit.requests_per_second"). Empty for file-level problems.
	Field string

	// Source names the layer that supplied the offending value:
	// "defaults", "file", "profile:<name>", "env", or "override".
	Source string

	// Expected describes the acceptable value or kind.
	Expected string

	// Actual is a rendering of the value that was seen.
	Actual string

	// Message is a human-readable description.
	Message string

	// Line and Column locate parse errors in the source file.
	// Zero when no location is available.
	Line   int
	Column int
}

// Error implements the error interface.
func (v *Violation) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", v.Code))
	if v.Field != "" {
		sb.WriteString(" " + v.Field)
	}
	if v.Message != "" {
		sb.WriteString(": " + v.Message)
	}
	if v.Expected != "" {
		sb.WriteString(fmt.Sprintf(" (expected %s", v.Expected))
		if v.Actual != "" {
			sb.WriteString(fmt.Sprintf(", got %s", v.Actual))
		}
		sb.WriteString(")")
	}
	if v.Source != "" {
		sb.WriteString(fmt.Sprintf(" [source: %s]", v.Source))
	}
	if v.Line > 0 {
		sb.WriteString(fmt.Sprintf(" at line %d", v.Line))
		if v.Column > 0 {
			sb.WriteString(fmt.Sprintf(", column %d", v.Column))
		}
	}
	return sb.String()
}

// Warning reports whether this violation is warning-grade. Warning-grade
// violations block resolution only in strict mode.
func (v *Violation) Warning() bool {
	return v.Code == CodeUnknownKey
}

// KeyNotFound returns a violation for a lookup of an unknown key.
func KeyNotFound(path string) *Violation {
	return &Violation{
		Code:    CodeKeyNotFound,
		Field:   path,
		Message: "no such configuration key",
	}
}

// ProfileNotFound returns a violation for a lookup of an undefined profile.
func ProfileNotFound(name string) *Violation {
	return &Violation{
		Code:    CodeProfileNotFound,
		Field:   name,
		Message: "no such profile",
	}
}

// List accumulates violations across a resolution pass.
// The zero value is ready to use.
type List struct {
	Violations []*Violation
}

// Add appends violations to the list. Nil violations are skipped.
func (l *List) Add(vs ...*Violation) {
	for _, v := range vs {
		if v != nil {
			l.Violations = append(l.Violations, v)
		}
	}
}

// Merge appends all violations from another list.
func (l *List) Merge(other *List) {
	if other != nil {
		l.Violations = append(l.Violations, other.Violations...)
	}
}

// Len returns the number of accumulated violations.
func (l *List) Len() int {
	return len(l.Violations)
}

// Fatal reports whether the list should fail resolution. In strict mode any
// violation is fatal; otherwise warning-grade violations are tolerated.
func (l *List) Fatal(strict bool) bool {
	for _, v := range l.Violations {
		if strict || !v.Warning() {
			return true
		}
	}
	return false
}

// Warnings returns only the warning-grade violations.
func (l *List) Warnings() []*Violation {
	var out []*Violation
	for _, v := range l.Violations {
		if v.Warning() {
			out = append(out, v)
		}
	}
	return out
}

// ByCode returns the violations matching the given code.
func (l *List) ByCode(code Code) []*Violation {
	var out []*Violation
	for _, v := range l.Violations {
		if v.Code == code {
			out = append(out, v)
		}
	}
	return out
}

// Error implements the error interface, rendering every violation.
func (l *List) Error() string {
	if l.Len() == 0 {
		return "configuration resolution failed"
	}
	if l.Len() == 1 {
		return fmt.Sprintf("configuration resolution failed: %s", l.Violations[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration resolution failed with %d violations:\n", l.Len()))
	for _, v := range l.Violations {
		sb.WriteString("  - " + v.Error() + "\n")
	}
	return sb.String()
}

// ErrOrNil returns the list as an error when it is fatal, and nil otherwise.
func (l *List) ErrOrNil(strict bool) error {
	if l.Fatal(strict) {
		return l
	}
	return nil
}
