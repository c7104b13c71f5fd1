package schema

import (
	"fmt"
	"strings"

	"scraperhq/anchor/pkg/conferr"
)

// Kind is the semantic type of a configuration field.
type Kind int

const (
	// KindInt is a whole number.
	KindInt Kind = iota
	// KindFloat is a floating-point number.
	KindFloat
	// KindBool is a boolean.
	KindBool
	// KindString is a free-form string.
	KindString
	// KindStringSet is an unordered set of strings, stored sorted.
	KindStringSet
	// KindStringMap is a string-to-string mapping. Individual entries are
	// addressable as sub-paths of the field (e.g. "custom_headers.accept").
	KindStringMap
)

// String returns the kind name used in violation messages and templates.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindStringSet:
		return "string set"
	case KindStringMap:
		return "string map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Validator checks an already-coerced value and returns nil when it is
// acceptable. The returned violation needs no Field or Source; the schema
// fills those in.
type Validator func(value any) *conferr.Violation

// Field is an immutable descriptor for one configuration value.
type Field struct {
	// Name is the dotted path addressing the field.
	Name string

	// Kind is the semantic type every merged value is coerced to.
	Kind Kind

	// Default is the value used when no source supplies the field.
	// It must already have the canonical Go type for the kind.
	Default any

	// Description is a one-line explanation written into templates.
	Description string

	// Secret marks fields excluded from exports and logs by default
	// (proxy credentials and the like).
	Secret bool

	// Validate optionally checks coerced values beyond the kind.
	Validate Validator
}

// Min returns a validator requiring an integer value of at least min.
func Min(min int) Validator {
	return func(value any) *conferr.Violation {
		if n, ok := value.(int); ok && n < min {
			return &conferr.Violation{
				Code:     conferr.CodeOutOfRange,
				Expected: fmt.Sprintf(">= %d", min),
				Actual:   fmt.Sprintf("%d", n),
			}
		}
		return nil
	}
}

// MinFloat returns a validator requiring a float value of at least min.
func MinFloat(min float64) Validator {
	return func(value any) *conferr.Violation {
		if f, ok := value.(float64); ok && f < min {
			return &conferr.Violation{
				Code:     conferr.CodeOutOfRange,
				Expected: fmt.Sprintf(">= %g", min),
				Actual:   fmt.Sprintf("%g", f),
			}
		}
		return nil
	}
}

// PositiveFloat requires a float value strictly greater than zero.
func PositiveFloat() Validator {
	return func(value any) *conferr.Violation {
		if f, ok := value.(float64); ok && f <= 0 {
			return &conferr.Violation{
				Code:     conferr.CodeOutOfRange,
				Expected: "> 0",
				Actual:   fmt.Sprintf("%g", f),
			}
		}
		return nil
	}
}

// Positive requires an integer value strictly greater than zero.
func Positive() Validator {
	return func(value any) *conferr.Violation {
		if n, ok := value.(int); ok && n <= 0 {
			return &conferr.Violation{
				Code:     conferr.CodeOutOfRange,
				Expected: "> 0",
				Actual:   fmt.Sprintf("%d", n),
			}
		}
		return nil
	}
}

// Enum returns a validator restricting a string value to the given set.
// Matching is case-sensitive; the allowed values are listed in violations.
func Enum(allowed ...string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	expected := strings.Join(allowed, "|")
	return func(value any) *conferr.Violation {
		if s, ok := value.(string); ok && !set[s] {
			return &conferr.Violation{
				Code:     conferr.CodeInvalidEnum,
				Expected: expected,
				Actual:   fmt.Sprintf("%q", s),
			}
		}
		return nil
	}
}

// EnumFold is Enum with case-insensitive matching.
func EnumFold(allowed ...string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[strings.ToUpper(a)] = true
	}
	expected := strings.Join(allowed, "|")
	return func(value any) *conferr.Violation {
		if s, ok := value.(string); ok && !set[strings.ToUpper(s)] {
			return &conferr.Violation{
				Code:     conferr.CodeInvalidEnum,
				Expected: expected,
				Actual:   fmt.Sprintf("%q", s),
			}
		}
		return nil
	}
}

// Path requires a syntactically valid filesystem path. Only syntax is
// checked; the path does not need to exist.
func Path() Validator {
	return func(value any) *conferr.Violation {
		s, ok := value.(string)
		if !ok {
			return nil
		}
		if err := checkPathSyntax(s); err != nil {
			return &conferr.Violation{
				Code:    conferr.CodeInvalidPath,
				Message: err.Error(),
				Actual:  fmt.Sprintf("%q", s),
			}
		}
		return nil
	}
}

// OptionalPath is Path but tolerates the empty string (field unset).
func OptionalPath() Validator {
	inner := Path()
	return func(value any) *conferr.Violation {
		if s, ok := value.(string); ok && s == "" {
			return nil
		}
		return inner(value)
	}
}

// NotEmpty requires a non-empty string.
func NotEmpty() Validator {
	return func(value any) *conferr.Violation {
		if s, ok := value.(string); ok && s == "" {
			return &conferr.Violation{
				Code:     conferr.CodeInvalidShape,
				Expected: "non-empty string",
				Actual:   `""`,
			}
		}
		return nil
	}
}

// checkPathSyntax rejects paths no filesystem would accept.
func checkPathSyntax(p string) error {
	if p == "" {
		return fmt.Errorf("path is empty")
	}
	if strings.ContainsRune(p, '\x00') {
		return fmt.Errorf("path contains a NUL byte")
	}
	return nil
}
