// Package smartcode parses and validates the dotted, versioned classification
// strings attached to every stored row (e.g. HERA.SALON.CUSTOMER.ENTITY.PROFILE.v1).
package smartcode

import (
	"strconv"
	"strings"

	"github.com/heraerp/platform/internal/domain/shared"
)

const (
	// MinSegments is the minimum number of classification segments before the version
	MinSegments = 4
	// MaxSegments is the maximum number of classification segments before the version
	MaxSegments = 9
	// MaxLength bounds the whole string
	MaxLength = 200
)

// SmartCode is a parsed classification string
type SmartCode struct {
	raw      string
	segments []string
	version  int
}

// Parse validates code against the smart code grammar:
//
//	NAMESPACE(.SEGMENT){3,8}.vN
//
// Segments are upper-case letters, digits and underscores; the namespace must
// start with a letter; the terminal token is "v" followed by a positive integer.
func Parse(code string) (SmartCode, error) {
	if code == "" {
		return SmartCode{}, invalid(code, "smart code is required")
	}
	if len(code) > MaxLength {
		return SmartCode{}, invalid(code, "smart code exceeds maximum length")
	}
	if strings.TrimSpace(code) != code || strings.ContainsAny(code, " \t\n") {
		return SmartCode{}, invalid(code, "smart code must not contain whitespace")
	}

	parts := strings.Split(code, ".")
	if len(parts) < MinSegments+1 {
		return SmartCode{}, invalid(code, "smart code has too few segments")
	}
	if len(parts) > MaxSegments+1 {
		return SmartCode{}, invalid(code, "smart code has too many segments")
	}

	versionToken := parts[len(parts)-1]
	version, ok := parseVersion(versionToken)
	if !ok {
		return SmartCode{}, invalid(code, "smart code must end with a version segment like v1")
	}

	segments := parts[:len(parts)-1]
	for i, seg := range segments {
		if seg == "" {
			return SmartCode{}, invalid(code, "smart code has an empty segment")
		}
		if !validSegment(seg) {
			return SmartCode{}, invalid(code, "smart code segment "+strconv.Quote(seg)+" must be upper-case letters, digits or underscores")
		}
		if i == 0 && !isUpperLetter(seg[0]) {
			return SmartCode{}, invalid(code, "smart code namespace must start with a letter")
		}
	}

	return SmartCode{
		raw:      code,
		segments: append([]string(nil), segments...),
		version:  version,
	}, nil
}

// Validate reports whether code is a valid smart code.
func Validate(code string) error {
	_, err := Parse(code)
	return err
}

// MustParse is Parse for compile-time constants; it panics on invalid input.
func MustParse(code string) SmartCode {
	sc, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return sc
}

// String returns the canonical string form
func (s SmartCode) String() string {
	return s.raw
}

// IsZero reports whether s was never parsed
func (s SmartCode) IsZero() bool {
	return s.raw == ""
}

// Namespace returns the first segment (e.g. HERA)
func (s SmartCode) Namespace() string {
	return s.segment(0)
}

// Domain returns the second segment (e.g. SALON)
func (s SmartCode) Domain() string {
	return s.segment(1)
}

// Module returns the third segment (e.g. CUSTOMER)
func (s SmartCode) Module() string {
	return s.segment(2)
}

// Kind returns the fourth segment, the object kind (e.g. ENTITY, TXN, REL)
func (s SmartCode) Kind() string {
	return s.segment(3)
}

// Segments returns all classification segments, excluding the version
func (s SmartCode) Segments() []string {
	return append([]string(nil), s.segments...)
}

// Version returns the schema version number
func (s SmartCode) Version() int {
	return s.version
}

// WithVersion returns the same classification at another version.
func (s SmartCode) WithVersion(v int) (SmartCode, error) {
	if v < 1 {
		return SmartCode{}, invalid(s.raw, "smart code version must be positive")
	}
	raw := strings.Join(s.segments, ".") + ".v" + strconv.Itoa(v)
	return Parse(raw)
}

func (s SmartCode) segment(i int) string {
	if i < len(s.segments) {
		return s.segments[i]
	}
	return ""
}

func parseVersion(tok string) (int, bool) {
	if len(tok) < 2 || tok[0] != 'v' {
		return 0, false
	}
	digits := tok[1:]
	if digits[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func validSegment(seg string) bool {
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if !isUpperLetter(c) && !(c >= '0' && c <= '9') && c != '_' {
			return false
		}
	}
	return true
}

func isUpperLetter(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func invalid(code, reason string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeInvalidSmartCode, reason).
		WithDetails(map[string]any{"smart_code": code})
}
