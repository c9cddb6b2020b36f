package permission

import (
	"sort"
	"strings"
)

// Set is an immutable set of permission codes such as READ_USER or MANAGE_ROLE.
//
// The zero value is an empty set and is ready to use.
type Set struct {
	codes map[string]struct{}
}

// NewSet builds a [Set] from codes. Surrounding whitespace is trimmed and
// empty codes are dropped; duplicates collapse.
func NewSet(codes ...string) Set {
	s := Set{codes: make(map[string]struct{}, len(codes))}
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		s.codes[c] = struct{}{}
	}
	return s
}

// Has reports whether code is in the set.
func (s Set) Has(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// HasAny reports whether at least one of required is in the set. An empty
// required list is always satisfied.
func (s Set) HasAny(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Len returns the number of codes in the set.
func (s Set) Len() int {
	return len(s.codes)
}

// Codes returns the codes in ascending order. The returned slice is a copy.
func (s Set) Codes() []string {
	out := make([]string, 0, len(s.codes))
	for c := range s.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same codes.
func (s Set) Equal(other Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for c := range s.codes {
		if !other.Has(c) {
			return false
		}
	}
	return true
}

func (s Set) String() string {
	return "{" + strings.Join(s.Codes(), ",") + "}"
}
