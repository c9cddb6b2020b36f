package permission

// Roles is the ordered sequence of role names granted to a session.
//
// Roles are informational for the session guard; access decisions use [Set].
type Roles []string

// Contains reports whether name appears in the sequence.
func (r Roles) Contains(name string) bool {
	for _, v := range r {
		if v == name {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no backing array with r.
func (r Roles) Clone() Roles {
	if r == nil {
		return nil
	}
	out := make(Roles, len(r))
	copy(out, r)
	return out
}
