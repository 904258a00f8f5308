// Package content holds the rules shared by every kind of site content:
// who may see what, how lists are filtered and how slugs are derived.
package content

// Scope identifies the audience of a read. Public reads only ever see
// published or active records; admin reads see everything they ask for.
type Scope int

const (
	ScopePublic Scope = iota
	ScopeAdmin
)

func (s Scope) IsAdmin() bool {
	return s == ScopeAdmin
}

func (s Scope) String() string {
	if s == ScopeAdmin {
		return "admin"
	}
	return "public"
}

// ResolveStatus returns the status restriction to apply for a read. Public
// callers are pinned to published no matter what they requested.
func ResolveStatus(scope Scope, requested *Status) *Status {
	if !scope.IsAdmin() {
		published := StatusPublished
		return &published
	}
	return requested
}

// ResolveActive is ResolveStatus for records with an is_active flag.
func ResolveActive(scope Scope, requested *bool) *bool {
	if !scope.IsAdmin() {
		active := true
		return &active
	}
	return requested
}

// Visible reports whether a record with the given status may be returned
// for a single-record read.
func Visible(scope Scope, status Status) bool {
	return scope.IsAdmin() || status == StatusPublished
}

// VisibleActive reports whether an active-flagged record may be returned
// for a single-record read.
func VisibleActive(scope Scope, active bool) bool {
	return scope.IsAdmin() || active
}
