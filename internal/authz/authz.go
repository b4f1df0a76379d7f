// Package authz decides who may read or modify a visibility-scoped resource.
// The privileged flag widens reads only; writes always require ownership.
package authz

// Visibility levels understood by the gate. They mirror the values stored on
// sessions and invites.
const (
	VisibilityAuthorOnly       = "AUTHOR_ONLY"
	VisibilityParticipantsOnly = "PARTICIPANTS_ONLY"
	VisibilityPublic           = "PUBLIC"
)

// Principal is the resolved caller identity handed in by the access gate.
type Principal struct {
	ProfileID    string
	IsPrivileged bool
}

// Resource describes the subject of an access decision.
type Resource struct {
	OwnerID    string
	Visibility string
	MemberIDs  []string
}

// Gate answers access questions for one principal and one resource.
type Gate interface {
	CanRead(p Principal, r Resource) bool
	CanWrite(p Principal, r Resource) bool
}

// VisibilityGate applies the standard visibility ladder.
type VisibilityGate struct{}

// CanRead reports whether the principal may see the resource. Owners and
// privileged callers always can; members can unless the resource is
// author-only; everyone can when it is public.
func (VisibilityGate) CanRead(p Principal, r Resource) bool {
	if p.IsPrivileged || p.ProfileID == r.OwnerID {
		return true
	}
	switch r.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityParticipantsOnly:
		for _, id := range r.MemberIDs {
			if id == p.ProfileID {
				return true
			}
		}
	}
	return false
}

// CanWrite reports whether the principal may modify the resource. Only the
// owner can; the privileged flag never grants write access.
func (VisibilityGate) CanWrite(p Principal, r Resource) bool {
	return p.ProfileID == r.OwnerID
}
