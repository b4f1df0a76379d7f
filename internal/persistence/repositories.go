package persistence

import (
	"context"
	"time"
)

// ProfileRepository exposes CRUD operations for profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile Profile) error
	UpdateProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// PreferenceRepository stores each person's single active schedule preference.
type PreferenceRepository interface {
	ReplacePreference(ctx context.Context, preference SchedulePreference) error
	GetPreference(ctx context.Context, profileID string) (SchedulePreference, error)
	ListPreferences(ctx context.Context) ([]SchedulePreference, error)
	DeletePreference(ctx context.Context, profileID string) error
}

// BlockRepository stores directed block pairs between profiles.
type BlockRepository interface {
	CreateBlock(ctx context.Context, block Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	ListBlocksInvolving(ctx context.Context, profileID string) ([]Block, error)
}

// SessionFilter narrows session list queries.
type SessionFilter struct {
	Statuses     []string
	Types        []string
	Visibilities []string
	OrganizerID  *string
}

// SessionRepository exposes the read paths over sessions and participants.
// All session writes go through the NegotiationStore transaction.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	ListParticipants(ctx context.Context, sessionID string) ([]Participant, error)
}

// InviteRepository exposes the read paths over session invites.
type InviteRepository interface {
	GetInvite(ctx context.Context, id string) (SessionInvite, error)
	ListInvitesFor(ctx context.Context, profileID string) ([]SessionInvite, error)
	ListPendingInvitesFrom(ctx context.Context, proposerID string) ([]SessionInvite, error)
}

// NegotiationTx is the view of the store available inside one transaction.
// Every mutation of sessions, invites, or participants happens through it so
// the invite state machine and capacity checks stay atomic.
type NegotiationTx interface {
	CreateSession(ctx context.Context, session Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)

	CreateInvite(ctx context.Context, invite SessionInvite) error
	UpdateInvite(ctx context.Context, invite SessionInvite) error
	GetInvite(ctx context.Context, id string) (SessionInvite, error)
	ListPendingInvitesBetween(ctx context.Context, proposerID, inviteeID string) ([]SessionInvite, error)
	ExpirePendingInvites(ctx context.Context, reference time.Time) (int, error)

	AddParticipant(ctx context.Context, participant Participant) error
	RemoveParticipant(ctx context.Context, sessionID, profileID string) error
	ListParticipants(ctx context.Context, sessionID string) ([]Participant, error)
}

// NegotiationStore runs a function inside a single write transaction.
// Implementations serialize concurrent transactions so that capacity and
// mirror-accept decisions observe a consistent snapshot.
type NegotiationStore interface {
	InTx(ctx context.Context, fn func(tx NegotiationTx) error) error
}
