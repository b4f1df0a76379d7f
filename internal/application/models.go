package application

import (
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// Principal represents the caller identity resolved by the external access
// gate. IsPrivileged widens read visibility only; it never grants writes.
type Principal struct {
	ProfileID    string
	IsPrivileged bool
}

// SkillLevel orders dancers from newcomer to champion. The ordinal distance
// between two levels feeds the compatibility score.
type SkillLevel string

const (
	SkillNewcomer     SkillLevel = "NEWCOMER"
	SkillNovice       SkillLevel = "NOVICE"
	SkillIntermediate SkillLevel = "INTERMEDIATE"
	SkillAdvanced     SkillLevel = "ADVANCED"
	SkillAllStar      SkillLevel = "ALL_STAR"
	SkillChampion     SkillLevel = "CHAMPION"
)

var skillOrdinals = map[SkillLevel]int{
	SkillNewcomer:     0,
	SkillNovice:       1,
	SkillIntermediate: 2,
	SkillAdvanced:     3,
	SkillAllStar:      4,
	SkillChampion:     5,
}

// Valid reports whether the value is a known skill level.
func (s SkillLevel) Valid() bool {
	_, ok := skillOrdinals[s]
	return ok
}

// Ordinal returns the position of the level in the progression.
func (s SkillLevel) Ordinal() int {
	return skillOrdinals[s]
}

// FocusArea is a practice topic two partners may share.
type FocusArea string

const (
	FocusConnection      FocusArea = "CONNECTION"
	FocusTechnique       FocusArea = "TECHNIQUE"
	FocusMusicality      FocusArea = "MUSICALITY"
	FocusCompetitionPrep FocusArea = "COMPETITION_PREP"
	FocusStyling         FocusArea = "STYLING"
	FocusSocialDancing   FocusArea = "SOCIAL_DANCING"
	FocusChoreography    FocusArea = "CHOREOGRAPHY"
	FocusMindset         FocusArea = "MINDSET"
	FocusConditioning    FocusArea = "CONDITIONING"
)

var focusAreas = map[FocusArea]struct{}{
	FocusConnection:      {},
	FocusTechnique:       {},
	FocusMusicality:      {},
	FocusCompetitionPrep: {},
	FocusStyling:         {},
	FocusSocialDancing:   {},
	FocusChoreography:    {},
	FocusMindset:         {},
	FocusConditioning:    {},
}

// Valid reports whether the value is a known focus area.
func (f FocusArea) Valid() bool {
	_, ok := focusAreas[f]
	return ok
}

// PartnerRole is the side a dancer takes.
type PartnerRole string

const (
	RoleLead   PartnerRole = "LEAD"
	RoleFollow PartnerRole = "FOLLOW"
)

// Valid reports whether the value is a known role.
func (r PartnerRole) Valid() bool {
	return r == RoleLead || r == RoleFollow
}

// SessionType distinguishes practice formats.
type SessionType string

const (
	TypePartnerPractice       SessionType = "PARTNER_PRACTICE"
	TypeGroupPractice         SessionType = "GROUP_PRACTICE"
	TypePrivateWithInstructor SessionType = "PRIVATE_WITH_INSTRUCTOR"
	TypeClass                 SessionType = "CLASS"
)

// Valid reports whether the value is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case TypePartnerPractice, TypeGroupPractice, TypePrivateWithInstructor, TypeClass:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusProposed  SessionStatus = "PROPOSED"
	StatusScheduled SessionStatus = "SCHEDULED"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusCancelled SessionStatus = "CANCELLED"
)

// Visibility controls who may read a session.
type Visibility string

const (
	VisibilityAuthorOnly       Visibility = "AUTHOR_ONLY"
	VisibilityParticipantsOnly Visibility = "PARTICIPANTS_ONLY"
	VisibilityPublic           Visibility = "PUBLIC"
)

// Valid reports whether the value is a known visibility.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityAuthorOnly, VisibilityParticipantsOnly, VisibilityPublic:
		return true
	}
	return false
}

// InviteStatus is the lifecycle state of a session invite.
type InviteStatus string

const (
	InvitePending   InviteStatus = "PENDING"
	InviteAccepted  InviteStatus = "ACCEPTED"
	InviteDeclined  InviteStatus = "DECLINED"
	InviteCancelled InviteStatus = "CANCELLED"
	InviteExpired   InviteStatus = "EXPIRED"
)

// RespondAction is the transition a caller requests on a pending invite.
type RespondAction string

const (
	ActionAccept  RespondAction = "ACCEPT"
	ActionDecline RespondAction = "DECLINE"
	ActionCancel  RespondAction = "CANCEL"
)

// Valid reports whether the value is a known respond action.
func (a RespondAction) Valid() bool {
	switch a {
	case ActionAccept, ActionDecline, ActionCancel:
		return true
	}
	return false
}

// Profile represents a dancer exposed by the application services.
type Profile struct {
	ID          string
	DisplayName string
	SkillLevel  SkillLevel
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WindowInput captures one caller provided availability window.
type WindowInput struct {
	Weekday     time.Weekday
	Date        *time.Time
	StartMinute int
	EndMinute   int
	Recurring   bool
}

// PreferenceInput captures the caller provided availability record. Windows
// replace the stored set wholesale.
type PreferenceInput struct {
	Windows        []WindowInput
	Roles          []PartnerRole
	SkillLevels    []SkillLevel
	FocusAreas     []FocusArea
	LocationIDs    []string
	TravelRadiusKm *int
	Note           *string
}

// SchedulePreference is a person's active availability record.
type SchedulePreference struct {
	ProfileID      string
	Windows        []WindowInput
	Roles          []PartnerRole
	SkillLevels    []SkillLevel
	FocusAreas     []FocusArea
	LocationIDs    []string
	TravelRadiusKm *int
	Note           *string
	UpdatedAt      time.Time
}

// ReplacePreferenceParams wraps the data required to replace a preference.
type ReplacePreferenceParams struct {
	Principal Principal
	ProfileID string
	Input     PreferenceInput
}

// CandidateMatch is one ranked entry returned by RankCandidates.
type CandidateMatch struct {
	CandidateID        string
	Score              float64
	OverlappingWindows int
	OverlappingMinutes int
	SharedFocusAreas   int
	SkillLevelDiff     int
}

// WindowSuggestion is one concrete overlapping window between two people.
type WindowSuggestion struct {
	Weekday        time.Weekday
	StartMinute    int
	EndMinute      int
	OverlapMinutes int
}

// Session represents a practice meeting exposed by the application services.
type Session struct {
	ID           string
	OrganizerID  string
	LocationID   *string
	Title        string
	Type         SessionType
	Status       SessionStatus
	Visibility   Visibility
	Start        time.Time
	End          time.Time
	Capacity     int
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionInput captures caller provided session fields.
type SessionInput struct {
	Title      string
	Type       SessionType
	Visibility Visibility
	Start      time.Time
	End        time.Time
	Capacity   int
	LocationID *string
}

// CreateSessionParams wraps the data required to create a session directly.
type CreateSessionParams struct {
	Principal Principal
	Input     SessionInput
}

// UpdateSessionParams wraps the data required to update a session.
type UpdateSessionParams struct {
	Principal Principal
	SessionID string
	Input     SessionInput
}

// ListSessionsParams wraps the filters accepted when listing sessions.
type ListSessionsParams struct {
	Principal    Principal
	Statuses     []SessionStatus
	Types        []SessionType
	Visibilities []Visibility
	OrganizerID  *string
}

// SessionInvite represents one negotiation thread exposed by the services.
type SessionInvite struct {
	ID         string
	SessionID  string
	ProposerID string
	InviteeID  string
	Status     InviteStatus
	Note       *string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProposeParams wraps the data required to propose a practice session.
type ProposeParams struct {
	Principal  Principal
	InviteeID  string
	Start      time.Time
	End        time.Time
	Note       *string
	LocationID *string
}

// RespondParams wraps the data required to respond to a pending invite.
type RespondParams struct {
	Principal Principal
	InviteID  string
	Action    RespondAction
}

// NegotiationResult reports the invite thread after Propose or Respond.
type NegotiationResult struct {
	SessionID    string
	InviteID     string
	InviteStatus InviteStatus
}

// --- persistence conversions ---

func profileFromRecord(record persistence.Profile) Profile {
	return Profile{
		ID:          record.ID,
		DisplayName: record.DisplayName,
		SkillLevel:  SkillLevel(record.SkillLevel),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func preferenceFromRecord(record persistence.SchedulePreference) SchedulePreference {
	preference := SchedulePreference{
		ProfileID:      record.ProfileID,
		LocationIDs:    append([]string(nil), record.LocationIDs...),
		TravelRadiusKm: record.TravelRadiusKm,
		Note:           record.Note,
		UpdatedAt:      record.UpdatedAt,
	}
	for _, window := range record.Windows {
		preference.Windows = append(preference.Windows, WindowInput{
			Weekday:     window.Weekday,
			Date:        window.Date,
			StartMinute: window.StartMinute,
			EndMinute:   window.EndMinute,
			Recurring:   window.Recurring,
		})
	}
	for _, role := range record.Roles {
		preference.Roles = append(preference.Roles, PartnerRole(role))
	}
	for _, level := range record.SkillLevels {
		preference.SkillLevels = append(preference.SkillLevels, SkillLevel(level))
	}
	for _, area := range record.FocusAreas {
		preference.FocusAreas = append(preference.FocusAreas, FocusArea(area))
	}
	return preference
}

func sessionFromRecord(record persistence.Session) Session {
	return Session{
		ID:          record.ID,
		OrganizerID: record.OrganizerID,
		LocationID:  record.LocationID,
		Title:       record.Title,
		Type:        SessionType(record.Type),
		Status:      SessionStatus(record.Status),
		Visibility:  Visibility(record.Visibility),
		Start:       record.Start,
		End:         record.End,
		Capacity:    record.Capacity,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func inviteFromRecord(record persistence.SessionInvite) SessionInvite {
	return SessionInvite{
		ID:         record.ID,
		SessionID:  record.SessionID,
		ProposerID: record.ProposerID,
		InviteeID:  record.InviteeID,
		Status:     InviteStatus(record.Status),
		Note:       record.Note,
		ExpiresAt:  record.ExpiresAt,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
