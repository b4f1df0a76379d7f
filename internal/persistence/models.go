package persistence

import "time"

// Profile represents a dancer account mirrored from the external identity system.
type Profile struct {
	ID          string
	DisplayName string
	SkillLevel  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AvailabilityWindow is one contiguous interval inside a schedule preference.
// A recurring window repeats on Weekday; a one-off window pins to Date.
type AvailabilityWindow struct {
	Weekday     time.Weekday
	Date        *time.Time
	StartMinute int
	EndMinute   int
	Recurring   bool
}

// SchedulePreference is a person's single active availability record.
// Windows are replaced wholesale on every edit.
type SchedulePreference struct {
	ProfileID      string
	Windows        []AvailabilityWindow
	Roles          []string
	SkillLevels    []string
	FocusAreas     []string
	LocationIDs    []string
	TravelRadiusKm *int
	Note           *string
	UpdatedAt      time.Time
}

// Block records that Blocker does not want to be matched with Blocked.
type Block struct {
	BlockerID string
	BlockedID string
	CreatedAt time.Time
}

// Session represents a scheduled practice meeting.
type Session struct {
	ID          string
	OrganizerID string
	LocationID  *string
	Title       string
	Type        string
	Status      string
	Visibility  string
	Start       time.Time
	End         time.Time
	Capacity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionInvite is one negotiation thread tied to exactly one session.
type SessionInvite struct {
	ID         string
	SessionID  string
	ProposerID string
	InviteeID  string
	Status     string
	Note       *string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Participant is the join row binding a profile to a session.
type Participant struct {
	SessionID string
	ProfileID string
	JoinedAt  time.Time
}
