package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

var (
	profileCounter uint64
	sessionCounter uint64
	inviteCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Profile fixtures -----------------------------

// ProfileFixture represents a deterministic profile record that can be
// materialised for application or persistence tests.
type ProfileFixture struct {
	ID          string
	DisplayName string
	SkillLevel  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileOption configures the generated profile fixture.
type ProfileOption func(*ProfileFixture)

// NewProfileFixture returns a deterministic profile fixture with optional
// overrides.
func NewProfileFixture(opts ...ProfileOption) ProfileFixture {
	idx := atomic.AddUint64(&profileCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ProfileFixture{
		ID:          fmt.Sprintf("profile-%03d", idx),
		DisplayName: fmt.Sprintf("Dancer %03d", idx),
		SkillLevel:  "INTERMEDIATE",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithProfileID overrides the generated profile ID.
func WithProfileID(id string) ProfileOption {
	return func(f *ProfileFixture) {
		f.ID = id
	}
}

// WithProfileDisplayName overrides the generated display name.
func WithProfileDisplayName(name string) ProfileOption {
	return func(f *ProfileFixture) {
		f.DisplayName = name
	}
}

// WithProfileSkillLevel overrides the generated skill level.
func WithProfileSkillLevel(level string) ProfileOption {
	return func(f *ProfileFixture) {
		f.SkillLevel = level
	}
}

// WithProfileTimestamps sets both created and updated timestamps.
func WithProfileTimestamps(created, updated time.Time) ProfileOption {
	return func(f *ProfileFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Record converts the fixture into a persistence profile record.
func (f ProfileFixture) Record() persistence.Profile {
	return persistence.Profile{
		ID:          f.ID,
		DisplayName: f.DisplayName,
		SkillLevel:  f.SkillLevel,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// -------------------------- Preference fixtures ---------------------------

// PreferenceFixture represents a deterministic schedule preference.
type PreferenceFixture struct {
	ProfileID   string
	Windows     []persistence.AvailabilityWindow
	Roles       []string
	SkillLevels []string
	FocusAreas  []string
	LocationIDs []string
	UpdatedAt   time.Time
}

// PreferenceOption configures the generated preference fixture.
type PreferenceOption func(*PreferenceFixture)

// NewPreferenceFixture returns a preference fixture for the given profile.
// The default preference holds one recurring Monday evening window.
func NewPreferenceFixture(profileID string, opts ...PreferenceOption) PreferenceFixture {
	fixture := PreferenceFixture{
		ProfileID: profileID,
		Windows: []persistence.AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 18 * 60, EndMinute: 21 * 60, Recurring: true},
		},
		Roles:       []string{"LEAD"},
		SkillLevels: []string{"INTERMEDIATE"},
		FocusAreas:  []string{"TECHNIQUE"},
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithWindows overrides the availability windows.
func WithWindows(windows ...persistence.AvailabilityWindow) PreferenceOption {
	return func(f *PreferenceFixture) {
		f.Windows = windows
	}
}

// WithRoles overrides the preferred roles.
func WithRoles(roles ...string) PreferenceOption {
	return func(f *PreferenceFixture) {
		f.Roles = roles
	}
}

// WithFocusAreas overrides the preferred focus areas.
func WithFocusAreas(areas ...string) PreferenceOption {
	return func(f *PreferenceFixture) {
		f.FocusAreas = areas
	}
}

// WithLocationIDs overrides the preferred location ids.
func WithLocationIDs(ids ...string) PreferenceOption {
	return func(f *PreferenceFixture) {
		f.LocationIDs = ids
	}
}

// RecurringWindow builds one recurring availability window.
func RecurringWindow(day time.Weekday, startMinute, endMinute int) persistence.AvailabilityWindow {
	return persistence.AvailabilityWindow{
		Weekday:     day,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Recurring:   true,
	}
}

// Record converts the fixture into a persistence preference record.
func (f PreferenceFixture) Record() persistence.SchedulePreference {
	return persistence.SchedulePreference{
		ProfileID:   f.ProfileID,
		Windows:     f.Windows,
		Roles:       f.Roles,
		SkillLevels: f.SkillLevels,
		FocusAreas:  f.FocusAreas,
		LocationIDs: f.LocationIDs,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
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

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session organised by the given profile. The
// default session is a proposed partner practice one day after the reference
// time.
func NewSessionFixture(organizerID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	start := referenceTime.Add(24 * time.Hour)
	fixture := SessionFixture{
		ID:          fmt.Sprintf("session-%03d", idx),
		OrganizerID: organizerID,
		Title:       "Partner practice",
		Type:        "PARTNER_PRACTICE",
		Status:      "PROPOSED",
		Visibility:  "PARTICIPANTS_ONLY",
		Start:       start,
		End:         start.Add(time.Hour),
		Capacity:    2,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionType overrides session type and, for group sessions, leaves the
// capacity for the caller to set.
func WithSessionType(sessionType string) SessionOption {
	return func(f *SessionFixture) {
		f.Type = sessionType
	}
}

// WithSessionStatus overrides the session status.
func WithSessionStatus(status string) SessionOption {
	return func(f *SessionFixture) {
		f.Status = status
	}
}

// WithSessionVisibility overrides the session visibility.
func WithSessionVisibility(visibility string) SessionOption {
	return func(f *SessionFixture) {
		f.Visibility = visibility
	}
}

// WithSessionCapacity overrides the session capacity.
func WithSessionCapacity(capacity int) SessionOption {
	return func(f *SessionFixture) {
		f.Capacity = capacity
	}
}

// WithSessionTimes overrides the start and end instants.
func WithSessionTimes(start, end time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.Start = start
		f.End = end
	}
}

// Record converts the fixture into a persistence session record.
func (f SessionFixture) Record() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		OrganizerID: f.OrganizerID,
		LocationID:  f.LocationID,
		Title:       f.Title,
		Type:        f.Type,
		Status:      f.Status,
		Visibility:  f.Visibility,
		Start:       f.Start,
		End:         f.End,
		Capacity:    f.Capacity,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ----------------------------- Invite fixtures ----------------------------

// InviteFixture represents a deterministic session invite record.
type InviteFixture struct {
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

// InviteOption configures the generated invite fixture.
type InviteOption func(*InviteFixture)

// NewInviteFixture returns a pending invite bound to the given session and
// parties, expiring one day after the reference time.
func NewInviteFixture(sessionID, proposerID, inviteeID string, opts ...InviteOption) InviteFixture {
	idx := atomic.AddUint64(&inviteCounter, 1)
	fixture := InviteFixture{
		ID:         fmt.Sprintf("invite-%03d", idx),
		SessionID:  sessionID,
		ProposerID: proposerID,
		InviteeID:  inviteeID,
		Status:     "PENDING",
		ExpiresAt:  referenceTime.Add(25 * time.Hour),
		CreatedAt:  referenceTime,
		UpdatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithInviteID overrides the generated invite ID.
func WithInviteID(id string) InviteOption {
	return func(f *InviteFixture) {
		f.ID = id
	}
}

// WithInviteStatus overrides the invite status.
func WithInviteStatus(status string) InviteOption {
	return func(f *InviteFixture) {
		f.Status = status
	}
}

// WithInviteExpiresAt overrides the invite expiry instant.
func WithInviteExpiresAt(t time.Time) InviteOption {
	return func(f *InviteFixture) {
		f.ExpiresAt = t
	}
}

// Record converts the fixture into a persistence invite record.
func (f InviteFixture) Record() persistence.SessionInvite {
	return persistence.SessionInvite{
		ID:         f.ID,
		SessionID:  f.SessionID,
		ProposerID: f.ProposerID,
		InviteeID:  f.InviteeID,
		Status:     f.Status,
		Note:       f.Note,
		ExpiresAt:  f.ExpiresAt,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}
