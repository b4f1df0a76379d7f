package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// Store is a mutex-guarded in-memory persistence layer implementation. It
// backs tests and local development; the transactional closure runs under the
// write lock so negotiation operations observe a consistent snapshot.
type Store struct {
	mu           sync.RWMutex
	profiles     map[string]persistence.Profile
	preferences  map[string]persistence.SchedulePreference
	blocks       map[string]persistence.Block
	sessions     map[string]persistence.Session
	invites      map[string]persistence.SessionInvite
	participants map[string]map[string]persistence.Participant
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		profiles:     make(map[string]persistence.Profile),
		preferences:  make(map[string]persistence.SchedulePreference),
		blocks:       make(map[string]persistence.Block),
		sessions:     make(map[string]persistence.Session),
		invites:      make(map[string]persistence.SessionInvite),
		participants: make(map[string]map[string]persistence.Participant),
	}
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// --- ProfileRepository implementation ---

// CreateProfile stores a new profile.
func (s *Store) CreateProfile(ctx context.Context, profile persistence.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.ID]; ok {
		return persistence.ErrDuplicate
	}

	s.profiles[profile.ID] = profile
	return nil
}

// UpdateProfile updates an existing profile.
func (s *Store) UpdateProfile(ctx context.Context, profile persistence.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.profiles[profile.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	profile.CreatedAt = existing.CreatedAt
	s.profiles[profile.ID] = profile
	return nil
}

// GetProfile retrieves a profile by ID.
func (s *Store) GetProfile(ctx context.Context, id string) (persistence.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[id]
	if !ok {
		return persistence.Profile{}, persistence.ErrNotFound
	}

	return profile, nil
}

// ListProfiles returns all profiles ordered by CreatedAt ascending.
func (s *Store) ListProfiles(ctx context.Context) ([]persistence.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]persistence.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].ID < profiles[j].ID
		}
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})

	return profiles, nil
}

// DeleteProfile removes a profile together with its preference and blocks.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.profiles, id)
	delete(s.preferences, id)

	for key, block := range s.blocks {
		if block.BlockerID == id || block.BlockedID == id {
			delete(s.blocks, key)
		}
	}

	return nil
}

// --- PreferenceRepository implementation ---

// ReplacePreference stores the person's availability record, replacing any
// previous one wholesale.
func (s *Store) ReplacePreference(ctx context.Context, preference persistence.SchedulePreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[preference.ProfileID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	s.preferences[preference.ProfileID] = clonePreference(preference)
	return nil
}

// GetPreference retrieves a person's schedule preference.
func (s *Store) GetPreference(ctx context.Context, profileID string) (persistence.SchedulePreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preference, ok := s.preferences[profileID]
	if !ok {
		return persistence.SchedulePreference{}, persistence.ErrNotFound
	}

	return clonePreference(preference), nil
}

// ListPreferences returns all stored preferences ordered by profile ID.
func (s *Store) ListPreferences(ctx context.Context) ([]persistence.SchedulePreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preferences := make([]persistence.SchedulePreference, 0, len(s.preferences))
	for _, preference := range s.preferences {
		preferences = append(preferences, clonePreference(preference))
	}

	sort.Slice(preferences, func(i, j int) bool {
		return preferences[i].ProfileID < preferences[j].ProfileID
	})

	return preferences, nil
}

// DeletePreference removes a person's schedule preference.
func (s *Store) DeletePreference(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.preferences[profileID]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.preferences, profileID)
	return nil
}

// --- BlockRepository implementation ---

// CreateBlock stores a directed block pair.
func (s *Store) CreateBlock(ctx context.Context, block persistence.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[block.BlockerID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.profiles[block.BlockedID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	key := blockKey(block.BlockerID, block.BlockedID)
	if _, ok := s.blocks[key]; ok {
		return persistence.ErrDuplicate
	}

	s.blocks[key] = block
	return nil
}

// DeleteBlock removes a directed block pair.
func (s *Store) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := blockKey(blockerID, blockedID)
	if _, ok := s.blocks[key]; !ok {
		return persistence.ErrNotFound
	}

	delete(s.blocks, key)
	return nil
}

// ListBlocksInvolving returns every block where the profile is blocker or blocked.
func (s *Store) ListBlocksInvolving(ctx context.Context, profileID string) ([]persistence.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]persistence.Block, 0)
	for _, block := range s.blocks {
		if block.BlockerID == profileID || block.BlockedID == profileID {
			blocks = append(blocks, block)
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].BlockerID == blocks[j].BlockerID {
			return blocks[i].BlockedID < blocks[j].BlockedID
		}
		return blocks[i].BlockerID < blocks[j].BlockerID
	})

	return blocks, nil
}

// --- SessionRepository implementation (read paths) ---

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getSessionLocked(id)
}

// ListSessions returns sessions matching the filter ordered by start time.
func (s *Store) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]persistence.Session, 0)
	for _, session := range s.sessions {
		if !matchesSessionFilter(session, filter) {
			continue
		}
		sessions = append(sessions, cloneSession(session))
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Start.Equal(sessions[j].Start) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].Start.Before(sessions[j].Start)
	})

	return sessions, nil
}

// ListParticipants returns the participants of a session ordered by join time.
func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]persistence.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listParticipantsLocked(sessionID), nil
}

// --- InviteRepository implementation (read paths) ---

// GetInvite retrieves an invite by ID.
func (s *Store) GetInvite(ctx context.Context, id string) (persistence.SessionInvite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getInviteLocked(id)
}

// ListInvitesFor returns every invite where the profile is proposer or invitee.
func (s *Store) ListInvitesFor(ctx context.Context, profileID string) ([]persistence.SessionInvite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invites := make([]persistence.SessionInvite, 0)
	for _, invite := range s.invites {
		if invite.ProposerID == profileID || invite.InviteeID == profileID {
			invites = append(invites, cloneInvite(invite))
		}
	}

	sortInvites(invites)
	return invites, nil
}

// ListPendingInvitesFrom returns the proposer's currently pending outgoing invites.
func (s *Store) ListPendingInvitesFrom(ctx context.Context, proposerID string) ([]persistence.SessionInvite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invites := make([]persistence.SessionInvite, 0)
	for _, invite := range s.invites {
		if invite.ProposerID == proposerID && invite.Status == "PENDING" {
			invites = append(invites, cloneInvite(invite))
		}
	}

	sortInvites(invites)
	return invites, nil
}

// --- NegotiationStore implementation ---

// InTx runs fn under the store's write lock. If fn returns an error every
// mutation made through the transaction view is rolled back.
func (s *Store) InTx(ctx context.Context, fn func(tx persistence.NegotiationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	if err := fn(&memoryTx{store: s}); err != nil {
		s.restoreLocked(snapshot)
		return err
	}

	return nil
}

type txSnapshot struct {
	sessions     map[string]persistence.Session
	invites      map[string]persistence.SessionInvite
	participants map[string]map[string]persistence.Participant
}

func (s *Store) snapshotLocked() txSnapshot {
	sessions := make(map[string]persistence.Session, len(s.sessions))
	for id, session := range s.sessions {
		sessions[id] = cloneSession(session)
	}
	invites := make(map[string]persistence.SessionInvite, len(s.invites))
	for id, invite := range s.invites {
		invites[id] = cloneInvite(invite)
	}
	participants := make(map[string]map[string]persistence.Participant, len(s.participants))
	for sessionID, rows := range s.participants {
		cloned := make(map[string]persistence.Participant, len(rows))
		for profileID, row := range rows {
			cloned[profileID] = row
		}
		participants[sessionID] = cloned
	}
	return txSnapshot{sessions: sessions, invites: invites, participants: participants}
}

func (s *Store) restoreLocked(snapshot txSnapshot) {
	s.sessions = snapshot.sessions
	s.invites = snapshot.invites
	s.participants = snapshot.participants
}

// memoryTx operates on the store's maps while InTx holds the write lock.
type memoryTx struct {
	store *Store
}

// CreateSession stores a new session.
func (tx *memoryTx) CreateSession(ctx context.Context, session persistence.Session) error {
	s := tx.store
	if _, ok := s.sessions[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.profiles[session.OrganizerID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// UpdateSession updates an existing session preserving immutable fields.
func (tx *memoryTx) UpdateSession(ctx context.Context, session persistence.Session) error {
	s := tx.store
	existing, ok := s.sessions[session.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	session.OrganizerID = existing.OrganizerID
	session.CreatedAt = existing.CreatedAt
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// GetSession retrieves a session by ID.
func (tx *memoryTx) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	return tx.store.getSessionLocked(id)
}

// CreateInvite stores a new session invite.
func (tx *memoryTx) CreateInvite(ctx context.Context, invite persistence.SessionInvite) error {
	s := tx.store
	if _, ok := s.invites[invite.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.sessions[invite.SessionID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.profiles[invite.ProposerID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.profiles[invite.InviteeID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	s.invites[invite.ID] = cloneInvite(invite)
	return nil
}

// UpdateInvite updates an existing invite preserving immutable fields.
func (tx *memoryTx) UpdateInvite(ctx context.Context, invite persistence.SessionInvite) error {
	s := tx.store
	existing, ok := s.invites[invite.ID]
	if !ok {
		return persistence.ErrNotFound
	}

	invite.SessionID = existing.SessionID
	invite.ProposerID = existing.ProposerID
	invite.InviteeID = existing.InviteeID
	invite.CreatedAt = existing.CreatedAt
	s.invites[invite.ID] = cloneInvite(invite)
	return nil
}

// GetInvite retrieves an invite by ID.
func (tx *memoryTx) GetInvite(ctx context.Context, id string) (persistence.SessionInvite, error) {
	return tx.store.getInviteLocked(id)
}

// ListPendingInvitesBetween returns pending invites from proposer to invitee.
func (tx *memoryTx) ListPendingInvitesBetween(ctx context.Context, proposerID, inviteeID string) ([]persistence.SessionInvite, error) {
	invites := make([]persistence.SessionInvite, 0)
	for _, invite := range tx.store.invites {
		if invite.ProposerID == proposerID && invite.InviteeID == inviteeID && invite.Status == "PENDING" {
			invites = append(invites, cloneInvite(invite))
		}
	}

	sortInvites(invites)
	return invites, nil
}

// ExpirePendingInvites marks pending invites past their expiry as EXPIRED and
// returns how many rows changed.
func (tx *memoryTx) ExpirePendingInvites(ctx context.Context, reference time.Time) (int, error) {
	expired := 0
	for id, invite := range tx.store.invites {
		if invite.Status != "PENDING" || invite.ExpiresAt.After(reference) {
			continue
		}
		invite.Status = "EXPIRED"
		invite.UpdatedAt = reference
		tx.store.invites[id] = invite
		expired++
	}

	return expired, nil
}

// AddParticipant stores a new participant row.
func (tx *memoryTx) AddParticipant(ctx context.Context, participant persistence.Participant) error {
	s := tx.store
	if _, ok := s.sessions[participant.SessionID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := s.profiles[participant.ProfileID]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	rows, ok := s.participants[participant.SessionID]
	if !ok {
		rows = make(map[string]persistence.Participant)
		s.participants[participant.SessionID] = rows
	}
	if _, ok := rows[participant.ProfileID]; ok {
		return persistence.ErrDuplicate
	}

	rows[participant.ProfileID] = participant
	return nil
}

// RemoveParticipant deletes a participant row.
func (tx *memoryTx) RemoveParticipant(ctx context.Context, sessionID, profileID string) error {
	rows, ok := tx.store.participants[sessionID]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, ok := rows[profileID]; !ok {
		return persistence.ErrNotFound
	}

	delete(rows, profileID)
	return nil
}

// ListParticipants returns the participants of a session ordered by join time.
func (tx *memoryTx) ListParticipants(ctx context.Context, sessionID string) ([]persistence.Participant, error) {
	return tx.store.listParticipantsLocked(sessionID), nil
}

// --- Helpers ---

func (s *Store) getSessionLocked(id string) (persistence.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) getInviteLocked(id string) (persistence.SessionInvite, error) {
	invite, ok := s.invites[id]
	if !ok {
		return persistence.SessionInvite{}, persistence.ErrNotFound
	}
	return cloneInvite(invite), nil
}

func (s *Store) listParticipantsLocked(sessionID string) []persistence.Participant {
	participants := make([]persistence.Participant, 0)
	for _, participant := range s.participants[sessionID] {
		participants = append(participants, participant)
	}

	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].ProfileID < participants[j].ProfileID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	return participants
}

func blockKey(blockerID, blockedID string) string {
	return blockerID + "\x00" + blockedID
}

func clonePreference(preference persistence.SchedulePreference) persistence.SchedulePreference {
	cloned := preference
	cloned.Windows = append([]persistence.AvailabilityWindow(nil), preference.Windows...)
	for i, window := range cloned.Windows {
		if window.Date != nil {
			date := *window.Date
			cloned.Windows[i].Date = &date
		}
	}
	cloned.Roles = append([]string(nil), preference.Roles...)
	cloned.SkillLevels = append([]string(nil), preference.SkillLevels...)
	cloned.FocusAreas = append([]string(nil), preference.FocusAreas...)
	cloned.LocationIDs = append([]string(nil), preference.LocationIDs...)
	if preference.TravelRadiusKm != nil {
		radius := *preference.TravelRadiusKm
		cloned.TravelRadiusKm = &radius
	}
	if preference.Note != nil {
		note := *preference.Note
		cloned.Note = &note
	}
	return cloned
}

func cloneSession(session persistence.Session) persistence.Session {
	cloned := session
	if session.LocationID != nil {
		locationID := *session.LocationID
		cloned.LocationID = &locationID
	}
	return cloned
}

func cloneInvite(invite persistence.SessionInvite) persistence.SessionInvite {
	cloned := invite
	if invite.Note != nil {
		note := *invite.Note
		cloned.Note = &note
	}
	return cloned
}

func sortInvites(invites []persistence.SessionInvite) {
	sort.Slice(invites, func(i, j int) bool {
		if invites[i].CreatedAt.Equal(invites[j].CreatedAt) {
			return invites[i].ID < invites[j].ID
		}
		return invites[i].CreatedAt.Before(invites[j].CreatedAt)
	})
}

func matchesSessionFilter(session persistence.Session, filter persistence.SessionFilter) bool {
	if len(filter.Statuses) > 0 && !containsString(filter.Statuses, session.Status) {
		return false
	}
	if len(filter.Types) > 0 && !containsString(filter.Types, session.Type) {
		return false
	}
	if len(filter.Visibilities) > 0 && !containsString(filter.Visibilities, session.Visibility) {
		return false
	}
	if filter.OrganizerID != nil && session.OrganizerID != *filter.OrganizerID {
		return false
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
