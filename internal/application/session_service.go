package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/practice-matcher/internal/authz"
	"github.com/example/practice-matcher/internal/persistence"
)

// SessionReader exposes the read paths over sessions and their membership.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (persistence.Session, error)
	ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error)
	ListParticipants(ctx context.Context, sessionID string) ([]persistence.Participant, error)
}

// SessionService manages organizer-driven session lifecycle. Invite-driven
// sessions are created by the InviteService; both paths share the same
// storage and visibility rules.
type SessionService struct {
	store       persistence.NegotiationStore
	sessions    SessionReader
	gate        authz.Gate
	idGenerator func() string
	now         func() time.Time
}

// NewSessionService wires dependencies for session management.
func NewSessionService(store persistence.NegotiationStore, sessions SessionReader, idGenerator func() string, now func() time.Time) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:       store,
		sessions:    sessions,
		gate:        authz.VisibilityGate{},
		idGenerator: idGenerator,
		now:         now,
	}
}

// CreateSession creates a session with the caller as organizer. The organizer
// is enrolled as the first participant.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.store == nil {
		return Session{}, fmt.Errorf("negotiation store not configured")
	}

	now := s.now()
	input := params.Input

	if err := validateSessionInput(input, now); err != nil {
		return Session{}, err
	}

	capacity := input.Capacity
	if input.Type == TypePartnerPractice {
		capacity = 2
	}

	record := persistence.Session{
		ID:          s.idGenerator(),
		OrganizerID: params.Principal.ProfileID,
		LocationID:  input.LocationID,
		Title:       strings.TrimSpace(input.Title),
		Type:        string(input.Type),
		Status:      string(StatusProposed),
		Visibility:  string(input.Visibility),
		Start:       input.Start,
		End:         input.End,
		Capacity:    capacity,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		if txErr := tx.CreateSession(ctx, record); txErr != nil {
			return mapRepoError(txErr)
		}
		participant := persistence.Participant{
			SessionID: record.ID,
			ProfileID: params.Principal.ProfileID,
			JoinedAt:  now,
		}
		return mapRepoError(tx.AddParticipant(ctx, participant))
	})
	if err != nil {
		return Session{}, err
	}

	session := sessionFromRecord(record)
	session.Participants = []string{params.Principal.ProfileID}
	return session, nil
}

// GetSession returns one session if the caller may see it.
func (s *SessionService) GetSession(ctx context.Context, principal Principal, sessionID string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return Session{}, fmt.Errorf("session reader not configured")
	}

	record, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	participants, err := s.sessions.ListParticipants(ctx, sessionID)
	if err != nil {
		return Session{}, mapRepoError(err)
	}

	memberIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		memberIDs = append(memberIDs, p.ProfileID)
	}

	resource := authz.Resource{
		OwnerID:    record.OrganizerID,
		Visibility: record.Visibility,
		MemberIDs:  memberIDs,
	}
	if !s.gate.CanRead(authzPrincipal(principal), resource) {
		return Session{}, ErrForbidden
	}

	session := sessionFromRecord(record)
	session.Participants = memberIDs
	return session, nil
}

// ListSessions returns the sessions matching the filter that the caller may
// see. Visibility is applied per row after the storage filter.
func (s *SessionService) ListSessions(ctx context.Context, params ListSessionsParams) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return nil, fmt.Errorf("session reader not configured")
	}

	filter := persistence.SessionFilter{
		OrganizerID: params.OrganizerID,
	}
	for _, status := range params.Statuses {
		filter.Statuses = append(filter.Statuses, string(status))
	}
	for _, sessionType := range params.Types {
		filter.Types = append(filter.Types, string(sessionType))
	}
	for _, visibility := range params.Visibilities {
		filter.Visibilities = append(filter.Visibilities, string(visibility))
	}
	records, err := s.sessions.ListSessions(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}

	sessions := make([]Session, 0, len(records))
	for _, record := range records {
		participants, err := s.sessions.ListParticipants(ctx, record.ID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		memberIDs := make([]string, 0, len(participants))
		for _, p := range participants {
			memberIDs = append(memberIDs, p.ProfileID)
		}
		resource := authz.Resource{
			OwnerID:    record.OrganizerID,
			Visibility: record.Visibility,
			MemberIDs:  memberIDs,
		}
		if !s.gate.CanRead(authzPrincipal(params.Principal), resource) {
			continue
		}
		session := sessionFromRecord(record)
		session.Participants = memberIDs
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// UpdateSession lets the organizer change session details. Capacity may not
// drop below the current participant count.
func (s *SessionService) UpdateSession(ctx context.Context, params UpdateSessionParams) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.store == nil {
		return Session{}, fmt.Errorf("negotiation store not configured")
	}

	now := s.now()
	input := params.Input

	if err := validateSessionInput(input, now); err != nil {
		return Session{}, err
	}

	var updated Session
	err := s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		record, txErr := tx.GetSession(ctx, params.SessionID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if record.OrganizerID != params.Principal.ProfileID {
			return ErrForbidden
		}
		if record.Status == string(StatusCompleted) || record.Status == string(StatusCancelled) {
			return fmt.Errorf("%w: session is %s", ErrConflict, strings.ToLower(record.Status))
		}

		participants, txErr := tx.ListParticipants(ctx, record.ID)
		if txErr != nil {
			return mapRepoError(txErr)
		}

		capacity := input.Capacity
		if input.Type == TypePartnerPractice {
			capacity = 2
		}
		if capacity < len(participants) {
			vErr := &ValidationError{}
			vErr.add("capacity", "capacity cannot be less than the current participant count")
			return vErr
		}

		record.LocationID = input.LocationID
		record.Title = strings.TrimSpace(input.Title)
		record.Type = string(input.Type)
		record.Visibility = string(input.Visibility)
		record.Start = input.Start
		record.End = input.End
		record.Capacity = capacity
		record.UpdatedAt = now
		if txErr := tx.UpdateSession(ctx, record); txErr != nil {
			return mapRepoError(txErr)
		}

		memberIDs := make([]string, 0, len(participants))
		for _, p := range participants {
			memberIDs = append(memberIDs, p.ProfileID)
		}
		updated = sessionFromRecord(record)
		updated.Participants = memberIDs
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return updated, nil
}

// CancelSession moves a PROPOSED or SCHEDULED session to CANCELLED.
// Organizer only.
func (s *SessionService) CancelSession(ctx context.Context, principal Principal, sessionID string) (Session, error) {
	return s.transition(ctx, principal, sessionID, StatusCancelled,
		[]SessionStatus{StatusProposed, StatusScheduled})
}

// CompleteSession moves a SCHEDULED session to COMPLETED. Organizer only.
func (s *SessionService) CompleteSession(ctx context.Context, principal Principal, sessionID string) (Session, error) {
	return s.transition(ctx, principal, sessionID, StatusCompleted,
		[]SessionStatus{StatusScheduled})
}

func (s *SessionService) transition(ctx context.Context, principal Principal, sessionID string, target SessionStatus, from []SessionStatus) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.store == nil {
		return Session{}, fmt.Errorf("negotiation store not configured")
	}

	now := s.now()

	var updated Session
	err := s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		record, txErr := tx.GetSession(ctx, sessionID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if record.OrganizerID != principal.ProfileID {
			return ErrForbidden
		}

		allowed := false
		for _, status := range from {
			if record.Status == string(status) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: cannot move a %s session to %s",
				ErrConflict, strings.ToLower(record.Status), strings.ToLower(string(target)))
		}

		record.Status = string(target)
		record.UpdatedAt = now
		if txErr := tx.UpdateSession(ctx, record); txErr != nil {
			return mapRepoError(txErr)
		}

		participants, txErr := tx.ListParticipants(ctx, record.ID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		memberIDs := make([]string, 0, len(participants))
		for _, p := range participants {
			memberIDs = append(memberIDs, p.ProfileID)
		}
		updated = sessionFromRecord(record)
		updated.Participants = memberIDs
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return updated, nil
}

func validateSessionInput(input SessionInput, now time.Time) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if !input.Type.Valid() {
		vErr.add("type", "unknown session type")
	}
	if !input.Visibility.Valid() {
		vErr.add("visibility", "unknown visibility")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("time", "start and end are required")
	} else if !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if input.Type != TypePartnerPractice && input.Capacity < 1 {
		vErr.add("capacity", "capacity must be at least 1")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func authzPrincipal(p Principal) authz.Principal {
	return authz.Principal{
		ProfileID:    p.ProfileID,
		IsPrivileged: p.IsPrivileged,
	}
}
