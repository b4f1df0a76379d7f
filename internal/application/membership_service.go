package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// MembershipService manages who participates in a session. Capacity is
// checked and the participant row inserted inside one transaction so two
// racing joins cannot both slip under the limit.
type MembershipService struct {
	store    persistence.NegotiationStore
	sessions SessionReader
	now      func() time.Time
}

// NewMembershipService wires dependencies for session membership.
func NewMembershipService(store persistence.NegotiationStore, sessions SessionReader, now func() time.Time) *MembershipService {
	if now == nil {
		now = time.Now
	}
	return &MembershipService{
		store:    store,
		sessions: sessions,
		now:      now,
	}
}

// Join enrolls the caller in a joinable session. The session must be public,
// not terminal, and below capacity.
func (s *MembershipService) Join(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("MembershipService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("negotiation store not configured")
	}

	return s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return mapRepoError(err)
		}
		if session.Visibility != string(VisibilityPublic) {
			return ErrForbidden
		}
		if session.Status != string(StatusProposed) && session.Status != string(StatusScheduled) {
			return fmt.Errorf("%w: session is no longer open", ErrConflict)
		}

		participants, err := tx.ListParticipants(ctx, sessionID)
		if err != nil {
			return mapRepoError(err)
		}
		for _, p := range participants {
			if p.ProfileID == principal.ProfileID {
				return fmt.Errorf("%w: already a participant", ErrConflict)
			}
		}
		if len(participants) >= session.Capacity {
			return fmt.Errorf("%w: session is full", ErrConflict)
		}

		participant := persistence.Participant{
			SessionID: sessionID,
			ProfileID: principal.ProfileID,
			JoinedAt:  s.now(),
		}
		return mapRepoError(tx.AddParticipant(ctx, participant))
	})
}

// Leave removes the caller from a session. Leaving a session one is not part
// of is a no-op.
func (s *MembershipService) Leave(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("MembershipService is nil")
	}
	if s.store == nil {
		return fmt.Errorf("negotiation store not configured")
	}

	return s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		if _, err := tx.GetSession(ctx, sessionID); err != nil {
			return mapRepoError(err)
		}

		err := tx.RemoveParticipant(ctx, sessionID, principal.ProfileID)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return mapRepoError(err)
		}
		return nil
	})
}

// IsJoinable reports whether the caller could join the session right now,
// without attempting the join.
func (s *MembershipService) IsJoinable(ctx context.Context, principal Principal, sessionID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("MembershipService is nil")
	}
	if s.sessions == nil {
		return false, fmt.Errorf("session reader not configured")
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return false, mapRepoError(err)
	}
	if session.Visibility != string(VisibilityPublic) {
		return false, nil
	}
	if session.Status != string(StatusProposed) && session.Status != string(StatusScheduled) {
		return false, nil
	}

	participants, err := s.sessions.ListParticipants(ctx, sessionID)
	if err != nil {
		return false, mapRepoError(err)
	}
	for _, p := range participants {
		if p.ProfileID == principal.ProfileID {
			return false, nil
		}
	}
	return len(participants) < session.Capacity, nil
}
