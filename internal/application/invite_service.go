package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// InviteReader exposes the read paths over session invites.
type InviteReader interface {
	GetInvite(ctx context.Context, id string) (persistence.SessionInvite, error)
	ListInvitesFor(ctx context.Context, profileID string) ([]persistence.SessionInvite, error)
	ListPendingInvitesFrom(ctx context.Context, proposerID string) ([]persistence.SessionInvite, error)
}

// pendingInviteLimit is the maximum simultaneous pending invites one proposer
// may hold toward the same invitee.
const defaultPendingInviteLimit = 3

// InviteService owns the invite negotiation state machine. Every mutation
// runs inside one store transaction so mirror-accept and capacity decisions
// are race-free.
type InviteService struct {
	store        persistence.NegotiationStore
	invites      InviteReader
	profiles     ProfileDirectory
	idGenerator  func() string
	now          func() time.Time
	pendingLimit int
	logger       *slog.Logger
}

// NewInviteService wires dependencies for invite negotiation.
func NewInviteService(store persistence.NegotiationStore, invites InviteReader, profiles ProfileDirectory, idGenerator func() string, now func() time.Time, pendingLimit int) *InviteService {
	return NewInviteServiceWithLogger(store, invites, profiles, idGenerator, now, pendingLimit, nil)
}

// NewInviteServiceWithLogger constructs an InviteService with a specified logger.
func NewInviteServiceWithLogger(store persistence.NegotiationStore, invites InviteReader, profiles ProfileDirectory, idGenerator func() string, now func() time.Time, pendingLimit int, logger *slog.Logger) *InviteService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if pendingLimit <= 0 {
		pendingLimit = defaultPendingInviteLimit
	}
	return &InviteService{
		store:        store,
		invites:      invites,
		profiles:     profiles,
		idGenerator:  idGenerator,
		now:          now,
		pendingLimit: pendingLimit,
		logger:       defaultLogger(logger),
	}
}

func (s *InviteService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "InviteService", operation, attrs...)
}

// Propose opens a negotiation thread for a concrete time window. If the
// invitee already has a pending invite to the proposer for exactly the same
// window, the call resolves that invite as accepted instead of creating a
// second thread.
func (s *InviteService) Propose(ctx context.Context, params ProposeParams) (result NegotiationResult, err error) {
	if s == nil {
		err = fmt.Errorf("InviteService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("negotiation store not configured")
		return
	}

	proposerID := params.Principal.ProfileID

	logger := s.loggerWith(ctx, "Propose",
		"proposer_id", proposerID,
		"invitee_id", params.InviteeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "propose failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.SessionID,
			"invite_id", result.InviteID,
			"invite_status", string(result.InviteStatus),
		).InfoContext(ctx, "proposal recorded")
	}()

	now := s.now()

	vErr := &ValidationError{}
	if params.InviteeID == "" {
		vErr.add("invitee_id", "invitee is required")
	} else if params.InviteeID == proposerID {
		vErr.add("invitee_id", "cannot invite yourself")
	}
	if params.Start.IsZero() || params.End.IsZero() {
		vErr.add("time", "start and end are required")
	} else {
		if !params.Start.Before(params.End) {
			vErr.add("time", "start must be before end")
		}
		if !params.Start.After(now) {
			vErr.add("start", "start time must be in the future")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if s.profiles != nil {
		if _, err = s.profiles.GetProfile(ctx, params.InviteeID); err != nil {
			err = mapRepoError(err)
			return
		}
	}

	err = s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		// Mirror rule: a matching reverse proposal is folded into an
		// acceptance of the existing thread.
		mirrors, txErr := tx.ListPendingInvitesBetween(ctx, params.InviteeID, proposerID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		for _, mirror := range mirrors {
			session, txErr := tx.GetSession(ctx, mirror.SessionID)
			if txErr != nil {
				return mapRepoError(txErr)
			}
			if session.Start.Equal(params.Start) && session.End.Equal(params.End) {
				result, txErr = s.acceptInvite(ctx, tx, mirror, session, now)
				return txErr
			}
		}

		outgoing, txErr := tx.ListPendingInvitesBetween(ctx, proposerID, params.InviteeID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if len(outgoing) >= s.pendingLimit {
			return fmt.Errorf("%w: pending invite limit reached for this person", ErrConflict)
		}
		for _, existing := range outgoing {
			session, txErr := tx.GetSession(ctx, existing.SessionID)
			if txErr != nil {
				return mapRepoError(txErr)
			}
			if session.Start.Before(params.End) && params.Start.Before(session.End) {
				return fmt.Errorf("%w: an overlapping invite to this person is already pending", ErrConflict)
			}
		}

		session := persistence.Session{
			ID:          s.idGenerator(),
			OrganizerID: proposerID,
			LocationID:  params.LocationID,
			Title:       "Partner practice",
			Type:        string(TypePartnerPractice),
			Status:      string(StatusProposed),
			Visibility:  string(VisibilityParticipantsOnly),
			Start:       params.Start,
			End:         params.End,
			Capacity:    2,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if txErr := tx.CreateSession(ctx, session); txErr != nil {
			return mapRepoError(txErr)
		}

		invite := persistence.SessionInvite{
			ID:         s.idGenerator(),
			SessionID:  session.ID,
			ProposerID: proposerID,
			InviteeID:  params.InviteeID,
			Status:     string(InvitePending),
			Note:       params.Note,
			ExpiresAt:  params.End,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if txErr := tx.CreateInvite(ctx, invite); txErr != nil {
			return mapRepoError(txErr)
		}

		result = NegotiationResult{
			SessionID:    session.ID,
			InviteID:     invite.ID,
			InviteStatus: InvitePending,
		}
		return nil
	})
	return
}

// Respond settles a pending invite. Accepting schedules the session and adds
// both parties as participants in the same transaction; declining and
// cancelling are terminal with no membership effects.
func (s *InviteService) Respond(ctx context.Context, params RespondParams) (result NegotiationResult, err error) {
	if s == nil {
		err = fmt.Errorf("InviteService is nil")
		return
	}
	if s.store == nil {
		err = fmt.Errorf("negotiation store not configured")
		return
	}

	actorID := params.Principal.ProfileID

	logger := s.loggerWith(ctx, "Respond",
		"actor_id", actorID,
		"invite_id", params.InviteID,
		"action", string(params.Action),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "respond failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"session_id", result.SessionID,
			"invite_status", string(result.InviteStatus),
		).InfoContext(ctx, "response recorded")
	}()

	if !params.Action.Valid() {
		vErr := &ValidationError{}
		vErr.add("action", "action must be ACCEPT, DECLINE, or CANCEL")
		err = vErr
		return
	}

	now := s.now()

	err = s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		invite, txErr := tx.GetInvite(ctx, params.InviteID)
		if txErr != nil {
			return mapRepoError(txErr)
		}
		if invite.Status != string(InvitePending) {
			return fmt.Errorf("%w: invite is no longer pending", ErrConflict)
		}

		switch params.Action {
		case ActionAccept, ActionDecline:
			if invite.InviteeID != actorID {
				return ErrForbidden
			}
		case ActionCancel:
			if invite.ProposerID != actorID {
				return ErrForbidden
			}
		}

		if params.Action == ActionAccept {
			session, txErr := tx.GetSession(ctx, invite.SessionID)
			if txErr != nil {
				return mapRepoError(txErr)
			}
			// Expiry is a precondition, not a state change: the row
			// stays PENDING so the caller can re-check.
			if !invite.ExpiresAt.After(now) {
				return ErrExpired
			}
			result, txErr = s.acceptInvite(ctx, tx, invite, session, now)
			return txErr
		}

		status := InviteDeclined
		if params.Action == ActionCancel {
			status = InviteCancelled
		}
		invite.Status = string(status)
		invite.UpdatedAt = now
		if txErr := tx.UpdateInvite(ctx, invite); txErr != nil {
			return mapRepoError(txErr)
		}

		result = NegotiationResult{
			SessionID:    invite.SessionID,
			InviteID:     invite.ID,
			InviteStatus: status,
		}
		return nil
	})
	return
}

// acceptInvite moves the thread to its accepted shape: the invite is
// ACCEPTED, the session is SCHEDULED, and both parties hold participant rows.
// Must run inside the caller's transaction.
func (s *InviteService) acceptInvite(ctx context.Context, tx persistence.NegotiationTx, invite persistence.SessionInvite, session persistence.Session, now time.Time) (NegotiationResult, error) {
	invite.Status = string(InviteAccepted)
	invite.UpdatedAt = now
	if err := tx.UpdateInvite(ctx, invite); err != nil {
		return NegotiationResult{}, mapRepoError(err)
	}

	session.Status = string(StatusScheduled)
	session.UpdatedAt = now
	if err := tx.UpdateSession(ctx, session); err != nil {
		return NegotiationResult{}, mapRepoError(err)
	}

	for _, profileID := range []string{invite.ProposerID, invite.InviteeID} {
		participant := persistence.Participant{
			SessionID: session.ID,
			ProfileID: profileID,
			JoinedAt:  now,
		}
		if err := tx.AddParticipant(ctx, participant); err != nil {
			return NegotiationResult{}, mapRepoError(err)
		}
	}

	return NegotiationResult{
		SessionID:    session.ID,
		InviteID:     invite.ID,
		InviteStatus: InviteAccepted,
	}, nil
}

// GetInvite returns one invite thread. Only the two parties, or a privileged
// reader, may see it.
func (s *InviteService) GetInvite(ctx context.Context, principal Principal, inviteID string) (SessionInvite, error) {
	if s == nil {
		return SessionInvite{}, fmt.Errorf("InviteService is nil")
	}
	if s.invites == nil {
		return SessionInvite{}, fmt.Errorf("invite reader not configured")
	}

	record, err := s.invites.GetInvite(ctx, inviteID)
	if err != nil {
		return SessionInvite{}, mapRepoError(err)
	}

	if record.ProposerID != principal.ProfileID && record.InviteeID != principal.ProfileID && !principal.IsPrivileged {
		return SessionInvite{}, ErrForbidden
	}

	return inviteFromRecord(record), nil
}

// ListInvites returns every invite thread the caller participates in.
func (s *InviteService) ListInvites(ctx context.Context, principal Principal) ([]SessionInvite, error) {
	if s == nil {
		return nil, fmt.Errorf("InviteService is nil")
	}
	if s.invites == nil {
		return nil, fmt.Errorf("invite reader not configured")
	}

	records, err := s.invites.ListInvitesFor(ctx, principal.ProfileID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	invites := make([]SessionInvite, 0, len(records))
	for _, record := range records {
		invites = append(invites, inviteFromRecord(record))
	}
	return invites, nil
}

// ExpireInvites sweeps pending invites past their expiry and marks them
// EXPIRED. Housekeeping for privileged callers only; the read paths never
// mutate expiry state.
func (s *InviteService) ExpireInvites(ctx context.Context, principal Principal) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("InviteService is nil")
	}
	if s.store == nil {
		return 0, fmt.Errorf("negotiation store not configured")
	}

	if !principal.IsPrivileged {
		return 0, ErrForbidden
	}

	logger := s.loggerWith(ctx, "ExpireInvites", "actor_id", principal.ProfileID)

	var expired int
	err := s.store.InTx(ctx, func(tx persistence.NegotiationTx) error {
		count, txErr := tx.ExpirePendingInvites(ctx, s.now())
		if txErr != nil {
			return mapRepoError(txErr)
		}
		expired = count
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "expiry sweep failed", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}

	logger.InfoContext(ctx, "expiry sweep completed", "expired", expired)
	return expired, nil
}
