package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/practice-matcher/internal/application"
)

type inviteService interface {
	Propose(ctx context.Context, params application.ProposeParams) (application.NegotiationResult, error)
	Respond(ctx context.Context, params application.RespondParams) (application.NegotiationResult, error)
	GetInvite(ctx context.Context, principal application.Principal, inviteID string) (application.SessionInvite, error)
	ListInvites(ctx context.Context, principal application.Principal) ([]application.SessionInvite, error)
	ExpireInvites(ctx context.Context, principal application.Principal) (int, error)
}

type InviteHandler struct {
	service   inviteService
	responder responder
	logger    *slog.Logger
}

func NewInviteHandler(service inviteService, logger *slog.Logger) *InviteHandler {
	base := defaultLogger(logger)
	return &InviteHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *InviteHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "InviteHandler", operation, attrs...)
}

func (h *InviteHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Propose", "principal_id", principal.ProfileID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode proposal", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Propose",
		"principal_id", principal.ProfileID,
		"invitee_id", req.InviteeID,
	)

	result, err := h.service.Propose(r.Context(), application.ProposeParams{
		Principal:  principal,
		InviteeID:  strings.TrimSpace(req.InviteeID),
		Start:      req.Start,
		End:        req.End,
		Note:       req.Note,
		LocationID: req.LocationID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "proposal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("invite_id", result.InviteID).InfoContext(r.Context(), "proposal recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, negotiationResponse{
		SessionID:    result.SessionID,
		InviteID:     result.InviteID,
		InviteStatus: string(result.InviteStatus),
	})
}

func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	inviteID := chi.URLParam(r, "inviteID")
	if strings.TrimSpace(inviteID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Respond",
		"principal_id", principal.ProfileID,
		"invite_id", inviteID,
		"action", req.Action,
	)

	result, err := h.service.Respond(r.Context(), application.RespondParams{
		Principal: principal,
		InviteID:  inviteID,
		Action:    application.RespondAction(strings.ToUpper(strings.TrimSpace(req.Action))),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "response failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("invite_status", string(result.InviteStatus)).InfoContext(r.Context(), "response recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, negotiationResponse{
		SessionID:    result.SessionID,
		InviteID:     result.InviteID,
		InviteStatus: string(result.InviteStatus),
	})
}

func (h *InviteHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	inviteID := chi.URLParam(r, "inviteID")
	if strings.TrimSpace(inviteID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.ProfileID, "invite_id", inviteID)

	invite, err := h.service.GetInvite(r.Context(), principal, inviteID)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, inviteResponse{Invite: toInviteDTO(invite)})
}

func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ProfileID)

	invites, err := h.service.ListInvites(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "invite list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(invites)).InfoContext(r.Context(), "invites listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listInvitesResponse{Invites: toInviteDTOs(invites)})
}

// Expire sweeps pending invites past expiry. Privileged housekeeping endpoint.
func (h *InviteHandler) Expire(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Expire", "principal_id", principal.ProfileID)

	expired, err := h.service.ExpireInvites(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "expiry sweep failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("expired", expired).InfoContext(r.Context(), "expiry sweep completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, expireResponse{Expired: expired})
}

type proposeRequest struct {
	InviteeID  string    `json:"invitee_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Note       *string   `json:"note"`
	LocationID *string   `json:"location_id"`
}

type respondRequest struct {
	Action string `json:"action"`
}

type negotiationResponse struct {
	SessionID    string `json:"session_id"`
	InviteID     string `json:"invite_id"`
	InviteStatus string `json:"invite_status"`
}

type expireResponse struct {
	Expired int `json:"expired"`
}

type inviteResponse struct {
	Invite inviteDTO `json:"invite"`
}

type listInvitesResponse struct {
	Invites []inviteDTO `json:"invites"`
}

type inviteDTO struct {
	ID         string  `json:"id"`
	SessionID  string  `json:"session_id"`
	ProposerID string  `json:"proposer_id"`
	InviteeID  string  `json:"invitee_id"`
	Status     string  `json:"status"`
	Note       *string `json:"note,omitempty"`
	ExpiresAt  string  `json:"expires_at"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toInviteDTO(invite application.SessionInvite) inviteDTO {
	return inviteDTO{
		ID:         invite.ID,
		SessionID:  invite.SessionID,
		ProposerID: invite.ProposerID,
		InviteeID:  invite.InviteeID,
		Status:     string(invite.Status),
		Note:       invite.Note,
		ExpiresAt:  invite.ExpiresAt.UTC().Format(time.RFC3339Nano),
		CreatedAt:  invite.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  invite.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toInviteDTOs(invites []application.SessionInvite) []inviteDTO {
	if len(invites) == 0 {
		return nil
	}
	out := make([]inviteDTO, 0, len(invites))
	for _, invite := range invites {
		out = append(out, toInviteDTO(invite))
	}
	return out
}
