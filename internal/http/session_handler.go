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

type sessionService interface {
	CreateSession(ctx context.Context, params application.CreateSessionParams) (application.Session, error)
	GetSession(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error)
	ListSessions(ctx context.Context, params application.ListSessionsParams) ([]application.Session, error)
	UpdateSession(ctx context.Context, params application.UpdateSessionParams) (application.Session, error)
	CancelSession(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error)
	CompleteSession(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error)
}

type membershipService interface {
	Join(ctx context.Context, principal application.Principal, sessionID string) error
	Leave(ctx context.Context, principal application.Principal, sessionID string) error
	IsJoinable(ctx context.Context, principal application.Principal, sessionID string) (bool, error)
}

type SessionHandler struct {
	sessions   sessionService
	membership membershipService
	responder  responder
	logger     *slog.Logger
}

func NewSessionHandler(sessions sessionService, membership membershipService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{sessions: sessions, membership: membership, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.ProfileID, "session_type", req.Type)

	session, err := h.sessions.CreateSession(r.Context(), application.CreateSessionParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_id", session.ID).InfoContext(r.Context(), "session created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.ProfileID, "session_id", sessionID)

	session, err := h.sessions.GetSession(r.Context(), principal, sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.ProfileID)

	params := application.ListSessionsParams{Principal: principal}
	query := r.URL.Query()
	for _, raw := range query["status"] {
		params.Statuses = append(params.Statuses, application.SessionStatus(strings.ToUpper(strings.TrimSpace(raw))))
	}
	for _, raw := range query["type"] {
		params.Types = append(params.Types, application.SessionType(strings.ToUpper(strings.TrimSpace(raw))))
	}
	for _, raw := range query["visibility"] {
		params.Visibilities = append(params.Visibilities, application.Visibility(strings.ToUpper(strings.TrimSpace(raw))))
	}
	if organizer := strings.TrimSpace(query.Get("organizer_id")); organizer != "" {
		params.OrganizerID = &organizer
	}

	sessions, err := h.sessions.ListSessions(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "session list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(sessions)).InfoContext(r.Context(), "sessions listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSessionsResponse{Sessions: toSessionDTOs(sessions)})
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.ProfileID, "session_id", sessionID)

	session, err := h.sessions.UpdateSession(r.Context(), application.UpdateSessionParams{
		Principal: principal,
		SessionID: sessionID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "session updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "Cancel", func(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error) {
		return h.sessions.CancelSession(ctx, principal, sessionID)
	})
}

func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "Complete", func(ctx context.Context, principal application.Principal, sessionID string) (application.Session, error) {
		return h.sessions.CompleteSession(ctx, principal, sessionID)
	})
}

func (h *SessionHandler) lifecycle(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, application.Principal, string) (application.Session, error)) {
	if h == nil || h.sessions == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.ProfileID, "session_id", sessionID)

	session, err := fn(r.Context(), principal, sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session transition failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("session_status", string(session.Status)).InfoContext(r.Context(), "session transitioned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, sessionResponse{Session: toSessionDTO(session)})
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.membership == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Join", "principal_id", principal.ProfileID, "session_id", sessionID)

	if err := h.membership.Join(r.Context(), principal, sessionID); err != nil {
		logger.ErrorContext(r.Context(), "join failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "participant joined")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.membership == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Leave", "principal_id", principal.ProfileID, "session_id", sessionID)

	if err := h.membership.Leave(r.Context(), principal, sessionID); err != nil {
		logger.ErrorContext(r.Context(), "leave failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "participant left")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Joinable lets a caller check whether a session currently has room without
// needing visibility into its participant list.
func (h *SessionHandler) Joinable(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.membership == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if strings.TrimSpace(sessionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Joinable", "principal_id", principal.ProfileID, "session_id", sessionID)

	joinable, err := h.membership.IsJoinable(r.Context(), principal, sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "joinable check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, joinableResponse{Joinable: joinable})
}

type sessionRequest struct {
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Visibility string    `json:"visibility"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Capacity   int       `json:"capacity"`
	LocationID *string   `json:"location_id"`
}

func (req sessionRequest) toInput() application.SessionInput {
	return application.SessionInput{
		Title:      strings.TrimSpace(req.Title),
		Type:       application.SessionType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Visibility: application.Visibility(strings.ToUpper(strings.TrimSpace(req.Visibility))),
		Start:      req.Start,
		End:        req.End,
		Capacity:   req.Capacity,
		LocationID: req.LocationID,
	}
}

type sessionResponse struct {
	Session sessionDTO `json:"session"`
}

type listSessionsResponse struct {
	Sessions []sessionDTO `json:"sessions"`
}

type joinableResponse struct {
	Joinable bool `json:"joinable"`
}

type sessionDTO struct {
	ID           string   `json:"id"`
	OrganizerID  string   `json:"organizer_id"`
	LocationID   *string  `json:"location_id,omitempty"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	Visibility   string   `json:"visibility"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Capacity     int      `json:"capacity"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func toSessionDTO(session application.Session) sessionDTO {
	return sessionDTO{
		ID:           session.ID,
		OrganizerID:  session.OrganizerID,
		LocationID:   session.LocationID,
		Title:        session.Title,
		Type:         string(session.Type),
		Status:       string(session.Status),
		Visibility:   string(session.Visibility),
		Start:        session.Start.UTC().Format(time.RFC3339Nano),
		End:          session.End.UTC().Format(time.RFC3339Nano),
		Capacity:     session.Capacity,
		Participants: session.Participants,
		CreatedAt:    session.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSessionDTOs(sessions []application.Session) []sessionDTO {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	return out
}
