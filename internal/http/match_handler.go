package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/practice-matcher/internal/application"
	"github.com/example/practice-matcher/internal/schedule"
)

type matchService interface {
	RankCandidates(ctx context.Context, principal application.Principal, requesterID string, limit int) ([]application.CandidateMatch, error)
	SuggestWindows(ctx context.Context, principal application.Principal, requesterID, candidateID string) ([]application.WindowSuggestion, error)
}

type MatchHandler struct {
	service   matchService
	responder responder
	logger    *slog.Logger
}

func NewMatchHandler(service matchService, logger *slog.Logger) *MatchHandler {
	base := defaultLogger(logger)
	return &MatchHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MatchHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MatchHandler", operation, attrs...)
}

// List ranks practice partner candidates for the caller. The optional limit
// query parameter caps the result size.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.ProfileID, "limit", limit)

	matches, err := h.service.RankCandidates(r.Context(), principal, principal.ProfileID, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "candidate ranking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(matches)).InfoContext(r.Context(), "candidates ranked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMatchesResponse{Matches: toMatchDTOs(matches)})
}

// Suggestions emits the concrete overlapping windows between the caller and
// one candidate.
func (h *MatchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	candidateID := chi.URLParam(r, "candidateID")
	if strings.TrimSpace(candidateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Suggestions", "principal_id", principal.ProfileID, "candidate_id", candidateID)

	suggestions, err := h.service.SuggestWindows(r.Context(), principal, principal.ProfileID, candidateID)
	if err != nil {
		logger.ErrorContext(r.Context(), "window suggestion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(suggestions)).InfoContext(r.Context(), "windows suggested")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSuggestionsResponse{Suggestions: toSuggestionDTOs(suggestions)})
}

type listMatchesResponse struct {
	Matches []matchDTO `json:"matches"`
}

type matchDTO struct {
	CandidateID        string  `json:"candidate_id"`
	Score              float64 `json:"score"`
	OverlappingWindows int     `json:"overlapping_windows"`
	OverlappingMinutes int     `json:"overlapping_minutes"`
	SharedFocusAreas   int     `json:"shared_focus_areas"`
	SkillLevelDiff     int     `json:"skill_level_diff"`
}

func toMatchDTOs(matches []application.CandidateMatch) []matchDTO {
	if len(matches) == 0 {
		return nil
	}
	out := make([]matchDTO, 0, len(matches))
	for _, match := range matches {
		out = append(out, matchDTO{
			CandidateID:        match.CandidateID,
			Score:              match.Score,
			OverlappingWindows: match.OverlappingWindows,
			OverlappingMinutes: match.OverlappingMinutes,
			SharedFocusAreas:   match.SharedFocusAreas,
			SkillLevelDiff:     match.SkillLevelDiff,
		})
	}
	return out
}

type listSuggestionsResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type suggestionDTO struct {
	Day            string `json:"day"`
	Start          string `json:"start"`
	End            string `json:"end"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

func toSuggestionDTOs(suggestions []application.WindowSuggestion) []suggestionDTO {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, suggestionDTO{
			Day:            formatWeekday(suggestion.Weekday),
			Start:          schedule.FormatMinute(suggestion.StartMinute),
			End:            schedule.FormatMinute(suggestion.EndMinute),
			OverlapMinutes: suggestion.OverlapMinutes,
		})
	}
	return out
}
