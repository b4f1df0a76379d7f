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
	"github.com/example/practice-matcher/internal/schedule"
)

type preferenceService interface {
	GetPreference(ctx context.Context, profileID string) (application.SchedulePreference, error)
	ReplacePreference(ctx context.Context, params application.ReplacePreferenceParams) (application.SchedulePreference, error)
	Block(ctx context.Context, principal application.Principal, blockedID string) error
	Unblock(ctx context.Context, principal application.Principal, blockedID string) error
}

type PreferenceHandler struct {
	service   preferenceService
	responder responder
	logger    *slog.Logger
}

func NewPreferenceHandler(service preferenceService, logger *slog.Logger) *PreferenceHandler {
	base := defaultLogger(logger)
	return &PreferenceHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PreferenceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PreferenceHandler", operation, attrs...)
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	profileID := chi.URLParam(r, "profileID")
	if strings.TrimSpace(profileID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	logger := h.log(r.Context(), "Get", "profile_id", profileID)

	preference, err := h.service.GetPreference(r.Context(), profileID)
	if err != nil {
		logger.ErrorContext(r.Context(), "preference lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferenceResponse{Preference: toPreferenceDTO(preference)})
}

func (h *PreferenceHandler) Replace(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	profileID := chi.URLParam(r, "profileID")
	if strings.TrimSpace(profileID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req preferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Replace", "principal_id", principal.ProfileID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode preference request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Replace", "principal_id", principal.ProfileID, "profile_id", profileID)

	preference, err := h.service.ReplacePreference(r.Context(), application.ReplacePreferenceParams{
		Principal: principal,
		ProfileID: profileID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "preference replace failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "preference replaced")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferenceResponse{Preference: toPreferenceDTO(preference)})
}

func (h *PreferenceHandler) Block(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Block", "principal_id", principal.ProfileID, "blocked_id", req.BlockedID)

	if err := h.service.Block(r.Context(), principal, strings.TrimSpace(req.BlockedID)); err != nil {
		logger.ErrorContext(r.Context(), "block failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "block recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *PreferenceHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	blockedID := chi.URLParam(r, "blockedID")
	if strings.TrimSpace(blockedID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Unblock", "principal_id", principal.ProfileID, "blocked_id", blockedID)

	if err := h.service.Unblock(r.Context(), principal, blockedID); err != nil {
		logger.ErrorContext(r.Context(), "unblock failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "block removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type windowDTO struct {
	Day       string  `json:"day,omitempty"`
	Date      *string `json:"date,omitempty"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Recurring bool    `json:"recurring"`
}

type preferenceRequest struct {
	Windows        []windowDTO `json:"windows"`
	Roles          []string    `json:"roles"`
	SkillLevels    []string    `json:"skill_levels"`
	FocusAreas     []string    `json:"focus_areas"`
	LocationIDs    []string    `json:"location_ids"`
	TravelRadiusKm *int        `json:"travel_radius_km"`
	Note           *string     `json:"note"`
}

const dateLayout = "2006-01-02"

func (p preferenceRequest) toInput() (application.PreferenceInput, error) {
	input := application.PreferenceInput{
		LocationIDs:    p.LocationIDs,
		TravelRadiusKm: p.TravelRadiusKm,
		Note:           p.Note,
	}
	for _, w := range p.Windows {
		window, err := w.toInput()
		if err != nil {
			return application.PreferenceInput{}, err
		}
		input.Windows = append(input.Windows, window)
	}
	for _, role := range p.Roles {
		input.Roles = append(input.Roles, application.PartnerRole(role))
	}
	for _, level := range p.SkillLevels {
		input.SkillLevels = append(input.SkillLevels, application.SkillLevel(level))
	}
	for _, area := range p.FocusAreas {
		input.FocusAreas = append(input.FocusAreas, application.FocusArea(area))
	}
	return input, nil
}

func (w windowDTO) toInput() (application.WindowInput, error) {
	start, err := schedule.ParseMinute(w.Start)
	if err != nil {
		return application.WindowInput{}, err
	}
	end, err := schedule.ParseMinute(w.End)
	if err != nil {
		return application.WindowInput{}, err
	}

	input := application.WindowInput{
		StartMinute: start,
		EndMinute:   end,
		Recurring:   w.Recurring,
	}
	if w.Recurring {
		day, err := parseWeekday(w.Day)
		if err != nil {
			return application.WindowInput{}, err
		}
		input.Weekday = day
	} else if w.Date != nil {
		date, err := time.Parse(dateLayout, *w.Date)
		if err != nil {
			return application.WindowInput{}, err
		}
		input.Date = &date
		input.Weekday = date.Weekday()
	}
	return input, nil
}

type preferenceResponse struct {
	Preference preferenceDTO `json:"preference"`
}

type preferenceDTO struct {
	ProfileID      string      `json:"profile_id"`
	Windows        []windowDTO `json:"windows"`
	Roles          []string    `json:"roles"`
	SkillLevels    []string    `json:"skill_levels"`
	FocusAreas     []string    `json:"focus_areas"`
	LocationIDs    []string    `json:"location_ids,omitempty"`
	TravelRadiusKm *int        `json:"travel_radius_km,omitempty"`
	Note           *string     `json:"note,omitempty"`
	UpdatedAt      string      `json:"updated_at"`
}

func toPreferenceDTO(preference application.SchedulePreference) preferenceDTO {
	dto := preferenceDTO{
		ProfileID:      preference.ProfileID,
		LocationIDs:    preference.LocationIDs,
		TravelRadiusKm: preference.TravelRadiusKm,
		Note:           preference.Note,
		UpdatedAt:      preference.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, window := range preference.Windows {
		dto.Windows = append(dto.Windows, toWindowDTO(window))
	}
	for _, role := range preference.Roles {
		dto.Roles = append(dto.Roles, string(role))
	}
	for _, level := range preference.SkillLevels {
		dto.SkillLevels = append(dto.SkillLevels, string(level))
	}
	for _, area := range preference.FocusAreas {
		dto.FocusAreas = append(dto.FocusAreas, string(area))
	}
	return dto
}

func toWindowDTO(window application.WindowInput) windowDTO {
	dto := windowDTO{
		Start:     schedule.FormatMinute(window.StartMinute),
		End:       schedule.FormatMinute(window.EndMinute),
		Recurring: window.Recurring,
	}
	if window.Recurring {
		dto.Day = formatWeekday(window.Weekday)
	} else if window.Date != nil {
		date := window.Date.Format(dateLayout)
		dto.Date = &date
	}
	return dto
}

type blockRequest struct {
	BlockedID string `json:"blocked_id"`
}
