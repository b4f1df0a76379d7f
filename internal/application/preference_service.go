package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
	"github.com/example/practice-matcher/internal/schedule"
)

// ProfileDirectory exposes profile lookup operations.
type ProfileDirectory interface {
	GetProfile(ctx context.Context, id string) (persistence.Profile, error)
	ListProfiles(ctx context.Context) ([]persistence.Profile, error)
}

// PreferenceStore captures the persistence interactions needed by the
// availability services.
type PreferenceStore interface {
	ReplacePreference(ctx context.Context, preference persistence.SchedulePreference) error
	GetPreference(ctx context.Context, profileID string) (persistence.SchedulePreference, error)
	ListPreferences(ctx context.Context) ([]persistence.SchedulePreference, error)
}

// BlockStore captures the persistence interactions for block pairs.
type BlockStore interface {
	CreateBlock(ctx context.Context, block persistence.Block) error
	DeleteBlock(ctx context.Context, blockerID, blockedID string) error
	ListBlocksInvolving(ctx context.Context, profileID string) ([]persistence.Block, error)
}

// PreferenceService owns each person's availability record and block pairs.
type PreferenceService struct {
	profiles    ProfileDirectory
	preferences PreferenceStore
	blocks      BlockStore
	now         func() time.Time
}

// NewPreferenceService wires dependencies for availability operations.
func NewPreferenceService(profiles ProfileDirectory, preferences PreferenceStore, blocks BlockStore, now func() time.Time) *PreferenceService {
	if now == nil {
		now = time.Now
	}
	return &PreferenceService{
		profiles:    profiles,
		preferences: preferences,
		blocks:      blocks,
		now:         now,
	}
}

// GetPreference returns a person's current availability record. Preferences
// are read-visible to everyone so the matching engine can rank freely.
func (s *PreferenceService) GetPreference(ctx context.Context, profileID string) (SchedulePreference, error) {
	if s == nil {
		return SchedulePreference{}, fmt.Errorf("PreferenceService is nil")
	}
	if s.preferences == nil {
		return SchedulePreference{}, fmt.Errorf("preference store not configured")
	}

	record, err := s.preferences.GetPreference(ctx, profileID)
	if err != nil {
		return SchedulePreference{}, mapRepoError(err)
	}

	return preferenceFromRecord(record), nil
}

// ReplacePreference validates and stores the whole availability record.
// Only the owner may write; windows are never patched in place.
func (s *PreferenceService) ReplacePreference(ctx context.Context, params ReplacePreferenceParams) (SchedulePreference, error) {
	if s == nil {
		return SchedulePreference{}, fmt.Errorf("PreferenceService is nil")
	}
	if s.preferences == nil {
		return SchedulePreference{}, fmt.Errorf("preference store not configured")
	}

	if params.ProfileID != params.Principal.ProfileID {
		return SchedulePreference{}, ErrForbidden
	}

	vErr := &ValidationError{}
	validatePreferenceInput(params.Input, vErr)
	if vErr.HasErrors() {
		return SchedulePreference{}, vErr
	}

	record := persistence.SchedulePreference{
		ProfileID:      params.ProfileID,
		TravelRadiusKm: params.Input.TravelRadiusKm,
		UpdatedAt:      s.now(),
	}
	if params.Input.Note != nil {
		note := strings.TrimSpace(*params.Input.Note)
		if note != "" {
			record.Note = &note
		}
	}
	for _, window := range params.Input.Windows {
		record.Windows = append(record.Windows, persistence.AvailabilityWindow{
			Weekday:     window.Weekday,
			Date:        window.Date,
			StartMinute: window.StartMinute,
			EndMinute:   window.EndMinute,
			Recurring:   window.Recurring,
		})
	}
	for _, role := range params.Input.Roles {
		record.Roles = append(record.Roles, string(role))
	}
	for _, level := range params.Input.SkillLevels {
		record.SkillLevels = append(record.SkillLevels, string(level))
	}
	for _, area := range params.Input.FocusAreas {
		record.FocusAreas = append(record.FocusAreas, string(area))
	}
	record.LocationIDs = uniqueStrings(params.Input.LocationIDs)

	if err := s.preferences.ReplacePreference(ctx, record); err != nil {
		return SchedulePreference{}, mapRepoError(err)
	}

	return preferenceFromRecord(record), nil
}

// Block records that the caller does not want to be matched with another person.
func (s *PreferenceService) Block(ctx context.Context, principal Principal, blockedID string) error {
	if s == nil {
		return fmt.Errorf("PreferenceService is nil")
	}
	if s.blocks == nil {
		return fmt.Errorf("block store not configured")
	}

	if blockedID == principal.ProfileID {
		vErr := &ValidationError{}
		vErr.add("blocked_id", "cannot block yourself")
		return vErr
	}

	block := persistence.Block{
		BlockerID: principal.ProfileID,
		BlockedID: blockedID,
		CreatedAt: s.now(),
	}
	if err := s.blocks.CreateBlock(ctx, block); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return fmt.Errorf("%w: already blocked", ErrConflict)
		}
		return mapRepoError(err)
	}

	return nil
}

// Unblock removes a block pair created by the caller.
func (s *PreferenceService) Unblock(ctx context.Context, principal Principal, blockedID string) error {
	if s == nil {
		return fmt.Errorf("PreferenceService is nil")
	}
	if s.blocks == nil {
		return fmt.Errorf("block store not configured")
	}

	if err := s.blocks.DeleteBlock(ctx, principal.ProfileID, blockedID); err != nil {
		return mapRepoError(err)
	}

	return nil
}

func validatePreferenceInput(input PreferenceInput, vErr *ValidationError) {
	if len(input.Windows) == 0 {
		vErr.add("windows", "at least one availability window is required")
	}
	for i, window := range input.Windows {
		converted := schedule.Window{
			Day:         window.Weekday,
			Date:        window.Date,
			StartMinute: window.StartMinute,
			EndMinute:   window.EndMinute,
			Recurring:   window.Recurring,
		}
		if err := converted.Validate(); err != nil {
			vErr.add(fmt.Sprintf("windows[%d]", i), err.Error())
		}
	}

	if len(input.Roles) == 0 {
		vErr.add("roles", "at least one preferred role is required")
	}
	for _, role := range input.Roles {
		if !role.Valid() {
			vErr.add("roles", fmt.Sprintf("unknown role %q", role))
		}
	}
	for _, level := range input.SkillLevels {
		if !level.Valid() {
			vErr.add("skill_levels", fmt.Sprintf("unknown skill level %q", level))
		}
	}
	for _, area := range input.FocusAreas {
		if !area.Valid() {
			vErr.add("focus_areas", fmt.Sprintf("unknown focus area %q", area))
		}
	}
	if input.TravelRadiusKm != nil && *input.TravelRadiusKm <= 0 {
		vErr.add("travel_radius_km", "travel radius must be positive")
	}
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%w: already exists", ErrConflict)
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("input", "violates a storage constraint")
		return vErr
	}
	return err
}
