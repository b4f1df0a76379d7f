package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/matching"
	"github.com/example/practice-matcher/internal/persistence"
	"github.com/example/practice-matcher/internal/schedule"
)

// MatchService ranks candidate partners and surfaces concrete overlapping
// windows. Every call is a pure read-then-compute path; nothing is cached.
type MatchService struct {
	profiles     ProfileDirectory
	preferences  PreferenceStore
	blocks       BlockStore
	invites      InviteReader
	weights      matching.Weights
	defaultLimit int
	now          func() time.Time
}

// NewMatchService wires dependencies for ranking and suggestions.
func NewMatchService(profiles ProfileDirectory, preferences PreferenceStore, blocks BlockStore, invites InviteReader, weights matching.Weights, defaultLimit int, now func() time.Time) *MatchService {
	if weights == (matching.Weights{}) {
		weights = matching.DefaultWeights
	}
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if now == nil {
		now = time.Now
	}
	return &MatchService{
		profiles:     profiles,
		preferences:  preferences,
		blocks:       blocks,
		invites:      invites,
		weights:      weights,
		defaultLimit: defaultLimit,
		now:          now,
	}
}

// RankCandidates scores every person with availability against the requester
// and returns the best matches, strongest first. The requester, blocked
// pairs, zero-overlap candidates, and people the requester already has a
// pending invite out to are all excluded.
func (s *MatchService) RankCandidates(ctx context.Context, principal Principal, requesterID string, limit int) ([]CandidateMatch, error) {
	if s == nil {
		return nil, fmt.Errorf("MatchService is nil")
	}
	if s.preferences == nil || s.profiles == nil {
		return nil, fmt.Errorf("match service not configured")
	}

	if requesterID != principal.ProfileID && !principal.IsPrivileged {
		return nil, ErrForbidden
	}

	requesterPref, err := s.preferences.GetPreference(ctx, requesterID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	requesterProfile, err := s.profiles.GetProfile(ctx, requesterID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	excluded := map[string]struct{}{requesterID: {}}
	if s.blocks != nil {
		blocks, err := s.blocks.ListBlocksInvolving(ctx, requesterID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, block := range blocks {
			excluded[block.BlockerID] = struct{}{}
			excluded[block.BlockedID] = struct{}{}
		}
	}
	if s.invites != nil {
		pending, err := s.invites.ListPendingInvitesFrom(ctx, requesterID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		for _, invite := range pending {
			excluded[invite.InviteeID] = struct{}{}
		}
	}

	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	skillByID := make(map[string]SkillLevel, len(profiles))
	for _, profile := range profiles {
		skillByID[profile.ID] = SkillLevel(profile.SkillLevel)
	}

	preferences, err := s.preferences.ListPreferences(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	reference := s.now()
	weekStart := startOfWeek(reference)
	requesterWindows := schedule.FilterWeek(toWindows(requesterPref), weekStart, reference)
	requesterSkill := SkillLevel(requesterProfile.SkillLevel)

	var candidates []matching.Candidate
	for _, candidatePref := range preferences {
		if _, skip := excluded[candidatePref.ProfileID]; skip {
			continue
		}

		candidateWindows := schedule.FilterWeek(toWindows(candidatePref), weekStart, reference)
		minutes, pairs := schedule.Total(requesterWindows, candidateWindows)
		if minutes == 0 {
			continue
		}

		candidateSkill, ok := skillByID[candidatePref.ProfileID]
		if !ok {
			continue
		}

		candidates = append(candidates, matching.Candidate{
			ID:               candidatePref.ProfileID,
			OverlapMinutes:   minutes,
			OverlapWindows:   pairs,
			SharedFocusAreas: matching.SharedCount(requesterPref.FocusAreas, candidatePref.FocusAreas),
			SkillLevelDiff:   matching.Distance(requesterSkill.Ordinal(), candidateSkill.Ordinal()),
		})
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}

	scored := matching.Rank(candidates, s.weights, limit)
	matches := make([]CandidateMatch, 0, len(scored))
	for _, entry := range scored {
		matches = append(matches, CandidateMatch{
			CandidateID:        entry.ID,
			Score:              entry.Score,
			OverlappingWindows: entry.OverlapWindows,
			OverlappingMinutes: entry.OverlapMinutes,
			SharedFocusAreas:   entry.SharedFocusAreas,
			SkillLevelDiff:     entry.SkillLevelDiff,
		})
	}

	return matches, nil
}

// SuggestWindows emits the concrete overlapping windows between the requester
// and one candidate, ordered by day then start time. Callers use these to
// prefill a proposal.
func (s *MatchService) SuggestWindows(ctx context.Context, principal Principal, requesterID, candidateID string) ([]WindowSuggestion, error) {
	if s == nil {
		return nil, fmt.Errorf("MatchService is nil")
	}
	if s.preferences == nil {
		return nil, fmt.Errorf("match service not configured")
	}

	if requesterID != principal.ProfileID && !principal.IsPrivileged {
		return nil, ErrForbidden
	}

	requesterPref, err := s.preferences.GetPreference(ctx, requesterID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	candidatePref, err := s.preferences.GetPreference(ctx, candidateID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	reference := s.now()
	weekStart := startOfWeek(reference)
	requesterWindows := schedule.FilterWeek(toWindows(requesterPref), weekStart, reference)
	candidateWindows := schedule.FilterWeek(toWindows(candidatePref), weekStart, reference)

	overlaps := schedule.Overlaps(requesterWindows, candidateWindows)
	suggestions := make([]WindowSuggestion, 0, len(overlaps))
	for _, overlap := range overlaps {
		suggestions = append(suggestions, WindowSuggestion{
			Weekday:        overlap.Day,
			StartMinute:    overlap.StartMinute,
			EndMinute:      overlap.EndMinute,
			OverlapMinutes: overlap.Minutes,
		})
	}

	return suggestions, nil
}

func toWindows(preference persistence.SchedulePreference) []schedule.Window {
	windows := make([]schedule.Window, 0, len(preference.Windows))
	for _, window := range preference.Windows {
		windows = append(windows, schedule.Window{
			Day:         window.Weekday,
			Date:        window.Date,
			StartMinute: window.StartMinute,
			EndMinute:   window.EndMinute,
			Recurring:   window.Recurring,
		})
	}
	return windows
}

// startOfWeek returns midnight UTC of the Monday of the reference's week.
func startOfWeek(reference time.Time) time.Time {
	inUTC := reference.UTC()
	start := time.Date(inUTC.Year(), inUTC.Month(), inUTC.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, -offset)
}
