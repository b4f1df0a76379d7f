package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/practice-matcher/internal/matching"
	"github.com/example/practice-matcher/internal/persistence"
	"github.com/example/practice-matcher/internal/persistence/memory"
)

func seedPreference(t *testing.T, store *memory.Store, profileID string, focusAreas []string, windows ...persistence.AvailabilityWindow) {
	t.Helper()
	err := store.ReplacePreference(context.Background(), persistence.SchedulePreference{
		ProfileID:   profileID,
		Windows:     windows,
		Roles:       []string{"LEAD"},
		SkillLevels: []string{"INTERMEDIATE"},
		FocusAreas:  focusAreas,
		UpdatedAt:   time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to seed preference for %s: %v", profileID, err)
	}
}

func mondayEvening() persistence.AvailabilityWindow {
	return persistence.AvailabilityWindow{
		Weekday:     time.Monday,
		StartMinute: 18 * 60,
		EndMinute:   21 * 60,
		Recurring:   true,
	}
}

func newMatchHarness(t *testing.T, now time.Time) (*MatchService, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := NewMatchService(store, store, store, store, matching.DefaultWeights, 0, func() time.Time { return now })
	return svc, store
}

func TestMatchService_RankCandidates(t *testing.T) {
	// A Thursday, so all recurring windows resolve within the same week.
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

	t.Run("requires the requester or a privileged caller", func(t *testing.T) {
		svc, _ := newMatchHarness(t, now)

		_, err := svc.RankCandidates(context.Background(), Principal{ProfileID: "mallory"}, "alice", 10)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("requester without a preference maps to ErrNotFound", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		seedProfile(t, store, "alice", SkillIntermediate)

		_, err := svc.RankCandidates(context.Background(), Principal{ProfileID: "alice"}, "alice", 10)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ranks overlapping candidates and excludes the rest", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		ctx := context.Background()

		seedProfile(t, store, "alice", SkillIntermediate)
		seedProfile(t, store, "bob", SkillIntermediate)
		seedProfile(t, store, "carol", SkillAdvanced)
		seedProfile(t, store, "dave", SkillIntermediate)
		seedProfile(t, store, "erin", SkillIntermediate)

		// Requester: Monday 18:00-21:00, technique.
		seedPreference(t, store, "alice", []string{"TECHNIQUE"}, mondayEvening())
		// Full overlap and shared focus.
		seedPreference(t, store, "bob", []string{"TECHNIQUE"}, mondayEvening())
		// Partial overlap, no shared focus, one level away.
		seedPreference(t, store, "carol", []string{"MUSICALITY"},
			persistence.AvailabilityWindow{Weekday: time.Monday, StartMinute: 20 * 60, EndMinute: 22 * 60, Recurring: true})
		// No overlap at all.
		seedPreference(t, store, "dave", []string{"TECHNIQUE"},
			persistence.AvailabilityWindow{Weekday: time.Tuesday, StartMinute: 18 * 60, EndMinute: 21 * 60, Recurring: true})
		// Overlapping but blocked.
		seedPreference(t, store, "erin", []string{"TECHNIQUE"}, mondayEvening())
		err := store.CreateBlock(ctx, persistence.Block{BlockerID: "alice", BlockedID: "erin", CreatedAt: now})
		if err != nil {
			t.Fatalf("failed to seed block: %v", err)
		}

		matches, err := svc.RankCandidates(ctx, Principal{ProfileID: "alice"}, "alice", 10)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(matches) != 2 {
			t.Fatalf("expected two candidates, got %d: %+v", len(matches), matches)
		}
		if matches[0].CandidateID != "bob" {
			t.Fatalf("expected bob ranked first, got %q", matches[0].CandidateID)
		}
		if matches[0].OverlappingMinutes != 180 {
			t.Fatalf("expected 180 overlapping minutes for bob, got %d", matches[0].OverlappingMinutes)
		}
		if matches[0].SharedFocusAreas != 1 {
			t.Fatalf("expected one shared focus area for bob, got %d", matches[0].SharedFocusAreas)
		}
		if matches[1].CandidateID != "carol" {
			t.Fatalf("expected carol ranked second, got %q", matches[1].CandidateID)
		}
		if matches[1].OverlappingMinutes != 60 {
			t.Fatalf("expected 60 overlapping minutes for carol, got %d", matches[1].OverlappingMinutes)
		}
		if matches[1].SkillLevelDiff != 1 {
			t.Fatalf("expected skill diff 1 for carol, got %d", matches[1].SkillLevelDiff)
		}
	})

	t.Run("excludes people with a pending outgoing invite", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		ctx := context.Background()

		seedProfile(t, store, "alice", SkillIntermediate)
		seedProfile(t, store, "bob", SkillIntermediate)
		seedPreference(t, store, "alice", []string{"TECHNIQUE"}, mondayEvening())
		seedPreference(t, store, "bob", []string{"TECHNIQUE"}, mondayEvening())

		start := now.Add(24 * time.Hour)
		err := store.InTx(ctx, func(tx persistence.NegotiationTx) error {
			session := persistence.Session{
				ID: "session-1", OrganizerID: "alice", Title: "Partner practice",
				Type: "PARTNER_PRACTICE", Status: "PROPOSED", Visibility: "PARTICIPANTS_ONLY",
				Start: start, End: start.Add(time.Hour), Capacity: 2,
				CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.CreateSession(ctx, session); err != nil {
				return err
			}
			return tx.CreateInvite(ctx, persistence.SessionInvite{
				ID: "invite-1", SessionID: "session-1", ProposerID: "alice", InviteeID: "bob",
				Status: "PENDING", ExpiresAt: start.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
			})
		})
		if err != nil {
			t.Fatalf("failed to seed invite: %v", err)
		}

		matches, err := svc.RankCandidates(ctx, Principal{ProfileID: "alice"}, "alice", 10)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(matches) != 0 {
			t.Fatalf("expected bob excluded while invited, got %+v", matches)
		}
	})

	t.Run("caps the result at the requested limit", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		ctx := context.Background()

		seedProfile(t, store, "alice", SkillIntermediate)
		seedPreference(t, store, "alice", []string{"TECHNIQUE"}, mondayEvening())
		for _, id := range []string{"bob", "carol", "dave"} {
			seedProfile(t, store, id, SkillIntermediate)
			seedPreference(t, store, id, []string{"TECHNIQUE"}, mondayEvening())
		}

		matches, err := svc.RankCandidates(ctx, Principal{ProfileID: "alice"}, "alice", 2)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected limit of two, got %d", len(matches))
		}
	})
}

func TestMatchService_SuggestWindows(t *testing.T) {
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

	t.Run("requires the requester or a privileged caller", func(t *testing.T) {
		svc, _ := newMatchHarness(t, now)

		_, err := svc.SuggestWindows(context.Background(), Principal{ProfileID: "mallory"}, "alice", "bob")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("emits overlaps sorted by day then start", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		ctx := context.Background()

		seedProfile(t, store, "alice", SkillIntermediate)
		seedProfile(t, store, "bob", SkillIntermediate)
		seedPreference(t, store, "alice", []string{"TECHNIQUE"},
			persistence.AvailabilityWindow{Weekday: time.Wednesday, StartMinute: 19 * 60, EndMinute: 21 * 60, Recurring: true},
			mondayEvening(),
		)
		seedPreference(t, store, "bob", []string{"TECHNIQUE"},
			persistence.AvailabilityWindow{Weekday: time.Wednesday, StartMinute: 18 * 60, EndMinute: 20 * 60, Recurring: true},
			persistence.AvailabilityWindow{Weekday: time.Monday, StartMinute: 19 * 60, EndMinute: 22 * 60, Recurring: true},
		)

		suggestions, err := svc.SuggestWindows(ctx, Principal{ProfileID: "alice"}, "alice", "bob")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if len(suggestions) != 2 {
			t.Fatalf("expected two suggestions, got %d: %+v", len(suggestions), suggestions)
		}
		first, second := suggestions[0], suggestions[1]
		if first.Weekday != time.Monday || first.StartMinute != 19*60 || first.EndMinute != 21*60 {
			t.Fatalf("unexpected first suggestion: %+v", first)
		}
		if first.OverlapMinutes != 120 {
			t.Fatalf("expected 120 minutes on Monday, got %d", first.OverlapMinutes)
		}
		if second.Weekday != time.Wednesday || second.StartMinute != 19*60 || second.EndMinute != 20*60 {
			t.Fatalf("unexpected second suggestion: %+v", second)
		}
	})

	t.Run("boundary touching windows do not overlap", func(t *testing.T) {
		svc, store := newMatchHarness(t, now)
		ctx := context.Background()

		seedProfile(t, store, "alice", SkillIntermediate)
		seedProfile(t, store, "bob", SkillIntermediate)
		seedPreference(t, store, "alice", []string{"TECHNIQUE"},
			persistence.AvailabilityWindow{Weekday: time.Monday, StartMinute: 10 * 60, EndMinute: 12 * 60, Recurring: true})
		seedPreference(t, store, "bob", []string{"TECHNIQUE"},
			persistence.AvailabilityWindow{Weekday: time.Monday, StartMinute: 12 * 60, EndMinute: 14 * 60, Recurring: true})

		suggestions, err := svc.SuggestWindows(ctx, Principal{ProfileID: "alice"}, "alice", "bob")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(suggestions) != 0 {
			t.Fatalf("expected no suggestions, got %+v", suggestions)
		}
	})
}
