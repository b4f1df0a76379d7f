package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/practice-matcher/internal/persistence/memory"
)

func newSessionHarness(t *testing.T, now time.Time) (*SessionService, *memory.Store) {
	t.Helper()
	store := memory.New()
	for _, id := range []string{"organizer", "guest", "stranger"} {
		seedProfile(t, store, id, SkillIntermediate)
	}
	counter := 0
	idGen := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	svc := NewSessionService(store, store, idGen, func() time.Time { return now })
	return svc, store
}

func groupSessionInput(start time.Time) SessionInput {
	return SessionInput{
		Title:      "Open practice",
		Type:       TypeGroupPractice,
		Visibility: VisibilityPublic,
		Start:      start,
		End:        start.Add(time.Hour),
		Capacity:   6,
	}
}

func TestSessionService_CreateSession(t *testing.T) {
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	t.Run("validates required attributes", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)

		_, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input: SessionInput{
				Title:      "  ",
				Type:       SessionType("BAD"),
				Visibility: Visibility("NOPE"),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "type", "visibility", "time"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("partner practice always has capacity two", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)

		input := groupSessionInput(start)
		input.Type = TypePartnerPractice
		input.Capacity = 10

		session, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     input,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if session.Capacity != 2 {
			t.Fatalf("expected capacity 2, got %d", session.Capacity)
		}
	})

	t.Run("enrolls the organizer as the first participant", func(t *testing.T) {
		svc, store := newSessionHarness(t, now)
		ctx := context.Background()

		session, err := svc.CreateSession(ctx, CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     groupSessionInput(start),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		participants, err := store.ListParticipants(ctx, session.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(participants) != 1 || participants[0].ProfileID != "organizer" {
			t.Fatalf("expected organizer enrolled, got %+v", participants)
		}
		if session.Status != StatusProposed {
			t.Fatalf("expected PROPOSED, got %s", session.Status)
		}
	})
}

func TestSessionService_Visibility(t *testing.T) {
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	setup := func(t *testing.T, visibility Visibility) (*SessionService, Session) {
		t.Helper()
		svc, _ := newSessionHarness(t, now)
		input := groupSessionInput(start)
		input.Visibility = visibility
		session, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     input,
		})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		return svc, session
	}

	t.Run("author-only sessions hide from participants", func(t *testing.T) {
		svc, session := setup(t, VisibilityAuthorOnly)
		ctx := context.Background()

		if _, err := svc.GetSession(ctx, Principal{ProfileID: "organizer"}, session.ID); err != nil {
			t.Fatalf("organizer should read own session, got %v", err)
		}
		_, err := svc.GetSession(ctx, Principal{ProfileID: "stranger"}, session.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("public sessions are readable by anyone", func(t *testing.T) {
		svc, session := setup(t, VisibilityPublic)

		if _, err := svc.GetSession(context.Background(), Principal{ProfileID: "stranger"}, session.ID); err != nil {
			t.Fatalf("expected public read to succeed, got %v", err)
		}
	})

	t.Run("privileged callers bypass read visibility", func(t *testing.T) {
		svc, session := setup(t, VisibilityAuthorOnly)

		_, err := svc.GetSession(context.Background(), Principal{ProfileID: "admin", IsPrivileged: true}, session.ID)
		if err != nil {
			t.Fatalf("expected privileged read to succeed, got %v", err)
		}
	})

	t.Run("list filters invisible sessions per caller", func(t *testing.T) {
		svc, _ := setup(t, VisibilityAuthorOnly)

		visible, err := svc.ListSessions(context.Background(), ListSessionsParams{
			Principal: Principal{ProfileID: "stranger"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(visible) != 0 {
			t.Fatalf("expected no visible sessions, got %d", len(visible))
		}

		mine, err := svc.ListSessions(context.Background(), ListSessionsParams{
			Principal: Principal{ProfileID: "organizer"},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(mine) != 1 {
			t.Fatalf("expected the organizer to see one session, got %d", len(mine))
		}
	})
}

func TestSessionService_UpdateSession(t *testing.T) {
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	t.Run("only the organizer may update", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)
		session, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     groupSessionInput(start),
		})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		_, err = svc.UpdateSession(context.Background(), UpdateSessionParams{
			Principal: Principal{ProfileID: "admin", IsPrivileged: true},
			SessionID: session.ID,
			Input:     groupSessionInput(start),
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden even for privileged callers, got %v", err)
		}
	})

	t.Run("capacity cannot drop below the participant count", func(t *testing.T) {
		svc, store := newSessionHarness(t, now)
		ctx := context.Background()
		session, err := svc.CreateSession(ctx, CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     groupSessionInput(start),
		})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		membership := NewMembershipService(store, store, func() time.Time { return now })
		if err := membership.Join(ctx, Principal{ProfileID: "guest"}, session.ID); err != nil {
			t.Fatalf("failed to join: %v", err)
		}

		input := groupSessionInput(start)
		input.Capacity = 1

		_, err = svc.UpdateSession(ctx, UpdateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			SessionID: session.ID,
			Input:     input,
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["capacity"]; !ok {
			t.Fatalf("expected capacity validation error, got %v", vErr.FieldErrors)
		}
	})
}

func TestSessionService_Lifecycle(t *testing.T) {
	now := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	start := now.Add(24 * time.Hour)

	create := func(t *testing.T, svc *SessionService) Session {
		t.Helper()
		session, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{ProfileID: "organizer"},
			Input:     groupSessionInput(start),
		})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		return session
	}

	t.Run("cancel from proposed succeeds", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)
		session := create(t, svc)

		cancelled, err := svc.CancelSession(context.Background(), Principal{ProfileID: "organizer"}, session.ID)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if cancelled.Status != StatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
		}
	})

	t.Run("complete requires a scheduled session", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)
		session := create(t, svc)

		_, err := svc.CompleteSession(context.Background(), Principal{ProfileID: "organizer"}, session.ID)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict for a proposed session, got %v", err)
		}
	})

	t.Run("cancel is not idempotent", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)
		session := create(t, svc)
		ctx := context.Background()
		principal := Principal{ProfileID: "organizer"}

		if _, err := svc.CancelSession(ctx, principal, session.ID); err != nil {
			t.Fatalf("first cancel failed: %v", err)
		}
		_, err := svc.CancelSession(ctx, principal, session.ID)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict on second cancel, got %v", err)
		}
	})

	t.Run("only the organizer may cancel", func(t *testing.T) {
		svc, _ := newSessionHarness(t, now)
		session := create(t, svc)

		_, err := svc.CancelSession(context.Background(), Principal{ProfileID: "stranger"}, session.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
