package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/practice-matcher/internal/application"
	"github.com/example/practice-matcher/internal/persistence/memory"
)

func TestServiceFactoryNewSessionService(t *testing.T) {
	factory := NewServiceFactory()
	store := memory.New()
	organizer := NewProfileFixture(WithProfileID("organizer")).Record()
	if err := store.CreateProfile(context.Background(), organizer); err != nil {
		t.Fatalf("CreateProfile returned error: %v", err)
	}

	svc := factory.NewSessionService(SessionServiceDeps{Store: store, Sessions: store})
	principal := application.Principal{ProfileID: "organizer"}
	start := factory.Clock.Current().Add(24 * time.Hour)
	input := application.SessionInput{
		Title:      "Open practice",
		Type:       application.TypeGroupPractice,
		Visibility: application.VisibilityPublic,
		Start:      start,
		End:        start.Add(time.Hour),
		Capacity:   6,
	}

	session, err := svc.CreateSession(context.Background(), application.CreateSessionParams{Principal: principal, Input: input})
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	if session.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", session.ID)
	}
	if !session.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), session.CreatedAt)
	}

	stored, err := store.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if stored.OrganizerID != "organizer" {
		t.Fatalf("stored session has unexpected organizer: %q", stored.OrganizerID)
	}
}
