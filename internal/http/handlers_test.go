package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/practice-matcher/internal/matching"
	"github.com/example/practice-matcher/internal/persistence/memory"
	"github.com/example/practice-matcher/internal/testfixtures"
)

type apiHarness struct {
	handler http.Handler
	store   *memory.Store
	clock   *testfixtures.Clock
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	factory := testfixtures.NewServiceFactory(testfixtures.WithClock(clock))

	preferences := factory.NewPreferenceService(testfixtures.PreferenceServiceDeps{
		Profiles:    store,
		Preferences: store,
		Blocks:      store,
	})
	matches := factory.NewMatchService(testfixtures.MatchServiceDeps{
		Profiles:     store,
		Preferences:  store,
		Blocks:       store,
		Invites:      store,
		Weights:      matching.DefaultWeights,
		DefaultLimit: 10,
	})
	invites := factory.NewInviteService(testfixtures.InviteServiceDeps{
		Store:    store,
		Invites:  store,
		Profiles: store,
	})
	sessions := factory.NewSessionService(testfixtures.SessionServiceDeps{
		Store:    store,
		Sessions: store,
	})
	membership := factory.NewMembershipService(testfixtures.MembershipServiceDeps{
		Store:    store,
		Sessions: store,
	})

	handler := NewRouter(RouterConfig{
		Preferences: NewPreferenceHandler(preferences, nil),
		Matches:     NewMatchHandler(matches, nil),
		Invites:     NewInviteHandler(invites, nil),
		Sessions:    NewSessionHandler(sessions, membership, nil),
		Middleware: []func(http.Handler) http.Handler{
			RequestLogger(nil),
			RequireIdentity(nil),
		},
	})

	return &apiHarness{handler: handler, store: store, clock: clock}
}

func (h *apiHarness) seedProfile(t *testing.T, id string) {
	t.Helper()
	fixture := testfixtures.NewProfileFixture(testfixtures.WithProfileID(id))
	if err := h.store.CreateProfile(context.Background(), fixture.Record()); err != nil {
		t.Fatalf("failed to seed profile %s: %v", id, err)
	}
}

func (h *apiHarness) do(t *testing.T, method, path, profileID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if profileID != "" {
		req.Header.Set(headerProfileID, profileID)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) doPrivileged(t *testing.T, method, path, profileID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(headerProfileID, profileID)
	req.Header.Set(headerPrivileged, "true")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return out
}

func validPreferenceBody() map[string]any {
	return map[string]any{
		"windows": []map[string]any{
			{"day": "MONDAY", "start": "18:00", "end": "21:00", "recurring": true},
		},
		"roles":       []string{"LEAD"},
		"focus_areas": []string{"TECHNIQUE"},
	}
}

func TestPreferenceEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	h.seedProfile(t, "alice")

	t.Run("requires an identity header", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/profiles/alice/preferences", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("replace and read back", func(t *testing.T) {
		rec := h.do(t, http.MethodPut, "/profiles/alice/preferences", "alice", validPreferenceBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodGet, "/profiles/alice/preferences", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[preferenceResponse](t, rec)
		if resp.Preference.ProfileID != "alice" {
			t.Fatalf("expected profile alice, got %q", resp.Preference.ProfileID)
		}
		if len(resp.Preference.Windows) != 1 {
			t.Fatalf("expected 1 window, got %d", len(resp.Preference.Windows))
		}
		window := resp.Preference.Windows[0]
		if window.Day != "MONDAY" || window.Start != "18:00" || window.End != "21:00" {
			t.Fatalf("unexpected window %+v", window)
		}
	})

	t.Run("rejects a replace for someone else", func(t *testing.T) {
		h.seedProfile(t, "bob")
		rec := h.do(t, http.MethodPut, "/profiles/alice/preferences", "bob", validPreferenceBody())
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", rec.Code)
		}
	})

	t.Run("rejects invalid windows with field errors", func(t *testing.T) {
		body := validPreferenceBody()
		body["windows"] = []map[string]any{
			{"day": "MONDAY", "start": "21:00", "end": "18:00", "recurring": true},
		}
		rec := h.do(t, http.MethodPut, "/profiles/alice/preferences", "alice", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[errorResponse](t, rec)
		if len(resp.Errors) == 0 {
			t.Fatal("expected field errors in the response")
		}
	})

	t.Run("rejects a malformed clock string", func(t *testing.T) {
		body := validPreferenceBody()
		body["windows"] = []map[string]any{
			{"day": "MONDAY", "start": "6pm", "end": "21:00", "recurring": true},
		}
		rec := h.do(t, http.MethodPut, "/profiles/alice/preferences", "alice", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("block and unblock", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/blocks", "alice", map[string]any{"blocked_id": "bob"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodPost, "/blocks", "alice", map[string]any{"blocked_id": "bob"})
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409 for a duplicate block, got %d", rec.Code)
		}

		rec = h.do(t, http.MethodDelete, "/blocks/bob", "alice", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestMatchEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	for _, id := range []string{"alice", "bob"} {
		h.seedProfile(t, id)
		rec := h.do(t, http.MethodPut, "/profiles/"+id+"/preferences", id, validPreferenceBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("failed to seed preference for %s: %d %s", id, rec.Code, rec.Body.String())
		}
	}

	t.Run("lists ranked candidates", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/matches", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[listMatchesResponse](t, rec)
		if len(resp.Matches) != 1 {
			t.Fatalf("expected 1 candidate, got %d", len(resp.Matches))
		}
		match := resp.Matches[0]
		if match.CandidateID != "bob" {
			t.Fatalf("expected candidate bob, got %q", match.CandidateID)
		}
		if match.OverlappingMinutes != 180 {
			t.Fatalf("expected 180 overlapping minutes, got %d", match.OverlappingMinutes)
		}
	})

	t.Run("rejects a non positive limit", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/matches?limit=0", "alice", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("suggests concrete windows for a candidate", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/matches/bob/suggestions", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[listSuggestionsResponse](t, rec)
		if len(resp.Suggestions) != 1 {
			t.Fatalf("expected 1 suggestion, got %d", len(resp.Suggestions))
		}
		suggestion := resp.Suggestions[0]
		if suggestion.Day != "MONDAY" || suggestion.Start != "18:00" || suggestion.End != "21:00" {
			t.Fatalf("unexpected suggestion %+v", suggestion)
		}
		if suggestion.OverlapMinutes != 180 {
			t.Fatalf("expected 180 overlap minutes, got %d", suggestion.OverlapMinutes)
		}
	})
}

func TestInviteEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	h.seedProfile(t, "alice")
	h.seedProfile(t, "bob")

	start := testfixtures.ReferenceTime().Add(24 * time.Hour)
	end := start.Add(time.Hour)

	proposeBody := func(inviteeID string, start, end time.Time) map[string]any {
		return map[string]any{
			"invitee_id": inviteeID,
			"start":      start.Format(time.RFC3339),
			"end":        end.Format(time.RFC3339),
		}
	}

	t.Run("propose creates a pending invite", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/invites", "alice", proposeBody("bob", start, end))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[negotiationResponse](t, rec)
		if resp.InviteStatus != "PENDING" {
			t.Fatalf("expected PENDING, got %q", resp.InviteStatus)
		}
		if resp.InviteID == "" || resp.SessionID == "" {
			t.Fatalf("expected identifiers in the response, got %+v", resp)
		}
	})

	t.Run("propose rejects a self invite", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/invites", "alice", proposeBody("alice", start, end))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
		}
		resp := decodeBody[errorResponse](t, rec)
		if _, ok := resp.Errors["invitee_id"]; !ok {
			t.Fatalf("expected an invitee_id field error, got %+v", resp.Errors)
		}
	})

	t.Run("invitee accepts and the session is scheduled", func(t *testing.T) {
		acceptStart := start.Add(48 * time.Hour)
		rec := h.do(t, http.MethodPost, "/invites", "alice", proposeBody("bob", acceptStart, acceptStart.Add(time.Hour)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		proposed := decodeBody[negotiationResponse](t, rec)

		rec = h.do(t, http.MethodPost, fmt.Sprintf("/invites/%s/response", proposed.InviteID), "bob", map[string]any{"action": "accept"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		accepted := decodeBody[negotiationResponse](t, rec)
		if accepted.InviteStatus != "ACCEPTED" {
			t.Fatalf("expected ACCEPTED, got %q", accepted.InviteStatus)
		}

		rec = h.do(t, http.MethodGet, "/sessions/"+proposed.SessionID, "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		session := decodeBody[sessionResponse](t, rec)
		if session.Session.Status != "SCHEDULED" {
			t.Fatalf("expected SCHEDULED, got %q", session.Session.Status)
		}
		if len(session.Session.Participants) != 2 {
			t.Fatalf("expected 2 participants, got %d", len(session.Session.Participants))
		}
	})

	t.Run("proposer cannot accept their own invite", func(t *testing.T) {
		otherStart := start.Add(96 * time.Hour)
		rec := h.do(t, http.MethodPost, "/invites", "alice", proposeBody("bob", otherStart, otherStart.Add(time.Hour)))
		proposed := decodeBody[negotiationResponse](t, rec)

		rec = h.do(t, http.MethodPost, fmt.Sprintf("/invites/%s/response", proposed.InviteID), "alice", map[string]any{"action": "accept"})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("accept after expiry returns gone and leaves the invite pending", func(t *testing.T) {
		expireStart := start.Add(120 * time.Hour)
		rec := h.do(t, http.MethodPost, "/invites", "alice", proposeBody("bob", expireStart, expireStart.Add(time.Hour)))
		proposed := decodeBody[negotiationResponse](t, rec)

		h.clock.Set(expireStart.Add(2 * time.Hour))
		rec = h.do(t, http.MethodPost, fmt.Sprintf("/invites/%s/response", proposed.InviteID), "bob", map[string]any{"action": "accept"})
		if rec.Code != http.StatusGone {
			t.Fatalf("expected status 410, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodGet, "/invites/"+proposed.InviteID, "bob", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		invite := decodeBody[inviteResponse](t, rec)
		if invite.Invite.Status != "PENDING" {
			t.Fatalf("expected the invite to stay PENDING, got %q", invite.Invite.Status)
		}
		h.clock.Set(testfixtures.ReferenceTime())
	})

	t.Run("outsiders cannot read an invite", func(t *testing.T) {
		h.seedProfile(t, "carol")
		rec := h.do(t, http.MethodGet, "/invites", "alice", nil)
		invites := decodeBody[listInvitesResponse](t, rec)
		if len(invites.Invites) == 0 {
			t.Fatal("expected alice to have invites")
		}
		inviteID := invites.Invites[0].ID

		rec = h.do(t, http.MethodGet, "/invites/"+inviteID, "carol", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("expiry sweep requires privilege", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/invites/expire", "alice", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
		}

		h.clock.Set(testfixtures.ReferenceTime().Add(14 * 24 * time.Hour))
		rec = h.doPrivileged(t, http.MethodPost, "/invites/expire", "admin", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		swept := decodeBody[expireResponse](t, rec)
		if swept.Expired == 0 {
			t.Fatal("expected at least one invite to expire")
		}
	})
}

func TestSessionEndpoints(t *testing.T) {
	h := newAPIHarness(t)
	h.seedProfile(t, "alice")
	h.seedProfile(t, "bob")
	h.seedProfile(t, "carol")

	start := testfixtures.ReferenceTime().Add(24 * time.Hour)
	sessionBody := map[string]any{
		"title":      "Tuesday group practice",
		"type":       "GROUP_PRACTICE",
		"visibility": "PUBLIC",
		"start":      start.Format(time.RFC3339),
		"end":        start.Add(2 * time.Hour).Format(time.RFC3339),
		"capacity":   2,
	}

	rec := h.do(t, http.MethodPost, "/sessions", "alice", sessionBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[sessionResponse](t, rec)
	sessionID := created.Session.ID
	if created.Session.Status != "PROPOSED" {
		t.Fatalf("expected PROPOSED, got %q", created.Session.Status)
	}
	if len(created.Session.Participants) != 1 || created.Session.Participants[0] != "alice" {
		t.Fatalf("expected the organizer enrolled, got %v", created.Session.Participants)
	}

	t.Run("rejects missing fields", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/sessions", "alice", map[string]any{"type": "GROUP_PRACTICE"})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("public sessions are listable by anyone", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/sessions?status=PROPOSED", "bob", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		listed := decodeBody[listSessionsResponse](t, rec)
		if len(listed.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(listed.Sessions))
		}
	})

	t.Run("joinable reflects the caller", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/sessions/"+sessionID+"/joinable", "bob", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := decodeBody[joinableResponse](t, rec); !got.Joinable {
			t.Fatal("expected an open seat for bob")
		}

		rec = h.do(t, http.MethodGet, "/sessions/"+sessionID+"/joinable", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := decodeBody[joinableResponse](t, rec); got.Joinable {
			t.Fatal("expected an existing participant to see joinable=false")
		}
	})

	t.Run("join until full", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/sessions/"+sessionID+"/participants", "bob", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodPost, "/sessions/"+sessionID+"/participants", "carol", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409 for a full session, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodDelete, "/sessions/"+sessionID+"/participants", "bob", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodPost, "/sessions/"+sessionID+"/participants", "carol", nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected a free seat after leave, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("only the organizer can cancel", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/sessions/"+sessionID+"/cancel", "bob", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = h.do(t, http.MethodPost, "/sessions/"+sessionID+"/cancel", "alice", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		cancelled := decodeBody[sessionResponse](t, rec)
		if cancelled.Session.Status != "CANCELLED" {
			t.Fatalf("expected CANCELLED, got %q", cancelled.Session.Status)
		}
	})

	t.Run("cannot complete a cancelled session", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/sessions/"+sessionID+"/complete", "alice", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("unknown session returns not found", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/sessions/missing", "alice", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
