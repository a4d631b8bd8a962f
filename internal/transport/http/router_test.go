package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairhub/internal/audit"
	"pairhub/internal/identity"
	"pairhub/internal/names"
	"pairhub/internal/prefs"
	"pairhub/internal/records"
	"pairhub/internal/room"
	"pairhub/internal/session"
	"pairhub/pkg/domain"
	"pairhub/pkg/testutil"
)

// syncAudit appends events to the store inline, so router tests can assert on
// audit output without running the worker.
type syncAudit struct {
	store audit.Store
}

func (a syncAudit) Emit(ctx context.Context, event audit.Event) {
	_ = a.store.Append(ctx, event)
}

type lastChallenge struct {
	mu   sync.Mutex
	code string
}

func (c *lastChallenge) deliver(_ context.Context, _, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code = code
	return nil
}

func (c *lastChallenge) latest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

type fixture struct {
	handler   http.Handler
	tokens    *session.TokenService
	provider  *session.Passwordless
	challenge *lastChallenge
	profiles  identity.ProfileStore
	store     *records.InMemoryStore
	audits    *audit.InMemoryStore
}

func newFixture(t *testing.T, adminToken string) *fixture {
	t.Helper()

	tokens := session.NewTokenService("router-test-key", "pairhub")
	challenge := &lastChallenge{}
	provider, err := session.NewPasswordless(tokens, session.WithDeliverer(challenge.deliver))
	require.NoError(t, err)

	profiles := identity.NewInMemoryProfileStore()
	nameCache, err := names.NewCache(profiles)
	require.NoError(t, err)

	audits := audit.NewInMemoryStore()
	auditor := syncAudit{store: audits}

	rooms := room.NewInMemoryRoomStore()
	memberships := room.NewInMemoryMembershipStore()
	manager, err := room.NewManager(
		RequestIdentities(), rooms, memberships, prefs.NewMemoryStore(),
		room.WithAudit(auditor),
	)
	require.NoError(t, err)

	store := records.NewInMemoryStore()

	handler := NewRouter(Deps{
		Tokens:     tokens,
		Auth:       NewAuthHandler(provider, auditor),
		Profile:    NewProfileHandler(profiles, nameCache),
		Rooms:      NewRoomsHandler(manager, audits),
		Records:    NewRecordsHandler(store, nameCache, memberships, auditor, nil),
		AdminToken: adminToken,
	})

	return &fixture{
		handler:   handler,
		tokens:    tokens,
		provider:  provider,
		challenge: challenge,
		profiles:  profiles,
		store:     store,
		audits:    audits,
	}
}

// token mints a bearer token for a fresh user and returns the user's ID.
func (f *fixture) token(t *testing.T, email string) (string, domain.UserID) {
	t.Helper()
	userID := domain.NewUserID()
	token, err := f.tokens.Generate(uuid.UUID(userID), email, time.Hour)
	require.NoError(t, err)
	return token, userID
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(f.handler, req)
}

func TestRouter_SignInFlow(t *testing.T) {
	f := newFixture(t, "")

	testutil.Given(t, "a caller with a valid email", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "pat@example.com"}, "")
		testutil.AssertStatus(t, rr, http.StatusAccepted)
		testutil.AssertJSONContains(t, rr, "status", "challenge_sent")
		assert.Len(t, f.challenge.latest(), 6)
	})

	testutil.When(t, "the challenge is redeemed", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/auth/redeem", map[string]string{
			"email": "pat@example.com", "code": f.challenge.latest(),
		}, "")
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONHasKey(t, rr, "token")
		testutil.AssertJSONContains(t, rr, "email", "pat@example.com")
	})
}

func TestRouter_SignInRejectsBadInput(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		name string
		body any
	}{
		{"missing email", map[string]string{}},
		{"not an email", map[string]string{"email": "nobody"}},
		{"blank email", map[string]string{"email": "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/auth/signin", tt.body, "")
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
		})
	}
}

func TestRouter_RedeemRejectsWrongCode(t *testing.T) {
	f := newFixture(t, "")
	rr := f.do(t, http.MethodPost, "/auth/signin", map[string]string{"email": "pat@example.com"}, "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	rr = f.do(t, http.MethodPost, "/auth/redeem", map[string]string{
		"email": "pat@example.com", "code": "000000-wrong",
	}, "")
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthenticated")
}

func TestRouter_AuthenticatedRoutesRejectMissingOrBadTokens(t *testing.T) {
	f := newFixture(t, "")

	t.Run("no token", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, "")
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthenticated")
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, "not-a-token")
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthenticated")
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := session.NewTokenService("some-other-key", "pairhub")
		token, err := other.Generate(uuid.New(), "pat@example.com", time.Hour)
		require.NoError(t, err)
		rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, token)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthenticated")
	})
}

func TestRouter_RoomJoinAndRecordLifecycle(t *testing.T) {
	f := newFixture(t, "")
	token, userID := f.token(t, "pat@example.com")

	rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "Sunny-Side"}, token)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = f.do(t, http.MethodPut, "/me/display-name", map[string]string{"display_name": "Pat"}, token)
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	type view struct {
		ID         string `json:"id"`
		Body       string `json:"body"`
		Done       bool   `json:"done"`
		AuthorID   string `json:"author_id"`
		AuthorName string `json:"author_name"`
	}
	type listResponse struct {
		Records []view `json:"records"`
	}

	var created view
	testutil.When(t, "a record is submitted", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/rooms/sunny-side/watchlist/records", map[string]string{"body": "that one movie"}, token)
		testutil.AssertStatus(t, rr, http.StatusCreated)
		created = *testutil.UnmarshalResponse[view](t, rr)
		assert.Equal(t, "that one movie", created.Body)
		assert.Equal(t, userID.String(), created.AuthorID)
	})

	testutil.Then(t, "the list returns it enriched with the author name", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/rooms/sunny-side/watchlist/records", nil, token)
		testutil.AssertStatusOK(t, rr)
		list := testutil.UnmarshalResponse[listResponse](t, rr)
		require.Len(t, list.Records, 1)
		assert.Equal(t, "Pat", list.Records[0].AuthorName)
		assert.False(t, list.Records[0].Done)
	})

	testutil.Then(t, "toggling marks it done", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/rooms/sunny-side/watchlist/records/"+created.ID, map[string]bool{"done": true}, token)
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		rr = f.do(t, http.MethodGet, "/rooms/sunny-side/watchlist/records", nil, token)
		list := testutil.UnmarshalResponse[listResponse](t, rr)
		require.Len(t, list.Records, 1)
		assert.True(t, list.Records[0].Done)
	})

	testutil.Then(t, "deleting removes it", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/rooms/sunny-side/watchlist/records/"+created.ID, nil, token)
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		rr = f.do(t, http.MethodGet, "/rooms/sunny-side/watchlist/records", nil, token)
		list := testutil.UnmarshalResponse[listResponse](t, rr)
		assert.Empty(t, list.Records)
	})
}

func TestRouter_RecordRoutesRequireMembership(t *testing.T) {
	f := newFixture(t, "")
	member, _ := f.token(t, "member@example.com")
	outsider, _ := f.token(t, "outsider@example.com")

	rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, member)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodGet, "/rooms/sunny/watchlist/records", nil, outsider)
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "precondition_failed")

	rr = f.do(t, http.MethodPost, "/rooms/sunny/watchlist/records", map[string]string{"body": "sneaky"}, outsider)
	testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "precondition_failed")
}

func TestRouter_RecordValidation(t *testing.T) {
	f := newFixture(t, "")
	token, _ := f.token(t, "pat@example.com")
	rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, token)
	require.Equal(t, http.StatusNoContent, rr.Code)

	t.Run("unknown table is 404", func(t *testing.T) {
		rr := f.do(t, http.MethodGet, "/rooms/sunny/journal/records", nil, token)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		rr := f.do(t, http.MethodPost, "/rooms/sunny/feed/records", map[string]string{"body": "   "}, token)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("malformed record id is rejected", func(t *testing.T) {
		rr := f.do(t, http.MethodDelete, "/rooms/sunny/feed/records/not-a-uuid", nil, token)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("toggling a missing record is 404", func(t *testing.T) {
		rr := f.do(t, http.MethodPatch, "/rooms/sunny/feed/records/"+domain.NewRecordID().String(), map[string]bool{"done": true}, token)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("calendar submit keeps the scheduled time", func(t *testing.T) {
		at := time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)
		rr := f.do(t, http.MethodPost, "/rooms/sunny/calendar/records", map[string]any{"body": "dinner", "at": at}, token)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		type view struct {
			At time.Time `json:"at"`
		}
		created := testutil.UnmarshalResponse[view](t, rr)
		assert.True(t, created.At.Equal(at))
	})
}

func TestRouter_DisplayNameValidation(t *testing.T) {
	f := newFixture(t, "")
	token, _ := f.token(t, "pat@example.com")

	rr := f.do(t, http.MethodPut, "/me/display-name", map[string]string{"display_name": "  "}, token)
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
}

type healthCheck struct {
	err error
}

func (h healthCheck) Health(context.Context) error { return h.err }

func TestRouter_Health(t *testing.T) {
	t.Run("all dependencies healthy", func(t *testing.T) {
		f := newFixture(t, "")
		handler := f.handler
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("a failing dependency degrades the report", func(t *testing.T) {
		f := newFixture(t, "")

		handler := NewRouter(Deps{
			Tokens:  f.tokens,
			Auth:    NewAuthHandler(f.provider, nil),
			Profile: NewProfileHandler(f.profiles, mustCache(t, f.profiles)),
			Rooms:   NewRoomsHandler(mustManager(t), nil),
			Records: NewRecordsHandler(f.store, mustCache(t, f.profiles), room.NewInMemoryMembershipStore(), nil, nil),
			Health: map[string]Healther{
				"postgres": healthCheck{},
				"redis":    healthCheck{err: errors.New("connection refused")},
			},
		})

		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		testutil.AssertJSONContains(t, rr, "status", "degraded")
		testutil.AssertJSONContains(t, rr, "postgres", "ok")
	})
}

func mustCache(t *testing.T, profiles identity.ProfileStore) *names.Cache {
	t.Helper()
	cache, err := names.NewCache(profiles)
	require.NoError(t, err)
	return cache
}

func mustManager(t *testing.T) *room.Manager {
	t.Helper()
	manager, err := room.NewManager(
		RequestIdentities(),
		room.NewInMemoryRoomStore(),
		room.NewInMemoryMembershipStore(),
		prefs.NewMemoryStore(),
	)
	require.NoError(t, err)
	return manager
}

func TestRouter_AdminAuditListing(t *testing.T) {
	t.Run("requires the admin token", func(t *testing.T) {
		f := newFixture(t, "operator-secret")

		rr := testutil.DoRequest(f.handler, testutil.NewRequest(t, http.MethodGet, "/rooms/sunny/audit"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		req := testutil.NewRequest(t, http.MethodGet, "/rooms/sunny/audit")
		req.Header.Set("X-Admin-Token", "wrong")
		rr = testutil.DoRequest(f.handler, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("lists the room's events", func(t *testing.T) {
		f := newFixture(t, "operator-secret")
		token, _ := f.token(t, "pat@example.com")
		rr := f.do(t, http.MethodPost, "/rooms/join", map[string]string{"code": "sunny"}, token)
		require.Equal(t, http.StatusNoContent, rr.Code)

		req := testutil.NewRequest(t, http.MethodGet, "/rooms/sunny/audit")
		req.Header.Set("X-Admin-Token", "operator-secret")
		rr = testutil.DoRequest(f.handler, req)
		testutil.AssertStatusOK(t, rr)

		type listResponse struct {
			Events []audit.Event `json:"events"`
		}
		list := testutil.UnmarshalResponse[listResponse](t, rr)
		require.NotEmpty(t, list.Events)
		assert.Equal(t, audit.ActionMemberJoined, list.Events[len(list.Events)-1].Action)
	})

	t.Run("route is absent without a configured token", func(t *testing.T) {
		f := newFixture(t, "")
		req := testutil.NewRequest(t, http.MethodGet, "/rooms/sunny/audit")
		req.Header.Set("X-Admin-Token", "anything")
		rr := testutil.DoRequest(f.handler, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}
