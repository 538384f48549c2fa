//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/tandemly/srscore/internal/adapter/postgres"
	"github.com/tandemly/srscore/internal/adapter/postgres/card"
	"github.com/tandemly/srscore/internal/adapter/postgres/cardstate"
	"github.com/tandemly/srscore/internal/adapter/postgres/dailycount"
	"github.com/tandemly/srscore/internal/adapter/postgres/eventlog"
	relationshiprepo "github.com/tandemly/srscore/internal/adapter/postgres/relationship"
	sessionrepo "github.com/tandemly/srscore/internal/adapter/postgres/session"
	"github.com/tandemly/srscore/internal/adapter/postgres/testhelper"
	userrepo "github.com/tandemly/srscore/internal/adapter/postgres/user"
	"github.com/tandemly/srscore/internal/changefeed"
	"github.com/tandemly/srscore/internal/identity"
	"github.com/tandemly/srscore/internal/projector"
	"github.com/tandemly/srscore/internal/relationship"
	"github.com/tandemly/srscore/internal/selector"
	sessionsvc "github.com/tandemly/srscore/internal/service/session"
	usersvc "github.com/tandemly/srscore/internal/service/user"
	"github.com/tandemly/srscore/internal/study"
	"github.com/tandemly/srscore/internal/transport/middleware"
	"github.com/tandemly/srscore/internal/transport/rest"
)

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// testServer wraps the full-stack HTTP server for E2E tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper), wiring every repo/service/
// handler by hand the way app.Run does, minus config loading and the
// network listener.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	eventsRepo := eventlog.New(pool)
	cardsRepo := card.New(pool)
	cardStateRepo := cardstate.New(pool)
	dailyCountsRepo := dailycount.New(pool)
	relationshipsRepo := relationshiprepo.New(pool)
	sessionsRepo := sessionrepo.New(pool)
	usersRepo := userrepo.New(pool)

	proj := projector.New(eventsRepo, cardStateRepo)
	sel := selector.New(cardsRepo, usersRepo, dailyCountsRepo)

	relSvc := relationship.NewService(logger, relationshipsRepo, relationshipsRepo, usersRepo, txm, 7*24*time.Hour)
	studySvc := study.NewService(logger, eventsRepo, cardsRepo, proj, usersRepo, dailyCountsRepo)
	sessionSvc := sessionsvc.NewService(logger, sessionsRepo, usersRepo, time.Hour)
	userSvc := usersvc.NewService(logger, usersRepo, usersRepo, txm)
	feedSvc := changefeed.NewService(logger, eventsRepo)
	identitySvc := identity.NewService(logger, usersRepo, usersRepo, txm, relSvc, sessionSvc)

	healthHandler := rest.NewHealthHandler(pool, "test-version")
	studyHandler := rest.NewStudyHandler(sel, proj, usersRepo, studySvc, logger)
	reviewsHandler := rest.NewReviewsHandler(studySvc, feedSvc, logger)
	cardsHandler := rest.NewCardsHandler(sel, logger)
	relationshipsHandler := rest.NewRelationshipsHandler(relSvc, logger)
	userHandler := rest.NewUserHandler(userSvc, logger)
	identityHandler := rest.NewIdentityHandler(identitySvc, logger)
	adminHandler := rest.NewAdminHandler(proj, usersRepo, cardsRepo, logger)

	authed := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Auth(sessionSvc),
	)
	public := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /live", healthHandler.Live)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.Handle("POST /auth/sign-in", public(http.HandlerFunc(identityHandler.SignIn)))

	mux.Handle("GET /study/next-card", authed(http.HandlerFunc(studyHandler.NextCard)))
	mux.Handle("POST /study/review", authed(http.HandlerFunc(studyHandler.SubmitReview)))

	mux.Handle("POST /reviews", authed(http.HandlerFunc(reviewsHandler.UploadBatch)))
	mux.Handle("GET /reviews", authed(http.HandlerFunc(reviewsHandler.ChangeFeed)))
	mux.Handle("GET /cards/{id}/events", authed(http.HandlerFunc(reviewsHandler.CardEvents)))
	mux.Handle("GET /cards/queue-counts", authed(http.HandlerFunc(cardsHandler.QueueCounts)))

	mux.Handle("POST /relationships", authed(http.HandlerFunc(relationshipsHandler.Request)))
	mux.Handle("POST /relationships/{id}/accept", authed(http.HandlerFunc(relationshipsHandler.Accept)))
	mux.Handle("DELETE /relationships/{id}", authed(http.HandlerFunc(relationshipsHandler.Remove)))
	mux.Handle("DELETE /invitations/{id}", authed(http.HandlerFunc(relationshipsHandler.CancelInvitation)))
	mux.Handle("GET /relationships", authed(http.HandlerFunc(relationshipsHandler.List)))

	mux.Handle("GET /me", authed(http.HandlerFunc(userHandler.GetProfile)))
	mux.Handle("PATCH /me", authed(http.HandlerFunc(userHandler.UpdateProfile)))
	mux.Handle("GET /me/settings", authed(http.HandlerFunc(userHandler.GetSettings)))
	mux.Handle("PATCH /me/settings", authed(http.HandlerFunc(userHandler.UpdateSettings)))

	mux.Handle("POST /admin/cards/{id}/reproject", authed(http.HandlerFunc(adminHandler.Reproject)))

	srv := httptest.NewServer(mux)
	t.Cleanup(func() { srv.Close() })

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
	}
}

// ---------------------------------------------------------------------------
// JSON request helper.
// ---------------------------------------------------------------------------

// doJSON sends method/path with an optional JSON body and bearer token, and
// decodes the response body into a map for assertion by callers.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	if resp.ContentLength != 0 {
		_ = json.NewDecoder(resp.Body).Decode(&result)
	}
	return resp.StatusCode, result
}

// ---------------------------------------------------------------------------
// signUpAndGetToken signs a fresh email in through POST /auth/sign-in —
// this module's one sign-up/sign-in seam — and returns the new user's id
// and opaque session token.
// ---------------------------------------------------------------------------

func signUpAndGetToken(t *testing.T, ts *testServer, email, name string) (uuid.UUID, string) {
	t.Helper()

	status, result := ts.doJSON(t, http.MethodPost, "/auth/sign-in", "", map[string]string{
		"email": email,
		"name":  name,
	})
	require.Equal(t, http.StatusCreated, status, "expected new user sign-in to return 201: %v", result)

	userIDStr, ok := result["user_id"].(string)
	require.True(t, ok, "expected user_id in sign-in response: %v", result)
	token, ok := result["token"].(string)
	require.True(t, ok, "expected token in sign-in response: %v", result)

	userID, err := uuid.Parse(userIDStr)
	require.NoError(t, err)

	return userID, token
}

// newTestEmail generates a unique email so parallel tests never collide on
// the users.email uniqueness constraint.
func newTestEmail() string {
	return fmt.Sprintf("e2e-%s@example.com", uuid.NewString())
}

// ctxTimeout is a short convenience context for direct-pool setup calls.
func ctxTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
