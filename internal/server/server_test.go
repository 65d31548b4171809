package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nyzss/matchmaker-ai/internal/config"
	"github.com/nyzss/matchmaker-ai/internal/db"
	"github.com/nyzss/matchmaker-ai/internal/notify"
	"github.com/nyzss/matchmaker-ai/internal/pipeline"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeStore struct {
	jobs         []db.Job
	applications []db.Application
	listJobsErr  error
}

func (s *fakeStore) ListJobs(context.Context) ([]db.Job, error) {
	return s.jobs, s.listJobsErr
}

func (s *fakeStore) CreateJob(_ context.Context, title, description, company string) (*db.Job, error) {
	job := db.Job{ID: uuid.New(), Title: title, Description: description, Company: company}
	s.jobs = append(s.jobs, job)
	return &job, nil
}

func (s *fakeStore) ListApplications(context.Context) ([]db.Application, error) {
	return s.applications, nil
}

func (s *fakeStore) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	for i := range s.applications {
		if s.applications[i].ID == id {
			return &s.applications[i], nil
		}
	}
	return nil, nil
}

type fakeUserStore struct {
	users    map[string]*db.User
	sessions map[string]uuid.UUID
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:    make(map[string]*db.User),
		sessions: make(map[string]uuid.UUID),
	}
}

func (s *fakeUserStore) CreateUser(_ context.Context, name, email, passwordHash string) (*db.User, error) {
	u := &db.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: passwordHash}
	s.users[email] = u
	return u, nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	return s.users[email], nil
}

func (s *fakeUserStore) CreateSession(_ context.Context, userID uuid.UUID, token string, _ time.Time) (*db.Session, error) {
	s.sessions[token] = userID
	return &db.Session{ID: uuid.New(), UserID: userID, Token: token}, nil
}

func (s *fakeUserStore) DeleteSession(_ context.Context, token string) error {
	delete(s.sessions, token)
	return nil
}

type fakeIngester struct {
	actionIDs []string
	texts     []string
	err       error
}

func (f *fakeIngester) IngestFeedback(_ context.Context, actionID, feedbackText string) error {
	if f.err != nil {
		return f.err
	}
	f.actionIDs = append(f.actionIDs, actionID)
	f.texts = append(f.texts, feedbackText)
	return nil
}

// -----------------------------------------------------------------------------
// Harness
// -----------------------------------------------------------------------------

type testServer struct {
	srv      *Server
	store    *fakeStore
	users    *fakeUserStore
	ingester *fakeIngester
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := &fakeStore{}
	users := newFakeUserStore()
	ingester := &fakeIngester{}

	cfg := &config.Config{Port: 0, JWTSecret: "test-secret", JWTExpirationHours: 1}
	srv, err := New(cfg, store, users, ingester, zap.NewNop())
	require.NoError(t, err)

	return &testServer{srv: srv, store: store, users: users, ingester: ingester}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.srv.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()

	rec := ts.request(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name: "Recruiter", Email: "recruiter@example.com", Password: "long-enough-password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestJobsRequireAuth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/api/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndListJobs(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rec := ts.request(t, http.MethodPost, "/api/jobs", token, CreateJobRequest{
		Title: "Customer Support Specialist", Description: "Help patients book appointments.", Company: "Doctolib",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.request(t, http.MethodGet, "/api/jobs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []db.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "Doctolib", resp.Jobs[0].Company)
}

func TestCreateJob_Validation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)

	rec := ts.request(t, http.MethodPost, "/api/jobs", token, CreateJobRequest{Title: "No description"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApplications_StatusFilter(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	ts.store.applications = []db.Application{
		{ID: uuid.New(), Status: db.StatusReviewing},
		{ID: uuid.New(), Status: db.StatusResolved},
		{ID: uuid.New(), Status: db.StatusReviewing},
	}

	rec := ts.request(t, http.MethodGet, "/api/applications?status=reviewing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Applications []db.Application `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Applications, 2)

	rec = ts.request(t, http.MethodGet, "/api/applications?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetApplication(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	app := db.Application{ID: uuid.New(), Status: db.StatusReviewing, MatchScore: 77}
	ts.store.applications = []db.Application{app}

	rec := ts.request(t, http.MethodGet, "/api/applications/"+app.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got db.Application
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 77, got.MatchScore)

	rec = ts.request(t, http.MethodGet, "/api/applications/"+uuid.New().String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedbackEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t)
	id := uuid.New().String()

	rec := ts.request(t, http.MethodPost, "/api/applications/"+id+"/feedback", token,
		FeedbackRequest{Feedback: "Great phone manner"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{id}, ts.ingester.actionIDs)
	assert.Equal(t, []string{"Great phone manner"}, ts.ingester.texts)
}

func TestFeedbackEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"already resolved", pipeline.ErrNotEligible, http.StatusConflict},
		{"empty feedback", pipeline.ErrEmptyFeedback, http.StatusBadRequest},
		{"storage failure", fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			token := ts.login(t)
			ts.ingester.err = tt.err

			rec := ts.request(t, http.MethodPost, "/api/applications/"+uuid.New().String()+"/feedback",
				token, FeedbackRequest{Feedback: "text"})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func slackInteractionBody(t *testing.T, applicationID, feedback string) *strings.Reader {
	t.Helper()

	payload := fmt.Sprintf(`{
		"type": "block_actions",
		"actions": [
			{"block_id": "feedback_actions", "action_id": %q, "value": %q}
		],
		"state": {
			"values": {
				%q: {%q: {"value": %q}}
			}
		}
	}`, notify.FeedbackSubmitAction, applicationID,
		notify.FeedbackInputBlockID, notify.FeedbackInputAction, feedback)

	form := url.Values{"payload": {payload}}
	return strings.NewReader(form.Encode())
}

func TestSlackInteraction(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New().String()

	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions",
		slackInteractionBody(t, id, "Schedule an interview"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{id}, ts.ingester.actionIDs)
	assert.Equal(t, []string{"Schedule an interview"}, ts.ingester.texts)
}

func TestSlackInteraction_IneligibleStillAcknowledged(t *testing.T) {
	ts := newTestServer(t)
	ts.ingester.err = pipeline.ErrNotEligible

	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions",
		slackInteractionBody(t, uuid.New().String(), "late"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlackInteraction_IgnoresUnrelatedPayloads(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{"payload": {`{"type": "view_submission"}`}}
	req := httptest.NewRequest(http.MethodPost, "/api/slack/interactions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ts.srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ts.ingester.actionIDs)
}
