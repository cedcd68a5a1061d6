package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/common/observability"
	"lead-consultant/internal/dialog/coordinator"
	"lead-consultant/internal/dialog/scenario"
	"lead-consultant/internal/dialog/session"
	"lead-consultant/internal/dialog/validators"
	"lead-consultant/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockDialog struct {
	mock.Mock
}

func (m *MockDialog) ProcessMessage(ctx context.Context, sessionID, text string) (*coordinator.Response, error) {
	args := m.Called(ctx, sessionID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.Response), args.Error(1)
}

func (m *MockDialog) Reset(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockDialog) State(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockDialog) QuickStart(ctx context.Context, category string) (*coordinator.Response, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.Response), args.Error(1)
}

type fakeStats struct {
	stats models.NotificationStats
}

func (f fakeStats) Stats() models.NotificationStats { return f.stats }

// ==========================
// Test Helper Functions
// ==========================

func newTestRouter(t *testing.T, dialog Dialog, stats NotificationStats) http.Handler {
	t.Helper()
	h, err := NewHandler(Config{
		ServiceName:      "BBKinvest AI Consultant",
		Version:          "1.0.0",
		MaxMessageLength: 50,
	}, dialog, stats, observability.NewNoop(), logger.NewTestLogger(t))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(CORS([]string{"*"}))
	h.RegisterRoutes(r)
	return r
}

func newRealDialog() *coordinator.Coordinator {
	store := session.NewMemoryStore(0)
	engine := scenario.NewEngine(validators.DefaultAmountRange())
	return coordinator.New(store, engine, nil, logger.NewNoOpLogger())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

// ==========================
// Chat
// ==========================

func TestChat_Conversation(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	w := do(t, router, http.MethodPost, "/api/v1/chat", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	var first coordinator.Response
	decode(t, w, &first)
	assert.Equal(t, models.StepAskLoanOrInvest, first.Step)
	assert.Contains(t, first.Message, "Здравствуйте")
	assert.Equal(t, []string{"Займ", "Инвестировать"}, first.Options)
	require.NotEmpty(t, first.SessionID)

	w = do(t, router, http.MethodPost, "/api/v1/chat", `{"session_id":"`+first.SessionID+`","message":"Займ"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var second coordinator.Response
	decode(t, w, &second)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, models.StepAskIndividualOrBusiness, second.Step)
	assert.False(t, second.Completed)
}

func TestChat_EmptyBodyAndNulls(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	for _, body := range []string{"", `{"session_id":null,"message":null,"action":null}`} {
		w := do(t, router, http.MethodPost, "/api/v1/chat", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"wrong type", `{"message": 42}`},
		{"message too long", `{"message":"` + strings.Repeat("a", 51) + `"}`},
		{"not an object", `["hello"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, "INVALID_REQUEST", body.Error.Code)
		})
	}
}

func TestChat_Restart(t *testing.T) {
	dialog := &MockDialog{}
	dialog.On("Reset", mock.Anything, "old").Return("new", nil).Once()
	dialog.On("ProcessMessage", mock.Anything, "new", "").Return(&coordinator.Response{
		SessionID: "new",
		Step:      models.StepAskLoanOrInvest,
		Options:   []string{},
	}, nil).Once()

	router := newTestRouter(t, dialog, nil)
	w := do(t, router, http.MethodPost, "/api/v1/chat", `{"session_id":"old","message":"ignored","action":"restart"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp coordinator.Response
	decode(t, w, &resp)
	assert.Equal(t, "new", resp.SessionID)
	dialog.AssertExpectations(t)
}

func TestChat_RestartWithoutSession(t *testing.T) {
	dialog := &MockDialog{}
	dialog.On("ProcessMessage", mock.Anything, "", "hi").Return(&coordinator.Response{SessionID: "s"}, nil).Once()

	router := newTestRouter(t, dialog, nil)
	w := do(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hi","action":"restart"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	dialog.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
}

func TestChat_InternalErrorHidesDetails(t *testing.T) {
	dialog := &MockDialog{}
	dialog.On("ProcessMessage", mock.Anything, "", "").Return(nil, errors.New("store exploded")).Once()

	router := newTestRouter(t, dialog, nil)
	w := do(t, router, http.MethodPost, "/api/v1/chat", `{}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "store exploded")

	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

// ==========================
// State, reset, quick start
// ==========================

func TestState(t *testing.T) {
	dialog := newRealDialog()
	router := newTestRouter(t, dialog, nil)

	resp, err := dialog.QuickStart(context.Background(), "investor")
	require.NoError(t, err)
	_, err = dialog.ProcessMessage(context.Background(), resp.SessionID, "Мария")
	require.NoError(t, err)

	w := do(t, router, http.MethodGet, "/api/v1/chat/state/"+resp.SessionID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var state StateResponse
	decode(t, w, &state)
	assert.Equal(t, resp.SessionID, state.SessionID)
	assert.Equal(t, models.StepInvestorAskAmount, state.Step)
	assert.Equal(t, models.CategoryInvestor, state.UserType)
	assert.Equal(t, models.ServiceInvest, state.ServiceType)
	assert.Equal(t, map[string]interface{}{"name": "Мария"}, state.CollectedData)
	assert.False(t, state.Completed)
}

func TestState_NotFound(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	w := do(t, router, http.MethodGet, "/api/v1/chat/state/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "SESSION_NOT_FOUND", body.Error.Code)
}

func TestReset(t *testing.T) {
	dialog := newRealDialog()
	router := newTestRouter(t, dialog, nil)

	first, err := dialog.ProcessMessage(context.Background(), "", "")
	require.NoError(t, err)

	w := do(t, router, http.MethodPost, "/api/v1/chat/reset/"+first.SessionID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decode(t, w, &body)
	assert.NotEmpty(t, body["session_id"])
	assert.NotEqual(t, first.SessionID, body["session_id"])

	w = do(t, router, http.MethodGet, "/api/v1/chat/state/"+first.SessionID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuickStart(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	tests := []struct {
		option   string
		wantCode int
		wantStep models.Step
	}{
		{"individual", http.StatusOK, models.StepIndividualAskName},
		{"business", http.StatusOK, models.StepBusinessAskCompanyName},
		{"investor", http.StatusOK, models.StepInvestorAskName},
		{"vip", http.StatusBadRequest, ""},
		{"", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run("option="+tt.option, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/chat/quick-start?option="+tt.option, "")
			require.Equal(t, tt.wantCode, w.Code)

			if tt.wantCode != http.StatusOK {
				var body errorBody
				decode(t, w, &body)
				assert.Equal(t, "INVALID_CATEGORY", body.Error.Code)
				return
			}
			var resp coordinator.Response
			decode(t, w, &resp)
			assert.Equal(t, tt.wantStep, resp.Step)
		})
	}
}

// ==========================
// Service endpoints
// ==========================

func TestNotificationStats(t *testing.T) {
	stats := models.NotificationStats{Total: 3, Success: 2, Failed: 1}
	router := newTestRouter(t, newRealDialog(), fakeStats{stats: stats})

	w := do(t, router, http.MethodGet, "/api/v1/notifications/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.NotificationStats
	decode(t, w, &got)
	assert.Equal(t, stats, got)
}

func TestNotificationStats_NoDispatcher(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	w := do(t, router, http.MethodGet, "/api/v1/notifications/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":0,"success":0,"failed":0}`, w.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	w := do(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var root map[string]interface{}
	decode(t, w, &root)
	assert.Equal(t, "ok", root["status"])
	assert.Equal(t, "1.0.0", root["version"])
	assert.Contains(t, root, "endpoints")

	w = do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)
	do(t, router, http.MethodPost, "/api/v1/chat", `{}`)

	w := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dialog_messages_total")
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"foo":"bar"}`, w.Body.String())
}

// ==========================
// CORS
// ==========================

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		origin          string
		wantOrigin      string
		wantCredentials string
	}{
		{"wildcard", []string{"*"}, "https://bbkinvest.ru", "https://bbkinvest.ru", ""},
		{"explicit", []string{"https://bbkinvest.ru"}, "https://bbkinvest.ru", "https://bbkinvest.ru", "true"},
		{"not allowed", []string{"https://bbkinvest.ru"}, "https://evil.example", "", ""},
		{"no origin header", []string{"*"}, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusTeapot, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := newTestRouter(t, newRealDialog(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "https://bbkinvest.ru")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://bbkinvest.ru", w.Header().Get("Access-Control-Allow-Origin"))
}
