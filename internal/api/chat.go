package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/models"

	"github.com/go-chi/chi/v5"
)

const (
	actionRestart = "restart"
	maxBodyBytes  = 64 << 10
)

// ChatRequest is the body of POST /api/v1/chat. Every field is optional.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Action    string `json:"action"`
}

// StateResponse is the debug view of a session.
type StateResponse struct {
	SessionID     string                 `json:"session_id"`
	Step          models.Step            `json:"step"`
	UserType      models.Category        `json:"user_type"`
	ServiceType   models.ServiceType     `json:"service_type"`
	CollectedData map[string]interface{} `json:"collected_data"`
	Completed     bool                   `json:"completed"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Chat processes one message. With action "restart" and a session id the
// session is replaced first and an empty message is processed.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeChatRequest(w, r)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	if req.Action == actionRestart && req.SessionID != "" {
		newID, err := h.dialog.Reset(r.Context(), req.SessionID)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		req.SessionID = newID
		req.Message = ""
	}

	resp, err := h.dialog.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	sess, err := h.dialog.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, StateResponse{
		SessionID:     sess.ID,
		Step:          sess.Step,
		UserType:      sess.Category,
		ServiceType:   sess.ServiceType,
		CollectedData: sess.Fields(),
		Completed:     sess.Completed,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	newID, err := h.dialog.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"session_id": newID})
}

// QuickStart opens a dialog at the first question of ?option=<category>.
func (h *Handler) QuickStart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.dialog.QuickStart(r.Context(), r.URL.Query().Get("option"))
	if err != nil {
		h.Error(w, r, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		JSON(w, http.StatusOK, models.NotificationStats{})
		return
	}
	JSON(w, http.StatusOK, h.stats.Stats())
}

// decodeChatRequest validates the body against the schema before decoding.
// An empty body is an empty request.
func (h *Handler) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewInvalidRequestError("request body too large")
		}
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	var req ChatRequest
	if len(body) == 0 {
		return &req, nil
	}

	result, err := h.chatRequest.ValidateBytes(body)
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidRequestError(result.Summary())
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	return &req, nil
}
