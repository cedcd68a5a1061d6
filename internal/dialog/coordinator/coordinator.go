// Package coordinator runs one chat exchange: it loads the session, asks the
// scenario engine for the transition, applies it and renders the reply.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/common/logger"
	"lead-consultant/internal/common/metrics"
	"lead-consultant/internal/dialog/scenario"
	"lead-consultant/internal/dialog/session"
	"lead-consultant/internal/models"
)

// Notifier delivers a completed application. It reports whether any channel
// accepted it and never returns an error.
type Notifier interface {
	Send(ctx context.Context, app models.Application, sessionID string) bool
}

// Response is what the chat widget renders.
type Response struct {
	Message   string      `json:"message"`
	Options   []string    `json:"options"`
	SessionID string      `json:"session_id"`
	Step      models.Step `json:"step"`
	Completed bool        `json:"completed"`
}

type Coordinator struct {
	store    session.Store
	engine   *scenario.Engine
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

func New(store session.Store, engine *scenario.Engine, notifier Notifier, log logger.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		engine:   engine,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "coordinator"}),
		now:      time.Now,
	}
}

// ProcessMessage handles one user message. An empty or unknown session id
// starts a new session, as does a session that is already completed; the
// caller must continue with the returned session id.
func (c *Coordinator) ProcessMessage(ctx context.Context, sessionID, text string) (*Response, error) {
	start := c.now()

	sess, err := c.resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	log := c.logger.WithFields(map[string]interface{}{
		"sessionId": sess.ID,
		"step":      sess.Step.String(),
	})

	next, upd := c.engine.Next(sess.Step, text, scenario.State{Category: sess.Category})

	defer func() {
		metrics.DialogMessageDuration.WithLabelValues(next.String()).Observe(c.now().Sub(start).Seconds())
	}()

	if upd.Kind == scenario.UpdateError {
		metrics.DialogRejectionsTotal.WithLabelValues(sess.Step.String(), string(upd.Err.Code)).Inc()
		if next == models.StepError {
			return c.restart(ctx, sess, upd.Err, log)
		}
		log.Debug("input rejected", map[string]interface{}{
			"code":   string(upd.Err.Code),
			"reason": upd.Err.Message,
		})
		return &Response{
			Message:   rejectionMessage(upd.Err, scenario.Message(sess.Step, sess.Application)),
			Options:   scenario.Options(sess.Step),
			SessionID: sess.ID,
			Step:      sess.Step,
			Completed: sess.Completed,
		}, nil
	}

	prev := sess.Step
	if err := apply(sess, next, upd); err != nil {
		log.Error("failed to apply transition", map[string]interface{}{"error": err})
		return nil, apperrors.NewInternalError(err)
	}
	if err := c.store.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", sess.ID, err)
	}
	metrics.DialogMessagesTotal.WithLabelValues(next.String()).Inc()

	if next == models.StepCompleted {
		c.dispatch(ctx, sess, log)
	}

	message := scenario.Message(next, sess.Application)
	if prev == models.StepWelcome {
		message = scenario.WelcomeGreeting + "\n\n" + message
	}

	return &Response{
		Message:   message,
		Options:   scenario.Options(next),
		SessionID: sess.ID,
		Step:      next,
		Completed: sess.Completed,
	}, nil
}

// Reset deletes the session and returns the id of a fresh one.
func (c *Coordinator) Reset(ctx context.Context, sessionID string) (string, error) {
	if err := c.store.Delete(ctx, sessionID); err != nil {
		return "", fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	sess, err := c.create(ctx)
	if err != nil {
		return "", err
	}
	c.logger.Info("session reset", map[string]interface{}{
		"previousSessionId": sessionID,
		"sessionId":         sess.ID,
	})
	return sess.ID, nil
}

// State returns a snapshot of the session or a SESSION_NOT_FOUND error.
func (c *Coordinator) State(ctx context.Context, sessionID string) (*models.Session, error) {
	return c.store.Get(ctx, sessionID)
}

// QuickStart opens a new session and replays the answers a user would give
// to reach the first question of the category's questionnaire.
func (c *Coordinator) QuickStart(ctx context.Context, token string) (*Response, error) {
	category, ok := models.ParseCategory(token)
	if !ok {
		return nil, apperrors.NewInvalidCategoryError(token)
	}

	inputs := map[models.Category][]string{
		models.CategoryIndividual: {"Займ", "Физическое лицо"},
		models.CategoryBusiness:   {"Займ", "Бизнес"},
		models.CategoryInvestor:   {"Инвестировать"},
	}[category]

	resp, err := c.ProcessMessage(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if resp, err = c.ProcessMessage(ctx, resp.SessionID, in); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *Coordinator) resolve(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return c.create(ctx)
	}

	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return c.create(ctx)
		}
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if sess.Completed {
		if err := c.store.Delete(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("delete completed session %s: %w", sess.ID, err)
		}
		return c.create(ctx)
	}
	return sess, nil
}

func (c *Coordinator) create(ctx context.Context) (*models.Session, error) {
	sess, err := c.store.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.DialogSessionsCreated.Inc()
	metrics.DialogSessionsActive.Set(float64(c.store.Len()))
	return sess, nil
}

// restart replaces a session that reached the error step. The user gets the
// reason and the loan-or-invest question of the new session.
func (c *Coordinator) restart(ctx context.Context, sess *models.Session, cause *apperrors.StandardError, log logger.Logger) (*Response, error) {
	log.Warn("session reached error step, starting over", map[string]interface{}{
		"code":     string(cause.Code),
		"category": string(sess.Category),
	})

	if err := c.store.Delete(ctx, sess.ID); err != nil {
		return nil, fmt.Errorf("delete session %s: %w", sess.ID, err)
	}
	fresh, err := c.create(ctx)
	if err != nil {
		return nil, err
	}
	fresh.Step = models.StepAskLoanOrInvest
	if err := c.store.Update(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", fresh.ID, err)
	}

	return &Response{
		Message:   rejectionMessage(cause, scenario.Message(fresh.Step, nil)),
		Options:   scenario.Options(fresh.Step),
		SessionID: fresh.ID,
		Step:      fresh.Step,
	}, nil
}

// dispatch hands a copy of the application to the notifier. Delivery
// failures are logged and counted by the notifier; the user always sees the
// confirmation.
func (c *Coordinator) dispatch(ctx context.Context, sess *models.Session, log logger.Logger) {
	metrics.ApplicationsCompleted.WithLabelValues(string(sess.Category)).Inc()

	if c.notifier == nil {
		log.Warn("no notifier configured, application not delivered", nil)
		return
	}

	var app models.Application
	if sess.Application != nil {
		app = sess.Application.Clone()
	}
	if !c.notifier.Send(ctx, app, sess.ID) {
		log.Error("application completed but no channel delivered it", map[string]interface{}{
			"category": string(sess.Category),
		})
		return
	}
	log.Info("application completed and delivered", map[string]interface{}{
		"category": string(sess.Category),
	})
}

// apply writes the transition into the session.
func apply(sess *models.Session, next models.Step, upd scenario.Update) error {
	if upd.ServiceType != models.ServiceNone {
		sess.ServiceType = upd.ServiceType
	}
	if upd.Category != models.CategoryNone && sess.Category == models.CategoryNone {
		sess.Category = upd.Category
		sess.Application = models.NewApplication(upd.Category)
	}

	switch upd.Kind {
	case scenario.UpdateReset:
		if next == models.StepAskLoanOrInvest {
			sess.Category = models.CategoryNone
			sess.ServiceType = models.ServiceNone
		}
		sess.Application = models.NewApplication(sess.Category)

	case scenario.UpdateField:
		if sess.Application == nil {
			return fmt.Errorf("field %q collected before a category was chosen", upd.Field)
		}
		if err := sess.Application.Set(upd.Field, upd.Value); err != nil {
			return err
		}

	case scenario.UpdateComplete:
		sess.Completed = true
	}

	sess.Step = next
	return nil
}

func rejectionMessage(err *apperrors.StandardError, prompt string) string {
	return "❌ " + err.Message + "\n\n" + prompt
}
