package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"snapbooth/site/internal/domain"
	"snapbooth/site/internal/service"
	"snapbooth/site/internal/session"
	"snapbooth/site/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// wizardSessionKey is where the wizard state lives in the session store.
const wizardSessionKey = "wizard"

// wizardSendLockKey guards a send in progress; the TTL outlives any lead submission.
const (
	wizardSendLockKey = "wizard-send"
	wizardSendLockTTL = time.Minute
)

// WizardHandler drives the lead wizard. State is kept per session between requests.
type WizardHandler struct {
	sessions    session.Store
	leadService service.LeadService
}

func NewWizardHandler(sessions session.Store, leadService service.LeadService) *WizardHandler {
	return &WizardHandler{sessions: sessions, leadService: leadService}
}

// WizardView is what the frontend renders: the current step, or the review list once every step is done.
type WizardView struct {
	Questions []wizard.Question `json:"questions"`
	Current   *wizard.Question  `json:"current,omitempty"`
	Index     int               `json:"index"`
	Review    bool              `json:"review"`
	Answers   map[string]string `json:"answers"`
	Pending   bool              `json:"pending"`
	Sent      bool              `json:"sent"`
	LastError string            `json:"lastError,omitempty"`
}

type answerRequest struct {
	Value string `json:"value"`
}

type dateRequest struct {
	Date string `json:"date" binding:"required"`
}

func newWizardView(w *wizard.Wizard) WizardView {
	v := WizardView{
		Questions: w.Questions,
		Index:     -1,
		Review:    w.InReview(),
		Answers:   w.Answers(),
		Pending:   w.Pending,
		Sent:      w.Sent,
		LastError: w.LastError,
	}
	if q, i, ok := w.Current(); ok {
		v.Current = &q
		v.Index = i
	}
	return v
}

// Get handles GET /api/wizard.
func (h *WizardHandler) Get(c *gin.Context) {
	w, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newWizardView(w))
}

// Answer handles POST /api/wizard/answer.
func (h *WizardHandler) Answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	h.step(c, func(w *wizard.Wizard) error { return w.SubmitLine(req.Value) })
}

// Date handles POST /api/wizard/date.
func (h *WizardHandler) Date(c *gin.Context) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	t, err := time.Parse(wizard.DateLayout, req.Date)
	if err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid date", "expected YYYY-MM-DD")
		return
	}
	h.step(c, func(w *wizard.Wizard) error { return w.SubmitDate(t) })
}

// Reset handles POST /api/wizard/reset.
func (h *WizardHandler) Reset(c *gin.Context) {
	h.step(c, func(w *wizard.Wizard) error {
		w.Reset()
		return nil
	})
}

// Send handles POST /api/wizard/send.
func (h *WizardHandler) Send(c *gin.Context) {
	sid := getSessionID(c)
	claimed, err := h.sessions.Claim(c.Request.Context(), sid, wizardSendLockKey, wizardSendLockTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to claim wizard send")
		abortWithError(c, http.StatusInternalServerError, "Failed to load progress")
		return
	}
	if !claimed {
		abortWithError(c, http.StatusConflict, wizard.ErrSendPending.Error())
		return
	}
	defer func() {
		if err := h.sessions.Delete(context.WithoutCancel(c.Request.Context()), sid, wizardSendLockKey); err != nil {
			log.Error().Err(err).Msg("failed to release wizard send")
		}
	}()

	// Loaded under the claim, so Sent and Pending are current.
	w, ok := h.load(c)
	if !ok {
		return
	}
	attr := attributionFromContext(c)

	err = w.Send(c.Request.Context(), func(ctx context.Context, answers map[string]string) error {
		// Persist the pending flag so readers of the state see the send in flight.
		if err := h.sessions.Save(ctx, sid, wizardSessionKey, w); err != nil {
			return err
		}
		in := service.LeadInputFromFields(answers)
		in.Source = string(domain.SourceWizard)
		in.Attribution = attr
		_, err := h.leadService.Submit(context.WithoutCancel(ctx), in)
		return err
	})
	if saveErr := h.sessions.Save(c.Request.Context(), sid, wizardSessionKey, w); saveErr != nil {
		log.Error().Err(saveErr).Msg("failed to save wizard state")
	}

	if err != nil {
		var verrs service.ValidationErrors
		switch {
		case isWizardConflict(err):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "wizard": newWizardView(w)})
		case errors.As(err, &verrs):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verrs, "wizard": newWizardView(w)})
		default:
			log.Error().Err(err).Msg("wizard send failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": w.LastError, "wizard": newWizardView(w)})
		}
		return
	}
	c.JSON(http.StatusOK, newWizardView(w))
}

// step loads the wizard, applies fn and saves the result. On error nothing is saved.
func (h *WizardHandler) step(c *gin.Context, fn func(w *wizard.Wizard) error) {
	w, ok := h.load(c)
	if !ok {
		return
	}
	if err := fn(w); err != nil {
		code := http.StatusBadRequest
		if isWizardConflict(err) {
			code = http.StatusConflict
		}
		c.AbortWithStatusJSON(code, gin.H{"error": err.Error(), "wizard": newWizardView(w)})
		return
	}
	if err := h.sessions.Save(c.Request.Context(), getSessionID(c), wizardSessionKey, w); err != nil {
		log.Error().Err(err).Msg("failed to save wizard state")
		abortWithError(c, http.StatusInternalServerError, "Failed to save progress")
		return
	}
	c.JSON(http.StatusOK, newWizardView(w))
}

func (h *WizardHandler) load(c *gin.Context) (*wizard.Wizard, bool) {
	w := wizard.New()
	found, err := h.sessions.Load(c.Request.Context(), getSessionID(c), wizardSessionKey, w)
	if err != nil {
		log.Error().Err(err).Msg("failed to load wizard state")
		abortWithError(c, http.StatusInternalServerError, "Failed to load progress")
		return nil, false
	}
	if !found || len(w.Questions) == 0 {
		w = wizard.New()
	}
	return w, true
}

func isWizardConflict(err error) bool {
	return errors.Is(err, wizard.ErrInReview) || errors.Is(err, wizard.ErrNotInReview) ||
		errors.Is(err, wizard.ErrAlreadySent) || errors.Is(err, wizard.ErrSendPending)
}
