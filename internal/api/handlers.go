package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"sambou/internal"
	"sambou/internal/errors"
	"sambou/internal/snippets"
	"sambou/internal/usage"
	"sambou/internal/workflow"
	"sambou/models"
	"sambou/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UsageReader exposes the LLM usage ledger
type UsageReader interface {
	GetUsageSummary(ctx context.Context, start, end time.Time) (*models.UsageSummary, error)
	GetSessionUsage(ctx context.Context, sessionID uuid.UUID) ([]*models.LLMUsage, error)
}

// Handler serves the workflow API
type Handler struct {
	registry       *Registry
	catalog        ports.DeadlineCatalog
	usage          UsageReader // optional
	snippetTimeout time.Duration
	logger         *internal.Logger

	background sync.WaitGroup
}

// NewHandler creates the workflow API handler
func NewHandler(registry *Registry, catalog ports.DeadlineCatalog, usageReader UsageReader, snippetTimeout time.Duration, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if snippetTimeout <= 0 {
		snippetTimeout = 60 * time.Second
	}
	return &Handler{
		registry:       registry,
		catalog:        catalog,
		usage:          usageReader,
		snippetTimeout: snippetTimeout,
		logger:         logger.With("component", "api"),
	}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type selectionRequest struct {
	Departments []models.DepartmentKey `json:"departments"`
}

type snippetRequest struct {
	UniversityName string `json:"universityName" binding:"required"`
	DepartmentName string `json:"departmentName" binding:"required"`
}

type departmentView struct {
	DepartmentName      string    `json:"departmentName"`
	ApplicationOpen     time.Time `json:"applicationOpen"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	Fallback            bool      `json:"fallback"`
}

// Health reports liveness
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.registry.Len()})
}

// CreateSession starts a new workflow and asks the first question
func (h *Handler) CreateSession(c *gin.Context) {
	ctrl := h.registry.Create()
	snap, err := ctrl.Start(sessionContext(c, ctrl.ID()))
	if err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info("session %s created", ctrl.ID())
	c.JSON(http.StatusCreated, snap)
}

// GetSession returns the workflow snapshot
func (h *Handler) GetSession(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// DeleteSession forgets a session
func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.registry.Delete(c.Param("id")) {
		writeError(c, errors.NotFound("session"))
		return
	}
	c.Status(http.StatusNoContent)
}

// SubmitAnswer runs one conversational turn
func (h *Handler) SubmitAnswer(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidInput("answer body must be JSON"))
		return
	}
	snap, err := ctrl.SubmitAnswer(sessionContext(c, ctrl.ID()), req.Answer)
	respond(c, snap, err)
}

// RetryEvaluation re-runs a failed evaluation
func (h *Handler) RetryEvaluation(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.RetryEvaluation(sessionContext(c, ctrl.ID()))
	respond(c, snap, err)
}

// ConfirmSelection records the tracked departments
func (h *Handler) ConfirmSelection(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidInput("selection body must be JSON"))
		return
	}
	snap, err := ctrl.ConfirmSelection(req.Departments)
	respond(c, snap, err)
}

// GetDeadlines returns the timeline for the selected departments
func (h *Handler) GetDeadlines(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	timeline, err := ctrl.Deadlines()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, timeline)
}

// RequestSnippets targets a department. By default the oracle call runs in the
// background and completion is pushed over SSE; wait=true blocks instead.
func (h *Handler) RequestSnippets(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req snippetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.InvalidInput("universityName and departmentName are required"))
		return
	}
	ticket, err := ctrl.BeginSnippets(models.DepartmentKey{UniversityName: req.UniversityName, DepartmentName: req.DepartmentName})
	if err != nil {
		writeError(c, err)
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		ctx, cancel := context.WithTimeout(sessionContext(c, ctrl.ID()), h.snippetTimeout)
		defer cancel()
		state, err := ctrl.ResolveSnippets(ctx, ticket)
		if err != nil {
			c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(err), "snippets": state})
			return
		}
		c.JSON(http.StatusOK, h.snippetView(c, state))
		return
	}

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		ctx, cancel := context.WithTimeout(usageContext(context.Background(), ctrl.ID()), h.snippetTimeout)
		defer cancel()
		if _, err := ctrl.ResolveSnippets(ctx, ticket); err != nil {
			h.logger.Warn("snippets for %s failed: %v", ticket.Target.Label(), err)
		}
	}()
	c.JSON(http.StatusAccepted, ctrl.Snippets())
}

// GetSnippets returns the current snippet state; format=html renders the advice
func (h *Handler) GetSnippets(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.snippetView(c, ctrl.Snippets()))
}

// Reset wipes the session and restarts the conversation
func (h *Handler) Reset(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	snap, err := ctrl.Reset(sessionContext(c, ctrl.ID()))
	respond(c, snap, err)
}

// ListDepartments returns the candidate departments with their windows
func (h *Handler) ListDepartments(c *gin.Context) {
	names := h.catalog.Departments()
	out := make([]departmentView, 0, len(names))
	for _, name := range names {
		w, fallback := h.catalog.Lookup(name)
		out = append(out, departmentView{
			DepartmentName:      name,
			ApplicationOpen:     w.ApplicationOpen,
			ApplicationDeadline: w.ApplicationDeadline,
			Fallback:            fallback,
		})
	}
	c.JSON(http.StatusOK, gin.H{"departments": out})
}

// GetUsageSummary aggregates oracle token usage; start and end are RFC3339 and
// default to the last 30 days
func (h *Handler) GetUsageSummary(c *gin.Context) {
	if h.usage == nil {
		writeError(c, errors.NotFound("usage ledger"))
		return
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	var err error
	if v := c.Query("start"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(c, errors.InvalidInput("start must be RFC3339"))
			return
		}
	}
	if v := c.Query("end"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(c, errors.InvalidInput("end must be RFC3339"))
			return
		}
	}
	summary, err := h.usage.GetUsageSummary(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetSessionUsage lists the usage records of one session
func (h *Handler) GetSessionUsage(c *gin.Context) {
	if h.usage == nil {
		writeError(c, errors.NotFound("usage ledger"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, errors.InvalidInput("invalid session id"))
		return
	}
	records, err := h.usage.GetSessionUsage(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Wait blocks until background snippet requests finish or ctx ends
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) controller(c *gin.Context) (*workflow.Controller, bool) {
	ctrl, ok := h.registry.Get(c.Param("id"))
	if !ok {
		writeError(c, errors.NotFound("session"))
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) snippetView(c *gin.Context, state snippets.State) snippets.State {
	if c.Query("format") == "html" && state.Result != nil {
		rendered := renderSnippets(*state.Result)
		state.Result = &rendered
	}
	return state
}

func sessionContext(c *gin.Context, id string) context.Context {
	return usageContext(c.Request.Context(), id)
}

func usageContext(ctx context.Context, id string) context.Context {
	if parsed, err := uuid.Parse(id); err == nil {
		return usage.WithSession(ctx, parsed)
	}
	return ctx
}

// respond writes the snapshot, or the error together with the snapshot the
// failure left behind
func respond(c *gin.Context, snap workflow.Snapshot, err error) {
	if err != nil {
		body := gin.H{"error": err.Error(), "code": errors.GetCode(err)}
		if snap.SessionID != "" {
			body["state"] = snap
		}
		c.JSON(errors.HTTPStatus(err), body)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func writeError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
