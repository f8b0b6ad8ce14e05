package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cfranzen/jobmate/internal/automation"
	"github.com/cfranzen/jobmate/internal/middleware"
	"github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/metrics"
	"github.com/cfranzen/jobmate/pkg/response"
)

// AutomationHandler exposes the on-demand scheduler trigger.
type AutomationHandler struct {
	scheduler *automation.Scheduler
}

// NewAutomationHandler constructs an automation handler around the shared scheduler.
func NewAutomationHandler(scheduler *automation.Scheduler) (*AutomationHandler, error) {
	if scheduler == nil {
		return nil, stderrors.New("automation handler: scheduler is required")
	}
	return &AutomationHandler{scheduler: scheduler}, nil
}

// Run evaluates all enabled rules for the current user immediately. Safe to
// call while a timer run is in flight; the cooldown gate absorbs the overlap.
func (h *AutomationHandler) Run(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	stats, err := h.scheduler.RunForUser(c.Request.Context(), userID)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues("manual", "error").Inc()
		response.Error(c, err)
		return
	}

	metrics.SchedulerRuns.WithLabelValues("manual", "ok").Inc()
	response.Success(c, http.StatusOK, stats)
}
