package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cfranzen/jobmate/internal/middleware"
	"github.com/cfranzen/jobmate/internal/workflows"
	"github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/response"
)

// WorkflowHandler exposes manual workflow triggers.
type WorkflowHandler struct {
	orchestrator *workflows.Orchestrator
}

// NewWorkflowHandler constructs a workflow handler around the shared orchestrator.
func NewWorkflowHandler(orchestrator *workflows.Orchestrator) (*WorkflowHandler, error) {
	if orchestrator == nil {
		return nil, stderrors.New("workflow handler: orchestrator is required")
	}
	return &WorkflowHandler{orchestrator: orchestrator}, nil
}

type executeWorkflowRequest struct {
	Template string `json:"template" binding:"required,workflow_template"`
	SourceID string `json:"source_id" binding:"required,max=64"`
}

type executeWorkflowResponse struct {
	Template        string                    `json:"template"`
	SourceID        string                    `json:"source_id"`
	Success         bool                      `json:"success"`
	CreatedEntities []workflows.CreatedEntity `json:"created_entities"`
	Error           string                    `json:"error,omitempty"`
}

// Templates lists the available workflow templates.
func (h *WorkflowHandler) Templates(c *gin.Context) {
	response.Success(c, http.StatusOK, workflows.TemplateNames())
}

// Execute runs a workflow template against a source entity. Partial results
// are returned even on failure so the caller can finish or discard them.
func (h *WorkflowHandler) Execute(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req executeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.NewBadRequest("a known template and a source_id are required"))
		return
	}

	result := h.orchestrator.Execute(c.Request.Context(), req.Template, req.SourceID)

	body := executeWorkflowResponse{
		Template:        result.Template,
		SourceID:        result.SourceID,
		Success:         result.Success,
		CreatedEntities: result.CreatedEntities,
		Error:           result.ErrorMessage(),
	}

	if !result.Success {
		appErr := errors.FromError(result.Err)
		status := appErr.StatusCode
		if status == 0 || status == http.StatusInternalServerError {
			status = errors.ErrWorkflowFailed.StatusCode
		}
		c.JSON(status, response.Response{Success: false, Data: body, Error: &response.ErrorInfo{
			Code:    errors.ErrWorkflowFailed.Code,
			Message: result.ErrorMessage(),
		}})
		return
	}

	response.Success(c, http.StatusOK, body)
}
