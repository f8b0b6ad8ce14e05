package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/automation"
	"github.com/cfranzen/jobmate/internal/handlers"
	"github.com/cfranzen/jobmate/internal/middleware"
	"github.com/cfranzen/jobmate/internal/services"
	"github.com/cfranzen/jobmate/internal/workflows"
)

// Deps bundles the long-lived collaborators the router mounts.
type Deps struct {
	DB           *gorm.DB
	Scheduler    *automation.Scheduler
	Orchestrator *workflows.Orchestrator
	Delivery     services.Delivery
	Metrics      bool
}

// NewRouter builds the Gin engine and registers all routes.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, errors.New("router: database handle must be provided")
	}
	if deps.Scheduler == nil {
		return nil, errors.New("router: scheduler must be provided")
	}
	if deps.Orchestrator == nil {
		return nil, errors.New("router: orchestrator must be provided")
	}

	registerValidations()

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/healthz", handlers.Health(deps.DB))
	if deps.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	notificationHandler, err := handlers.NewNotificationHandler(deps.DB, deps.Delivery)
	if err != nil {
		return nil, err
	}
	settingsHandler, err := handlers.NewSettingsHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	automationHandler, err := handlers.NewAutomationHandler(deps.Scheduler)
	if err != nil {
		return nil, err
	}
	workflowHandler, err := handlers.NewWorkflowHandler(deps.Orchestrator)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Identity())

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/:id/unread", notificationHandler.MarkUnread)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
		notifications.DELETE("/:id", notificationHandler.Delete)
	}

	settings := api.Group("/settings")
	{
		settings.GET("/automation", settingsHandler.Get)
		settings.PUT("/automation", settingsHandler.Update)
	}

	api.POST("/automation/run", automationHandler.Run)

	wf := api.Group("/workflows")
	{
		wf.GET("/templates", workflowHandler.Templates)
		wf.POST("/execute", workflowHandler.Execute)
	}

	return r, nil
}

// registerValidations adds the custom binding validators used by request
// payloads. Registration is idempotent.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("workflow_template", func(fl validator.FieldLevel) bool {
			return workflows.KnownTemplate(fl.Field().String())
		})
	}
}
