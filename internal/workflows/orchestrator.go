package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/automation"
	"github.com/cfranzen/jobmate/internal/database"
	"github.com/cfranzen/jobmate/internal/models"
	"github.com/cfranzen/jobmate/internal/services"
	apperrors "github.com/cfranzen/jobmate/pkg/errors"
	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/metrics"
)

// invoiceInsertAttempts bounds retries when two executions race on the same
// invoice number.
const invoiceInsertAttempts = 3

type lineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Orchestrator executes the fixed workflow catalog. Each execution is a
// linear saga: steps run strictly in order, later steps consume ids produced
// by earlier ones, and already-executed steps are never retried or undone
// when a later step fails.
type Orchestrator struct {
	db            *gorm.DB
	notifications *services.NotificationService
	gate          *automation.Gate
	now           func() time.Time
	log           *zap.Logger

	progress   func(percent int)
	beforeStep func(template, step string) error // test hook
}

// Option customises the Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers an observer invoked with 0-100 as steps complete.
// An execution cannot be cancelled mid-flight; the observer is informational.
func WithProgress(fn func(percent int)) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithNow overrides the clock, primarily for tests.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator constructs an Orchestrator over the shared data-access layer.
func NewOrchestrator(db *gorm.DB, notifications *services.NotificationService, opts ...Option) (*Orchestrator, error) {
	if db == nil {
		return nil, errors.New("orchestrator: db is required")
	}
	if notifications == nil {
		return nil, errors.New("orchestrator: notification service is required")
	}

	gate, err := automation.NewGate(notifications)
	if err != nil {
		return nil, err
	}

	orchestrator := &Orchestrator{
		db:            db,
		notifications: notifications,
		gate:          gate,
		now:           time.Now,
		log:           logger.WithModule("workflows"),
	}

	for _, opt := range opts {
		opt(orchestrator)
	}

	return orchestrator, nil
}

// Execute runs the named template against the source entity. The returned
// Result always lists every entity created, even when the execution failed
// partway through.
func (o *Orchestrator) Execute(ctx context.Context, templateName, sourceID string) Result {
	result := Result{Template: templateName, SourceID: sourceID}

	if !KnownTemplate(templateName) {
		result.Err = apperrors.NewBadRequest(fmt.Sprintf("unknown workflow template %q", templateName))
		metrics.WorkflowExecutions.WithLabelValues(templateName, "failure").Inc()
		return result
	}
	if sourceID == "" {
		result.Err = apperrors.NewBadRequest("source entity id is required")
		metrics.WorkflowExecutions.WithLabelValues(templateName, "failure").Inc()
		return result
	}

	switch templateName {
	case TemplateQuoteToJob:
		result = o.runQuoteToJob(ctx, sourceID)
	case TemplateJobToInvoice:
		result = o.runJobToInvoice(ctx, sourceID)
	case TemplatePaymentToReceipt:
		result = o.runPaymentToReceipt(ctx, sourceID)
	case TemplateLeadToQuote:
		result = o.runLeadToQuote(ctx, sourceID)
	case TemplateJobCompleteFlow:
		result = o.runJobCompleteFlow(ctx, sourceID)
	}

	outcome := "success"
	if !result.Success {
		outcome = "failure"
		o.log.Warn("workflow failed",
			zap.String("template", templateName),
			zap.String("source_id", sourceID),
			zap.Int("created", len(result.CreatedEntities)),
			zap.Error(result.Err),
		)
	}
	metrics.WorkflowExecutions.WithLabelValues(templateName, outcome).Inc()
	if result.Success {
		o.report(templateName, len(templateSteps[templateName]))
	}

	return result
}

// runQuoteToJob converts an accepted quote into a confirmed job, back-links
// the quote, and drafts a contract. Only the job creation is mandatory: the
// quote update and contract draft are best effort and simply missing from
// the result when they fail.
func (o *Orchestrator) runQuoteToJob(ctx context.Context, quoteID string) Result {
	result := Result{Template: TemplateQuoteToJob, SourceID: quoteID}

	var quote models.Quote
	if err := o.db.WithContext(ctx).Where("id = ?", quoteID).First(&quote).Error; err != nil {
		result.Err = o.loadError("quote", quoteID, err)
		return result
	}

	// Step 1: create the job. This is the only hard step.
	job := models.Job{
		UserID:   quote.UserID,
		ClientID: quote.ClientID,
		QuoteID:  quote.ID,
		Title:    defaultString(quote.Title, "Converted quote"),
		Status:   models.JobStatusConfirmed,
		Revenue:  quote.Total,
	}
	if err := o.step(TemplateQuoteToJob, "create_job", func() error {
		return o.db.WithContext(ctx).Create(&job).Error
	}); err != nil {
		result.Err = fmt.Errorf("create job from quote %s: %w", quoteID, err)
		return result
	}
	result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{Type: "job", ID: job.ID})
	o.report(TemplateQuoteToJob, 1)

	// Step 2: back-link the quote. Soft failure.
	now := o.now().UTC()
	if err := o.step(TemplateQuoteToJob, "update_quote", func() error {
		return o.db.WithContext(ctx).Model(&models.Quote{}).
			Where("id = ?", quote.ID).
			Updates(map[string]any{
				"job_id":       job.ID,
				"status":       models.QuoteStatusConverted,
				"converted_at": now,
			}).Error
	}); err != nil {
		o.log.Warn("quote back-link failed", zap.String("quote_id", quote.ID), zap.Error(err))
	}
	o.report(TemplateQuoteToJob, 2)

	// Step 3: draft a contract for the new job. Soft failure.
	contract := models.Contract{
		UserID:   quote.UserID,
		ClientID: quote.ClientID,
		JobID:    job.ID,
		Title:    fmt.Sprintf("Contract for %s", job.Title),
		Status:   models.ContractStatusDraft,
	}
	if err := o.step(TemplateQuoteToJob, "create_contract", func() error {
		return o.db.WithContext(ctx).Create(&contract).Error
	}); err != nil {
		o.log.Warn("contract draft failed", zap.String("job_id", job.ID), zap.Error(err))
	} else {
		result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{Type: "contract", ID: contract.ID})
	}

	result.Success = true
	return result
}

// runJobToInvoice creates an invoice for a job with an atomically allocated
// invoice number. A number is only consumed when its allocation succeeds, and
// a lost insert race simply allocates the next one.
func (o *Orchestrator) runJobToInvoice(ctx context.Context, jobID string) Result {
	result := Result{Template: TemplateJobToInvoice, SourceID: jobID}

	var job models.Job
	if err := o.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		result.Err = o.loadError("job", jobID, err)
		return result
	}

	items, err := json.Marshal([]lineItem{{
		Description: job.Title,
		Quantity:    1,
		UnitPrice:   job.Revenue,
		Total:       job.Revenue,
	}})
	if err != nil {
		result.Err = fmt.Errorf("encode line items: %w", err)
		return result
	}

	now := o.now().UTC()
	dueAt := now.AddDate(0, 0, 14)

	var invoice models.Invoice
	for attempt := 0; attempt < invoiceInsertAttempts; attempt++ {
		var number string
		if err = o.step(TemplateJobToInvoice, "allocate_number", func() error {
			var allocErr error
			number, allocErr = database.NextInvoiceNumber(ctx, o.db, job.UserID)
			return allocErr
		}); err != nil {
			result.Err = fmt.Errorf("allocate invoice number: %w", err)
			return result
		}
		o.report(TemplateJobToInvoice, 1)

		invoice = models.Invoice{
			UserID:    job.UserID,
			ClientID:  job.ClientID,
			JobID:     job.ID,
			Number:    number,
			Status:    models.InvoiceStatusDraft,
			Total:     job.Revenue,
			LineItems: datatypes.JSON(items),
			IssuedAt:  &now,
			DueAt:     &dueAt,
		}
		err = o.step(TemplateJobToInvoice, "create_invoice", func() error {
			return o.db.WithContext(ctx).Create(&invoice).Error
		})
		if err == nil {
			break
		}
		if !services.IsUniqueConstraintError(err) {
			result.Err = fmt.Errorf("create invoice for job %s: %w", jobID, err)
			return result
		}
		// Another execution claimed the number first; try the next one.
	}
	if err != nil {
		result.Err = fmt.Errorf("create invoice for job %s: %w", jobID, err)
		return result
	}

	result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{Type: "invoice", ID: invoice.ID})
	result.Success = true
	return result
}

// runPaymentToReceipt marks a payment as paid. No entity is created; receipt
// document rendering is an external concern.
func (o *Orchestrator) runPaymentToReceipt(ctx context.Context, paymentID string) Result {
	result := Result{Template: TemplatePaymentToReceipt, SourceID: paymentID}

	var payment models.Payment
	if err := o.db.WithContext(ctx).Where("id = ?", paymentID).First(&payment).Error; err != nil {
		result.Err = o.loadError("payment", paymentID, err)
		return result
	}

	now := o.now().UTC()
	if err := o.step(TemplatePaymentToReceipt, "mark_paid", func() error {
		return o.db.WithContext(ctx).Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Updates(map[string]any{
				"status":  models.PaymentStatusPaid,
				"paid_at": now,
			}).Error
	}); err != nil {
		result.Err = fmt.Errorf("mark payment %s paid: %w", paymentID, err)
		return result
	}

	result.Success = true
	return result
}

// runLeadToQuote drafts an empty quote for a lead.
func (o *Orchestrator) runLeadToQuote(ctx context.Context, leadID string) Result {
	result := Result{Template: TemplateLeadToQuote, SourceID: leadID}

	var lead models.Lead
	if err := o.db.WithContext(ctx).Where("id = ?", leadID).First(&lead).Error; err != nil {
		result.Err = o.loadError("lead", leadID, err)
		return result
	}

	items, err := json.Marshal([]lineItem{{Description: "", Quantity: 1}})
	if err != nil {
		result.Err = fmt.Errorf("encode line items: %w", err)
		return result
	}

	quote := models.Quote{
		UserID:    lead.UserID,
		ClientID:  lead.ClientID,
		LeadID:    lead.ID,
		Title:     fmt.Sprintf("Quote for %s", lead.ClientName),
		Status:    models.QuoteStatusDraft,
		LineItems: datatypes.JSON(items),
	}
	if err := o.step(TemplateLeadToQuote, "create_quote", func() error {
		return o.db.WithContext(ctx).Create(&quote).Error
	}); err != nil {
		result.Err = fmt.Errorf("create quote for lead %s: %w", leadID, err)
		return result
	}

	result.CreatedEntities = append(result.CreatedEntities, CreatedEntity{Type: "quote", ID: quote.ID})
	result.Success = true
	return result
}

// runJobCompleteFlow invoices the job, then marks it completed, then emits a
// completion notification. Invoicing runs first so that a failed sub-workflow
// leaves the job status untouched; there is no compensation to run because
// nothing precedes the hard steps.
func (o *Orchestrator) runJobCompleteFlow(ctx context.Context, jobID string) Result {
	result := Result{Template: TemplateJobCompleteFlow, SourceID: jobID}

	sub := o.runJobToInvoice(ctx, jobID)
	result.CreatedEntities = append(result.CreatedEntities, sub.CreatedEntities...)
	if !sub.Success {
		result.Err = fmt.Errorf("invoice sub-workflow: %w", sub.Err)
		return result
	}
	o.report(TemplateJobCompleteFlow, 1)

	if err := o.step(TemplateJobCompleteFlow, "complete_job", func() error {
		return o.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ?", jobID).
			Update("status", models.JobStatusCompleted).Error
	}); err != nil {
		result.Err = fmt.Errorf("complete job %s: %w", jobID, err)
		return result
	}
	o.report(TemplateJobCompleteFlow, 2)

	result.Success = true

	// Completion notification is best effort and goes through the same
	// cooldown gate as rule candidates, so re-runs do not duplicate it.
	if err := o.notifyJobCompleted(ctx, jobID); err != nil {
		o.log.Warn("completion notification failed", zap.String("job_id", jobID), zap.Error(err))
	}

	return result
}

func (o *Orchestrator) notifyJobCompleted(ctx context.Context, jobID string) error {
	var job models.Job
	if err := o.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	now := o.now().UTC()
	ok, err := o.gate.ShouldCreate(ctx, automation.TypeJobCompleted, job.UserID, job.ID, now)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = o.notifications.Create(ctx, services.CreateNotificationInput{
		UserID:       job.UserID,
		Type:         automation.TypeJobCompleted,
		Title:        fmt.Sprintf("Job completed: %s", job.Title),
		Message:      fmt.Sprintf("%q was marked completed and invoiced.", job.Title),
		Priority:     models.PriorityMedium,
		ReferenceKey: "job_id",
		ReferenceID:  job.ID,
	})
	return err
}

func (o *Orchestrator) step(template, name string, fn func() error) error {
	if o.beforeStep != nil {
		if err := o.beforeStep(template, name); err != nil {
			return err
		}
	}
	return fn()
}

func (o *Orchestrator) report(template string, completed int) {
	if o.progress == nil {
		return
	}
	total := len(templateSteps[template])
	if total == 0 {
		return
	}
	if completed > total {
		completed = total
	}
	o.progress(completed * 100 / total)
}

func (o *Orchestrator) loadError(entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound.WithInternal(fmt.Errorf("%s %s", entity, id))
	}
	return fmt.Errorf("load %s %s: %w", entity, id, err)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
