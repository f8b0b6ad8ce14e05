package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/automation"
	"github.com/cfranzen/jobmate/internal/database/testutil"
	"github.com/cfranzen/jobmate/internal/models"
	"github.com/cfranzen/jobmate/internal/services"
	apperrors "github.com/cfranzen/jobmate/pkg/errors"
)

type orchestratorFixture struct {
	db            *gorm.DB
	notifications *services.NotificationService
	orchestrator  *Orchestrator
}

func newOrchestratorFixture(t *testing.T, opts ...Option) orchestratorFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	notifications, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)

	orchestrator, err := NewOrchestrator(db, notifications, opts...)
	require.NoError(t, err)

	return orchestratorFixture{db: db, notifications: notifications, orchestrator: orchestrator}
}

func (f orchestratorFixture) createQuote(t *testing.T) models.Quote {
	t.Helper()
	quote := models.Quote{
		UserID: "owner",
		Title:  "Patio rebuild",
		Status: models.QuoteStatusAccepted,
		Total:  1800,
	}
	require.NoError(t, f.db.Create(&quote).Error)
	return quote
}

func (f orchestratorFixture) createJob(t *testing.T) models.Job {
	t.Helper()
	job := models.Job{
		UserID:  "owner",
		Title:   "Patio rebuild",
		Status:  models.JobStatusInProgress,
		Revenue: 1800,
	}
	require.NoError(t, f.db.Create(&job).Error)
	return job
}

func TestExecuteRejectsUnknownTemplate(t *testing.T) {
	f := newOrchestratorFixture(t)

	result := f.orchestrator.Execute(context.Background(), "quote_to_spaceship", "q-1")
	require.False(t, result.Success)

	var appErr *apperrors.AppError
	require.ErrorAs(t, result.Err, &appErr)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)
}

func TestExecuteRejectsMissingSource(t *testing.T) {
	f := newOrchestratorFixture(t)

	result := f.orchestrator.Execute(context.Background(), TemplateQuoteToJob, "")
	require.False(t, result.Success)
	require.Error(t, result.Err)
}

func TestExecuteSourceNotFound(t *testing.T) {
	f := newOrchestratorFixture(t)

	result := f.orchestrator.Execute(context.Background(), TemplateQuoteToJob, "missing")
	require.False(t, result.Success)
	require.ErrorIs(t, result.Err, apperrors.ErrNotFound)
	require.Empty(t, result.CreatedEntities)
}

func TestQuoteToJob(t *testing.T) {
	var percents []int
	f := newOrchestratorFixture(t, WithProgress(func(p int) { percents = append(percents, p) }))
	quote := f.createQuote(t)

	result := f.orchestrator.Execute(context.Background(), TemplateQuoteToJob, quote.ID)
	require.True(t, result.Success)
	require.Len(t, result.CreatedEntities, 2)
	require.Equal(t, "job", result.CreatedEntities[0].Type)
	require.Equal(t, "contract", result.CreatedEntities[1].Type)

	var job models.Job
	require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[0].ID).First(&job).Error)
	require.Equal(t, models.JobStatusConfirmed, job.Status)
	require.Equal(t, quote.ID, job.QuoteID)
	require.Equal(t, quote.Total, job.Revenue)

	var updated models.Quote
	require.NoError(t, f.db.Where("id = ?", quote.ID).First(&updated).Error)
	require.Equal(t, models.QuoteStatusConverted, updated.Status)
	require.Equal(t, job.ID, updated.JobID)
	require.NotNil(t, updated.ConvertedAt)

	var contract models.Contract
	require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[1].ID).First(&contract).Error)
	require.Equal(t, models.ContractStatusDraft, contract.Status)
	require.Equal(t, job.ID, contract.JobID)

	require.NotEmpty(t, percents)
	require.Equal(t, 100, percents[len(percents)-1])
}

func TestQuoteToJobContractFailureIsPartialSuccess(t *testing.T) {
	f := newOrchestratorFixture(t)
	quote := f.createQuote(t)

	f.orchestrator.beforeStep = func(template, step string) error {
		if step == "create_contract" {
			return errors.New("contract store down")
		}
		return nil
	}

	result := f.orchestrator.Execute(context.Background(), TemplateQuoteToJob, quote.ID)
	require.True(t, result.Success)
	require.Len(t, result.CreatedEntities, 1)
	require.Equal(t, "job", result.CreatedEntities[0].Type)

	var contracts int64
	require.NoError(t, f.db.Model(&models.Contract{}).Count(&contracts).Error)
	require.Zero(t, contracts)
}

func TestQuoteToJobHardFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	quote := f.createQuote(t)

	f.orchestrator.beforeStep = func(template, step string) error {
		if step == "create_job" {
			return errors.New("job store down")
		}
		return nil
	}

	result := f.orchestrator.Execute(context.Background(), TemplateQuoteToJob, quote.ID)
	require.False(t, result.Success)
	require.Empty(t, result.CreatedEntities)

	// The quote is untouched when the first step fails.
	var updated models.Quote
	require.NoError(t, f.db.Where("id = ?", quote.ID).First(&updated).Error)
	require.Equal(t, models.QuoteStatusAccepted, updated.Status)
}

func TestJobToInvoice(t *testing.T) {
	f := newOrchestratorFixture(t)
	job := f.createJob(t)

	result := f.orchestrator.Execute(context.Background(), TemplateJobToInvoice, job.ID)
	require.True(t, result.Success)
	require.Len(t, result.CreatedEntities, 1)

	var invoice models.Invoice
	require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[0].ID).First(&invoice).Error)
	require.Equal(t, "INV-0001", invoice.Number)
	require.Equal(t, models.InvoiceStatusDraft, invoice.Status)
	require.Equal(t, job.Revenue, invoice.Total)
	require.NotNil(t, invoice.IssuedAt)
	require.NotNil(t, invoice.DueAt)
	require.Equal(t, 14*24*time.Hour, invoice.DueAt.Sub(*invoice.IssuedAt))
}

func TestJobToInvoiceNumbersAreSequential(t *testing.T) {
	f := newOrchestratorFixture(t)

	var numbers []string
	for i := 0; i < 3; i++ {
		job := f.createJob(t)
		result := f.orchestrator.Execute(context.Background(), TemplateJobToInvoice, job.ID)
		require.True(t, result.Success)

		var invoice models.Invoice
		require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[0].ID).First(&invoice).Error)
		numbers = append(numbers, invoice.Number)
	}

	require.Equal(t, []string{"INV-0001", "INV-0002", "INV-0003"}, numbers)
}

func TestJobToInvoiceRetriesOnNumberCollision(t *testing.T) {
	f := newOrchestratorFixture(t)
	job := f.createJob(t)

	// Occupy INV-0001 without going through the allocator, simulating a lost
	// race against a concurrent execution.
	squatter := models.Invoice{
		UserID: "owner",
		Number: "INV-0001",
		Status: models.InvoiceStatusDraft,
	}
	require.NoError(t, f.db.Create(&squatter).Error)

	result := f.orchestrator.Execute(context.Background(), TemplateJobToInvoice, job.ID)
	require.True(t, result.Success)

	var invoice models.Invoice
	require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[0].ID).First(&invoice).Error)
	require.Equal(t, "INV-0002", invoice.Number)
}

func TestPaymentToReceipt(t *testing.T) {
	f := newOrchestratorFixture(t)

	payment := models.Payment{
		UserID: "owner",
		Amount: 300,
		Status: models.PaymentStatusPending,
	}
	require.NoError(t, f.db.Create(&payment).Error)

	result := f.orchestrator.Execute(context.Background(), TemplatePaymentToReceipt, payment.ID)
	require.True(t, result.Success)
	require.Empty(t, result.CreatedEntities)

	var updated models.Payment
	require.NoError(t, f.db.Where("id = ?", payment.ID).First(&updated).Error)
	require.Equal(t, models.PaymentStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)
}

func TestLeadToQuote(t *testing.T) {
	f := newOrchestratorFixture(t)

	lead := models.Lead{
		UserID:     "owner",
		ClientName: "Dana",
		Status:     models.LeadStatusContacted,
	}
	require.NoError(t, f.db.Create(&lead).Error)

	result := f.orchestrator.Execute(context.Background(), TemplateLeadToQuote, lead.ID)
	require.True(t, result.Success)
	require.Len(t, result.CreatedEntities, 1)
	require.Equal(t, "quote", result.CreatedEntities[0].Type)

	var quote models.Quote
	require.NoError(t, f.db.Where("id = ?", result.CreatedEntities[0].ID).First(&quote).Error)
	require.Equal(t, models.QuoteStatusDraft, quote.Status)
	require.Equal(t, lead.ID, quote.LeadID)
	require.Equal(t, "Quote for Dana", quote.Title)
}

func TestJobCompleteFlow(t *testing.T) {
	f := newOrchestratorFixture(t)
	job := f.createJob(t)
	ctx := context.Background()

	result := f.orchestrator.Execute(ctx, TemplateJobCompleteFlow, job.ID)
	require.True(t, result.Success)
	require.Len(t, result.CreatedEntities, 1)
	require.Equal(t, "invoice", result.CreatedEntities[0].Type)

	var updated models.Job
	require.NoError(t, f.db.Where("id = ?", job.ID).First(&updated).Error)
	require.Equal(t, models.JobStatusCompleted, updated.Status)

	latest, err := f.notifications.LatestByReference(ctx, "owner", automation.TypeJobCompleted, job.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
}

func TestJobCompleteFlowRerunDoesNotDuplicateNotification(t *testing.T) {
	f := newOrchestratorFixture(t)
	job := f.createJob(t)
	ctx := context.Background()

	require.True(t, f.orchestrator.Execute(ctx, TemplateJobCompleteFlow, job.ID).Success)
	require.True(t, f.orchestrator.Execute(ctx, TemplateJobCompleteFlow, job.ID).Success)

	var count int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("type = ? AND reference_id = ?", automation.TypeJobCompleted, job.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestJobCompleteFlowInvoiceFailureLeavesJobUntouched(t *testing.T) {
	f := newOrchestratorFixture(t)
	job := f.createJob(t)
	ctx := context.Background()

	f.orchestrator.beforeStep = func(template, step string) error {
		if step == "create_invoice" {
			return errors.New("invoice store down")
		}
		return nil
	}

	result := f.orchestrator.Execute(ctx, TemplateJobCompleteFlow, job.ID)
	require.False(t, result.Success)
	require.Empty(t, result.CreatedEntities)
	require.Contains(t, result.ErrorMessage(), "invoice sub-workflow")

	var updated models.Job
	require.NoError(t, f.db.Where("id = ?", job.ID).First(&updated).Error)
	require.Equal(t, models.JobStatusInProgress, updated.Status)

	var notifications int64
	require.NoError(t, f.db.Model(&models.Notification{}).Count(&notifications).Error)
	require.Zero(t, notifications)
}

func TestTemplateCatalog(t *testing.T) {
	names := TemplateNames()
	require.Len(t, names, 5)
	for _, name := range names {
		require.True(t, KnownTemplate(name), name)
		require.NotEmpty(t, templateSteps[name], name)
	}
	require.False(t, KnownTemplate("nope"))
}
