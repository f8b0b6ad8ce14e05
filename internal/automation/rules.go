package automation

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cfranzen/jobmate/internal/models"
	"github.com/cfranzen/jobmate/internal/services"
)

// Notification types emitted by the automation subsystem.
const (
	TypeJobReminder         = "job_reminder"
	TypeLeadFollowUp        = "lead_follow_up"
	TypePaymentOverdue      = "payment_overdue"
	TypeMaintenanceReminder = "maintenance_reminder"
	TypeContractSigned      = "contract_signed"
	TypeJobCompleted        = "job_completed"
)

// Candidate is a notification a rule wants to create. Whether it is actually
// persisted is up to the cooldown gate.
type Candidate struct {
	Type         string
	ReferenceKey string
	ReferenceID  string
	Title        string
	Message      string
	Priority     string
	Metadata     map[string]any
}

// Rule couples a notification type with its cooldown, its per-user enable
// flag, and a scan function that loads the user's entity collection and
// evaluates every entity. The evaluation itself is pure; only the load can
// fail.
type Rule struct {
	Type         string
	ReferenceKey string
	Cooldown     time.Duration
	Enabled      func(services.AutomationSettingsDTO) bool

	scan func(ctx context.Context, db *gorm.DB, userID string, now time.Time) ([]Candidate, int, error)
}

// typeSpec carries the dedup parameters for every notification type,
// including the workflow-emitted types that have no scanning rule.
type typeSpec struct {
	referenceKey string
	cooldown     time.Duration
}

var typeSpecs = map[string]typeSpec{
	TypeJobReminder:         {referenceKey: "job_id", cooldown: 24 * time.Hour},
	TypeLeadFollowUp:        {referenceKey: "lead_id", cooldown: 72 * time.Hour},
	TypePaymentOverdue:      {referenceKey: "payment_id", cooldown: 168 * time.Hour},
	TypeMaintenanceReminder: {referenceKey: "resource_id", cooldown: 168 * time.Hour},
	TypeContractSigned:      {referenceKey: "contract_id", cooldown: 24 * time.Hour},
	TypeJobCompleted:        {referenceKey: "job_id", cooldown: 24 * time.Hour},
}

// CooldownFor returns the cooldown window for a notification type. Types
// without a registered spec have no cooldown.
func CooldownFor(notificationType string) (time.Duration, bool) {
	spec, ok := typeSpecs[notificationType]
	return spec.cooldown, ok
}

// ReferenceKeyFor returns the payload key naming the triggering entity for a
// notification type.
func ReferenceKeyFor(notificationType string) (string, bool) {
	spec, ok := typeSpecs[notificationType]
	return spec.referenceKey, ok
}

// Rules returns the fixed rule catalog. The slice is rebuilt per call so
// callers cannot mutate shared state.
func Rules() []Rule {
	return []Rule{
		{
			Type:         TypeJobReminder,
			ReferenceKey: "job_id",
			Cooldown:     typeSpecs[TypeJobReminder].cooldown,
			Enabled:      func(s services.AutomationSettingsDTO) bool { return s.JobReminders },
			scan:         scanJobs,
		},
		{
			Type:         TypeLeadFollowUp,
			ReferenceKey: "lead_id",
			Cooldown:     typeSpecs[TypeLeadFollowUp].cooldown,
			Enabled:      func(s services.AutomationSettingsDTO) bool { return s.LeadFollowUps },
			scan:         scanLeads,
		},
		{
			Type:         TypePaymentOverdue,
			ReferenceKey: "payment_id",
			Cooldown:     typeSpecs[TypePaymentOverdue].cooldown,
			Enabled:      func(s services.AutomationSettingsDTO) bool { return s.PaymentReminders },
			scan:         scanPayments,
		},
		{
			Type:         TypeMaintenanceReminder,
			ReferenceKey: "resource_id",
			Cooldown:     typeSpecs[TypeMaintenanceReminder].cooldown,
			Enabled:      func(s services.AutomationSettingsDTO) bool { return s.MaintenanceReminders },
			scan:         scanResources,
		},
	}
}

// EvaluateJobReminder fires for jobs starting within the next 24 hours. Jobs
// already started or in a terminal state never fire.
func EvaluateJobReminder(job models.Job, now time.Time) *Candidate {
	if job.StartAt == nil || job.IsTerminal() {
		return nil
	}

	hoursUntil := job.StartAt.Sub(now).Hours()
	if hoursUntil <= 0 || hoursUntil > 24 {
		return nil
	}

	return &Candidate{
		Type:         TypeJobReminder,
		ReferenceKey: "job_id",
		ReferenceID:  job.ID,
		Title:        fmt.Sprintf("Upcoming job: %s", job.Title),
		Message:      fmt.Sprintf("%q starts at %s.", job.Title, job.StartAt.Format("Mon 2 Jan 15:04")),
		Priority:     models.PriorityHigh,
		Metadata:     map[string]any{"start_at": job.StartAt.Format(time.RFC3339)},
	}
}

// EvaluateLeadFollowUp fires for leads untouched for three days or more that
// have not reached a terminal outcome. Priority escalates after a week.
func EvaluateLeadFollowUp(lead models.Lead, now time.Time) *Candidate {
	if lead.IsTerminal() {
		return nil
	}

	days := now.Sub(lead.CreatedAt).Hours() / 24
	if days < 3 {
		return nil
	}

	priority := models.PriorityMedium
	if days >= 7 {
		priority = models.PriorityHigh
	}

	return &Candidate{
		Type:         TypeLeadFollowUp,
		ReferenceKey: "lead_id",
		ReferenceID:  lead.ID,
		Title:        fmt.Sprintf("Follow up with %s", lead.ClientName),
		Message:      fmt.Sprintf("Lead from %s has been waiting %d days.", lead.ClientName, int(days)),
		Priority:     priority,
	}
}

// EvaluatePaymentOverdue fires for pending payments at least seven days past
// due. Priority escalates to urgent at fourteen days.
func EvaluatePaymentOverdue(payment models.Payment, now time.Time) *Candidate {
	if payment.Status != models.PaymentStatusPending {
		return nil
	}

	since := payment.CreatedAt
	if payment.DueAt != nil {
		since = *payment.DueAt
	}

	days := now.Sub(since).Hours() / 24
	if days < 7 {
		return nil
	}

	priority := models.PriorityHigh
	if days >= 14 {
		priority = models.PriorityUrgent
	}

	return &Candidate{
		Type:         TypePaymentOverdue,
		ReferenceKey: "payment_id",
		ReferenceID:  payment.ID,
		Title:        "Payment overdue",
		Message:      fmt.Sprintf("A payment of %.2f is %d days overdue.", payment.Amount, int(days)),
		Priority:     priority,
		Metadata:     map[string]any{"invoice_id": payment.InvoiceID},
	}
}

// EvaluateMaintenanceReminder fires for resources due for maintenance within
// the next seven days, including today.
func EvaluateMaintenanceReminder(resource models.Resource, now time.Time) *Candidate {
	if resource.NextMaintenanceAt == nil {
		return nil
	}

	days := resource.NextMaintenanceAt.Sub(now).Hours() / 24
	if days < 0 || days > 7 {
		return nil
	}

	return &Candidate{
		Type:         TypeMaintenanceReminder,
		ReferenceKey: "resource_id",
		ReferenceID:  resource.ID,
		Title:        fmt.Sprintf("Maintenance due: %s", resource.Name),
		Message:      fmt.Sprintf("%s is due for maintenance on %s.", resource.Name, resource.NextMaintenanceAt.Format("Mon 2 Jan")),
		Priority:     models.PriorityMedium,
	}
}

func scanJobs(ctx context.Context, db *gorm.DB, userID string, now time.Time) ([]Candidate, int, error) {
	var jobs []models.Job
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&jobs).Error; err != nil {
		return nil, 0, fmt.Errorf("load jobs: %w", err)
	}

	var out []Candidate
	for _, job := range jobs {
		if c := EvaluateJobReminder(job, now); c != nil {
			out = append(out, *c)
		}
	}
	return out, len(jobs), nil
}

func scanLeads(ctx context.Context, db *gorm.DB, userID string, now time.Time) ([]Candidate, int, error) {
	var leads []models.Lead
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&leads).Error; err != nil {
		return nil, 0, fmt.Errorf("load leads: %w", err)
	}

	var out []Candidate
	for _, lead := range leads {
		if c := EvaluateLeadFollowUp(lead, now); c != nil {
			out = append(out, *c)
		}
	}
	return out, len(leads), nil
}

func scanPayments(ctx context.Context, db *gorm.DB, userID string, now time.Time) ([]Candidate, int, error) {
	var payments []models.Payment
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("load payments: %w", err)
	}

	var out []Candidate
	for _, payment := range payments {
		if c := EvaluatePaymentOverdue(payment, now); c != nil {
			out = append(out, *c)
		}
	}
	return out, len(payments), nil
}

func scanResources(ctx context.Context, db *gorm.DB, userID string, now time.Time) ([]Candidate, int, error) {
	var resources []models.Resource
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&resources).Error; err != nil {
		return nil, 0, fmt.Errorf("load resources: %w", err)
	}

	var out []Candidate
	for _, resource := range resources {
		if c := EvaluateMaintenanceReminder(resource, now); c != nil {
			out = append(out, *c)
		}
	}
	return out, len(resources), nil
}
