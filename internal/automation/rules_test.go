package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cfranzen/jobmate/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluateJobReminder(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("fires inside the 24h window", func(t *testing.T) {
		job := models.Job{
			BaseModel: models.BaseModel{ID: "job-1"},
			Title:     "Hedge trimming",
			Status:    models.JobStatusScheduled,
			StartAt:   timePtr(now.Add(2 * time.Hour)),
		}

		c := EvaluateJobReminder(job, now)
		require.NotNil(t, c)
		require.Equal(t, TypeJobReminder, c.Type)
		require.Equal(t, "job-1", c.ReferenceID)
		require.Equal(t, "job_id", c.ReferenceKey)
		require.Equal(t, models.PriorityHigh, c.Priority)
	})

	t.Run("does not fire for jobs further out than 24h", func(t *testing.T) {
		job := models.Job{StartAt: timePtr(now.Add(25 * time.Hour)), Status: models.JobStatusScheduled}
		require.Nil(t, EvaluateJobReminder(job, now))
	})

	t.Run("does not fire once the job has started", func(t *testing.T) {
		job := models.Job{StartAt: timePtr(now.Add(-time.Minute)), Status: models.JobStatusScheduled}
		require.Nil(t, EvaluateJobReminder(job, now))

		job.StartAt = timePtr(now)
		require.Nil(t, EvaluateJobReminder(job, now))
	})

	t.Run("skips terminal and unscheduled jobs", func(t *testing.T) {
		require.Nil(t, EvaluateJobReminder(models.Job{Status: models.JobStatusScheduled}, now))

		job := models.Job{StartAt: timePtr(now.Add(2 * time.Hour)), Status: models.JobStatusCancelled}
		require.Nil(t, EvaluateJobReminder(job, now))

		job.Status = models.JobStatusCompleted
		require.Nil(t, EvaluateJobReminder(job, now))
	})
}

func TestEvaluateLeadFollowUp(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	lead := func(age time.Duration, status string) models.Lead {
		return models.Lead{
			BaseModel:  models.BaseModel{ID: "lead-1", CreatedAt: now.Add(-age)},
			ClientName: "Dana",
			Status:     status,
		}
	}

	t.Run("quiet before three days", func(t *testing.T) {
		require.Nil(t, EvaluateLeadFollowUp(lead(71*time.Hour, models.LeadStatusNew), now))
	})

	t.Run("medium priority from three days", func(t *testing.T) {
		c := EvaluateLeadFollowUp(lead(3*24*time.Hour, models.LeadStatusNew), now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityMedium, c.Priority)
	})

	t.Run("escalates to high after a week", func(t *testing.T) {
		c := EvaluateLeadFollowUp(lead(8*24*time.Hour, models.LeadStatusContacted), now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityHigh, c.Priority)
	})

	t.Run("terminal outcomes never fire", func(t *testing.T) {
		require.Nil(t, EvaluateLeadFollowUp(lead(10*24*time.Hour, models.LeadStatusWon), now))
		require.Nil(t, EvaluateLeadFollowUp(lead(10*24*time.Hour, models.LeadStatusLost), now))
	})
}

func TestEvaluatePaymentOverdue(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	payment := func(dueAgo time.Duration, status string) models.Payment {
		return models.Payment{
			BaseModel: models.BaseModel{ID: "pay-1"},
			InvoiceID: "inv-1",
			Amount:    120.50,
			Status:    status,
			DueAt:     timePtr(now.Add(-dueAgo)),
		}
	}

	t.Run("quiet before seven days past due", func(t *testing.T) {
		require.Nil(t, EvaluatePaymentOverdue(payment(6*24*time.Hour, models.PaymentStatusPending), now))
	})

	t.Run("high priority from seven days", func(t *testing.T) {
		c := EvaluatePaymentOverdue(payment(7*24*time.Hour, models.PaymentStatusPending), now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityHigh, c.Priority)
		require.Equal(t, "payment_id", c.ReferenceKey)
	})

	t.Run("escalates to urgent at fourteen days", func(t *testing.T) {
		c := EvaluatePaymentOverdue(payment(14*24*time.Hour, models.PaymentStatusPending), now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityUrgent, c.Priority)
	})

	t.Run("settled payments never fire", func(t *testing.T) {
		require.Nil(t, EvaluatePaymentOverdue(payment(30*24*time.Hour, models.PaymentStatusPaid), now))
		require.Nil(t, EvaluatePaymentOverdue(payment(30*24*time.Hour, models.PaymentStatusFailed), now))
	})

	t.Run("falls back to creation time without a due date", func(t *testing.T) {
		p := models.Payment{
			BaseModel: models.BaseModel{ID: "pay-2", CreatedAt: now.Add(-9 * 24 * time.Hour)},
			Status:    models.PaymentStatusPending,
		}
		c := EvaluatePaymentOverdue(p, now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityHigh, c.Priority)
	})
}

func TestEvaluateMaintenanceReminder(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	resource := func(due *time.Time) models.Resource {
		return models.Resource{
			BaseModel:         models.BaseModel{ID: "res-1"},
			Name:              "Ride-on mower",
			NextMaintenanceAt: due,
		}
	}

	t.Run("fires when due within seven days", func(t *testing.T) {
		c := EvaluateMaintenanceReminder(resource(timePtr(now.Add(3*24*time.Hour))), now)
		require.NotNil(t, c)
		require.Equal(t, models.PriorityMedium, c.Priority)
		require.Equal(t, "resource_id", c.ReferenceKey)
	})

	t.Run("fires when due today", func(t *testing.T) {
		require.NotNil(t, EvaluateMaintenanceReminder(resource(timePtr(now)), now))
	})

	t.Run("quiet beyond seven days or already past due", func(t *testing.T) {
		require.Nil(t, EvaluateMaintenanceReminder(resource(timePtr(now.Add(8*24*time.Hour))), now))
		require.Nil(t, EvaluateMaintenanceReminder(resource(timePtr(now.Add(-24*time.Hour))), now))
		require.Nil(t, EvaluateMaintenanceReminder(resource(nil), now))
	})
}

func TestTypeSpecCatalog(t *testing.T) {
	for _, rule := range Rules() {
		cooldown, ok := CooldownFor(rule.Type)
		require.True(t, ok, rule.Type)
		require.Equal(t, rule.Cooldown, cooldown, rule.Type)

		key, ok := ReferenceKeyFor(rule.Type)
		require.True(t, ok, rule.Type)
		require.Equal(t, rule.ReferenceKey, key, rule.Type)
	}

	// Workflow-emitted types carry cooldowns even though no rule scans them.
	for _, typ := range []string{TypeContractSigned, TypeJobCompleted} {
		cooldown, ok := CooldownFor(typ)
		require.True(t, ok, typ)
		require.Equal(t, 24*time.Hour, cooldown, typ)
	}

	_, ok := CooldownFor("unknown_type")
	require.False(t, ok)
}
