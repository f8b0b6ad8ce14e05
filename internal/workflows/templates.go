package workflows

// Workflow template names. The catalog is closed; Execute rejects anything else.
const (
	TemplateQuoteToJob       = "quote_to_job"
	TemplateJobToInvoice     = "job_to_invoice"
	TemplatePaymentToReceipt = "payment_to_receipt"
	TemplateLeadToQuote      = "lead_to_quote"
	TemplateJobCompleteFlow  = "job_complete_flow"
)

// templateSteps lists the ordered step names per template, used for progress
// reporting and validation.
var templateSteps = map[string][]string{
	TemplateQuoteToJob:       {"create_job", "update_quote", "create_contract"},
	TemplateJobToInvoice:     {"allocate_number", "create_invoice"},
	TemplatePaymentToReceipt: {"mark_paid"},
	TemplateLeadToQuote:      {"create_quote"},
	TemplateJobCompleteFlow:  {"create_invoice", "complete_job", "notify"},
}

// KnownTemplate reports whether name is part of the fixed catalog.
func KnownTemplate(name string) bool {
	_, ok := templateSteps[name]
	return ok
}

// TemplateNames returns the catalog names in a stable order.
func TemplateNames() []string {
	return []string{
		TemplateQuoteToJob,
		TemplateJobToInvoice,
		TemplatePaymentToReceipt,
		TemplateLeadToQuote,
		TemplateJobCompleteFlow,
	}
}

// CreatedEntity records one entity a workflow step created.
type CreatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Result reports the outcome of one workflow execution. CreatedEntities
// accumulates every entity created before a failure, so callers can decide
// what to do with a partial result; nothing is rolled back.
type Result struct {
	Template        string          `json:"template"`
	SourceID        string          `json:"source_id"`
	Success         bool            `json:"success"`
	CreatedEntities []CreatedEntity `json:"created_entities"`
	Err             error           `json:"-"`
}

// ErrorMessage returns the human-readable failure reason, empty on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
