package core

const (
	InsightAlert    InsightType = "alert"
	InsightWarning  InsightType = "warning"
	InsightInfo     InsightType = "info"
	InsightPositive InsightType = "positive"
)

const (
	CategoryCashflow InsightCategory = "cashflow"
	CategorySpending InsightCategory = "spending"
	CategoryInvoices InsightCategory = "invoices"
	CategoryTax      InsightCategory = "tax"
	CategoryPatterns InsightCategory = "patterns"
)

type (
	InsightType     string
	InsightCategory string

	// Insight is a single rule-derived financial observation. The ID is
	// deterministic and bucketed by time period so a dismissal keeps
	// suppressing the same finding until its period rolls over.
	Insight struct {
		ID             string          `json:"id"`
		Type           InsightType     `json:"type"`
		Category       InsightCategory `json:"category"`
		Title          string          `json:"title"`
		Message        string          `json:"message"`
		Recommendation string          `json:"recommendation,omitempty"`
		Priority       int             `json:"priority"`
	}
)
