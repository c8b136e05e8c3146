// Package metrics exposes the Prometheus instruments for the billing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvoicesIssued counts issued subscription invoices by plan.
	InvoicesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_invoices_issued_total",
		Help: "Subscription invoices issued, labeled by plan.",
	}, []string{"plan"})

	// CreditNotesIssued counts issued credit notes by kind (full or partial).
	CreditNotesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_credit_notes_issued_total",
		Help: "Credit notes issued, labeled full or partial.",
	}, []string{"kind"})

	// BillingRunErrors counts failed invoice generations during cycle runs.
	BillingRunErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_cycle_errors_total",
		Help: "Invoice generation failures during scheduled billing runs.",
	})

	// BillingRunSkipped counts tenants skipped as not billable.
	BillingRunSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_cycle_skipped_total",
		Help: "Tenants skipped during billing runs (not in ACTIVE status).",
	})
)
