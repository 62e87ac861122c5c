package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts orders created through the API.
	OrdersCreatedTotal prometheus.Counter
	// OrderRecomputeTotal counts order total recomputations by trigger.
	OrderRecomputeTotal *prometheus.CounterVec
	// ExpensesRecordedTotal counts expenses recorded, by whether they belong to an order.
	ExpensesRecordedTotal *prometheus.CounterVec
	// ReportCacheTotal counts report cache lookups by report and result.
	ReportCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		})
		OrderRecomputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_recompute_total",
			Help:      "Count of order total recomputations by trigger.",
		}, []string{"trigger"})
		ExpensesRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Count of recorded expenses by scope.",
		}, []string{"scope"})
		ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Count of report cache lookups by outcome.",
		}, []string{"report", "result"})

		OrdersCreatedTotal = register(reg, OrdersCreatedTotal)
		OrderRecomputeTotal = register(reg, OrderRecomputeTotal)
		ExpensesRecordedTotal = register(reg, ExpensesRecordedTotal)
		ReportCacheTotal = register(reg, ReportCacheTotal)
	})
}

// ObserveOrderCreated increments the order creation counter when metrics are registered.
func ObserveOrderCreated() {
	if OrdersCreatedTotal != nil {
		OrdersCreatedTotal.Inc()
	}
}

// ObserveRecompute records a totals recomputation for the given trigger.
func ObserveRecompute(trigger string) {
	if OrderRecomputeTotal != nil {
		OrderRecomputeTotal.WithLabelValues(trigger).Inc()
	}
}

// ObserveExpense records an expense; scope is "order" or "general".
func ObserveExpense(scope string) {
	if ExpensesRecordedTotal != nil {
		ExpensesRecordedTotal.WithLabelValues(scope).Inc()
	}
}

// ObserveReportCache records a cache lookup outcome (hit, miss, error).
func ObserveReportCache(report, result string) {
	if ReportCacheTotal != nil {
		ReportCacheTotal.WithLabelValues(report, result).Inc()
	}
}
