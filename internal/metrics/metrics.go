package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repairshop_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_checkouts_total",
		Help: "Tickets created, by order type.",
	}, []string{"order_type"})

	CheckoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_checkout_failures_total",
		Help: "Checkouts rejected, by reason.",
	}, []string{"reason"})

	VoidsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_voids_total",
		Help: "Voided services, returned products and voided orders.",
	}, []string{"kind"})

	RefundedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repairshop_refunded_amount_total",
		Help: "Money moved to refunded, in shop currency.",
	})

	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_payments_total",
		Help: "Payments recorded, by method.",
	}, []string{"method"})

	PayrollConfirmations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repairshop_payroll_confirmations_total",
		Help: "Payroll weeks frozen as paid.",
	})

	VersionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairshop_version_conflicts_total",
		Help: "Writes rejected because the record changed underneath.",
	}, []string{"entity"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_websocket_clients",
		Help: "Connected live-update clients.",
	})

	WebsocketDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repairshop_websocket_dropped_total",
		Help: "Events dropped for slow websocket clients.",
	})

	DBConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "repairshop_db_connections",
		Help: "Database pool connections by state.",
	}, []string{"state"})

	HostCPUPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_host_cpu_percent",
		Help: "Host CPU utilisation sampled by the collector.",
	})

	HostMemoryPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_host_memory_percent",
		Help: "Host memory utilisation sampled by the collector.",
	})

	OpenTickets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_open_tickets",
		Help: "Tickets not yet completed, collected or void.",
	})

	OutstandingDebt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_outstanding_debt",
		Help: "Sum of positive balances on live tickets.",
	})

	LowStockProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repairshop_low_stock_products",
		Help: "Products at or below the low-stock threshold.",
	})
)
