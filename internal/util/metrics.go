package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_opened_total",
		Help: "Total number of checkout sessions opened",
	})

	CheckoutSessionsFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_finalized_total",
		Help: "Total number of checkout sessions finalized with a submitted order",
	})

	CheckoutSessionsAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_abandoned_total",
		Help: "Total number of checkout sessions cancelled by the shopper",
	})

	OrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Total number of orders submitted to the order sink",
	})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed by the tenant",
	})

	OrderSubmitFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submit_failed_total",
		Help: "Total number of failed order submissions",
	}, []string{"reason"})

	CheckoutValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_validation_failures_total",
		Help: "Total number of recoverable checkout validation failures",
	}, []string{"field"})

	CredentialMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credential_mismatch_total",
		Help: "Total number of failed credential verifications",
	})

	LineItemsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "line_items_confirmed_total",
		Help: "Total number of customized line items confirmed into carts",
	})

	AddonValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "addon_validation_failures_total",
		Help: "Total number of addon group cardinality failures",
	}, []string{"kind"})

	CollaboratorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collaborator_latency_seconds",
		Help:    "Latency of external collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	CatalogCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
