// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route template, method and status code
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairdesk_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route template
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "repairdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// OTPSent counts OTP issue attempts by channel and result (sent, dev, cooldown, failed)
	OTPSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairdesk_otp_sent_total",
		Help: "OTP issue attempts by channel and result.",
	}, []string{"channel", "result"})

	// OTPVerified counts OTP checks by purpose and result (ok, invalid, expired, exhausted)
	OTPVerified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairdesk_otp_verified_total",
		Help: "OTP verifications by purpose and result.",
	}, []string{"purpose", "result"})

	// ComplaintUpdates counts complaint writes by operation and result
	ComplaintUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repairdesk_complaint_updates_total",
		Help: "Complaint writes by operation and result.",
	}, []string{"operation", "result"})

	// ComplaintsByStatus is the current number of complaints in each status, refreshed by the worker
	ComplaintsByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "repairdesk_complaints",
		Help: "Complaints currently in each status.",
	}, []string{"status"})
)
