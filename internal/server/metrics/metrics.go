// Package metrics defines the Prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciliation outcome label values.
const (
	OutcomeActive  = "active"
	OutcomeCorrupt = "corrupt"
	OutcomeNoop    = "noop"
	OutcomeDropped = "dropped"
)

var (
	ReservationsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_reservations_admitted_total",
		Help: "Upload reservations admitted against user quotas.",
	})

	ReservationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_reservations_rejected_total",
		Help: "Upload reservations rejected because the quota was exceeded.",
	})

	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filevault_reconciliations_total",
		Help: "Processed upload-completion notifications by outcome.",
	}, []string{"outcome"})

	SharesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_shares_created_total",
		Help: "Share grants created by file owners.",
	})

	DownloadURLsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filevault_download_urls_issued_total",
		Help: "Signed download URLs issued for ACTIVE files.",
	})
)
