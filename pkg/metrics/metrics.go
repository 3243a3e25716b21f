package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_booking_operations_total",
			Help: "Booking operations by outcome",
		},
		[]string{"operation", "result"},
	)

	txConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_tx_conflicts_total",
			Help: "Optimistic transaction attempts that lost a conflict",
		},
		[]string{"operation"},
	)

	txDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slotbook_tx_duration_seconds",
			Help:    "Wall time of a transactional operation including retries",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)

	ledgerCorrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_ledger_corrections_total",
			Help: "Ledger entries rewritten by reconciliation",
		},
		[]string{"venue_id"},
	)

	remindersMarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_reminders_marked_total",
			Help: "Reminder kinds marked as sent",
		},
		[]string{"kind"},
	)

	notificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slotbook_notifications_published_total",
			Help: "Notification messages handed to the broker",
		},
		[]string{"type", "status"},
	)
)

// Operation results
const (
	ResultSuccess      = "success"
	ResultRejected     = "rejected"
	ResultExhausted    = "exhausted"
	ResultError        = "error"
	ResultNoop         = "noop"
	StatusPublished    = "published"
	StatusPublishError = "failed"
)

func RecordBookingOperation(operation, result string) {
	bookingOperations.WithLabelValues(operation, result).Inc()
}

func RecordTxConflict(operation string) {
	txConflicts.WithLabelValues(operation).Inc()
}

func ObserveTxDuration(operation string, started time.Time) {
	txDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func RecordLedgerCorrections(venueID string, n int) {
	if n > 0 {
		ledgerCorrections.WithLabelValues(venueID).Add(float64(n))
	}
}

func RecordReminderMarked(kind string) {
	remindersMarked.WithLabelValues(kind).Inc()
}

func RecordNotification(notificationType, status string) {
	notificationsPublished.WithLabelValues(notificationType, status).Inc()
}

// Handler exposes the default registry for gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
