package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcome labels.
const (
	OutcomeConfirmed        = "confirmed"
	OutcomeUnavailable      = "unavailable"
	OutcomeValidationFailed = "validation_failed"
	OutcomeStorageError     = "storage_error"
)

var (
	BookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_booking_attempts_total",
			Help: "Slot booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	// BookingUnavailable breaks down unavailable outcomes by the state found
	// after the conditional update did not apply.
	BookingUnavailable = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_booking_unavailable_total",
			Help: "Unavailable booking attempts by diagnosed reason",
		},
		[]string{"reason"},
	)

	BookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rental_booking_duration_seconds",
			Help:    "Time spent in the conditional slot update",
			Buckets: prometheus.DefBuckets,
		},
	)

	NearbyQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rental_nearby_query_duration_seconds",
			Help:    "Duration of radius searches",
			Buckets: prometheus.DefBuckets,
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_ws_connections",
			Help: "Currently connected realtime clients",
		},
	)

	RoomNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_room_notifications_total",
			Help: "Events delivered to room members, and those dropped for slow clients",
		},
		[]string{"result"}, // "delivered", "dropped"
	)

	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_relay_messages_total",
			Help: "Cross-instance room relay traffic",
		},
		[]string{"direction"}, // "published", "received", "skipped"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_booking_events_published_total",
			Help: "Booking events sent to the message broker",
		},
		[]string{"result"}, // "ok", "error"
	)
)
