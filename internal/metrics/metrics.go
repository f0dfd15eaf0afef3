package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniconnect_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uniconnect_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniconnect_messages_posted_total",
			Help: "Total channel messages posted",
		},
		[]string{"channel_type"},
	)

	ChannelJoins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniconnect_channel_joins_total",
			Help: "Total join attempts",
		},
		[]string{"result"}, // "created" or "duplicate"
	)

	ProfileResolves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uniconnect_profile_resolves_total",
			Help: "Total batch profile resolutions",
		},
	)

	// Realtime metrics
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "uniconnect_realtime_subscribers",
			Help: "Currently connected realtime subscribers",
		},
	)

	RealtimeEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uniconnect_realtime_events_total",
			Help: "Total insert events fanned out to subscribers",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniconnect_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
