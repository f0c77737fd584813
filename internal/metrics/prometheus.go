package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campus_request_duration_seconds",
			Help:    "Request processing duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_resolutions_total",
			Help: "Resolved queries by answering tier",
		},
		[]string{"source"},
	)

	ConfidenceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "campus_confidence_score",
			Help:    "Confidence of resolved answers",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	LanguagesDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_languages_detected_total",
			Help: "Messages by detected language",
		},
		[]string{"language"},
	)

	AugmentationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_augmentations_total",
			Help: "Generative augmentation attempts by outcome",
		},
		[]string{"outcome"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	TTSRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_tts_requests_total",
			Help: "Text-to-speech requests by status",
		},
		[]string{"status"},
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_feedback_total",
			Help: "User feedback submissions",
		},
		[]string{"helpful"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache"},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "campus_circuit_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(ConfidenceScore)
	prometheus.MustRegister(LanguagesDetected)
	prometheus.MustRegister(AugmentationsTotal)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(TTSRequests)
	prometheus.MustRegister(FeedbackTotal)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CircuitState)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
