package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// Markers counts markers seen in text, by result (resolved, unresolved).
	Markers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoticonbot_markers_total",
			Help: "Total number of emoticon markers found in processed text.",
		},
		[]string{"result"},
	)

	// PartsSent counts outbound parts sent by the emoticon dispatcher.
	PartsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoticonbot_parts_sent_total",
			Help: "Total number of message parts sent on behalf of the emoticon plugin.",
		},
		[]string{"kind", "status"}, // kind: text, image_path, image_url; status: sent, failed
	)

	// TelegramAPICalls counts calls to the Telegram API.
	TelegramAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoticonbot_telegram_api_calls_total",
			Help: "Total number of Telegram API calls.",
		},
		[]string{"method", "status"},
	)

	// LLMRequests counts chat completion requests.
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emoticonbot_llm_requests_total",
			Help: "Total number of chat completion requests.",
		},
		[]string{"status"},
	)

	// CatalogSize reports the number of emoticons in the loaded catalog.
	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "emoticonbot_catalog_size",
			Help: "Number of emoticons in the loaded catalog.",
		},
	)
)

// NewRouter returns the HTTP handler exposing /metrics.
func NewRouter() http.Handler {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartServer starts the Prometheus metrics HTTP server and stops it when ctx ends.
func StartServer(ctx context.Context, addr string) {
	if addr == "" {
		log.Info().Msg("Metrics server address not configured, Prometheus endpoint will not be available.")
		return
	}

	srv := &http.Server{Addr: addr, Handler: NewRouter(), ReadHeaderTimeout: 10 * time.Second}

	log.Info().Str("address", addr).Msg("Starting Prometheus metrics server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Prometheus metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
