package monitor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

var (
	// SettlementsTotal counts settled requests by type and decision
	SettlementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnmax",
		Name:      "settlements_total",
		Help:      "Number of settled requests",
	}, []string{"type", "decision"})

	// BonusCreditsTotal counts referral bonus credits by level
	BonusCreditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnmax",
		Name:      "bonus_credits_total",
		Help:      "Number of referral bonus credits applied",
	}, []string{"level"})

	// BonusCreditFailures counts skipped ancestor credits during fan-out
	BonusCreditFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earnmax",
		Name:      "bonus_credit_failures_total",
		Help:      "Number of referral bonus credits skipped on error",
	}, []string{"level"})

	// IntegrityViolationsTotal counts fatal post-validation debit failures
	IntegrityViolationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "earnmax",
		Name:      "integrity_violations_total",
		Help:      "Number of settlement integrity violations",
	})

	// DispatchPending tracks requests waiting for an active admin
	DispatchPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "earnmax",
		Name:      "dispatch_pending",
		Help:      "Number of pending requests without an assigned admin",
	})
)

var monitoringServer *http.Server

func init() {
	prometheus.MustRegister(
		SettlementsTotal,
		BonusCreditsTotal,
		BonusCreditFailures,
		IntegrityViolationsTotal,
		DispatchPending,
	)
}

// LoopProfilingServer expose prometheus metrics and pprof on a separate port
func LoopProfilingServer(cfg Config) {
	if !cfg.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	monitoringServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	log.Info().Str("section", "monitor").Int("port", cfg.Port).Msg("Monitoring server started")
	if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("section", "monitor").Msg("Monitoring server stopped unexpectedly")
	}
}

// ShutdownServer stop the monitoring listener if it was started
func ShutdownServer() {
	if monitoringServer == nil {
		return
	}
	if err := monitoringServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Str("section", "monitor").Msg("Unable to shutdown monitoring server")
	}
}
