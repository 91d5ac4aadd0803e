package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "lightsout"

// Metrics holds the server's collectors on a private registry so several
// servers (or tests) can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	TickDuration  prometheus.Histogram
	Ticks         prometheus.Counter
	Sessions      prometheus.Gauge
	Entities      *prometheus.GaugeVec
	Restarts      prometheus.Counter
	Kills         *prometheus.CounterVec
	BulletsFired  prometheus.Counter
	InputsApplied prometheus.Counter
	JournalDrops  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent running one simulation tick.",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032, .064},
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks completed.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Connected sessions bound to a player.",
		}),
		Entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entities",
			Help:      "Live entities by kind.",
		}, []string{"kind"}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_restarts_total",
			Help:      "Worlds rebuilt after a failed tick.",
		}),
		Kills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kills_total",
			Help:      "Characters killed, by victim kind.",
		}, []string{"victim"}),
		BulletsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bullets_fired_total",
			Help:      "Bullets spawned by players and guards.",
		}),
		InputsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_applied_total",
			Help:      "Client input snapshots applied to players.",
		}),
		JournalDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_dropped_total",
			Help:      "Journal rows dropped because the writer queue was full.",
		}),
	}
	m.Registry.MustRegister(
		m.TickDuration, m.Ticks, m.Sessions, m.Entities, m.Restarts,
		m.Kills, m.BulletsFired, m.InputsApplied, m.JournalDrops,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr, path string, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return m.serve(ctx, ln, path, log)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, path string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", ln.Addr().String()), zap.String("path", path))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
