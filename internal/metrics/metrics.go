/*
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Path is where the registry is exposed.
const Path = "/metrics"

// Registry holds the traceability metrics. A nil *Registry records nothing.
type Registry struct {
	reg       *prometheus.Registry
	Committed *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Conflicts prometheus.Counter
	Latency   *prometheus.HistogramVec
}

// NewRegistry registers the activity collectors on a fresh registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traceability_activities_committed_total",
		Help: "Activities validated and written to the world state.",
	}, []string{"activity"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "traceability_activities_rejected_total",
		Help: "Activities rejected, by error kind.",
	}, []string{"activity", "kind"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "traceability_tx_conflicts_total",
		Help: "Local transactions aborted because the world state moved underneath them.",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traceability_activity_latency_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"activity"})

	r.MustRegister(committed, rejected, conflicts, latency)
	return &Registry{
		reg:       r,
		Committed: committed,
		Rejected:  rejected,
		Conflicts: conflicts,
		Latency:   latency,
	}
}

// ObserveCommit counts a committed activity and its processing time.
func (r *Registry) ObserveCommit(activity string, took time.Duration) {
	if r == nil {
		return
	}
	r.Committed.WithLabelValues(activity).Inc()
	r.Latency.WithLabelValues(activity).Observe(took.Seconds())
}

// ObserveRejection counts a rejected activity.
func (r *Registry) ObserveRejection(activity, kind string, took time.Duration) {
	if r == nil {
		return
	}
	r.Rejected.WithLabelValues(activity, kind).Inc()
	r.Latency.WithLabelValues(activity).Observe(took.Seconds())
}

// ObserveConflict counts an aborted local transaction.
func (r *Registry) ObserveConflict() {
	if r == nil {
		return
	}
	r.Conflicts.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// FastHTTPHandler serves the registry on Path and 404s everything else.
func (r *Registry) FastHTTPHandler() fasthttp.RequestHandler {
	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(r.Handler())
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != Path {
			ctx.Error("not found", fasthttp.StatusNotFound)
			return
		}
		metricsHandler(ctx)
	}
}

// NewServer returns a fasthttp server exposing the registry.
func (r *Registry) NewServer(name string) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:      r.FastHTTPHandler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Name:         name,
	}
}
