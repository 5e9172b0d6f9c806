package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horao",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horao",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Viewer metrics
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "viewer",
		Name:      "commands_total",
		Help:      "Total commands interpreted",
	}, []string{"command", "status"})

	GeometriesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "mesh",
		Name:      "geometries_total",
		Help:      "Geometries pushed to the mesher by outcome",
	}, []string{"outcome"})

	TrianglesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "mesh",
		Name:      "triangles_total",
		Help:      "Total triangles produced by the triangulator",
	})

	TilesPlanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "lod",
		Name:      "tiles_planned_total",
		Help:      "Total tile descriptors emitted by the LOD planner",
	})

	TileResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "lod",
		Name:      "tile_resolutions_total",
		Help:      "Total deferred resources resolved into meshes",
	}, []string{"status"})

	TileResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "horao",
		Subsystem: "lod",
		Name:      "tile_resolve_duration_seconds",
		Help:      "Duration of resolving one deferred resource",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	LayersLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horao",
		Subsystem: "viewer",
		Name:      "layers_loaded",
		Help:      "Current number of loaded layers",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horao",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horao",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horao",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horao",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "horao",
		Subsystem: "db",
		Name:      "pool_empty_acquires",
		Help:      "Times a connection had to be established when acquiring from the pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
}

// UpdateDBPoolMetrics updates database pool gauges from pool stats.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
	DBPoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
}
