package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RouteSubmissions  *prometheus.CounterVec
	DirectionsSeconds prometheus.Histogram
	GeocodeSeconds    *prometheus.HistogramVec
	GeocodeCacheHits  prometheus.Counter
	RouteAlternatives prometheus.Gauge
	WarmQueries       *prometheus.CounterVec
	WarmWorkers       prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RouteSubmissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wayly_route_submissions_total",
			Help: "Total number of route submissions by outcome.",
		}, []string{"outcome"}),
		DirectionsSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "wayly_directions_request_duration_seconds",
			Help:    "Duration of requests to the directions API.",
			Buckets: prometheus.DefBuckets,
		}),
		GeocodeSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wayly_geocoding_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		GeocodeCacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wayly_geocoding_cache_hits_total",
			Help: "Total number of place queries answered from the geocode cache.",
		}),
		RouteAlternatives: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wayly_route_alternatives",
			Help: "Number of route alternatives currently displayed.",
		}),
		WarmQueries: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "wayly_cache_warm_queries_total",
			Help: "Total number of place queries processed by the cache warmer by result.",
		}, []string{"result"}),
		WarmWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "wayly_cache_warm_active_workers",
			Help: "Number of cache warmer workers currently geocoding.",
		}),
	}
}
