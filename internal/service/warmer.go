package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/wayly/internal/geocoding"
	"github.com/UnknownOlympus/wayly/internal/metrics"
	"github.com/UnknownOlympus/wayly/internal/resolver"
)

// WarmReport counts the outcome of one warm-up batch.
type WarmReport struct {
	Resolved int
	Failed   int
	Skipped  int // presets and the current-location keyword, never sent to the geocoder
}

// Warmer geocodes a batch of place names through the cached provider so later route
// submissions find them in the cache.
type Warmer struct {
	log          *slog.Logger       // Logger for logging warmer activities
	provider     geocoding.Provider // Provider to warm, normally a CachedProvider
	providerName string             // Name of the provider for metrics labeling
	presets      resolver.Presets   // Presets the resolver answers without geocoding
	metrics      *metrics.Metrics   // Metrics for tracking warmer progress, may be nil
	numWorkers   int                // Number of concurrent workers
}

// NewWarmer creates a new instance of Warmer. numWorkers below one means one worker.
func NewWarmer(
	log *slog.Logger,
	provider geocoding.Provider,
	providerName string,
	presets resolver.Presets,
	metrics *metrics.Metrics,
	numWorkers int,
) *Warmer {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Warmer{
		log:          log,
		provider:     provider,
		providerName: providerName,
		presets:      presets,
		metrics:      metrics,
		numWorkers:   numWorkers,
	}
}

// Warm geocodes every distinct non-empty query that is not a preset using a pool of
// workers and waits for all of them to finish. Failures are logged and counted, never returned.
func (w *Warmer) Warm(ctx context.Context, queries []string) WarmReport {
	var report WarmReport

	unique := make([]string, 0, len(queries))
	for _, query := range dedupeQueries(queries) {
		_, preset := w.presets.Lookup(query)
		if preset || strings.EqualFold(query, resolver.CurrentLocationKeyword) {
			w.log.DebugContext(ctx, "Skipping place the resolver answers locally", "query", query)
			report.Skipped++
			continue
		}
		unique = append(unique, query)
	}

	if len(unique) == 0 {
		w.log.InfoContext(ctx, "No places to warm.", "skipped", report.Skipped)
		return report
	}

	w.log.InfoContext(ctx, "Warming geocode cache", "queries", len(unique), "num_workers", w.numWorkers)

	jobs := make(chan string, len(unique))
	var (
		wgr sync.WaitGroup
		mu  sync.Mutex
	)

	for i := 1; i <= w.numWorkers; i++ {
		wgr.Add(1)
		go func(idx int) {
			defer wgr.Done()
			for query := range jobs {
				ok := w.warmOne(ctx, idx, query)

				mu.Lock()
				if ok {
					report.Resolved++
				} else {
					report.Failed++
				}
				mu.Unlock()
			}
		}(i)
	}

	for _, query := range unique {
		jobs <- query
	}
	close(jobs)

	wgr.Wait()
	w.log.InfoContext(ctx, "Warm-up finished",
		"resolved", report.Resolved, "failed", report.Failed, "skipped", report.Skipped)

	return report
}

func (w *Warmer) warmOne(ctx context.Context, idx int, query string) bool {
	if w.metrics != nil {
		w.metrics.WarmWorkers.Inc()
		defer w.metrics.WarmWorkers.Dec()
	}

	w.log.DebugContext(ctx, "Warming place", "worker", idx, "query", query)

	startTime := time.Now()
	place, err := w.provider.Geocode(ctx, query)
	if w.metrics != nil {
		w.metrics.GeocodeSeconds.WithLabelValues(w.providerName).Observe(time.Since(startTime).Seconds())
	}

	if err != nil {
		w.log.ErrorContext(ctx, "Failed to geocode", "worker", idx, "query", query, "error", err)
		w.count("failure")
		return false
	}

	w.count("success")
	w.log.DebugContext(ctx, "Worker warmed the place",
		"worker", idx, "query", query, "lat", place.Latitude, "lon", place.Longitude)

	return true
}

func (w *Warmer) count(result string) {
	if w.metrics != nil {
		w.metrics.WarmQueries.WithLabelValues(result).Inc()
	}
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	unique := make([]string, 0, len(queries))

	for _, query := range queries {
		query = strings.TrimSpace(query)
		key := strings.ToLower(query)
		if query == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, query)
	}

	return unique
}
