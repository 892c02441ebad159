package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	generationTotal = newCounterVec("type", "status")
	providerTotal   = newCounterVec("provider", "outcome")
	insightsTotal   = newCounterVec("outcome")

	creditsPurchasedTotal atomic.Uint64
	sweepRunsTotal        atomic.Uint64
	sweepRefreshedTotal   atomic.Uint64
	sweepFailedTotal      atomic.Uint64
	panicsTotal           atomic.Uint64

	providerLatency = newHistogramVec([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000, 300000})
)

// IncGeneration counts a generation request by content type and final status.
func IncGeneration(contentType, status string) {
	generationTotal.Inc(contentType, status)
}

// IncProviderCall counts one upstream provider call.
func IncProviderCall(provider, outcome string) {
	providerTotal.Inc(provider, outcome)
}

// ObserveProviderLatencyMs records a provider round trip in milliseconds.
func ObserveProviderLatencyMs(provider string, value float64) {
	if value < 0 {
		value = 0
	}
	providerLatency.Observe(provider, value)
}

// IncInsights counts an insights lookup outcome (hit, miss, error).
func IncInsights(outcome string) {
	insightsTotal.Inc(outcome)
}

// AddCreditsPurchased adds purchased credits.
func AddCreditsPurchased(amount int) {
	if amount > 0 {
		creditsPurchasedTotal.Add(uint64(amount))
	}
}

// ObserveSweep records one insights sweep run.
func ObserveSweep(refreshed, failed int) {
	sweepRunsTotal.Add(1)
	if refreshed > 0 {
		sweepRefreshedTotal.Add(uint64(refreshed))
	}
	if failed > 0 {
		sweepFailedTotal.Add(uint64(failed))
	}
}

// IncPanic counts a recovered handler panic.
func IncPanic() {
	panicsTotal.Add(1)
}

// Panics returns the recovered panic count.
func Panics() uint64 {
	return panicsTotal.Load()
}

// GenerationCount returns the current generation counter for a label pair.
func GenerationCount(contentType, status string) uint64 {
	return generationTotal.Get(contentType, status)
}

// ProviderCalls returns the current provider counter for a label pair.
func ProviderCalls(provider, outcome string) uint64 {
	return providerTotal.Get(provider, outcome)
}

// InsightsCount returns the current insights counter for an outcome.
func InsightsCount(outcome string) uint64 {
	return insightsTotal.Get(outcome)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "generation_requests_total", "Generation requests by type and status", generationTotal)
	writeCounterVec(&buf, "provider_calls_total", "Upstream provider calls by outcome", providerTotal)
	writeCounterVec(&buf, "insights_requests_total", "Insights lookups by outcome", insightsTotal)
	writeCounter(&buf, "credits_purchased_total", "Credits added through purchases", creditsPurchasedTotal.Load())
	writeCounter(&buf, "insights_sweep_runs_total", "Insights sweep runs", sweepRunsTotal.Load())
	writeCounter(&buf, "insights_sweep_refreshed_total", "Industries refreshed by sweeps", sweepRefreshedTotal.Load())
	writeCounter(&buf, "insights_sweep_failed_total", "Industries that failed to refresh during sweeps", sweepFailedTotal.Load())
	writeCounter(&buf, "http_panics_total", "Handler panics recovered", panicsTotal.Load())
	writeHistogramVec(&buf, "provider_latency_ms", "Provider latency in milliseconds", "provider", providerLatency)
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: make(map[string]uint64)}
}

func (v *counterVec) Inc(values ...string) {
	if len(values) != len(v.labels) {
		return
	}
	key := strings.Join(values, "\x00")
	v.mu.Lock()
	v.values[key]++
	v.mu.Unlock()
}

func (v *counterVec) Get(values ...string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values[strings.Join(values, "\x00")]
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket that holds it; rendering accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

type histogramVec struct {
	mu      sync.Mutex
	buckets []float64
	series  map[string]*histogram
}

func newHistogramVec(buckets []float64) *histogramVec {
	return &histogramVec{buckets: buckets, series: make(map[string]*histogram)}
}

func (v *histogramVec) Observe(label string, value float64) {
	v.mu.Lock()
	h, ok := v.series[label]
	if !ok {
		h = newHistogram(v.buckets)
		v.series[label] = h
	}
	v.mu.Unlock()
	h.Observe(value)
}

func (v *histogramVec) snapshots() (map[string]histogramSnapshot, []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]histogramSnapshot, len(v.series))
	keys := make([]string, 0, len(v.series))
	for k, h := range v.series {
		out[k] = h.Snapshot()
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return out, keys
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, v *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	v.mu.Lock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts := strings.Split(k, "\x00")
		pairs := make([]string, 0, len(parts))
		for i, p := range parts {
			pairs = append(pairs, fmt.Sprintf("%s=%q", v.labels[i], p))
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", name, strings.Join(pairs, ","), v.values[k])
	}
	v.mu.Unlock()
}

func writeHistogramVec(buf *bytes.Buffer, name, help, label string, v *histogramVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	snaps, keys := v.snapshots()
	for _, k := range keys {
		snap := snaps[k]
		var cumulative uint64
		for i, bound := range snap.buckets {
			cumulative += snap.counts[i]
			fmt.Fprintf(buf, "%s_bucket{%s=%q,le=\"%s\"} %d\n", name, label, k, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(buf, "%s_bucket{%s=%q,le=\"+Inf\"} %d\n", name, label, k, snap.count)
		fmt.Fprintf(buf, "%s_sum{%s=%q} %s\n", name, label, k, formatFloat(snap.sum))
		fmt.Fprintf(buf, "%s_count{%s=%q} %d\n", name, label, k, snap.count)
	}
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed milliseconds since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
