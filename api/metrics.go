package api

import (
	"sync"
	"time"
)

// RouteMetrics aggregates metrics for a specific route
type RouteMetrics struct {
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Count       int64         `json:"count"`
	ErrorCount  int64         `json:"errorCount"`
	TotalTime   time.Duration `json:"totalTime"`
	AvgTime     time.Duration `json:"avgTime"`
	MaxTime     time.Duration `json:"maxTime"`
	LastRequest time.Time     `json:"lastRequest"`
}

// MetricsSummary is the aggregate view served by the metrics endpoint
type MetricsSummary struct {
	TotalRequests int64                    `json:"totalRequests"`
	TotalErrors   int64                    `json:"totalErrors"`
	WindowStart   time.Time                `json:"windowStart"`
	Routes        map[string]*RouteMetrics `json:"routes"`
}

// MetricsCollector collects and aggregates request metrics.
// Collection is designed to never block production requests.
type MetricsCollector struct {
	mu            sync.RWMutex
	routeMetrics  map[string]*RouteMetrics
	windowStart   time.Time
	totalRequests int64
	totalErrors   int64
}

var globalMetrics *MetricsCollector

// InitMetrics initializes the global metrics collector
func InitMetrics() {
	globalMetrics = &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		windowStart:  time.Now(),
	}
}

// RecordRequest folds one finished request into the aggregates
func RecordRequest(method, path string, status int, duration time.Duration) {
	if globalMetrics == nil {
		return
	}
	globalMetrics.record(method, path, status, duration)
}

// Summary returns a snapshot of the aggregates, or nil when metrics are off
func Summary() *MetricsSummary {
	if globalMetrics == nil {
		return nil
	}
	return globalMetrics.summary()
}

func (m *MetricsCollector) record(method, path string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if status >= 400 {
		m.totalErrors++
	}

	key := method + " " + path
	rm, ok := m.routeMetrics[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Path: path}
		m.routeMetrics[key] = rm
	}
	rm.Count++
	if status >= 400 {
		rm.ErrorCount++
	}
	rm.TotalTime += duration
	rm.AvgTime = time.Duration(int64(rm.TotalTime) / rm.Count)
	if duration > rm.MaxTime {
		rm.MaxTime = duration
	}
	rm.LastRequest = time.Now()
}

func (m *MetricsCollector) summary() *MetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routes := make(map[string]*RouteMetrics, len(m.routeMetrics))
	for k, v := range m.routeMetrics {
		copied := *v
		routes[k] = &copied
	}
	return &MetricsSummary{
		TotalRequests: m.totalRequests,
		TotalErrors:   m.totalErrors,
		WindowStart:   m.windowStart,
		Routes:        routes,
	}
}
