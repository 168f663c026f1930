package extraction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "ingredient_extractor"

// stage 執行結果標籤
const (
	outcomePrimary  = "primary"
	outcomeFallback = "fallback"
	outcomeFailed   = "failed"
)

// Metrics 擷取管線的 Prometheus 指標；nil 時所有方法皆為 no-op
type Metrics struct {
	extractions   *prometheus.CounterVec
	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	confidence    prometheus.Histogram
	ingredients   prometheus.Histogram

	registerer prometheus.Registerer
}

// NewMetrics 建立指標並註冊到 reg；reg 為 nil 時只建立不註冊
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "extractions_total",
				Help:      "Total number of ingredient extractions by final method",
			},
			[]string{"method"},
		),
		stageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "stage_runs_total",
				Help:      "Pipeline stage executions by outcome",
			},
			[]string{"stage", "outcome"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		confidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "extraction_confidence",
				Help:      "Final confidence of each extraction",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		ingredients: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "extraction_ingredients",
				Help:      "Number of ingredients returned per extraction",
				Buckets:   []float64{0, 1, 3, 5, 10, 15, 20, 30, 50},
			},
		),
		registerer: reg,
	}

	if reg != nil {
		reg.MustRegister(m.extractions, m.stageRuns, m.stageDuration, m.confidence, m.ingredients)
	}
	return m
}

// ObserveCache 以 CounterFunc 匯出 LLM 回應快取的命中與未命中次數
func (m *Metrics) ObserveCache(stats func() (hits, misses int64)) {
	if m == nil || m.registerer == nil || stats == nil {
		return
	}
	m.registerer.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "llm_cache_hits_total",
			Help:      "LLM response cache hits",
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "llm_cache_misses_total",
			Help:      "LLM response cache misses",
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

func (m *Metrics) observeStage(stage, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageRuns.WithLabelValues(stage, outcome).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) observeExtraction(method string, confidence float64, count int) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(method).Inc()
	m.confidence.Observe(confidence)
	m.ingredients.Observe(float64(count))
}
