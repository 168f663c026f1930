package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"
)

type fakeStage struct {
	run      func() (int, error)
	fallback func() (int, error)
}

func (f fakeStage) Name() string { return "fake" }

func (f fakeStage) Run(context.Context, string) (int, error) { return f.run() }

func (f fakeStage) Fallback(context.Context, string, error) (int, error) { return f.fallback() }

func testRunner(m *Metrics) stageRunner {
	return stageRunner{metrics: m, tracer: noop.NewTracerProvider().Tracer("test")}
}

func TestRunStage_Primary(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	s := fakeStage{run: func() (int, error) { return 7, nil }}

	out, outcome, err := runStage[string, int](context.Background(), testRunner(m), s, "in")

	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.False(t, outcome.FallbackUsed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues("fake", outcomePrimary)))
}

func TestRunStage_FallbackOnError(t *testing.T) {
	m := NewMetrics(nil)
	s := fakeStage{
		run:      func() (int, error) { return 0, errors.New("boom") },
		fallback: func() (int, error) { return 3, nil },
	}

	out, outcome, err := runStage[string, int](context.Background(), testRunner(m), s, "in")

	require.NoError(t, err)
	assert.Equal(t, 3, out)
	assert.True(t, outcome.FallbackUsed)
	assert.Equal(t, "boom", outcome.Reason)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues("fake", outcomeFallback)))
}

func TestRunStage_FallbackOnPanic(t *testing.T) {
	s := fakeStage{
		run:      func() (int, error) { panic("kaboom") },
		fallback: func() (int, error) { return 1, nil },
	}

	out, outcome, err := runStage[string, int](context.Background(), testRunner(nil), s, "in")

	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Contains(t, outcome.Reason, "kaboom")
}

func TestRunStage_FallbackFails(t *testing.T) {
	m := NewMetrics(nil)
	s := fakeStage{
		run:      func() (int, error) { return 0, errors.New("boom") },
		fallback: func() (int, error) { panic("fallback exploded") },
	}

	out, outcome, err := runStage[string, int](context.Background(), testRunner(m), s, "in")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStageFailure)
	assert.Contains(t, err.Error(), "fake fallback failed")
	assert.Zero(t, out)
	assert.True(t, outcome.FallbackUsed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues("fake", outcomeFailed)))
}

func TestEmergency(t *testing.T) {
	o := NewOrchestrator(nil, config.Default())
	result := newResult("id-1")
	result.FallbacksUsed = []string{StageSmartProcessing}
	prepared := PrepareText(nil, "Ingredients:\n- 1 onion\n- 2 onions\n- 1 cup milk\nInstructions:\nStir the milk.")

	o.emergency(result, prepared, errors.New("validation fallback failed"))

	assert.Equal(t, []string{StageSmartProcessing, FallbackEmergency}, result.FallbacksUsed)
	assert.Equal(t, MethodEmergency, result.Metadata.ExtractionMethod)
	assert.Equal(t, o.cfg.Extraction.EmergencyConfidence, result.Confidence)
	assert.Equal(t, "validation fallback failed", result.Metadata.StageReasons[FallbackEmergency])
	require.Len(t, result.Issues, 1)
	assert.Equal(t, ingredient.SeverityCritical, result.Issues[0].Severity)

	require.Len(t, result.Ingredients, 2)
	assert.Equal(t, "onion", result.Ingredients[0].Name)
	assert.Equal(t, 3.0, *result.Ingredients[0].Quantity)
	assert.Equal(t, 1, result.Metadata.DuplicatesResolved)
	assert.Equal(t, ingredient.CategoryDairy, result.Ingredients[1].Category)
}

func TestMetrics_Extraction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	o := NewOrchestrator(nil, config.Default(), WithMetrics(m))

	o.ExtractIngredients(context.Background(), nil, "Ingredients:\n- 2 cups flour\n- 1 tsp salt", Options{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractions.WithLabelValues(MethodHeuristic)))
	for _, stage := range []string{StageSmartProcessing, StageInformationExtraction, StageValidation} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.stageRuns.WithLabelValues(stage, outcomeFallback)), stage)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(m.confidence))
}

func TestMetrics_ObserveCache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveCache(func() (int64, int64) { return 3, 5 })

	expected := `
# HELP ingredient_extractor_llm_cache_hits_total LLM response cache hits
# TYPE ingredient_extractor_llm_cache_hits_total counter
ingredient_extractor_llm_cache_hits_total 3
# HELP ingredient_extractor_llm_cache_misses_total LLM response cache misses
# TYPE ingredient_extractor_llm_cache_misses_total counter
ingredient_extractor_llm_cache_misses_total 5
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"ingredient_extractor_llm_cache_hits_total", "ingredient_extractor_llm_cache_misses_total")
	assert.NoError(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeStage("x", outcomePrimary, 0)
		m.observeExtraction(MethodLLM, 0.5, 1)
		m.ObserveCache(nil)
	})
}
