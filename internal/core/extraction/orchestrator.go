package extraction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// 階段名稱
const (
	StageSmartProcessing       = "smart_processing"
	StageInformationExtraction = "information_extraction"
	StageValidation            = "validation"
	FallbackEmergency          = "emergency"
)

const tracerName = "ingredient-extractor/extraction"

// 問題描述
const (
	IssueEmptyInput      = "No recipe text was provided"
	IssueNoIngredients   = "No ingredients could be extracted from the recipe text"
	IssueEmergencyReview = "Automatic extraction failed; the ingredient list was parsed line by line and needs manual review"
)

// Options 單次擷取的選項
type Options struct {
	// MinConfidence 採買清單最低信心分數，<= 0 時使用設定值
	MinConfidence float64
	// DisableLLM 不呼叫 LLM，全部階段使用備援邏輯
	DisableLLM bool
}

// Metadata 擷取過程資訊
type Metadata struct {
	ExtractionID       string            `json:"extraction_id"`
	FormatType         FormatType        `json:"format_type,omitempty"`
	ExtractionMethod   string            `json:"extraction_method"`
	DuplicatesResolved int               `json:"duplicates_resolved"`
	StageReasons       map[string]string `json:"stage_reasons,omitempty"`
	ProcessingTimeMs   int64             `json:"processing_time_ms"`
	CompletedAt        time.Time         `json:"completed_at"`
}

// ExtractionResult 擷取結果
type ExtractionResult struct {
	Ingredients   []ingredient.ValidatedIngredient `json:"ingredients"`
	Issues        []ingredient.Issue               `json:"issues"`
	Confidence    float64                          `json:"confidence"`
	FallbacksUsed []string                         `json:"fallbacks_used"`
	Categories    map[string]int                   `json:"categories"`
	Allergens     []string                         `json:"allergens"`
	ShoppingList  []ShoppingListItem               `json:"shopping_list"`
	PantryCheck   []PantryCheckItem                `json:"pantry_check"`
	Metadata      Metadata                         `json:"metadata"`
}

// Orchestrator 依序執行三個階段，任一階段失敗都以備援結果替代
type Orchestrator struct {
	invoker provider.Invoker
	cfg     *config.Config
	metrics *Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option Orchestrator 選項
type Option func(*Orchestrator)

// WithMetrics 設定 Prometheus 指標
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithTracer 設定 OpenTelemetry tracer
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.tracer = t
		}
	}
}

// NewOrchestrator 創建擷取管線；invoker 可為 nil，此時只使用備援邏輯
func NewOrchestrator(invoker provider.Invoker, cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &Orchestrator{
		invoker: invoker,
		cfg:     cfg,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExtractIngredients 擷取食材；不會返回錯誤，也不會 panic
func (o *Orchestrator) ExtractIngredients(ctx context.Context, recipe *common.RecipeData, rawText string, opts Options) (result *ExtractionResult) {
	start := o.now()
	ctx, span := o.tracer.Start(ctx, "extraction.extract_ingredients")
	defer span.End()

	result = newResult(common.GenerateUUID())
	var prepared PreparedRecipe

	defer func() {
		if rec := recover(); rec != nil {
			common.LogError("擷取流程發生 panic，改用緊急備援", zap.Any("panic", rec))
			result = newResult(result.Metadata.ExtractionID)
			o.emergency(result, prepared, fmt.Errorf("%w: panic: %v", common.ErrStageFailure, rec))
		}
		o.finalize(result, opts, start)
		span.SetAttributes(
			attribute.String("extraction.method", result.Metadata.ExtractionMethod),
			attribute.Int("extraction.ingredients", len(result.Ingredients)),
			attribute.Float64("extraction.confidence", result.Confidence),
		)
	}()

	prepared = PrepareText(recipe, rawText)
	if prepared.IsEmpty() {
		result.Issues = append(result.Issues, ingredient.Issue{
			Severity:    ingredient.SeverityCritical,
			Description: IssueEmptyInput,
		})
		result.Metadata.ExtractionMethod = MethodNone
		return result
	}

	invoker := o.invoker
	if opts.DisableLLM {
		invoker = nil
	}
	runner := stageRunner{metrics: o.metrics, tracer: o.tracer}

	smart, outcome, err := runStage[PreparedRecipe, *SmartResult](ctx, runner, NewSmartProcessingStage(invoker, o.cfg), prepared)
	result.record(StageSmartProcessing, outcome)
	if err != nil || smart == nil {
		o.emergency(result, prepared, err)
		return result
	}
	result.Metadata.FormatType = smart.FormatType
	result.Metadata.ExtractionMethod = smart.Method

	extracted, outcome, err := runStage[*SmartResult, *ExtractionOutput](ctx, runner, NewInformationExtractionStage(invoker, o.cfg), smart)
	result.record(StageInformationExtraction, outcome)
	if err != nil || extracted == nil {
		o.emergency(result, prepared, err)
		return result
	}

	validated, outcome, err := runStage[ValidationInput, *ValidationOutput](ctx, runner, NewValidationStage(invoker, o.cfg), ValidationInput{
		Extraction:    extracted,
		Preprocessing: smart,
	})
	result.record(StageValidation, outcome)
	if err != nil || validated == nil {
		o.emergency(result, prepared, err)
		return result
	}

	result.Ingredients = validated.Ingredients
	result.Issues = append(result.Issues, validated.Issues...)
	result.Confidence = validated.Confidence
	result.Metadata.DuplicatesResolved = validated.DuplicatesResolved
	return result
}

// emergency 所有備援都失敗時，直接逐行解析原始文字
func (o *Orchestrator) emergency(result *ExtractionResult, prepared PreparedRecipe, cause error) {
	common.LogError("擷取管線失敗，使用緊急備援", zap.Error(cause))

	items, err := safeCall(func() ([]ingredient.CategorizedIngredient, error) {
		parsed := parseLines(prepared.FullText)
		out := make([]ingredient.CategorizedIngredient, 0, len(parsed))
		for _, n := range parsed {
			out = append(out, ingredient.Categorized(n))
		}
		return out, nil
	})
	if err != nil {
		common.LogError("緊急備援失敗", zap.Error(err))
		items = nil
	}

	merged, resolved := ingredient.Deduplicate(items)
	result.Ingredients = merged
	result.Issues = []ingredient.Issue{{
		Severity:    ingredient.SeverityCritical,
		Description: IssueEmergencyReview,
	}}
	result.Confidence = o.cfg.Extraction.EmergencyConfidence
	result.FallbacksUsed = appendUnique(result.FallbacksUsed, FallbackEmergency)
	if cause != nil {
		result.Metadata.StageReasons[FallbackEmergency] = cause.Error()
	}
	result.Metadata.ExtractionMethod = MethodEmergency
	result.Metadata.DuplicatesResolved = resolved
}

// finalize 產生摘要與檢視並記錄指標
func (o *Orchestrator) finalize(result *ExtractionResult, opts Options, start time.Time) {
	minConfidence := opts.MinConfidence
	if minConfidence <= 0 {
		minConfidence = o.cfg.Extraction.MinConfidence
	}

	if len(result.Ingredients) == 0 && !hasCritical(result.Issues) {
		result.Issues = append(result.Issues, ingredient.Issue{
			Severity:    ingredient.SeverityCritical,
			Description: IssueNoIngredients,
		})
	}

	allergens := make(map[string]bool)
	for _, it := range result.Ingredients {
		result.Categories[string(it.Category)]++
		for _, a := range it.Allergens {
			allergens[strings.ToLower(a)] = true
		}
	}
	for a := range allergens {
		result.Allergens = append(result.Allergens, a)
	}
	sort.Strings(result.Allergens)

	result.ShoppingList = BuildShoppingList(result.Ingredients, minConfidence)
	result.PantryCheck = BuildPantryCheck(result.Ingredients)

	completed := o.now()
	result.Metadata.CompletedAt = completed
	result.Metadata.ProcessingTimeMs = completed.Sub(start).Milliseconds()

	o.metrics.observeExtraction(result.Metadata.ExtractionMethod, result.Confidence, len(result.Ingredients))
	common.LogInfo("食材擷取完成",
		zap.String("extraction_id", result.Metadata.ExtractionID),
		zap.String("method", result.Metadata.ExtractionMethod),
		zap.Int("ingredients", len(result.Ingredients)),
		zap.Float64("confidence", result.Confidence),
		zap.Strings("fallbacks", result.FallbacksUsed),
		zap.Int64("processing_time_ms", result.Metadata.ProcessingTimeMs))
}

func newResult(id string) *ExtractionResult {
	return &ExtractionResult{
		Ingredients:   []ingredient.ValidatedIngredient{},
		Issues:        []ingredient.Issue{},
		FallbacksUsed: []string{},
		Categories:    map[string]int{},
		Allergens:     []string{},
		Metadata: Metadata{
			ExtractionID: id,
			StageReasons: map[string]string{},
		},
	}
}

// record 記錄階段是否使用備援
func (r *ExtractionResult) record(stage string, outcome stageOutcome) {
	if !outcome.FallbackUsed {
		return
	}
	r.FallbacksUsed = appendUnique(r.FallbacksUsed, stage)
	if outcome.Reason != "" {
		r.Metadata.StageReasons[stage] = outcome.Reason
	}
}

func hasCritical(issues []ingredient.Issue) bool {
	for _, is := range issues {
		if is.Severity == ingredient.SeverityCritical {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
