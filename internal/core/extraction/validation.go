package extraction

import (
	"context"
	"fmt"
	"math"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// IssueValidationUnavailable 驗證 LLM 無法使用時加入的問題描述
const IssueValidationUnavailable = "AI validation unavailable; ingredients were deduplicated without review"

// validationFallbackCap 驗證備援最高信心分數
const validationFallbackCap = 0.5

// ValidationInput 第三階段輸入
type ValidationInput struct {
	Extraction    *ExtractionOutput
	Preprocessing *SmartResult
}

// ValidationOutput 第三階段輸出
type ValidationOutput struct {
	Ingredients        []ingredient.ValidatedIngredient `json:"ingredients"`
	Issues             []ingredient.Issue               `json:"issues"`
	DuplicatesResolved int                              `json:"duplicates_resolved"`
	Confidence         float64                          `json:"confidence"`
	FallbackUsed       bool                             `json:"fallback_used"`
	FallbackReason     string                           `json:"fallback_reason,omitempty"`
	Method             string                           `json:"method"`
}

// ValidationStage 去重合併、標記低信心項目，並以 LLM #3 複查
type ValidationStage struct {
	invoker       provider.Invoker
	model         string
	maxTokens     int
	temperature   float64
	lowThreshold  float64
	fallbackScale float64
	review        bool
}

var _ Stage[ValidationInput, *ValidationOutput] = (*ValidationStage)(nil)

// NewValidationStage 創建第三階段
func NewValidationStage(invoker provider.Invoker, cfg *config.Config) *ValidationStage {
	return &ValidationStage{
		invoker:       invoker,
		model:         cfg.OpenRouter.Model,
		maxTokens:     cfg.Extraction.ValidationMaxTokens,
		temperature:   cfg.Extraction.Temperature,
		lowThreshold:  cfg.Extraction.LowConfidenceThreshold,
		fallbackScale: cfg.Extraction.FallbackConfidenceScale,
		review:        cfg.Extraction.ValidationReview,
	}
}

// Name 階段名稱
func (s *ValidationStage) Name() string { return StageValidation }

// Run 去重後請 LLM 複查；最終信心為擷取信心與 LLM 信心的平均
func (s *ValidationStage) Run(ctx context.Context, in ValidationInput) (*ValidationOutput, error) {
	out := s.deduplicate(in)
	if len(out.Ingredients) == 0 || !s.review {
		out.Method = MethodDeterministic
		return out, nil
	}
	if s.invoker == nil {
		return nil, common.ErrLLMDisabled
	}

	source := ""
	if in.Preprocessing != nil {
		source = in.Preprocessing.SegmentedText
	}
	content, err := s.invoker.Invoke(ctx, validationPrompt(out.Ingredients, source), provider.Options{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("validation request: %w", err)
	}

	// 解析響應
	var resp validationResponse
	if err := common.ExtractJSONObject(content, &resp); err != nil {
		return nil, err
	}

	for _, li := range resp.Issues {
		desc := text(li.Description)
		if desc == "" {
			continue
		}
		out.Issues = append(out.Issues, ingredient.Issue{
			Severity:    ingredient.ParseSeverity(text(li.Severity)),
			Description: desc,
			Ingredient:  text(li.Ingredient),
		})
	}

	base := extractionConfidence(in)
	reviewed := common.Clamp01(number(resp.Confidence, base))
	out.Confidence = common.Clamp01((base + reviewed) / 2)
	out.Method = MethodLLM

	common.LogDebug("Validation review completed",
		zap.Int("issues", len(out.Issues)),
		zap.Float64("model_confidence", reviewed))
	return out, nil
}

// Fallback 僅保留確定性去重結果並加上一個 medium 問題
func (s *ValidationStage) Fallback(_ context.Context, in ValidationInput, cause error) (*ValidationOutput, error) {
	out := s.deduplicate(in)
	out.Issues = append(out.Issues, ingredient.Issue{
		Severity:    ingredient.SeverityMedium,
		Description: IssueValidationUnavailable,
	})
	out.Confidence = math.Min(validationFallbackCap, extractionConfidence(in)*s.fallbackScale)
	out.FallbackUsed = true
	out.FallbackReason = reasonOf(cause)
	out.Method = MethodDeterministic
	return out, nil
}

// deduplicate 合併重複食材並依信心分數產生問題
func (s *ValidationStage) deduplicate(in ValidationInput) *ValidationOutput {
	var items []ingredient.CategorizedIngredient
	if in.Extraction != nil {
		items = in.Extraction.Ingredients
	}
	merged, resolved := ingredient.Deduplicate(items)

	return &ValidationOutput{
		Ingredients:        merged,
		Issues:             confidenceIssues(merged, s.lowThreshold),
		DuplicatesResolved: resolved,
		Confidence:         extractionConfidence(in),
	}
}

// confidenceIssues 低於門檻為 low，低於門檻一半為 medium；項目本身不會被移除
func confidenceIssues(items []ingredient.ValidatedIngredient, threshold float64) []ingredient.Issue {
	issues := make([]ingredient.Issue, 0)
	for _, it := range items {
		switch {
		case it.Confidence < threshold/2:
			issues = append(issues, ingredient.Issue{
				Severity:    ingredient.SeverityMedium,
				Description: fmt.Sprintf("very low confidence (%.2f) for %q", it.Confidence, it.Name),
				Ingredient:  it.Name,
			})
		case it.Confidence < threshold:
			issues = append(issues, ingredient.Issue{
				Severity:    ingredient.SeverityLow,
				Description: fmt.Sprintf("low confidence (%.2f) for %q", it.Confidence, it.Name),
				Ingredient:  it.Name,
			})
		}
	}
	return issues
}

func extractionConfidence(in ValidationInput) float64 {
	if in.Extraction == nil {
		return 0
	}
	return in.Extraction.Confidence
}
