package extraction

import (
	"context"
	"fmt"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// ExtractionOutput 第二階段輸出
type ExtractionOutput struct {
	Ingredients    []ingredient.CategorizedIngredient `json:"ingredients"`
	Confidence     float64                            `json:"confidence"`
	FallbackUsed   bool                               `json:"fallback_used"`
	FallbackReason string                             `json:"fallback_reason,omitempty"`
	Method         string                             `json:"method"`
}

// InformationExtractionStage LLM #2：標準化、分類與過敏原偵測
type InformationExtractionStage struct {
	invoker       provider.Invoker
	model         string
	maxTokens     int
	temperature   float64
	fallbackScale float64
}

var _ Stage[*SmartResult, *ExtractionOutput] = (*InformationExtractionStage)(nil)

// NewInformationExtractionStage 創建第二階段
func NewInformationExtractionStage(invoker provider.Invoker, cfg *config.Config) *InformationExtractionStage {
	return &InformationExtractionStage{
		invoker:       invoker,
		model:         cfg.OpenRouter.Model,
		maxTokens:     cfg.Extraction.ExtractionMaxTokens,
		temperature:   cfg.Extraction.Temperature,
		fallbackScale: cfg.Extraction.FallbackConfidenceScale,
	}
}

// Name 階段名稱
func (s *InformationExtractionStage) Name() string { return StageInformationExtraction }

// Run 只把已正規化的食材送給 LLM，回應再經確定性補強
func (s *InformationExtractionStage) Run(ctx context.Context, in *SmartResult) (*ExtractionOutput, error) {
	if in == nil || len(in.Ingredients) == 0 {
		return &ExtractionOutput{
			Ingredients: []ingredient.CategorizedIngredient{},
			Method:      MethodNone,
		}, nil
	}
	if s.invoker == nil {
		return nil, common.ErrLLMDisabled
	}

	content, err := s.invoker.Invoke(ctx, informationExtractionPrompt(in.Ingredients), provider.Options{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("information extraction request: %w", err)
	}

	// 解析響應
	var resp extractionResponse
	if err := common.ExtractJSONObject(content, &resp); err != nil {
		return nil, err
	}

	items := make([]ingredient.CategorizedIngredient, 0, len(resp.Ingredients))
	for _, li := range resp.Ingredients {
		if ingredient.IsNonIngredient(text(li.Name)) {
			continue
		}
		items = append(items, enhance(li, in.Ingredients))
	}
	if len(items) == 0 {
		return nil, common.ErrEmptyExtraction
	}

	common.LogDebug("Information extraction completed",
		zap.Int("input", len(in.Ingredients)),
		zap.Int("output", len(items)))

	return &ExtractionOutput{
		Ingredients: items,
		Confidence:  extractionScore(items, in.Confidence),
		Method:      MethodLLM,
	}, nil
}

// Fallback 直接以確定性規則分類上游食材，信心分數為同一公式乘上折減係數
func (s *InformationExtractionStage) Fallback(_ context.Context, in *SmartResult, cause error) (*ExtractionOutput, error) {
	out := &ExtractionOutput{
		Ingredients:    []ingredient.CategorizedIngredient{},
		FallbackUsed:   true,
		FallbackReason: reasonOf(cause),
		Method:         MethodDeterministic,
	}
	if in == nil {
		return out, nil
	}
	for _, n := range in.Ingredients {
		out.Ingredients = append(out.Ingredients, ingredient.Categorized(n))
	}
	out.Confidence = common.Clamp01(s.fallbackScale * extractionScore(out.Ingredients, in.Confidence))
	return out, nil
}

// extractionScore 0.3 + 0.4·平均信心 + 0.2·完整比例 + 0.1·前處理信心
func extractionScore(items []ingredient.CategorizedIngredient, upstream float64) float64 {
	if len(items) == 0 {
		return 0
	}
	complete := 0
	normalized := make([]ingredient.NormalizedIngredient, len(items))
	for i, it := range items {
		normalized[i] = it.NormalizedIngredient
		if it.IsComplete() {
			complete++
		}
	}
	return common.Clamp01(0.3 +
		0.4*meanConfidence(normalized) +
		0.2*float64(complete)/float64(len(items)) +
		0.1*upstream)
}

// enhance 以上游資料與確定性規則補強 LLM 回傳的食材
func enhance(li llmIngredient, upstream []ingredient.NormalizedIngredient) ingredient.CategorizedIngredient {
	raw := li.toRawMention(defaultLLMConfidence)
	match := findUpstream(raw.Name, upstream)

	if match != nil {
		if raw.Preparation == "" {
			raw.Preparation = ingredient.StringValue(match.Preparation)
		}
		if raw.RawText == "" {
			raw.RawText = match.RawText
		}
		if text(li.Confidence) == "" {
			raw.Confidence = match.Confidence
		}
		raw.Optional = raw.Optional || match.Optional
		if raw.Context == "" {
			raw.Context = match.Context
		}
	}

	n := ingredient.NormalizeMention(raw)
	if match != nil {
		if n.Quantity == nil && match.Quantity != nil {
			q := *match.Quantity
			n.Quantity = &q
		}
		if n.Unit == nil && match.Unit != nil {
			u := *match.Unit
			n.Unit = &u
		}
	}

	cat, sub := ingredient.Categorize(n.Name)
	if sub == nil {
		if s := text(li.Subcategory); s != "" {
			sub = &s
		}
	}

	return ingredient.CategorizedIngredient{
		NormalizedIngredient: n,
		Category:             cat,
		Subcategory:          sub,
		Allergens:            ingredient.MergeAllergens([]string(li.Allergens), n.Name),
		Notes:                text(li.Notes),
	}
}

// findUpstream 以去重鍵找出對應的上游食材；名稱含處理方式時也嘗試去除後比對
func findUpstream(name string, upstream []ingredient.NormalizedIngredient) *ingredient.NormalizedIngredient {
	candidates := []string{ingredient.DedupKey(name, nil)}
	if cleaned, prep := ingredient.ExtractPreparation(name); prep != "" {
		candidates = append(candidates, ingredient.DedupKey(cleaned, nil))
	}
	for i := range upstream {
		key := ingredient.DedupKey(upstream[i].Name, nil)
		for _, c := range candidates {
			if key == c {
				return &upstream[i]
			}
		}
	}
	return nil
}
