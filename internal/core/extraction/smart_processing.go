package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// 擷取方式
const (
	MethodLLM              = "llm"
	MethodLLMFallbackModel = "llm_fallback_model"
	MethodHeuristic        = "heuristic"
	MethodDeterministic    = "deterministic"
	MethodEmergency        = "emergency"
	MethodNone             = "none"
)

// defaultLLMConfidence LLM 未提供信心分數時使用
const defaultLLMConfidence = 0.8

// SmartResult 第一階段輸出
type SmartResult struct {
	FormatType     FormatType                        `json:"format_type"`
	FormatScores   map[FormatType]int                `json:"format_scores,omitempty"`
	Ingredients    []ingredient.NormalizedIngredient `json:"ingredients"`
	Confidence     float64                           `json:"confidence"`
	FallbackUsed   bool                              `json:"fallback_used"`
	FallbackReason string                            `json:"fallback_reason,omitempty"`
	Method         string                            `json:"method"`
	SegmentedText  string                            `json:"segmented_text"`
	TotalMentions  int                               `json:"total_mentions"`
}

// SmartProcessingStage LLM #1：從食材段落擷取食材；失敗時改用啟發式解析
type SmartProcessingStage struct {
	invoker       provider.Invoker
	model         string
	fallbackModel string
	maxTokens     int
	temperature   float64
}

var _ Stage[PreparedRecipe, *SmartResult] = (*SmartProcessingStage)(nil)

// NewSmartProcessingStage 創建第一階段；invoker 為 nil 時 Run 一律失敗
func NewSmartProcessingStage(invoker provider.Invoker, cfg *config.Config) *SmartProcessingStage {
	return &SmartProcessingStage{
		invoker:       invoker,
		model:         cfg.OpenRouter.Model,
		fallbackModel: cfg.OpenRouter.FallbackModel,
		maxTokens:     cfg.Extraction.SmartMaxTokens,
		temperature:   cfg.Extraction.Temperature,
	}
}

// Name 階段名稱
func (s *SmartProcessingStage) Name() string { return StageSmartProcessing }

// Run 以主要模型呼叫 LLM，失敗時改用備用模型重試一次
func (s *SmartProcessingStage) Run(ctx context.Context, in PreparedRecipe) (*SmartResult, error) {
	if s.invoker == nil {
		return nil, common.ErrLLMDisabled
	}

	format, scores := DetectFormat(in.FullText)
	source := in.Segmented
	if strings.TrimSpace(source) == "" {
		source = in.FullText
	}

	// 構建提示
	prompt := smartProcessingPrompt(format, source)

	method := MethodLLM
	resp, err := s.request(ctx, prompt, s.model)
	if err != nil && s.fallbackModel != "" && s.fallbackModel != s.model && ctx.Err() == nil {
		common.LogWarn("主要模型失敗，改用備用模型",
			zap.String("model", s.model),
			zap.String("fallback_model", s.fallbackModel),
			zap.Error(err))
		method = MethodLLMFallbackModel
		resp, err = s.request(ctx, prompt, s.fallbackModel)
	}
	if err != nil {
		return nil, err
	}

	// 轉換並過濾非食材項目
	items := make([]ingredient.NormalizedIngredient, 0, len(resp.Ingredients))
	for _, m := range resp.Ingredients {
		raw := m.toRawMention(defaultLLMConfidence)
		if ingredient.IsNonIngredient(raw.Name) {
			continue
		}
		if raw.RawText == "" {
			raw.RawText = raw.Name
		}
		items = append(items, ingredient.NormalizeMention(raw))
	}
	if len(items) == 0 {
		return nil, common.ErrEmptyExtraction
	}

	formatConfidence := common.Clamp01(number(resp.FormatConfidence, defaultLLMConfidence))
	total := int(number(resp.TotalMentions, float64(len(items))))
	if total < len(items) {
		total = len(items)
	}

	common.LogDebug("Smart processing completed",
		zap.String("method", method),
		zap.String("format", string(format)),
		zap.Int("ingredients", len(items)))

	return &SmartResult{
		FormatType:    format,
		FormatScores:  scores,
		Ingredients:   items,
		Confidence:    common.Clamp01(0.5*formatConfidence + 0.5*meanConfidence(items)),
		Method:        method,
		SegmentedText: in.Segmented,
		TotalMentions: total,
	}, nil
}

// request 發送請求並解析 JSON；沒有任何食材視為失敗
func (s *SmartProcessingStage) request(ctx context.Context, prompt, model string) (*smartResponse, error) {
	start := time.Now()
	content, err := s.invoker.Invoke(ctx, prompt, provider.Options{
		Model:       model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("smart processing request: %w", err)
	}

	// 解析響應
	var resp smartResponse
	if err := common.ExtractJSONObject(content, &resp); err != nil {
		return nil, err
	}
	if len(resp.Ingredients) == 0 {
		return nil, common.ErrEmptyExtraction
	}
	common.LogDebug("LLM response parsed",
		zap.String("model", model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("mentions", len(resp.Ingredients)))
	return &resp, nil
}

// Fallback 以啟發式解析器逐行解析食材段落
func (s *SmartProcessingStage) Fallback(_ context.Context, in PreparedRecipe, cause error) (*SmartResult, error) {
	format, scores := DetectFormat(in.FullText)
	source := in.Segmented
	if strings.TrimSpace(source) == "" {
		source = in.FullText
	}

	items := parseLines(source)
	return &SmartResult{
		FormatType:     format,
		FormatScores:   scores,
		Ingredients:    items,
		Confidence:     meanConfidence(items),
		FallbackUsed:   true,
		FallbackReason: reasonOf(cause),
		Method:         MethodHeuristic,
		SegmentedText:  in.Segmented,
		TotalMentions:  len(items),
	}, nil
}

// parseLines 逐行以啟發式解析並正規化
func parseLines(text string) []ingredient.NormalizedIngredient {
	items := make([]ingredient.NormalizedIngredient, 0)
	for _, line := range strings.Split(text, "\n") {
		if m := ingredient.ParseLine(line); m != nil {
			items = append(items, ingredient.NormalizeMention(*m))
		}
	}
	return items
}

func meanConfidence(items []ingredient.NormalizedIngredient) float64 {
	if len(items) == 0 {
		return 0
	}
	sum := 0.0
	for _, it := range items {
		sum += it.Confidence
	}
	return sum / float64(len(items))
}

func reasonOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
