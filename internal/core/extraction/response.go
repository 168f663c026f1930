package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/pkg/common"
)

// flexList 可接受字串陣列、逗號分隔字串或 null
type flexList []string

// UnmarshalJSON 實作 json.Unmarshaler
func (l *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	}
	var items []common.FlexString
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("invalid list: %w", err)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := text(it); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// llmMention LLM #1 回傳的單一食材
type llmMention struct {
	Name        common.FlexString `json:"name"`
	Quantity    common.FlexString `json:"quantity"`
	Unit        common.FlexString `json:"unit"`
	Preparation common.FlexString `json:"preparation"`
	Context     common.FlexString `json:"context"`
	Confidence  common.FlexString `json:"confidence"`
	RawText     common.FlexString `json:"raw_text"`
	Optional    common.FlexString `json:"optional"`
}

type smartResponse struct {
	Ingredients      []llmMention      `json:"ingredients"`
	FormatConfidence common.FlexString `json:"format_confidence"`
	TotalMentions    common.FlexString `json:"total_mentions"`
}

// llmIngredient LLM #2 回傳的標準化食材
type llmIngredient struct {
	llmMention
	Category    common.FlexString `json:"category"`
	Subcategory common.FlexString `json:"subcategory"`
	Allergens   flexList          `json:"allergens"`
	Notes       common.FlexString `json:"notes"`
}

type extractionResponse struct {
	Ingredients []llmIngredient `json:"ingredients"`
}

type llmIssue struct {
	Severity    common.FlexString `json:"severity"`
	Description common.FlexString `json:"description"`
	Ingredient  common.FlexString `json:"ingredient"`
}

type validationResponse struct {
	Issues     []llmIssue        `json:"issues"`
	Confidence common.FlexString `json:"confidence"`
}

// text 去除空白並把 "null"、"none" 等值視為空字串
func text(f common.FlexString) string {
	s := strings.TrimSpace(f.String())
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "nil", "undefined", "-":
		return ""
	}
	return s
}

// number 解析數值，失敗時返回 def
func number(f common.FlexString, def float64) float64 {
	s := text(f)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func boolean(f common.FlexString) bool {
	v, err := strconv.ParseBool(text(f))
	return err == nil && v
}

// toRawMention 將 LLM 回應轉為 RawMention
func (m llmMention) toRawMention(defaultConfidence float64) ingredient.RawMention {
	return ingredient.RawMention{
		Name:        text(m.Name),
		Quantity:    text(m.Quantity),
		Unit:        text(m.Unit),
		Preparation: text(m.Preparation),
		Context:     text(m.Context),
		Confidence:  common.Clamp01(number(m.Confidence, defaultConfidence)),
		RawText:     text(m.RawText),
		Optional:    boolean(m.Optional),
	}
}
