package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FlexString 可接受 JSON 字串、數字、布林或 null 的字串欄位
type FlexString string

// UnmarshalJSON 實作 json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	switch data[0] {
	case '{', '[':
		return fmt.Errorf("cannot use %s as string", string(data[:1]))
	}
	*f = FlexString(string(data))
	return nil
}

// String 返回字串值
func (f FlexString) String() string {
	return string(f)
}

// RecipeIngredient 食譜中的單一食材，可為純文字或結構化物件
type RecipeIngredient struct {
	Text     string     `json:"text,omitempty"`
	Name     string     `json:"name,omitempty"`
	Quantity FlexString `json:"quantity,omitempty"`
	Unit     string     `json:"unit,omitempty"`
}

// UnmarshalJSON 同時支援 "2 cups flour" 與 {"name":"flour","quantity":2,"unit":"cups"}
func (ri *RecipeIngredient) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*ri = RecipeIngredient{Text: strings.TrimSpace(s)}
		return nil
	}

	type alias RecipeIngredient
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid ingredient: %w", err)
	}
	*ri = RecipeIngredient(a)
	return nil
}

// Line 返回食材的單行文字表示
func (ri RecipeIngredient) Line() string {
	if ri.Text != "" {
		return ri.Text
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{ri.Quantity.String(), ri.Unit, ri.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Instructions 作法，可為單一字串或字串陣列
type Instructions []string

// UnmarshalJSON 實作 json.Unmarshaler
func (in *Instructions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*in = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var steps []string
		for _, line := range strings.Split(s, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				steps = append(steps, line)
			}
		}
		*in = steps
		return nil
	}
	var steps []string
	if err := json.Unmarshal(data, &steps); err != nil {
		return fmt.Errorf("invalid instructions: %w", err)
	}
	*in = steps
	return nil
}

// RecipeData 擷取管線的結構化輸入
type RecipeData struct {
	Name         string             `json:"name,omitempty"`
	Description  string             `json:"description,omitempty"`
	Ingredients  []RecipeIngredient `json:"ingredients,omitempty"`
	Instructions Instructions       `json:"instructions,omitempty"`
	Servings     FlexString         `json:"servings,omitempty"`
}

// IsEmpty 檢查是否沒有任何可擷取的內容
func (r *RecipeData) IsEmpty() bool {
	if r == nil {
		return true
	}
	if strings.TrimSpace(r.Name) != "" || strings.TrimSpace(r.Description) != "" {
		return false
	}
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Line()) != "" {
			return false
		}
	}
	for _, step := range r.Instructions {
		if strings.TrimSpace(step) != "" {
			return false
		}
	}
	return true
}
