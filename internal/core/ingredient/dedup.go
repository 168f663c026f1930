package ingredient

import (
	"strings"
	"unicode"

	"ingredient-extractor/internal/pkg/common"

	"golang.org/x/text/cases"
)

// folder cases.Caser 不可並行使用，每次呼叫各自建立
func folder() cases.Caser { return cases.Fold() }

// DedupKey 以折疊後的單數名稱與單位組成去重鍵
func DedupKey(name string, unit *string) string {
	folded := folder().String(strings.TrimSpace(name))
	words := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "|" + StringValue(unit)
	}
	words[len(words)-1] = singularize(words[len(words)-1])
	return strings.Join(words, " ") + "|" + StringValue(unit)
}

// Deduplicate 依 DedupKey 合併重複食材，保留第一次出現的位置。
// 返回合併後的新切片與被合併掉的筆數；輸入不會被修改。
func Deduplicate(items []CategorizedIngredient) ([]ValidatedIngredient, int) {
	out := make([]ValidatedIngredient, 0, len(items))
	index := make(map[string]int, len(items))
	resolved := 0

	for _, item := range items {
		key := DedupKey(item.Name, item.Unit)
		pos, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, newValidated(item))
			continue
		}
		mergeInto(&out[pos], item)
		resolved++
	}
	return out, resolved
}

func newValidated(item CategorizedIngredient) ValidatedIngredient {
	v := ValidatedIngredient{CategorizedIngredient: item, MergedCount: 1}
	v.Allergens = append([]string{}, item.Allergens...)
	v.Quantity = copyFloat(item.Quantity)
	v.Unit = copyString(item.Unit)
	v.Preparation = copyString(item.Preparation)
	v.Subcategory = copyString(item.Subcategory)
	if item.RawText != "" {
		v.Sources = []string{item.RawText}
	}
	return v
}

func mergeInto(dst *ValidatedIngredient, src CategorizedIngredient) {
	switch {
	case dst.Quantity == nil && src.Quantity != nil:
		dst.Quantity = copyFloat(src.Quantity)
	case dst.Quantity != nil && src.Quantity != nil:
		dst.Quantity = floatPtr(common.Round2(*dst.Quantity + *src.Quantity))
	}

	dst.Allergens = MergeAllergens(append(dst.Allergens, src.Allergens...), "")

	if src.RawText != "" && !containsString(dst.Sources, src.RawText) {
		dst.Sources = append(dst.Sources, src.RawText)
	}
	if src.Notes != "" && !strings.Contains(dst.Notes, src.Notes) {
		dst.Notes = joinNonEmpty("; ", dst.Notes, src.Notes)
	}
	if src.Context != "" && !strings.Contains(dst.Context, src.Context) {
		dst.Context = joinNonEmpty("; ", dst.Context, src.Context)
	}
	if src.Confidence > dst.Confidence {
		dst.Confidence = src.Confidence
	}

	if p := StringValue(src.Preparation); p != "" {
		existing := StringValue(dst.Preparation)
		switch {
		case existing == "":
			dst.Preparation = stringPtr(p)
		case !strings.EqualFold(existing, p) && !strings.Contains(strings.ToLower(existing), strings.ToLower(p)):
			dst.Preparation = stringPtr(existing + "; " + p)
		}
	}
	if dst.Subcategory == nil && src.Subcategory != nil {
		dst.Subcategory = copyString(src.Subcategory)
	}
	if dst.Category == CategoryOther && src.Category != CategoryOther {
		dst.Category = src.Category
	}

	dst.Optional = dst.Optional && src.Optional
	dst.MergedCount++
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return floatPtr(*p)
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	return stringPtr(*p)
}
