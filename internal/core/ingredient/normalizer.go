package ingredient

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"ingredient-extractor/internal/pkg/common"
)

var (
	mixedFractionPattern  = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)$`)
	simpleFractionPattern = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	rangePattern          = regexp.MustCompile(`(?i)^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)\s*(?:-|–|—|to)\s*(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?)$`)
	decimalPattern        = regexp.MustCompile(`^(?:\d+\.?\d*|\.\d+)$`)
	gluedQuantityPattern  = regexp.MustCompile(`^(\d+(?:\s+\d+/\d+|/\d+|\.\d+)?(?:\s*(?:-|to)\s*\d+(?:\.\d+)?)?)\s*([^\d\s].*)$`)
)

// NormalizeQuantity 將各種數量表示轉為小數（四捨五入到兩位），無法解析時返回 nil
func NormalizeQuantity(raw interface{}) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case float64:
		return finiteQuantity(v)
	case float32:
		return finiteQuantity(float64(v))
	case int:
		return finiteQuantity(float64(v))
	case int64:
		return finiteQuantity(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return finiteQuantity(f)
	case *float64:
		if v == nil {
			return nil
		}
		return finiteQuantity(*v)
	case string:
		return parseQuantityString(v)
	case common.FlexString:
		return parseQuantityString(string(v))
	default:
		return nil
	}
}

func finiteQuantity(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil
	}
	return floatPtr(common.Round2(v))
}

// parseQuantityString 依序嘗試：帶分數、分數、範圍、小數、非正式數量詞
func parseQuantityString(raw string) *float64 {
	s := strings.TrimSpace(ConvertVulgarFractions(raw))
	s = strings.TrimPrefix(s, "~")
	s = approxPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if m := mixedFractionPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		if frac, ok := divide(m[2], m[3]); ok {
			return finiteQuantity(whole + frac)
		}
		return nil
	}

	if m := simpleFractionPattern.FindStringSubmatch(s); m != nil {
		if frac, ok := divide(m[1], m[2]); ok {
			return finiteQuantity(frac)
		}
		return nil
	}

	if m := rangePattern.FindStringSubmatch(s); m != nil {
		lo, ok1 := parseNumber(m[1])
		hi, ok2 := parseNumber(m[2])
		if ok1 && ok2 {
			return finiteQuantity((lo + hi) / 2)
		}
		return nil
	}

	if decimalPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finiteQuantity(f)
		}
		return nil
	}

	return informalQuantity(s)
}

func divide(num, den string) (float64, bool) {
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func parseNumber(s string) (float64, bool) {
	if m := mixedFractionPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		frac, ok := divide(m[2], m[3])
		return whole + frac, ok
	}
	if m := simpleFractionPattern.FindStringSubmatch(s); m != nil {
		return divide(m[1], m[2])
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// informalQuantity 查非正式數量詞，允許前置冠詞與複數
func informalQuantity(s string) *float64 {
	words := strings.Fields(strings.ToLower(s))
	var rest []string
	for _, w := range words {
		if w == "a" || w == "an" || w == "of" {
			continue
		}
		rest = append(rest, strings.Trim(w, ".,;:"))
	}
	if len(rest) != 1 {
		return nil
	}
	word := rest[0]
	if v, ok := informalQuantities[word]; ok {
		return floatPtr(v)
	}
	if v, ok := informalQuantities[singularize(word)]; ok {
		return floatPtr(v)
	}
	return nil
}

// NormalizeUnit 將單位字對應到唯一的標準單位，無法對應時返回 nil。
// 對標準單位本身是冪等的。
func NormalizeUnit(raw string) *string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, ".")
	if s == "" {
		return nil
	}

	if canonicalUnitSet[s] {
		return stringPtr(s)
	}
	if u, ok := singleLetterUnits[s]; ok {
		return stringPtr(u)
	}

	lower := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if canonicalUnitSet[lower] {
		return stringPtr(lower)
	}

	for _, syn := range longUnitSynonyms {
		if strings.Contains(lower, syn.synonym) {
			return stringPtr(syn.canonical)
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, syn := range shortUnitSynonyms {
		for _, tok := range tokens {
			if tok == syn.synonym {
				return stringPtr(syn.canonical)
			}
		}
	}
	return nil
}

// SplitQuantityUnit 拆開黏在一起的數量與單位，例如 "2cups" → ("2", "cups")
func SplitQuantityUnit(s string) (quantity, unit string) {
	s = strings.TrimSpace(ConvertVulgarFractions(s))
	m := gluedQuantityPattern.FindStringSubmatch(s)
	if m == nil {
		return s, ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

// NormalizeMention 將數量與單位正規化，並把名稱中的處理方式移到 Preparation
func NormalizeMention(m RawMention) NormalizedIngredient {
	name := strings.TrimSpace(m.Name)
	context := strings.TrimSpace(m.Context)

	qty := NormalizeQuantity(m.Quantity)
	unit := NormalizeUnit(m.Unit)

	if qty == nil && m.Quantity != "" {
		q, u := SplitQuantityUnit(m.Quantity)
		qty = NormalizeQuantity(q)
		if unit == nil && u != "" {
			unit = NormalizeUnit(u)
		}
	}
	if unit == nil && strings.TrimSpace(m.Unit) != "" {
		context = joinNonEmpty("; ", context, "unit: "+strings.TrimSpace(m.Unit))
	}

	var prep *string
	if p := strings.TrimSpace(m.Preparation); p != "" {
		prep = stringPtr(p)
	} else if cleaned, found := ExtractPreparation(name); found != "" {
		name = cleaned
		prep = stringPtr(found)
	}

	return NormalizedIngredient{
		Name:        name,
		Quantity:    qty,
		Unit:        unit,
		Preparation: prep,
		Context:     context,
		Confidence:  common.Clamp01(m.Confidence),
		RawText:     m.RawText,
		Optional:    m.Optional,
	}
}

// ExtractPreparation 從名稱中移除處理方式字詞；移除後名稱為空則保留原名稱
func ExtractPreparation(name string) (cleaned, preparation string) {
	matches := preparationPattern.FindAllString(name, -1)
	if len(matches) == 0 {
		return name, ""
	}
	rest := preparationPattern.ReplaceAllString(name, " ")
	rest = strings.Trim(collapseSpaces(rest), " ,;-")
	rest = collapseSpaces(strings.ReplaceAll(rest, " ,", ","))
	if rest == "" || strings.Trim(rest, ", ") == "" {
		return name, ""
	}
	for i, m := range matches {
		matches[i] = strings.ToLower(m)
	}
	return strings.Trim(rest, ", "), strings.Join(matches, ", ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// singularize 簡易英文單數化
func singularize(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && (strings.HasSuffix(word, "ches") || strings.HasSuffix(word, "shes") ||
		strings.HasSuffix(word, "xes") || strings.HasSuffix(word, "sses") || strings.HasSuffix(word, "zes")):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us"):
		return word[:len(word)-1]
	}
	return word
}
