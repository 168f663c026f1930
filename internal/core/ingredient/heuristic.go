package ingredient

import (
	"regexp"
	"strings"
	"unicode"
)

// 啟發式信心分數
const (
	confidenceQuantityAndUnit = 0.5
	confidenceQuantityOrUnit  = 0.4
	confidenceNameOnly        = 0.3
)

var (
	leadingQuantityPattern = regexp.MustCompile(`(?i)^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?|\.\d+)(?:\s*(?:-|–|to\s)\s*(?:\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?))?`)
	articlePattern         = regexp.MustCompile(`(?i)^(?:a|an)\s+`)
	informalLeadPattern    = regexp.MustCompile(`(?i)^(?:an?\s+)?(handful|sprinkle)s?\s+(?:of\s+)?`)
	parentheticalPattern   = regexp.MustCompile(`\s*\(([^()]*)\)`)
	toTastePattern         = regexp.MustCompile(`(?i),?\s*\b(?:to taste|as needed|for garnish|for serving)\b`)
	optionalPattern        = regexp.MustCompile(`(?i),?\s*\boptional\b`)
	leadingPunctPattern    = regexp.MustCompile(`^[\s,.;:\-–]+`)
	labelOnlyPattern       = regexp.MustCompile(`(?i)^[#*\s]*(?:ingredients?|instructions?|directions?|method|steps?|notes?|preparation|garnish|topping|for the [\p{L} ]+)\s*:?\s*$`)
	instructionCuePattern  = regexp.MustCompile(`(?i)\b(?:until|minutes?|mins?|hours?|degrees|oven|bowl|pan|skillet|saucepan|pot|together|aside)\b|°`)
	servingPhrasePattern   = regexp.MustCompile(`(?i)\b(?:to taste|optional|for garnish|as needed|for serving)\b`)
	digitPattern           = regexp.MustCompile(`\d`)
)

// IsNonIngredient 判斷名稱是否為步驟、標點、段落標籤、中繼資料或單純的指示動詞
func IsNonIngredient(name string) bool {
	s := strings.TrimSpace(name)
	if s == "" || punctuationOnlyPattern.MatchString(s) {
		return true
	}
	if stepPattern.MatchString(s) || metadataPattern.MatchString(s) || labelOnlyPattern.MatchString(s) {
		return true
	}
	if numberedLinePattern.MatchString(s) && strings.TrimSpace(numberedLinePattern.ReplaceAllString(s, "")) == "" {
		return true
	}
	if instructionVerbPattern.MatchString(s) {
		if len(strings.Fields(s)) == 1 || instructionCuePattern.MatchString(s) {
			return true
		}
	}
	return false
}

// stripMarkers 移除項目符號、編號、核取方塊與 "Ingredients:" 標籤
func stripMarkers(line string) (string, bool) {
	s := strings.TrimSpace(line)
	marked := false
	for {
		before := s
		if loc := checkboxPattern.FindStringIndex(s); loc != nil {
			s, marked = s[loc[1]:], true
		}
		if loc := bulletPattern.FindStringIndex(s); loc != nil {
			s, marked = s[loc[1]:], true
		}
		if loc := numberedLinePattern.FindStringIndex(s); loc != nil {
			s, marked = s[loc[1]:], true
		}
		if loc := labelPattern.FindStringIndex(s); loc != nil {
			s = s[loc[1]:]
		}
		s = strings.TrimSpace(s)
		if s == before {
			return s, marked
		}
	}
}

// LooksLikeIngredientLine 以關鍵字與單位判斷一行是否像食材；偏向多收
func LooksLikeIngredientLine(line string) bool {
	raw := strings.TrimSpace(line)
	if raw == "" || headerLinePattern.MatchString(raw) {
		return false
	}
	s, _ := stripMarkers(ConvertVulgarFractions(raw))
	if s == "" || IsNonIngredient(s) || headerLinePattern.MatchString(s) {
		return false
	}
	if instructionVerbPattern.MatchString(s) {
		return false
	}

	if quantityUnitPattern.MatchString(s) {
		return true
	}
	hasFood := ContainsFoodKeyword(s)
	if !hasFood {
		return false
	}
	return digitPattern.MatchString(s) || unitWordPattern.MatchString(s) || servingPhrasePattern.MatchString(s)
}

// ParseLine 將一行文字解析為食材出現；不是食材時返回 nil
func ParseLine(line string) *RawMention {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return nil
	}

	s, bulleted := stripMarkers(ConvertVulgarFractions(raw))
	if s == "" || IsNonIngredient(s) || headerLinePattern.MatchString(s) || instructionVerbPattern.MatchString(s) {
		return nil
	}

	m := &RawMention{RawText: raw}
	var contexts []string

	s = approxPattern.ReplaceAllString(s, "")

	if loc := informalLeadPattern.FindStringSubmatchIndex(s); loc != nil {
		m.Quantity = strings.ToLower(s[loc[2]:loc[3]])
		s = s[loc[1]:]
	} else if loc := articlePattern.FindStringIndex(s); loc != nil {
		rest := s[loc[1]:]
		if um := leadingUnitPattern.FindStringSubmatch(rest); um != nil {
			m.Quantity = "1"
			m.Unit = um[1]
			s = rest[len(um[0]):]
		} else {
			s = rest
		}
	}

	if m.Quantity == "" {
		if q := leadingQuantityPattern.FindString(s); q != "" {
			m.Quantity = strings.TrimSpace(q)
			s = s[len(q):]
		}
	}

	for _, pm := range parentheticalPattern.FindAllStringSubmatch(s, -1) {
		if c := strings.TrimSpace(pm[1]); c != "" {
			contexts = append(contexts, c)
		}
	}
	s = strings.TrimSpace(parentheticalPattern.ReplaceAllString(s, " "))

	if m.Unit == "" {
		s, m.Unit = takeLeadingUnit(s, m.Quantity != "")
	}

	s = stripConnectives(s)

	if optionalPattern.MatchString(s) {
		m.Optional = true
		s = optionalPattern.ReplaceAllString(s, "")
	}
	for _, c := range contexts {
		if strings.EqualFold(c, "optional") {
			m.Optional = true
		}
	}
	if phrase := toTastePattern.FindString(s); phrase != "" {
		contexts = append(contexts, strings.TrimSpace(strings.TrimLeft(phrase, ", ")))
		s = toTastePattern.ReplaceAllString(s, "")
	}

	name, prep := s, ""
	if idx := strings.Index(s, ","); idx >= 0 {
		name, prep = s[:idx], s[idx+1:]
	}
	m.Name = cleanName(name)
	m.Preparation = strings.Trim(collapseSpaces(prep), " ,;.")
	m.Context = joinNonEmpty("; ", contexts...)

	if m.Name == "" || IsNonIngredient(m.Name) {
		return nil
	}

	switch {
	case m.Quantity != "" && m.Unit != "":
		m.Confidence = confidenceQuantityAndUnit
	case m.Quantity != "" || m.Unit != "":
		m.Confidence = confidenceQuantityOrUnit
	default:
		if !LooksLikeIngredientLine(raw) && !(bulleted && ContainsFoodKeyword(m.Name)) {
			return nil
		}
		m.Confidence = confidenceNameOnly
	}
	return m
}

// takeLeadingUnit 取出行首的單位字；單字母與短單位只在有數量時才認
func takeLeadingUnit(s string, hasQuantity bool) (string, string) {
	if um := leadingUnitPattern.FindStringSubmatch(s); um != nil {
		if hasQuantity || len(um[1]) >= 4 {
			return strings.TrimSpace(s[len(um[0]):]), um[1]
		}
	}
	if hasQuantity {
		if um := leadingSingleUnitPattern.FindStringSubmatch(s); um != nil {
			return strings.TrimSpace(s[len(um[0]):]), um[1]
		}
	}
	return s, ""
}

func stripConnectives(s string) string {
	for {
		before := s
		s = leadingPunctPattern.ReplaceAllString(s, "")
		s = connectivePattern.ReplaceAllString(s, "")
		if s == before {
			return s
		}
	}
}

func cleanName(s string) string {
	s = collapseSpaces(s)
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'' && r != '&')
	})
}
