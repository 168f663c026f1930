package extraction

import (
	"regexp"
	"strings"
)

// FormatType 食譜文字的書寫格式
type FormatType string

const (
	FormatStructured FormatType = "structured"
	FormatNarrative  FormatType = "narrative"
	FormatMixed      FormatType = "mixed"
	FormatCasual     FormatType = "casual"
)

type formatPatternSet struct {
	format     FormatType
	indicators []string
	patterns   []*regexp.Regexp
}

// formatPatterns 比對小寫後的文字，依序比對；平手時排前面的勝出
var formatPatterns = []formatPatternSet{
	{
		format:     FormatStructured,
		indicators: []string{"ingredients:", "instructions:", "directions:", "method:", "yield:", "servings:"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*[-*•]\s+\d`),
			regexp.MustCompile(`(?m)^\s*\d+[.)]\s`),
			regexp.MustCompile(`(?mi)^\s*\d+(?:\s+\d+/\d+|/\d+|\.\d+)?\s*(?:cups?|tbsp|tsp|tablespoons?|teaspoons?|oz|ounces?|g|grams?|ml|lbs?|pounds?)\b`),
		},
	},
	{
		format:     FormatNarrative,
		indicators: []string{"first,", "then ", "meanwhile", "afterwards", "once the", "you'll want", "i like to"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:first|then|next|after that|finally)\b[^.]*\.`),
			regexp.MustCompile(`[.!?]\s+[a-z][^.!?\n]{40,}[.!?]`),
		},
	},
	{
		format:     FormatMixed,
		indicators: []string{"notes:", "tip:", "for the "},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bstep\s*\d+`),
			regexp.MustCompile(`(?mi)^\s*(?:for the|to make the)\b`),
		},
	},
	{
		format:     FormatCasual,
		indicators: []string{"some ", "a bit of", "a little", "a splash", "a handful", "to taste", "!"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:grab|throw in|toss in|chuck in|splash of|bit of|eyeball|whatever you have)\b`),
		},
	},
}

// DetectFormat 以指標字 (+2) 與正規式 (+3) 加權計分判斷格式；全為 0 時為 mixed
func DetectFormat(text string) (FormatType, map[FormatType]int) {
	scores := make(map[FormatType]int, len(formatPatterns))
	lower := strings.ToLower(text)

	for _, set := range formatPatterns {
		score := 0
		for _, ind := range set.indicators {
			if strings.Contains(lower, ind) {
				score += 2
			}
		}
		for _, p := range set.patterns {
			if p.MatchString(lower) {
				score += 3
			}
		}
		scores[set.format] = score
	}

	if strings.Contains(text, ":") && strings.Contains(text, "\n") {
		scores[FormatStructured] += 2
	}
	if len(text) > 500 && !strings.Contains(lower, "ingredients:") {
		scores[FormatNarrative] += 2
	}
	if strings.Contains(lower, "step") || strings.Contains(lower, "instruction") {
		scores[FormatMixed]++
	}

	best, bestScore := FormatMixed, 0
	for _, set := range formatPatterns {
		if s := scores[set.format]; s > bestScore {
			best, bestScore = set.format, s
		}
	}
	return best, scores
}
