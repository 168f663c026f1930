package ingredient

import (
	"strings"
)

// Segment 從完整食譜文字中切出食材段落。
// 找不到段落時返回過濾掉步驟、指示與中繼資料後的全文；輸入為空時返回 ""。
func Segment(fullText string) string {
	lines := splitLines(fullText)
	if len(lines) == 0 {
		return ""
	}

	if section := ingredientSection(lines); len(section) > 0 {
		return strings.Join(section, "\n")
	}

	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if isStepOrMetadata(l) || instructionsMarkerPattern.MatchString(l) {
			continue
		}
		content, _ := stripMarkers(l)
		if instructionVerbPattern.MatchString(content) {
			continue
		}
		if numberedLinePattern.MatchString(l) && !LooksLikeIngredientLine(l) {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// ingredientSection 先找食材標記，找不到時從第一個像食材的行開始
func ingredientSection(lines []string) []string {
	start := -1
	var inline string
	for i, l := range lines {
		if loc := ingredientsMarkerPattern.FindStringIndex(l); loc != nil {
			start = i + 1
			inline = strings.TrimSpace(l[loc[1]:])
			break
		}
	}
	if start < 0 {
		for i, l := range lines {
			if LooksLikeIngredientLine(l) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return nil
	}

	var section []string
	if inline != "" && !isSectionEnd(inline) {
		section = append(section, inline)
	}
	for _, l := range lines[start:] {
		if isSectionEnd(l) {
			break
		}
		if isStepOrMetadata(l) || labelOnlyPattern.MatchString(l) {
			continue
		}
		if numberedLinePattern.MatchString(l) {
			l = strings.TrimSpace(numberedLinePattern.ReplaceAllString(l, ""))
			if l == "" {
				continue
			}
		}
		section = append(section, l)
	}
	return section
}

// isSectionEnd 指示標題、中繼資料、步驟、非食材的編號行或烹調動詞開頭皆結束食材段落
func isSectionEnd(line string) bool {
	if instructionsMarkerPattern.MatchString(line) || isStepOrMetadata(line) {
		return true
	}
	if numberedLinePattern.MatchString(line) && !LooksLikeIngredientLine(line) {
		return true
	}
	content, _ := stripMarkers(line)
	return cookingVerbPattern.MatchString(content)
}

func isStepOrMetadata(line string) bool {
	return stepPattern.MatchString(line) || metadataPattern.MatchString(line)
}
