package extraction

import (
	"fmt"
	"strings"

	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/pkg/common"
)

// PreparedRecipe 整理後的輸入：完整文字與切出的食材段落
type PreparedRecipe struct {
	FullText  string
	Segmented string
}

// IsEmpty 沒有任何可擷取的文字
func (p PreparedRecipe) IsEmpty() bool {
	return strings.TrimSpace(p.FullText) == ""
}

// PrepareText 優先使用原始文字，否則將結構化食譜攤平成含 "Ingredients:" 與 "Instructions:" 的文字
func PrepareText(recipe *common.RecipeData, rawText string) PreparedRecipe {
	full := strings.TrimSpace(rawText)
	if full == "" && !recipe.IsEmpty() {
		full = flattenRecipe(recipe)
	}
	return PreparedRecipe{
		FullText:  full,
		Segmented: ingredient.Segment(full),
	}
}

func flattenRecipe(r *common.RecipeData) string {
	var b strings.Builder
	writeLine := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	writeLine(r.Name)
	writeLine(r.Description)
	if s := r.Servings.String(); s != "" {
		writeLine("Servings: " + s)
	}

	if len(r.Ingredients) > 0 {
		writeLine("Ingredients:")
		for _, ing := range r.Ingredients {
			if line := strings.TrimSpace(ing.Line()); line != "" {
				writeLine("- " + line)
			}
		}
	}

	if len(r.Instructions) > 0 {
		writeLine("Instructions:")
		n := 0
		for _, step := range r.Instructions {
			if step = strings.TrimSpace(step); step != "" {
				n++
				writeLine(fmt.Sprintf("%d. %s", n, step))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
