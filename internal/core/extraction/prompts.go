package extraction

import (
	"fmt"
	"strings"

	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/pkg/common"
)

// smartProcessingPrompt LLM #1：只擷取食材段落內容
func smartProcessingPrompt(format FormatType, segmented string) string {
	return fmt.Sprintf(`You are a recipe ingredient extractor. The recipe below is written in a %s style.
Extract ONLY the ingredients that the recipe needs.
Rules:
1. Return ONLY ingredient content, never cooking steps
2. Do not include step numbers, cooking instructions, yields, servings, times or oven temperatures
3. Keep the quantity exactly as written (for example "1 1/2" or "2-3"), or null when absent
4. Put preparation words (chopped, minced, beaten...) in "preparation", not in "name"
5. Set "optional" to true only when the recipe says the ingredient is optional
6. Use double quotes for every key and string
7. Return compact JSON without markdown fences
Return exactly this JSON shape:
{"ingredients":[{"name":"ingredient name","quantity":"amount or null","unit":"unit or null","preparation":"preparation or null","context":"extra notes or null","confidence":0.9,"raw_text":"original line","optional":false}],"format_confidence":0.9,"total_mentions":0}

Recipe text:
%s`, format, segmented)
}

// informationExtractionPrompt LLM #2：標準化、分類、過敏原與合併重複
func informationExtractionPrompt(mentions []ingredient.NormalizedIngredient) string {
	var b strings.Builder
	for i, m := range mentions {
		fmt.Fprintf(&b, "%d. %s", i+1, m.Name)
		if m.Quantity != nil {
			fmt.Fprintf(&b, " | quantity: %g", *m.Quantity)
		}
		if m.Unit != nil {
			fmt.Fprintf(&b, " | unit: %s", *m.Unit)
		}
		if m.Preparation != nil {
			fmt.Fprintf(&b, " | preparation: %s", *m.Preparation)
		}
		if m.Context != "" {
			fmt.Fprintf(&b, " | notes: %s", m.Context)
		}
		b.WriteByte('\n')
	}

	categories := make([]string, len(ingredient.Categories))
	for i, c := range ingredient.Categories {
		categories[i] = string(c)
	}

	return fmt.Sprintf(`You are a kitchen assistant that standardizes recipe ingredients.
Ingredient mentions:
%s
Rules:
1. Standardize measurements to these units when possible: %s
2. Assign each ingredient one category from: %s
3. Add a subcategory when obvious (for example vegetables, baking, poultry)
4. List allergens from: milk, eggs, wheat, soy, peanuts, tree nuts, fish, shellfish
5. Merge obvious duplicates and add the quantities
6. Never invent ingredients that are not in the list
7. Return compact JSON without markdown fences
Return exactly this JSON shape:
{"ingredients":[{"name":"name","quantity":1.5,"unit":"cups","preparation":null,"category":"pantry","subcategory":"baking","allergens":["wheat"],"notes":null,"confidence":0.9,"optional":false}]}`,
		b.String(),
		strings.Join(ingredient.CanonicalUnits, ", "),
		strings.Join(categories, ", "))
}

// validationPrompt LLM #3：檢查最終清單是否有遺漏或錯誤
func validationPrompt(items []ingredient.ValidatedIngredient, sourceText string) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s", i+1, it.Name)
		if it.Quantity != nil {
			fmt.Fprintf(&b, " %g", *it.Quantity)
		}
		if it.Unit != nil {
			fmt.Fprintf(&b, " %s", *it.Unit)
		}
		fmt.Fprintf(&b, " [%s]\n", it.Category)
	}

	return fmt.Sprintf(`Review this extracted ingredient list against the recipe ingredients text.
Extracted list:
%s
Recipe ingredients text:
%s

Rules:
1. Report missing ingredients, wrong quantities, wrong units or entries that are not ingredients
2. Severity must be one of: low, medium, high, critical
3. Give an overall confidence between 0 and 1 that the list is correct
4. Return an empty issues array when the list looks correct
5. Return compact JSON without markdown fences
Return exactly this JSON shape:
{"issues":[{"severity":"low","description":"what is wrong","ingredient":"name or null"}],"confidence":0.9}`,
		b.String(),
		common.TruncateString(sourceText, 4000))
}
