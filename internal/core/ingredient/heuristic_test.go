package ingredient_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredient-extractor/internal/core/ingredient"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line        string
		name        string
		quantity    string
		unit        string
		preparation string
		context     string
		optional    bool
		confidence  float64
	}{
		{line: "2 cups all-purpose flour", name: "all-purpose flour", quantity: "2", unit: "cups", confidence: 0.5},
		{line: "1 1/2 tsp salt", name: "salt", quantity: "1 1/2", unit: "tsp", confidence: 0.5},
		{line: "1½ cups sugar", name: "sugar", quantity: "1 1/2", unit: "cups", confidence: 0.5},
		{line: "3 eggs, beaten", name: "eggs", quantity: "3", preparation: "beaten", confidence: 0.4},
		{line: "a pinch of salt", name: "salt", quantity: "1", unit: "pinch", confidence: 0.5},
		{line: "a handful of spinach", name: "spinach", quantity: "handful", confidence: 0.4},
		{line: "1 (14 oz) can diced tomatoes", name: "diced tomatoes", quantity: "1", unit: "can", context: "14 oz", confidence: 0.5},
		{line: "Salt to taste", name: "Salt", context: "to taste", confidence: 0.3},
		{line: "1 cup walnuts (optional)", name: "walnuts", quantity: "1", unit: "cup", context: "optional", optional: true, confidence: 0.5},
		{line: "- 2 tbsp olive oil", name: "olive oil", quantity: "2", unit: "tbsp", confidence: 0.5},
		{line: "• 200 g dark chocolate", name: "dark chocolate", quantity: "200", unit: "g", confidence: 0.5},
		{line: "2cups milk", name: "milk", quantity: "2", unit: "cups", confidence: 0.5},
		{line: "1. 2 cups milk", name: "milk", quantity: "2", unit: "cups", confidence: 0.5},
		{line: "1.5 cups milk", name: "milk", quantity: "1.5", unit: "cups", confidence: 0.5},
		{line: "2-3 cloves garlic, minced", name: "garlic", quantity: "2-3", unit: "cloves", preparation: "minced", confidence: 0.5},
		{line: "about 1 lb ground beef", name: "ground beef", quantity: "1", unit: "lb", confidence: 0.5},
		{line: "[x] 1 cup rice", name: "rice", quantity: "1", unit: "cup", confidence: 0.5},
		{line: "Ingredients: 2 cups water", name: "water", quantity: "2", unit: "cups", confidence: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m := ingredient.ParseLine(tt.line)
			require.NotNil(t, m)
			assert.Equal(t, tt.name, m.Name)
			assert.Equal(t, tt.quantity, m.Quantity)
			assert.Equal(t, tt.unit, m.Unit)
			assert.Equal(t, tt.preparation, m.Preparation)
			assert.Equal(t, tt.context, m.Context)
			assert.Equal(t, tt.optional, m.Optional)
			assert.Equal(t, tt.confidence, m.Confidence)
			assert.Equal(t, strings.TrimSpace(tt.line), m.RawText)
		})
	}
}

func TestParseLine_Rejects(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"Preheat oven to 350°F.",
		"Step 1: Mix the flour and sugar",
		"1. Preheat the oven",
		"Serves 4",
		"Yield: 12 cookies",
		"Prep time: 10 minutes",
		"Ingredients:",
		"Instructions",
		"For the sauce:",
		"Bake for 25 minutes",
		"Stir until combined.",
		"---",
		"Enjoy!",
	}
	for _, line := range lines {
		assert.Nil(t, ingredient.ParseLine(line), "line %q", line)
	}
}

func TestLooksLikeIngredientLine(t *testing.T) {
	accept := []string{
		"2 cups flour",
		"1 tbsp butter",
		"3 eggs",
		"Salt to taste",
		"Fresh parsley for garnish",
		"butter, 1 stick",
		"½ tsp vanilla",
	}
	for _, line := range accept {
		assert.True(t, ingredient.LooksLikeIngredientLine(line), "line %q", line)
	}

	reject := []string{
		"",
		"Mix the flour and sugar",
		"Serves 4",
		"For the sauce:",
		"Step 2",
		"Fresh basil",
		"This is a lovely family recipe",
		"Cook time: 20 minutes",
	}
	for _, line := range reject {
		assert.False(t, ingredient.LooksLikeIngredientLine(line), "line %q", line)
	}
}

func TestIsNonIngredient(t *testing.T) {
	for _, name := range []string{"", "...", "Step 3", "Mix", "Preheat oven to 200 degrees", "Ingredients", "1."} {
		assert.True(t, ingredient.IsNonIngredient(name), "name %q", name)
	}
	for _, name := range []string{"flour", "mixed greens", "roast beef", "seasoning salt"} {
		assert.False(t, ingredient.IsNonIngredient(name), "name %q", name)
	}
}

func TestParseLine_NeverPanics(t *testing.T) {
	corpus := []string{
		"", " ", "\t", "\n", "(", ")", "()", "((", "))", ",", ",,,", "-", "--", "•", "*",
		"1", "1/", "/2", "1/0", "0/0", "1 /", "1 1/", "½", "⅓⅔", "1½½", "⁄", "1⁄", "⁄2",
		"a", "an", "a a a", "a pinch", "a pinch of", "of", "of of of", "to taste", "optional",
		"cup", "cups", "T", "t", "c", "g", "l", "L", "1 T", "1 t", "2 c", "3 g", "4 L",
		"1 cup", "1 cup,", "1 cup ()", "1 cup (", "1 cup )", "1 (", "1 ( oz) can",
		"2 -", "2 - 3", "2 to", "2 to 3", "2 to 3 cups", "2–3 cups", "2 — 3",
		"[ ]", "[x]", "[X] ", "[ ] 1 egg", "1)", "1) eggs", "10. flour", "99)",
		"Step", "Step 1", "step1", "STEP 12: bake", "Yield", "Serves", "Makes 12",
		"Ingredients", "Ingredients:", "INGREDIENTS:", "ingredients: ,", "You will need:",
		"Instructions:", "Directions", "Method:", "How to make it",
		"🍅 2 tomatoes", "🧂", "２ cups flour", "٣ eggs", "一杯 flour", "2 杯 麵粉",
		"1 1/2 1/2 cups", "1..5 cups", "1.5.5 cups", ".5 cups", "5. cups",
		"2 cups, , , flour", "2 cups (((flour)))", "2 cups flour)))", "((2)) cups",
		"salt, pepper, and oil", "salt & pepper", "salt/pepper", "salt + pepper",
		"1 can (15 oz) black beans, drained and rinsed",
		"1 package (8 oz) cream cheese, softened",
		"2 large eggs, room temperature",
		"1 cup frozen peas, thawed",
		"3 tablespoons unsalted butter, melted",
		"1/4 teaspoon freshly ground black pepper",
		"Fresh cilantro, for garnish (optional)",
		strings.Repeat("a", 10000),
		strings.Repeat("1 ", 2000),
		strings.Repeat("(", 500) + "flour" + strings.Repeat(")", 500),
		strings.Repeat("½", 300),
		"\x00\x01\x02",
		"\xff\xfe invalid utf8",
	}
	for i := 0; i < 20; i++ {
		corpus = append(corpus, fmt.Sprintf("%d %s", i, ingredient.CanonicalUnits[i%len(ingredient.CanonicalUnits)]))
	}
	require.GreaterOrEqual(t, len(corpus), 100)

	for _, line := range corpus {
		assert.NotPanics(t, func() {
			m := ingredient.ParseLine(line)
			if m != nil {
				ingredient.NormalizeMention(*m)
			}
			ingredient.LooksLikeIngredientLine(line)
		}, "line %q", line)
	}
}
