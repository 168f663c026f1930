package extraction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingredient-extractor/internal/core/extraction"
	"ingredient-extractor/internal/core/ingredient"
)

func validated(c ingredient.CategorizedIngredient) ingredient.ValidatedIngredient {
	return ingredient.ValidatedIngredient{CategorizedIngredient: c, MergedCount: 1}
}

func TestBuildShoppingList(t *testing.T) {
	optional := categorized("parsley", nil, nil, 0.6)
	optional.Optional = true

	items := []ingredient.ValidatedIngredient{
		validated(categorized("flour", qty(2), str("cups"), 0.9)),
		validated(categorized("salt", qty(1.5), str("teaspoons"), 0.5)),
		validated(categorized("saffron", nil, nil, 0.1)),
		validated(categorized("Ingredients for the sauce", nil, nil, 0.9)),
		validated(optional),
	}

	list := extraction.BuildShoppingList(items, 0.3)

	require.Len(t, list, 3)
	assert.Equal(t, "2 cups flour", list[0].Display)
	assert.Equal(t, ingredient.CategoryPantry, list[0].Category)
	assert.Equal(t, "1.5 teaspoons salt", list[1].Display)
	assert.Equal(t, "parsley (optional)", list[2].Display)
	assert.True(t, list[2].Optional)
}

func TestBuildPantryCheck(t *testing.T) {
	items := []ingredient.ValidatedIngredient{
		validated(categorized("milk", qty(1), str("cups"), 0.2)),
		validated(categorized("Instructions", nil, nil, 0.9)),
	}

	check := extraction.BuildPantryCheck(items)

	require.Len(t, check, 1)
	assert.Equal(t, "milk", check[0].Ingredient)
	assert.Equal(t, 1.0, *check[0].Needed)
	assert.Equal(t, "cups", *check[0].Unit)
	assert.Nil(t, check[0].Have)
	assert.Equal(t, extraction.PantryStatusUnknown, check[0].Status)
}

func TestBuildViews_Empty(t *testing.T) {
	assert.NotNil(t, extraction.BuildShoppingList(nil, 0.3))
	assert.Empty(t, extraction.BuildShoppingList(nil, 0.3))
	assert.Empty(t, extraction.BuildPantryCheck(nil))
}
