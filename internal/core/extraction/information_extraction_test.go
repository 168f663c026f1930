package extraction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ingredient-extractor/internal/core/extraction"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"
	"ingredient-extractor/mocks"
)

func qty(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func upstreamResult() *extraction.SmartResult {
	return &extraction.SmartResult{
		FormatType: extraction.FormatStructured,
		Ingredients: []ingredient.NormalizedIngredient{
			{Name: "flour", Quantity: qty(2), Unit: str("cups"), Confidence: 0.9, RawText: "2 cups flour"},
			{Name: "eggs", Quantity: qty(3), Preparation: str("beaten"), Confidence: 0.8, RawText: "3 eggs, beaten"},
		},
		Confidence: 0.8,
		Method:     extraction.MethodLLM,
	}
}

func TestInformationExtraction_Run(t *testing.T) {
	inv := new(mocks.MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(
		"```json\n"+`{"ingredients":[
			{"name":"flour","quantity":2,"unit":"cup","category":"pantry","allergens":["wheat"]},
			{"name":"eggs","allergens":"eggs","notes":"large","category":"meat"},
			{"name":"Ingredients:"}
		]}`+"\n```", nil)

	stage := extraction.NewInformationExtractionStage(inv, config.Default())
	out, err := stage.Run(context.Background(), upstreamResult())

	require.NoError(t, err)
	assert.Equal(t, extraction.StageInformationExtraction, stage.Name())
	assert.Equal(t, extraction.MethodLLM, out.Method)
	require.Len(t, out.Ingredients, 2)

	flour := out.Ingredients[0]
	require.NotNil(t, flour.Unit)
	assert.Equal(t, "cups", *flour.Unit)
	assert.Equal(t, ingredient.CategoryPantry, flour.Category)
	assert.Equal(t, 0.9, flour.Confidence)
	assert.Equal(t, "2 cups flour", flour.RawText)
	assert.Contains(t, flour.Allergens, "wheat")

	eggs := out.Ingredients[1]
	require.NotNil(t, eggs.Quantity)
	assert.Equal(t, 3.0, *eggs.Quantity)
	require.NotNil(t, eggs.Preparation)
	assert.Equal(t, "beaten", *eggs.Preparation)
	assert.Equal(t, ingredient.CategoryDairy, eggs.Category, "category comes from the deterministic taxonomy")
	assert.Equal(t, "large", eggs.Notes)
	assert.Equal(t, []string{"eggs"}, eggs.Allergens)

	// 0.3 + 0.4*0.85 + 0.2*0.5 + 0.1*0.8
	assert.InDelta(t, 0.82, out.Confidence, 1e-9)
}

func TestInformationExtraction_CategoryIgnoresModel(t *testing.T) {
	inv := new(mocks.MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(
		`{"ingredients":[{"name":"zorblax","quantity":1,"category":"Produce"},{"name":"flour","category":"frozen"}]}`, nil)

	stage := extraction.NewInformationExtractionStage(inv, config.Default())
	out, err := stage.Run(context.Background(), upstreamResult())

	require.NoError(t, err)
	require.Len(t, out.Ingredients, 2)
	assert.Equal(t, ingredient.CategoryOther, out.Ingredients[0].Category)
	assert.False(t, out.Ingredients[0].IsComplete())
	assert.Equal(t, ingredient.CategoryPantry, out.Ingredients[1].Category)
}

func TestInformationExtraction_EmptyInput(t *testing.T) {
	inv := new(mocks.MockInvoker)
	stage := extraction.NewInformationExtractionStage(inv, config.Default())

	out, err := stage.Run(context.Background(), &extraction.SmartResult{})

	require.NoError(t, err)
	assert.Empty(t, out.Ingredients)
	assert.NotNil(t, out.Ingredients)
	assert.Equal(t, extraction.MethodNone, out.Method)
	inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestInformationExtraction_RunErrors(t *testing.T) {
	t.Run("nil invoker", func(t *testing.T) {
		_, err := extraction.NewInformationExtractionStage(nil, config.Default()).Run(context.Background(), upstreamResult())
		assert.ErrorIs(t, err, common.ErrLLMDisabled)
	})

	t.Run("provider error", func(t *testing.T) {
		inv := new(mocks.MockInvoker)
		inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("rate limited"))
		_, err := extraction.NewInformationExtractionStage(inv, config.Default()).Run(context.Background(), upstreamResult())
		assert.ErrorContains(t, err, "rate limited")
	})

	t.Run("only non-ingredients", func(t *testing.T) {
		inv := new(mocks.MockInvoker)
		inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(`{"ingredients":[{"name":"Step 2"}]}`, nil)
		_, err := extraction.NewInformationExtractionStage(inv, config.Default()).Run(context.Background(), upstreamResult())
		assert.ErrorIs(t, err, common.ErrEmptyExtraction)
	})
}

func TestInformationExtraction_Fallback(t *testing.T) {
	stage := extraction.NewInformationExtractionStage(nil, config.Default())
	out, err := stage.Fallback(context.Background(), upstreamResult(), common.ErrLLMDisabled)

	require.NoError(t, err)
	assert.True(t, out.FallbackUsed)
	assert.Equal(t, extraction.MethodDeterministic, out.Method)
	assert.NotEmpty(t, out.FallbackReason)
	require.Len(t, out.Ingredients, 2)
	assert.Equal(t, ingredient.CategoryPantry, out.Ingredients[0].Category)
	assert.Equal(t, ingredient.CategoryDairy, out.Ingredients[1].Category)
	assert.Contains(t, out.Ingredients[1].Allergens, "eggs")
	// 0.8 * (0.3 + 0.4*0.85 + 0.2*0.5 + 0.1*0.8)
	assert.InDelta(t, 0.656, out.Confidence, 1e-9)
}

func TestInformationExtraction_FallbackUsesStageFormula(t *testing.T) {
	in := &extraction.SmartResult{
		Ingredients: []ingredient.NormalizedIngredient{
			{Name: "flour", Quantity: qty(2), Unit: str("cups"), Confidence: 0.9},
			{Name: "milk", Quantity: qty(1), Unit: str("cups"), Confidence: 0.9},
		},
		Confidence: 0.9,
		Method:     extraction.MethodLLM,
	}

	out, err := extraction.NewInformationExtractionStage(nil, config.Default()).Fallback(context.Background(), in, errors.New("upstream unavailable"))

	require.NoError(t, err)
	require.Len(t, out.Ingredients, 2)
	assert.True(t, out.Ingredients[0].IsComplete())
	assert.True(t, out.Ingredients[1].IsComplete())
	// 0.8 * (0.3 + 0.4*0.9 + 0.2*1 + 0.1*0.9)
	assert.InDelta(t, 0.76, out.Confidence, 1e-9)
}

func TestInformationExtraction_FallbackNilInput(t *testing.T) {
	out, err := extraction.NewInformationExtractionStage(nil, config.Default()).Fallback(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, out.Ingredients)
	assert.Zero(t, out.Confidence)
}
