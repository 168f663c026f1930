package extraction_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/core/extraction"
	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/infrastructure/config"
	"ingredient-extractor/internal/pkg/common"
	"ingredient-extractor/mocks"
)

const pancakeText = `Fluffy Pancakes
Ingredients:
- 2 cups flour
- 1 1/2 tsp salt
- 3 eggs, beaten
Instructions:
1. Whisk the eggs in a bowl.
2. Cook on a hot griddle for 2 minutes.`

// routedInvoker 依提示內容回傳各階段的固定回應
func routedInvoker() provider.InvokerFunc {
	return func(_ context.Context, prompt string, _ provider.Options) (string, error) {
		switch {
		case strings.Contains(prompt, "recipe ingredient extractor"):
			return smartResponseJSON, nil
		case strings.Contains(prompt, "standardizes recipe ingredients"):
			return `{"ingredients":[
				{"name":"flour","quantity":2,"unit":"cups","category":"pantry","allergens":["wheat"]},
				{"name":"eggs","allergens":["eggs"]}
			]}`, nil
		case strings.Contains(prompt, "Review this extracted"):
			return `{"issues":[],"confidence":0.9}`, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

func TestExtractIngredients_AllStagesSucceed(t *testing.T) {
	o := extraction.NewOrchestrator(routedInvoker(), config.Default())

	res := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})

	require.NotNil(t, res)
	assert.Empty(t, res.FallbacksUsed)
	assert.NotNil(t, res.FallbacksUsed)
	assert.Empty(t, res.Issues)
	assert.Equal(t, extraction.MethodLLM, res.Metadata.ExtractionMethod)
	assert.Equal(t, extraction.FormatStructured, res.Metadata.FormatType)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, "flour", res.Ingredients[0].Name)
	assert.Equal(t, "eggs", res.Ingredients[1].Name)
	assert.Equal(t, map[string]int{"pantry": 1, "dairy": 1}, res.Categories)
	assert.Equal(t, []string{"eggs", "wheat"}, res.Allergens)
	assert.Len(t, res.ShoppingList, 2)
	assert.Len(t, res.PantryCheck, 2)

	// smart 0.875, extraction 0.3+0.34+0.1+0.0875, validation averaged with 0.9
	assert.InDelta(t, 0.86375, res.Confidence, 1e-9)
}

func TestExtractIngredients_Offline(t *testing.T) {
	inv := new(mocks.MockInvoker)
	o := extraction.NewOrchestrator(inv, config.Default())

	res := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{DisableLLM: true})

	inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{
		extraction.StageSmartProcessing,
		extraction.StageInformationExtraction,
		extraction.StageValidation,
	}, res.FallbacksUsed)
	assert.Equal(t, extraction.MethodHeuristic, res.Metadata.ExtractionMethod)

	require.Len(t, res.Ingredients, 3)
	names := []string{res.Ingredients[0].Name, res.Ingredients[1].Name, res.Ingredients[2].Name}
	assert.Equal(t, []string{"flour", "salt", "eggs"}, names)
	assert.Equal(t, 1.5, *res.Ingredients[1].Quantity)
	assert.Equal(t, "teaspoons", *res.Ingredients[1].Unit)
	assert.Equal(t, "beaten", *res.Ingredients[2].Preparation)

	// heuristic mean 1.4/3, two of three complete, then both fallback scales
	assert.InDelta(t, 0.8*0.8*(0.3+0.5*(1.4/3)+0.2*(2.0/3)), res.Confidence, 1e-9)
	assert.LessOrEqual(t, res.Confidence, 0.5)
	assert.Equal(t, map[string]int{"pantry": 2, "dairy": 1}, res.Categories)
	assert.Contains(t, res.Allergens, "eggs")
	assert.Len(t, res.ShoppingList, 3)
	assert.Equal(t, "2 cups flour", res.ShoppingList[0].Display)

	severities := make([]ingredient.Severity, 0, len(res.Issues))
	for _, is := range res.Issues {
		severities = append(severities, is.Severity)
	}
	assert.Contains(t, severities, ingredient.SeverityMedium)
	assert.Contains(t, severities, ingredient.SeverityLow)
	for _, it := range res.Ingredients {
		assert.NotContains(t, strings.ToLower(it.Name), "whisk")
		assert.NotContains(t, strings.ToLower(it.Name), "griddle")
	}
}

func TestExtractIngredients_EndToEndScenario(t *testing.T) {
	text := "Ingredients:\n2 cups flour\n1 1/2 tsp salt\n3 eggs, beaten\nInstructions:\nStep 1: Preheat oven to 350.\nMix flour and salt."
	o := extraction.NewOrchestrator(nil, config.Default())

	res := o.ExtractIngredients(context.Background(), nil, text, extraction.Options{DisableLLM: true})

	require.Len(t, res.Ingredients, 3)
	byName := make(map[string]ingredient.ValidatedIngredient)
	for _, it := range res.Ingredients {
		byName[it.Name] = it
		assert.NotContains(t, strings.ToLower(it.Name), "preheat")
		assert.NotContains(t, strings.ToLower(it.Name), "step")
	}

	flour := byName["flour"]
	require.NotNil(t, flour.Quantity)
	assert.Equal(t, 2.0, *flour.Quantity)
	assert.Equal(t, "cups", ingredient.StringValue(flour.Unit))

	salt := byName["salt"]
	require.NotNil(t, salt.Quantity)
	assert.Equal(t, 1.5, *salt.Quantity)
	assert.Equal(t, "teaspoons", ingredient.StringValue(salt.Unit))

	eggs := byName["eggs"]
	require.NotNil(t, eggs.Quantity)
	assert.Equal(t, 3.0, *eggs.Quantity)
	assert.Nil(t, eggs.Unit)
	assert.Equal(t, "beaten", ingredient.StringValue(eggs.Preparation))
}

func TestExtractIngredients_StructuredRecipe(t *testing.T) {
	recipe := &common.RecipeData{
		Name: "Rice",
		Ingredients: []common.RecipeIngredient{
			{Text: "1 cup basmati rice"},
			{Name: "water", Quantity: "2", Unit: "cups"},
		},
		Instructions: common.Instructions{"Rinse the rice.", "Simmer for 15 minutes."},
	}
	o := extraction.NewOrchestrator(nil, config.Default())

	res := o.ExtractIngredients(context.Background(), recipe, "", extraction.Options{})

	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, "basmati rice", res.Ingredients[0].Name)
	assert.Equal(t, "water", res.Ingredients[1].Name)
}

func TestExtractIngredients_AllLLMCallsFail(t *testing.T) {
	inv := new(mocks.MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("upstream unavailable"))
	o := extraction.NewOrchestrator(inv, config.Default())

	res := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})

	assert.ElementsMatch(t, []string{
		extraction.StageSmartProcessing,
		extraction.StageInformationExtraction,
		extraction.StageValidation,
	}, res.FallbacksUsed)
	assert.LessOrEqual(t, res.Confidence, 0.5)
	assert.Len(t, res.Ingredients, 3)
	assert.Contains(t, res.Metadata.StageReasons[extraction.StageSmartProcessing], "upstream unavailable")
	inv.AssertNumberOfCalls(t, "Invoke", 3)
}

func TestExtractIngredients_PanickingInvoker(t *testing.T) {
	panicky := provider.InvokerFunc(func(context.Context, string, provider.Options) (string, error) {
		panic("provider exploded")
	})
	o := extraction.NewOrchestrator(panicky, config.Default())

	var res *extraction.ExtractionResult
	require.NotPanics(t, func() {
		res = o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})
	})

	assert.Len(t, res.FallbacksUsed, 3)
	assert.Contains(t, res.Metadata.StageReasons[extraction.StageSmartProcessing], "provider exploded")
	assert.NotEmpty(t, res.Ingredients)
}

func TestExtractIngredients_EmptyInput(t *testing.T) {
	o := extraction.NewOrchestrator(nil, nil)

	for _, raw := range []string{"", "  \n\t "} {
		res := o.ExtractIngredients(context.Background(), nil, raw, extraction.Options{})

		assert.Empty(t, res.Ingredients)
		assert.NotNil(t, res.Ingredients)
		assert.Zero(t, res.Confidence)
		assert.Equal(t, extraction.MethodNone, res.Metadata.ExtractionMethod)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, ingredient.SeverityCritical, res.Issues[0].Severity)
		assert.Equal(t, extraction.IssueEmptyInput, res.Issues[0].Description)
	}
}

func TestExtractIngredients_NoIngredientsFound(t *testing.T) {
	o := extraction.NewOrchestrator(nil, config.Default())

	res := o.ExtractIngredients(context.Background(), nil, "Just a nice day with no food.", extraction.Options{DisableLLM: true})

	assert.Empty(t, res.Ingredients)
	assert.Empty(t, res.ShoppingList)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, ingredient.SeverityCritical, res.Issues[0].Severity)
	assert.Equal(t, extraction.IssueNoIngredients, res.Issues[0].Description)
}

func TestExtractIngredients_Metadata(t *testing.T) {
	o := extraction.NewOrchestrator(nil, config.Default())

	first := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})
	second := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})

	_, err := uuid.Parse(first.Metadata.ExtractionID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Metadata.ExtractionID, second.Metadata.ExtractionID)
	assert.False(t, first.Metadata.CompletedAt.IsZero())
	assert.GreaterOrEqual(t, first.Metadata.ProcessingTimeMs, int64(0))
}

func TestExtractIngredients_MinConfidenceOption(t *testing.T) {
	o := extraction.NewOrchestrator(nil, config.Default())

	res := o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{MinConfidence: 0.45})

	require.Len(t, res.Ingredients, 3)
	require.Len(t, res.ShoppingList, 2, "eggs parsed at 0.4 are left out")
	assert.Len(t, res.PantryCheck, 3)
}

func TestExtractIngredients_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	o := extraction.NewOrchestrator(nil, config.Default(), extraction.WithTracer(tp.Tracer("test")))

	o.ExtractIngredients(context.Background(), nil, pancakeText, extraction.Options{})

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{
		"extraction.extract_ingredients",
		"stage." + extraction.StageSmartProcessing,
		"stage." + extraction.StageInformationExtraction,
		"stage." + extraction.StageValidation,
	}, names)
}
