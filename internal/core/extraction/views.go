package extraction

import (
	"strconv"
	"strings"

	"ingredient-extractor/internal/core/ingredient"
)

// PantryStatusUnknown 尚未比對庫存
const PantryStatusUnknown = "unknown"

// ShoppingListItem 採買清單項目
type ShoppingListItem struct {
	Name     string              `json:"name"`
	Quantity *float64            `json:"quantity"`
	Unit     *string             `json:"unit"`
	Category ingredient.Category `json:"category"`
	Optional bool                `json:"optional"`
	Display  string              `json:"display"`
}

// PantryCheckItem 庫存比對項目；Have 與 Status 由外部庫存服務填入
type PantryCheckItem struct {
	Ingredient string   `json:"ingredient"`
	Needed     *float64 `json:"needed"`
	Unit       *string  `json:"unit"`
	Have       *float64 `json:"have"`
	Status     string   `json:"status"`
}

// BuildShoppingList 過濾低信心與標籤殘留後產生採買清單
func BuildShoppingList(items []ingredient.ValidatedIngredient, minConfidence float64) []ShoppingListItem {
	list := make([]ShoppingListItem, 0, len(items))
	for _, it := range items {
		if it.Confidence < minConfidence || isLabelArtifact(it.Name) {
			continue
		}
		list = append(list, ShoppingListItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			Category: it.Category,
			Optional: it.Optional,
			Display:  displayText(it.NormalizedIngredient),
		})
	}
	return list
}

// BuildPantryCheck 產生庫存比對清單
func BuildPantryCheck(items []ingredient.ValidatedIngredient) []PantryCheckItem {
	list := make([]PantryCheckItem, 0, len(items))
	for _, it := range items {
		if isLabelArtifact(it.Name) {
			continue
		}
		list = append(list, PantryCheckItem{
			Ingredient: it.Name,
			Needed:     it.Quantity,
			Unit:       it.Unit,
			Status:     PantryStatusUnknown,
		})
	}
	return list
}

func isLabelArtifact(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(lower, "ingredients") || strings.HasPrefix(lower, "instructions") {
		return true
	}
	return ingredient.IsNonIngredient(name)
}

// displayText 例如 "2 cups flour"、"3 eggs (optional)"
func displayText(n ingredient.NormalizedIngredient) string {
	parts := make([]string, 0, 3)
	if n.Quantity != nil {
		parts = append(parts, strconv.FormatFloat(*n.Quantity, 'f', -1, 64))
	}
	if n.Unit != nil {
		parts = append(parts, *n.Unit)
	}
	parts = append(parts, n.Name)
	s := strings.Join(parts, " ")
	if n.Optional {
		s += " (optional)"
	}
	return s
}
