package ingredient

// Category 採買分類
type Category string

// 固定的分類集合
const (
	CategoryProduce   Category = "produce"
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategoryPantry    Category = "pantry"
	CategoryFrozen    Category = "frozen"
	CategoryBakery    Category = "bakery"
	CategoryBeverages Category = "beverages"
	CategoryHousehold Category = "household"
	CategoryOther     Category = "other"
)

// Categories 依固定順序列出所有分類
var Categories = []Category{
	CategoryProduce,
	CategoryDairy,
	CategoryMeat,
	CategoryPantry,
	CategoryFrozen,
	CategoryBakery,
	CategoryBeverages,
	CategoryHousehold,
	CategoryOther,
}

// Severity 問題嚴重程度
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity 將字串轉為嚴重程度，未知時為 low
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(s)
	}
	return SeverityLow
}

// RawMention 正規化前的單一食材出現
type RawMention struct {
	Name        string  `json:"name"`
	Quantity    string  `json:"quantity,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Preparation string  `json:"preparation,omitempty"`
	Context     string  `json:"context,omitempty"`
	Confidence  float64 `json:"confidence"`
	RawText     string  `json:"raw_text,omitempty"`
	Optional    bool    `json:"optional,omitempty"`
}

// NormalizedIngredient 數量為小數、單位為標準單位的食材。
// Quantity 為 nil 或有限非負數；Unit 為 nil 或 CanonicalUnits 之一。
type NormalizedIngredient struct {
	Name        string   `json:"name"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	Preparation *string  `json:"preparation"`
	Context     string   `json:"context,omitempty"`
	Confidence  float64  `json:"confidence"`
	RawText     string   `json:"raw_text,omitempty"`
	Optional    bool     `json:"optional"`
}

// CategorizedIngredient 加上分類與過敏原
type CategorizedIngredient struct {
	NormalizedIngredient
	Category    Category `json:"category"`
	Subcategory *string  `json:"subcategory"`
	Allergens   []string `json:"allergens"`
	Notes       string   `json:"notes,omitempty"`
}

// ValidatedIngredient 去重後的食材
type ValidatedIngredient struct {
	CategorizedIngredient
	Sources     []string `json:"sources,omitempty"`
	MergedCount int      `json:"merged_count"`
}

// Issue 需要人工檢查的問題
type Issue struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Ingredient  string   `json:"ingredient,omitempty"`
}

// IsComplete 名稱、數量、單位與分類皆具備
func (c CategorizedIngredient) IsComplete() bool {
	return c.Name != "" && c.Quantity != nil && c.Unit != nil && c.Category != CategoryOther
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(s string) *string { return &s }

// StringValue 解引用字串指標，nil 時為空字串
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
