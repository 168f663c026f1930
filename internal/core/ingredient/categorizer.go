package ingredient

import (
	"regexp"
	"strings"
)

type subcategoryKeywords struct {
	name     string
	keywords []string
}

type categoryTaxonomy struct {
	category      Category
	subcategories []subcategoryKeywords
}

// taxonomy 分類 → 子分類 → 關鍵字，順序即平手時的優先順序
var taxonomy = []categoryTaxonomy{
	{CategoryProduce, []subcategoryKeywords{
		{"vegetables", []string{
			"onion", "red onion", "green onion", "scallion", "shallot", "garlic", "leek",
			"carrot", "celery", "potato", "sweet potato", "yam", "tomato", "cherry tomato",
			"bell pepper", "jalapeno", "jalapeño", "chili pepper", "chile", "cucumber",
			"zucchini", "squash", "butternut squash", "pumpkin", "eggplant", "broccoli",
			"cauliflower", "cabbage", "brussels sprout", "kale", "spinach", "lettuce",
			"arugula", "romaine", "chard", "bok choy", "asparagus", "green bean", "pea",
			"snap pea", "corn", "mushroom", "beet", "radish", "turnip", "parsnip",
			"artichoke", "okra", "fennel", "ginger", "avocado", "bean sprout",
		}},
		{"fruits", []string{
			"apple", "banana", "orange", "lemon", "lime", "grapefruit", "berry",
			"strawberry", "blueberry", "raspberry", "blackberry", "cranberry", "cherry",
			"grape", "peach", "pear", "plum", "apricot", "mango", "pineapple", "papaya",
			"kiwi", "melon", "watermelon", "cantaloupe", "pomegranate", "fig", "date",
			"coconut", "lemon zest", "lime zest", "lemon juice", "lime juice",
		}},
		{"herbs", []string{
			"basil", "parsley", "cilantro", "coriander leaves", "mint", "dill", "chive",
			"rosemary", "thyme", "sage", "oregano leaves", "tarragon", "bay leaf",
			"bay leaves", "lemongrass", "fresh herbs",
		}},
	}},
	{CategoryDairy, []subcategoryKeywords{
		{"milk_cream", []string{
			"milk", "whole milk", "skim milk", "buttermilk", "cream", "heavy cream",
			"whipping cream", "half and half", "half-and-half", "sour cream",
			"creme fraiche", "crème fraîche", "evaporated milk", "condensed milk",
		}},
		{"cheese", []string{
			"cheese", "cheddar", "mozzarella", "parmesan", "parmigiano", "feta",
			"ricotta", "goat cheese", "cream cheese", "gruyere", "swiss cheese",
			"brie", "blue cheese", "pecorino", "monterey jack", "cottage cheese",
			"mascarpone", "halloumi",
		}},
		{"butter_yogurt", []string{"butter", "unsalted butter", "ghee", "yogurt", "greek yogurt", "kefir"}},
		{"eggs", []string{"egg", "egg white", "egg yolk", "large egg"}},
		{"alternatives", []string{
			"almond milk", "oat milk", "soy milk", "rice milk", "vegan butter",
			"dairy-free cheese", "plant-based milk",
		}},
	}},
	{CategoryMeat, []subcategoryKeywords{
		{"poultry", []string{
			"chicken", "chicken breast", "chicken thigh", "turkey", "duck",
			"ground turkey", "chicken wing", "cornish hen",
		}},
		{"beef", []string{"beef", "ground beef", "steak", "sirloin", "brisket", "ribeye", "veal", "short rib"}},
		{"pork", []string{
			"pork", "pork chop", "pork loin", "bacon", "ham", "sausage", "chorizo",
			"prosciutto", "pancetta", "salami", "pepperoni",
		}},
		{"lamb", []string{"lamb", "lamb chop", "ground lamb", "mutton"}},
		{"seafood", []string{
			"fish", "salmon", "tuna", "cod", "tilapia", "halibut", "trout", "anchovy",
			"sardine", "shrimp", "prawn", "crab", "lobster", "scallop", "clam",
			"mussel", "oyster", "squid", "calamari", "octopus",
		}},
		{"plant_protein", []string{"tofu", "tempeh", "seitan"}},
	}},
	{CategoryPantry, []subcategoryKeywords{
		{"baking", []string{
			"flour", "all-purpose flour", "bread flour", "almond flour", "sugar",
			"brown sugar", "powdered sugar", "baking soda", "baking powder", "yeast",
			"cornstarch", "cocoa", "cocoa powder", "chocolate", "chocolate chip",
			"vanilla", "vanilla extract", "almond extract", "gelatin", "cream of tartar",
			"molasses", "corn syrup", "sprinkles",
		}},
		{"spices", []string{
			"salt", "sea salt", "kosher salt", "pepper", "black pepper", "white pepper",
			"paprika", "smoked paprika", "cumin", "turmeric", "cinnamon", "nutmeg",
			"clove", "allspice", "cardamom", "chili powder", "cayenne",
			"red pepper flakes", "garlic powder", "onion powder", "oregano",
			"dried oregano", "italian seasoning", "curry powder", "garam masala",
			"coriander", "mustard seed", "seasoning", "spice",
		}},
		{"oils_vinegars", []string{
			"oil", "olive oil", "vegetable oil", "canola oil", "sesame oil",
			"coconut oil", "cooking spray", "vinegar", "balsamic vinegar",
			"apple cider vinegar", "rice vinegar", "red wine vinegar",
		}},
		{"grains_pasta", []string{
			"rice", "brown rice", "basmati", "jasmine rice", "quinoa", "oats",
			"rolled oats", "couscous", "barley", "bulgur", "pasta", "spaghetti",
			"penne", "macaroni", "fettuccine", "linguine", "noodle", "lasagna",
			"breadcrumb", "panko", "cornmeal", "polenta", "cracker",
		}},
		{"canned_goods", []string{
			"broth", "stock", "chicken broth", "beef broth", "vegetable broth",
			"chicken stock", "tomato paste", "tomato sauce", "diced tomatoes",
			"crushed tomatoes", "coconut milk", "beans", "black beans", "kidney beans",
			"chickpea", "garbanzo", "lentil", "cannellini",
		}},
		{"condiments", []string{
			"soy sauce", "tamari", "fish sauce", "worcestershire", "hot sauce",
			"sriracha", "ketchup", "mustard", "dijon", "mayonnaise", "mayo",
			"honey", "maple syrup", "salsa", "pesto", "hoisin", "oyster sauce",
			"barbecue sauce", "bbq sauce", "jam", "tahini", "miso",
		}},
		{"nuts_seeds", []string{
			"almond", "walnut", "pecan", "cashew", "pistachio", "hazelnut", "peanut",
			"peanut butter", "pine nut", "macadamia", "sesame seed", "sunflower seed",
			"pumpkin seed", "chia seed", "flaxseed", "raisin", "dried cranberry",
		}},
	}},
	{CategoryFrozen, []subcategoryKeywords{
		{"frozen_foods", []string{
			"frozen peas", "frozen corn", "frozen spinach", "frozen berries",
			"ice cream", "puff pastry", "ice", "ice cube", "sorbet",
		}},
	}},
	{CategoryBakery, []subcategoryKeywords{
		{"bread", []string{
			"bread", "baguette", "sourdough", "bun", "roll", "dinner roll", "bagel",
			"croissant", "pita", "naan", "tortilla", "flatbread", "english muffin",
			"ciabatta", "brioche", "pie crust", "pizza dough",
		}},
	}},
	{CategoryBeverages, []subcategoryKeywords{
		{"drinks", []string{
			"water", "sparkling water", "club soda", "soda", "juice", "orange juice",
			"apple juice", "coffee", "espresso", "tea", "green tea",
		}},
		{"alcohol", []string{
			"wine", "red wine", "white wine", "beer", "vodka", "rum", "brandy",
			"bourbon", "whiskey", "tequila", "sake", "mirin", "sherry", "cognac",
		}},
	}},
	{CategoryHousehold, []subcategoryKeywords{
		{"supplies", []string{
			"aluminum foil", "foil", "parchment paper", "plastic wrap", "paper towel",
			"toothpick", "skewer", "kitchen twine", "cupcake liner", "baking cup",
		}},
	}},
}

type keywordRule struct {
	category    Category
	subcategory string
	keyword     string
	pattern     *regexp.Regexp
}

var (
	keywordRules  = buildKeywordRules()
	frozenPattern = regexp.MustCompile(`(?i)\bfrozen\b`)
)

func buildKeywordRules() []keywordRule {
	var rules []keywordRule
	for _, c := range taxonomy {
		for _, sub := range c.subcategories {
			for _, kw := range sub.keywords {
				rules = append(rules, keywordRule{
					category:    c.category,
					subcategory: sub.name,
					keyword:     kw,
					pattern:     keywordPattern(kw),
				})
			}
		}
	}
	return rules
}

// keywordPattern 整字比對並允許複數：berry → berries，tomato → tomatoes
func keywordPattern(kw string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(kw))
	if strings.HasSuffix(kw, "y") && !strings.HasSuffix(kw, "ey") {
		quoted = quoted[:len(quoted)-1] + `(?:y|ies)`
	} else {
		quoted += `(?:e?s)?`
	}
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}])` + quoted + `(?:[^\p{L}]|$)`)
}

// Categorize 以最長關鍵字決定分類與子分類；含 "frozen" 一律視為冷凍食品。
// 無相符關鍵字時為 other。
func Categorize(name string) (Category, *string) {
	if strings.TrimSpace(name) == "" {
		return CategoryOther, nil
	}

	var best *keywordRule
	for i := range keywordRules {
		r := &keywordRules[i]
		if best != nil && len(r.keyword) <= len(best.keyword) {
			continue
		}
		if r.pattern.MatchString(name) {
			best = r
		}
	}

	if frozenPattern.MatchString(name) {
		if best != nil && best.category == CategoryFrozen {
			return CategoryFrozen, stringPtr(best.subcategory)
		}
		return CategoryFrozen, stringPtr("frozen_foods")
	}
	if best == nil {
		return CategoryOther, nil
	}
	return best.category, stringPtr(best.subcategory)
}

// ContainsFoodKeyword 判斷文字是否含有任何已知食材關鍵字
func ContainsFoodKeyword(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for i := range keywordRules {
		if keywordRules[i].pattern.MatchString(text) {
			return true
		}
	}
	return len(DetectAllergens(text)) > 0
}

// Categorized 為正規化後的食材加上分類與過敏原
func Categorized(n NormalizedIngredient) CategorizedIngredient {
	cat, sub := Categorize(n.Name)
	return CategorizedIngredient{
		NormalizedIngredient: n,
		Category:             cat,
		Subcategory:          sub,
		Allergens:            MergeAllergens(nil, n.Name),
	}
}
