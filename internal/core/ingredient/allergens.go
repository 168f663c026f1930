package ingredient

import (
	"regexp"
	"sort"
	"strings"
)

type allergenGroup struct {
	name       string
	keywords   []string
	exclusions []string
	patterns   []*regexp.Regexp
}

// allergenGroups 主要過敏原；exclusions 先從名稱移除再比對
var allergenGroups = buildAllergenGroups([]allergenGroup{
	{
		name: "milk",
		keywords: []string{
			"milk", "cream", "butter", "cheese", "yogurt", "ghee", "buttermilk",
			"whey", "casein", "kefir", "cheddar", "mozzarella", "parmesan", "feta",
			"ricotta", "mascarpone", "gruyere", "brie", "pecorino", "halloumi",
			"creme fraiche", "crème fraîche", "half and half", "half-and-half",
			"ice cream",
		},
		exclusions: []string{
			"peanut butter", "almond butter", "cashew butter", "cocoa butter",
			"apple butter", "shea butter", "vegan butter", "vegan cheese",
			"dairy-free", "coconut milk", "coconut cream", "almond milk", "oat milk",
			"soy milk", "rice milk", "cashew milk", "plant-based milk",
			"cream of tartar", "butternut", "cream of coconut",
		},
	},
	{
		name:       "eggs",
		keywords:   []string{"egg", "egg white", "egg yolk", "mayonnaise", "mayo", "meringue", "aioli"},
		exclusions: []string{"eggplant", "egg-free", "vegan mayo", "vegan mayonnaise"},
	},
	{
		name: "wheat",
		keywords: []string{
			"flour", "wheat", "bread", "breadcrumb", "panko", "pasta", "spaghetti",
			"penne", "macaroni", "fettuccine", "linguine", "noodle", "lasagna",
			"couscous", "bulgur", "semolina", "farro", "seitan", "tortilla",
			"pita", "naan", "baguette", "croissant", "bagel", "bun", "cracker",
			"pie crust", "pizza dough", "puff pastry", "soy sauce", "barley",
		},
		exclusions: []string{
			"almond flour", "rice flour", "coconut flour", "chickpea flour",
			"corn tortilla", "rice noodle", "gluten-free", "buckwheat", "tapioca flour",
			"cassava flour", "oat flour",
		},
	},
	{
		name: "soy",
		keywords: []string{
			"soy", "soy sauce", "soybean", "tofu", "tempeh", "edamame", "miso",
			"tamari", "soy milk", "soy lecithin",
		},
	},
	{
		name:     "peanuts",
		keywords: []string{"peanut", "peanut butter", "peanut oil", "groundnut"},
	},
	{
		name: "tree nuts",
		keywords: []string{
			"almond", "walnut", "pecan", "cashew", "pistachio", "hazelnut",
			"macadamia", "brazil nut", "pine nut", "praline", "marzipan", "nut",
			"almond milk", "almond flour", "nutella",
		},
		exclusions: []string{"nutmeg", "butternut", "coconut", "doughnut", "donut", "peanut", "water chestnut", "nutritional yeast"},
	},
	{
		name: "fish",
		keywords: []string{
			"fish", "salmon", "tuna", "cod", "tilapia", "halibut", "trout",
			"anchovy", "sardine", "mackerel", "haddock", "snapper", "bass",
			"fish sauce", "worcestershire",
		},
		exclusions: []string{"shellfish"},
	},
	{
		name: "shellfish",
		keywords: []string{
			"shellfish", "shrimp", "prawn", "crab", "lobster", "scallop", "clam",
			"mussel", "oyster", "crawfish", "crayfish", "squid", "calamari",
			"octopus", "oyster sauce",
		},
	},
})

func buildAllergenGroups(groups []allergenGroup) []allergenGroup {
	for i := range groups {
		for _, kw := range groups[i].keywords {
			groups[i].patterns = append(groups[i].patterns, keywordPattern(kw))
		}
	}
	return groups
}

// DetectAllergens 依名稱偵測過敏原，結果已排序
func DetectAllergens(name string) []string {
	lower := strings.ToLower(name)
	if strings.TrimSpace(lower) == "" {
		return nil
	}

	var found []string
	for _, g := range allergenGroups {
		s := lower
		for _, ex := range g.exclusions {
			s = strings.ReplaceAll(s, ex, " ")
		}
		for _, p := range g.patterns {
			if p.MatchString(s) {
				found = append(found, g.name)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

// MergeAllergens 合併既有標記與依名稱偵測的過敏原；只增不減，大小寫不分去重
func MergeAllergens(existing []string, name string) []string {
	seen := make(map[string]bool, len(existing))
	out := make([]string, 0, len(existing)+2)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, tag)
	}
	for _, tag := range existing {
		add(tag)
	}
	for _, tag := range DetectAllergens(name) {
		add(tag)
	}
	sort.Strings(out)
	return out
}
