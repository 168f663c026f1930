package ingredient

import (
	"regexp"
	"sort"
	"strings"
)

// 以下查表在 init 後唯讀，可安全地被多個 goroutine 同時讀取。

// CanonicalUnits 標準單位
var CanonicalUnits = []string{
	"cups", "tablespoons", "teaspoons", "fluid ounces", "ounces", "pounds",
	"grams", "kilograms", "milliliters", "liters", "pints", "quarts", "gallons",
	"pieces", "cloves", "slices", "cans", "jars", "packages", "bunches", "heads",
	"stalks", "sprigs", "pinches", "dashes", "bottles", "sticks",
}

// unitSynonyms 各標準單位的同義字
var unitSynonyms = []struct {
	canonical string
	synonyms  []string
}{
	{"cups", []string{"cups", "cup"}},
	{"tablespoons", []string{"tablespoons", "tablespoon", "tbsps", "tbsp", "tbls", "tbl", "tbs"}},
	{"teaspoons", []string{"teaspoons", "teaspoon", "tsps", "tsp"}},
	{"fluid ounces", []string{"fluid ounces", "fluid ounce", "fl. oz", "fl.oz", "fl oz", "floz"}},
	{"ounces", []string{"ounces", "ounce", "oz"}},
	{"pounds", []string{"pounds", "pound", "lbs", "lb"}},
	{"kilograms", []string{"kilograms", "kilogram", "kilos", "kilo", "kgs", "kg"}},
	{"grams", []string{"grams", "gram", "gms", "gm", "gr"}},
	{"milliliters", []string{"milliliters", "milliliter", "millilitres", "millilitre", "mls", "ml"}},
	{"liters", []string{"liters", "liter", "litres", "litre", "ltr"}},
	{"pints", []string{"pints", "pint", "pt"}},
	{"quarts", []string{"quarts", "quart", "qt"}},
	{"gallons", []string{"gallons", "gallon", "gal"}},
	{"pieces", []string{"pieces", "piece", "pcs", "pc"}},
	{"cloves", []string{"cloves", "clove"}},
	{"slices", []string{"slices", "slice"}},
	{"cans", []string{"cans", "can", "tins", "tin"}},
	{"jars", []string{"jars", "jar"}},
	{"packages", []string{"packages", "package", "packets", "packet", "pkgs", "pkg", "packs", "pack"}},
	{"bunches", []string{"bunches", "bunch"}},
	{"heads", []string{"heads", "head"}},
	{"stalks", []string{"stalks", "stalk"}},
	{"sprigs", []string{"sprigs", "sprig"}},
	{"pinches", []string{"pinches", "pinch"}},
	{"dashes", []string{"dashes", "dash"}},
	{"bottles", []string{"bottles", "bottle"}},
	{"sticks", []string{"sticks", "stick"}},
}

// singleLetterUnits 大小寫敏感的單字母單位（T 為湯匙、t 為茶匙）
var singleLetterUnits = map[string]string{
	"T": "tablespoons",
	"t": "teaspoons",
	"c": "cups",
	"C": "cups",
	"g": "grams",
	"G": "grams",
	"l": "liters",
	"L": "liters",
}

// informalQuantities 非正式數量詞
var informalQuantities = map[string]float64{
	"pinch":    0.125,
	"dash":     0.25,
	"sprinkle": 0.5,
	"handful":  0.33,
	"bunch":    1,
	"head":     1,
	"stalk":    1,
	"package":  1,
	"can":      1,
	"jar":      1,
	"bottle":   1,
	"half":     0.5,
	"dozen":    12,
	"one":      1,
	"two":      2,
	"three":    3,
	"four":     4,
	"five":     5,
	"six":      6,
	"seven":    7,
	"eight":    8,
	"nine":     9,
	"ten":      10,
	"eleven":   11,
	"twelve":   12,
}

type unitSynonym struct {
	synonym   string
	canonical string
}

var (
	canonicalUnitSet = map[string]bool{}

	// longUnitSynonyms 長度 >= 4，以子字串比對，長者優先
	longUnitSynonyms []unitSynonym
	// shortUnitSynonyms 長度 < 4，需整個單字相符
	shortUnitSynonyms []unitSynonym

	// leadingUnitPattern 行首的多字母單位，後面須接空白、逗號或結尾
	leadingUnitPattern *regexp.Regexp
	// leadingSingleUnitPattern 行首的單字母單位，後面須接空白或結尾
	leadingSingleUnitPattern = regexp.MustCompile(`^(T|t|c|C|g|G|l|L)\.?(\s+|$)`)
	// unitWordPattern 句中任意位置的單位字
	unitWordPattern *regexp.Regexp
	// quantityUnitPattern 數量加單位，例如 "2 cups"、"1 1/2 tsp"
	quantityUnitPattern *regexp.Regexp
)

func init() {
	for _, u := range CanonicalUnits {
		canonicalUnitSet[u] = true
	}

	var all []unitSynonym
	for _, entry := range unitSynonyms {
		for _, syn := range entry.synonyms {
			all = append(all, unitSynonym{synonym: syn, canonical: entry.canonical})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return len(all[i].synonym) > len(all[j].synonym)
	})

	alternatives := make([]string, 0, len(all))
	for _, s := range all {
		if len(s.synonym) >= 4 {
			longUnitSynonyms = append(longUnitSynonyms, s)
		} else {
			shortUnitSynonyms = append(shortUnitSynonyms, s)
		}
		alternatives = append(alternatives, regexp.QuoteMeta(s.synonym))
	}
	alt := strings.Join(alternatives, "|")

	leadingUnitPattern = regexp.MustCompile(`(?i)^(` + alt + `)\.?(\s+|,|$)`)
	unitWordPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:` + alt + `)\.?(?:[^a-z]|$)`)
	quantityUnitPattern = regexp.MustCompile(`(?i)\d+(?:\s+\d+/\d+|/\d+|\.\d+)?\s*(?:-\s*\d+(?:\.\d+)?\s*)?(?:` + alt + `)\.?(?:[^a-z]|$)`)
}

// preparationPattern 嵌在名稱中的處理方式，可帶副詞
var preparationPattern = regexp.MustCompile(`(?i)\b(?:(?:finely|coarsely|roughly|thinly|freshly|lightly)\s+)?(?:chopped|diced|minced|grated|sliced|crushed|mashed|shredded|cubed|peeled|melted|softened|beaten|toasted|halved|quartered|julienned|zested|pitted|seeded|rinsed|drained)\b`)

// instructionVerbs 指示動詞，出現在行首時視為步驟
var instructionVerbs = []string{
	"add", "heat", "cook", "bake", "boil", "simmer", "fry", "grill", "roast",
	"mix", "stir", "combine", "pour", "fold", "whisk", "beat", "blend",
	"transfer", "divide", "garnish", "serve", "season", "bring", "reduce",
	"preheat", "place", "remove", "let", "cover", "drain", "spread", "put",
	"set", "allow", "cut", "chop",
}

// cookingVerbs segmenter 用來判斷食材段落結束的動詞
var cookingVerbs = []string{
	"preheat", "heat", "cook", "bake", "boil", "simmer", "fry", "grill", "roast",
}

var (
	instructionVerbPattern = regexp.MustCompile(`(?i)^(?:` + strings.Join(instructionVerbs, "|") + `)\b`)
	cookingVerbPattern     = regexp.MustCompile(`(?i)^(?:` + strings.Join(cookingVerbs, "|") + `)\b`)

	stepPattern         = regexp.MustCompile(`(?i)^step\s*\d+`)
	numberedLinePattern = regexp.MustCompile(`^\d+[.)](?:\s+|$)`)

	metadataPattern = regexp.MustCompile(`(?i)^[#*\s]*(?:(?:yields?|serves|servings?|makes|portions?)\b|(?:prep(?:aration)?|cook(?:ing)?|total|active|inactive|bake|baking)\s+time\b|(?:oven(?:\s+temp(?:erature)?)?|temperature|nutrition(?:al)?(?:\s+info(?:rmation)?)?|calories)\s*:)`)

	ingredientsMarkerPattern  = regexp.MustCompile(`(?i)^[#*\s]*(?:ingredients?|you will need|you'll need|what you(?:'ll)? need|shopping list)\b[*\s]*(?::[*\s]*|$)`)
	instructionsMarkerPattern = regexp.MustCompile(`(?i)^[#*\s]*(?:(?:instructions?|directions?|method|steps|preparation)\s*(?::.*)?|how to make\b.*)$`)

	headerLinePattern      = regexp.MustCompile(`^[^\d]{1,60}:\s*$`)
	punctuationOnlyPattern = regexp.MustCompile(`^[\p{P}\p{S}\s]+$`)

	bulletPattern     = regexp.MustCompile(`^[\-\*•·▪◦‣–—+>]+\s*`)
	checkboxPattern   = regexp.MustCompile(`^\[\s?[xX]?\s?\]\s*`)
	labelPattern      = regexp.MustCompile(`(?i)^(?:ingredients?|you will need|you'll need|shopping list)\s*:\s*`)
	approxPattern     = regexp.MustCompile(`(?i)^(?:about|approximately|approx\.?|around|roughly)\s+`)
	connectivePattern = regexp.MustCompile(`(?i)^(?:of|about|approximately|approx\.?)\s+`)
)
