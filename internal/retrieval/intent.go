package retrieval

// Intent is a canonical question category with a fixed aggregation or filter.
type Intent string

const (
	IntentNone              Intent = ""
	IntentStockCount        Intent = "stockCount"
	IntentStockValueTotal   Intent = "stockValueTotal"
	IntentTopCostly         Intent = "topCostly"
	IntentCostliest         Intent = "costliest"
	IntentTopUsedItems      Intent = "topUsedItems"
	IntentCategoryBreakdown Intent = "categoryBreakdown"
	IntentCategoryFilter    Intent = "categoryFilter"
	IntentLookupByID        Intent = "lookupById"
)

// Category is the subtype of a category filter intent.
type Category string

const (
	CategoryNone     Category = ""
	CategoryChemical Category = "chemical"
	CategoryDye      Category = "dye"
	CategoryBleach   Category = "bleach"
	CategoryFabric   Category = "fabric"
)

// Keyword returns the substring matched against major and description.
func (c Category) Keyword() string {
	return string(c)
}

// Classification is the classifier verdict for one query.
type Classification struct {
	Intent     Intent
	Category   Category
	Confidence float64
}

// Matched reports whether any intent fired.
func (c Classification) Matched() bool {
	return c.Intent != IntentNone
}

var (
	breakdownWords = []string{"breakdown", "categorywise", "distribution", "split", "grouped", "categories"}
	topWords       = []string{"top"}
	costWords      = []string{"costly", "costing", "cost", "expensive", "valuable", "value", "priced", "price"}
	costliestWords = []string{"costliest", "priciest", "dearest", "expensive", "costly", "valuable"}
	usedWords      = []string{"used", "usage", "frequent", "frequently", "common", "popular", "repeated"}
	totalWords     = []string{"total", "sum", "overall", "entire", "whole", "net"}
	valueWords     = []string{"value", "worth", "valuation", "stockvalue", "amount", "cost"}
	chemicalWords  = []string{"chemical", "chemicals", "chem"}
	dyeWords       = []string{"dye", "dyes", "dyeing", "dyestuff"}
	bleachWords    = []string{"bleach", "bleaching", "bleaches"}
	fabricWords    = []string{"fabric", "fabrics"}
	countWords     = []string{"count", "many", "number", "total", "howmany"}
)

// intentRule fires when every required bucket intersects the query, no
// excludeAny bucket does, and excludeAll buckets do not all intersect at once.
type intentRule struct {
	intent     Intent
	category   Category
	confidence float64
	require    [][]string
	excludeAny [][]string
	excludeAll [][]string
	predicate  func(tokens []string, set tokenSet) bool
	// yieldToField skips the rule when the query names a record field explicitly.
	yieldToField bool
}

// IntentClassifier recognizes canonical intents with an ordered rule table.
// The first matching rule wins.
type IntentClassifier struct {
	rules []intentRule
}

// NewIntentClassifier creates a new intent classifier.
func NewIntentClassifier() *IntentClassifier {
	chemDyeConflict := [][]string{chemicalWords, dyeWords}

	return &IntentClassifier{
		rules: []intentRule{
			{intent: IntentCategoryBreakdown, confidence: 0.9, require: [][]string{breakdownWords}},
			{intent: IntentTopCostly, confidence: 0.9, require: [][]string{topWords, costWords}},
			{intent: IntentCostliest, confidence: 0.85, require: [][]string{costliestWords}},
			{intent: IntentTopUsedItems, confidence: 0.85, require: [][]string{usedWords}},
			{intent: IntentStockValueTotal, confidence: 0.9, require: [][]string{totalWords, valueWords}},
			{
				intent: IntentCategoryFilter, category: CategoryChemical, confidence: 0.8,
				require: [][]string{chemicalWords}, excludeAny: [][]string{dyeWords}, yieldToField: true,
			},
			{
				intent: IntentCategoryFilter, category: CategoryDye, confidence: 0.8,
				require: [][]string{dyeWords}, excludeAny: [][]string{chemicalWords}, yieldToField: true,
			},
			{
				intent: IntentCategoryFilter, category: CategoryBleach, confidence: 0.8,
				require: [][]string{bleachWords}, excludeAll: chemDyeConflict, yieldToField: true,
			},
			{
				intent: IntentCategoryFilter, category: CategoryFabric, confidence: 0.8,
				require: [][]string{fabricWords}, excludeAll: chemDyeConflict, yieldToField: true,
			},
			{intent: IntentLookupByID, confidence: 0.95, predicate: isIDLookup},
			{
				intent: IntentStockCount, confidence: 0.8,
				require: [][]string{countWords}, excludeAny: [][]string{keys(comparisonWordSet)},
			},
		},
	}
}

// Classify returns the first matching intent for the tokens, or a
// classification with IntentNone.
func (c *IntentClassifier) Classify(tokens []string) Classification {
	if len(tokens) == 0 {
		return Classification{}
	}
	set := newTokenSet(tokens)
	namesField := intersects(tokens, fieldAliasSet)

	for _, rule := range c.rules {
		if rule.matches(tokens, set, namesField) {
			return Classification{Intent: rule.intent, Category: rule.category, Confidence: rule.confidence}
		}
	}
	return Classification{}
}

func (r intentRule) matches(tokens []string, set tokenSet, namesField bool) bool {
	if r.yieldToField && namesField {
		return false
	}
	for _, bucket := range r.require {
		if !set.any(bucket) {
			return false
		}
	}
	for _, bucket := range r.excludeAny {
		if set.any(bucket) {
			return false
		}
	}
	if len(r.excludeAll) > 0 {
		all := true
		for _, bucket := range r.excludeAll {
			if !set.any(bucket) {
				all = false
				break
			}
		}
		if all {
			return false
		}
	}
	if r.predicate != nil && !r.predicate(tokens, set) {
		return false
	}
	return true
}

// isIDLookup matches a bare identifier question: a numeric token of at least
// four digits with no other field named and no comparison keyword.
func isIDLookup(tokens []string, set tokenSet) bool {
	hasID := false
	for _, t := range tokens {
		if isNumeric(t) && len(t) >= minIDDigits {
			hasID = true
			break
		}
	}
	if !hasID {
		return false
	}
	return !intersects(tokens, nonIDAliasSet) && !intersects(tokens, comparisonWordSet)
}

func keys(set tokenSet) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
