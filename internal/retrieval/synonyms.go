package retrieval

import "github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"

// Condition is the comparison applied between a record field and the query value.
type Condition string

const (
	ConditionEquals   Condition = "equals"
	ConditionContains Condition = "contains"
	ConditionGreater  Condition = "greater"
	ConditionLess     Condition = "less"
)

type fieldAliases struct {
	field   catalog.Field
	aliases []string
}

// fieldSynonyms is scanned in order; the first entry with an alias present in
// the query decides the field. Keep the order stable: it is the tie-break.
var fieldSynonyms = []fieldAliases{
	{catalog.FieldItemID, []string{"id", "itemid", "code", "sku", "inventoryid", "inventoryitemid"}},
	{catalog.FieldSecQty, []string{"secqty", "secondary", "sec", "secondaryqty"}},
	{catalog.FieldQty, []string{"qty", "quantity", "quantities", "quanity", "qnty", "units"}},
	{catalog.FieldStockValue, []string{"value", "stockvalue", "worth", "cost", "price", "amount", "valuation"}},
	{catalog.FieldFabType, []string{"fabtype", "fabrictype", "fab", "weave"}},
	{catalog.FieldMajor, []string{"major", "category", "group", "majors", "categories"}},
	{catalog.FieldDescription, []string{"description", "desc", "named", "name", "called", "product", "material"}},
	{catalog.FieldAging180Plus, []string{"aging180plus", "180plus", "over180"}},
	{catalog.FieldAging180, []string{"aging180", "180days"}},
	{catalog.FieldAging90, []string{"aging90", "90days"}},
	{catalog.FieldAging60, []string{"aging60", "60days", "aging", "ageing"}},
}

type conditionKeywords struct {
	condition Condition
	keywords  []string
}

// conditionTable is scanned in order like fieldSynonyms. Equals is also the
// default when nothing matches.
var conditionTable = []conditionKeywords{
	{ConditionGreater, []string{"greater", "more", "above", "over", "exceeds", "exceeding", "gt", "higher", "bigger", "larger"}},
	{ConditionLess, []string{"less", "below", "under", "lower", "fewer", "lt", "smaller"}},
	{ConditionContains, []string{"contains", "containing", "contain", "like", "includes", "including", "with", "having"}},
	{ConditionEquals, []string{"equals", "equal", "is", "exactly", "eq"}},
}

// stopWords never contribute to a value phrase.
var stopWords = newTokenSet([]string{
	"a", "an", "the", "of", "for", "in", "on", "at", "to", "by", "from", "and", "or",
	"me", "my", "our", "we", "i", "you", "us", "it", "its", "this", "that", "these", "those",
	"show", "list", "give", "find", "get", "display", "fetch", "search", "tell", "please",
	"all", "any", "item", "items", "stock", "stocks", "record", "records", "inventory",
	"what", "whats", "which", "where", "how", "many", "much", "than", "about",
	"do", "does", "have", "has", "are", "was", "there", "whose", "be",
})

// detectField returns the first field in table order that has an alias among the tokens.
func detectField(set tokenSet) (catalog.Field, bool) {
	for _, entry := range fieldSynonyms {
		if set.any(entry.aliases) {
			return entry.field, true
		}
	}
	return "", false
}

// detectCondition returns the first condition in table order with a keyword
// among the tokens, or equals.
func detectCondition(set tokenSet) (Condition, bool) {
	for _, entry := range conditionTable {
		if set.any(entry.keywords) {
			return entry.condition, true
		}
	}
	return ConditionEquals, false
}

var (
	fieldAliasSet     = buildFieldAliasSet(false)
	nonIDAliasSet     = buildFieldAliasSet(true)
	conditionWordSet  = buildConditionSet(nil)
	comparisonWordSet = buildConditionSet([]Condition{ConditionGreater, ConditionLess})
)

func buildFieldAliasSet(skipID bool) tokenSet {
	set := tokenSet{}
	for _, entry := range fieldSynonyms {
		if skipID && entry.field == catalog.FieldItemID {
			continue
		}
		for _, a := range entry.aliases {
			set[a] = struct{}{}
		}
	}
	return set
}

func buildConditionSet(only []Condition) tokenSet {
	set := tokenSet{}
	for _, entry := range conditionTable {
		if only != nil && !containsCondition(only, entry.condition) {
			continue
		}
		for _, k := range entry.keywords {
			set[k] = struct{}{}
		}
	}
	return set
}

func containsCondition(list []Condition, c Condition) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// intersects reports whether any token is in set.
func intersects(tokens []string, set tokenSet) bool {
	for _, t := range tokens {
		if set.has(t) {
			return true
		}
	}
	return false
}
