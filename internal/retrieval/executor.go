package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
)

// ExecutorConfig tunes aggregation and matching.
type ExecutorConfig struct {
	TopN         int
	PreviewSize  int
	EqualsCutoff float64
}

// DefaultExecutorConfig returns the standard executor settings.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		TopN:         5,
		PreviewSize:  10,
		EqualsCutoff: 0.6,
	}
}

// Executor filters and aggregates a catalog. It never mutates the catalog
// and its output order depends only on catalog order.
type Executor struct {
	config ExecutorConfig
}

// NewExecutor creates an executor, filling unset config values with defaults.
func NewExecutor(cfg ExecutorConfig) *Executor {
	def := DefaultExecutorConfig()
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.PreviewSize <= 0 {
		cfg.PreviewSize = def.PreviewSize
	}
	if cfg.EqualsCutoff <= 0 {
		cfg.EqualsCutoff = def.EqualsCutoff
	}
	return &Executor{config: cfg}
}

// ExecuteIntent runs a classified intent. The tokens supply the identifier
// for IntentLookupByID and are ignored otherwise.
func (e *Executor) ExecuteIntent(c *catalog.Catalog, cls Classification, tokens []string) QueryResult {
	records := c.Records()

	switch cls.Intent {
	case IntentStockCount:
		n := float64(len(records))
		return AnswerResult(Answer{Text: fmt.Sprintf("Total items in stock: %d", len(records)), Value: &n})

	case IntentStockValueTotal:
		var sum float64
		for i := range records {
			if records[i].Has(catalog.FieldStockValue) {
				sum += records[i].StockValue
			}
		}
		return AnswerResult(Answer{Text: fmt.Sprintf("Total stock value: %s", catalog.FormatNumber(sum)), Value: &sum})

	case IntentTopCostly:
		top := e.rankByStockValue(records, e.config.TopN)
		return RecordsResult(top, len(top))

	case IntentCostliest:
		top := e.rankByStockValue(records, 1)
		return RecordsResult(top, len(top))

	case IntentTopUsedItems:
		return e.topUsed(records)

	case IntentCategoryBreakdown:
		return e.breakdown(c)

	case IntentCategoryFilter:
		return e.categoryFilter(records, cls.Category)

	case IntentLookupByID:
		return e.lookupByID(records, tokens)
	}

	return QueryResult{}
}

// rankByStockValue returns up to n records with a stock value, highest
// first, keeping catalog order on ties.
func (e *Executor) rankByStockValue(records []catalog.Record, n int) []catalog.Record {
	ranked := make([]catalog.Record, 0, len(records))
	for i := range records {
		if records[i].Has(catalog.FieldStockValue) {
			ranked = append(ranked, records[i])
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].StockValue > ranked[j].StockValue
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (e *Executor) topUsed(records []catalog.Record) QueryResult {
	var tallies []Tally
	positions := make(map[string]int)
	for i := range records {
		if !records[i].Has(catalog.FieldDescription) {
			continue
		}
		desc := records[i].Description
		if pos, ok := positions[desc]; ok {
			tallies[pos].Count++
			continue
		}
		positions[desc] = len(tallies)
		tallies = append(tallies, Tally{Label: desc, Count: 1})
	}
	if len(tallies) == 0 {
		return QueryResult{}
	}

	sort.SliceStable(tallies, func(i, j int) bool {
		return tallies[i].Count > tallies[j].Count
	})
	if len(tallies) > e.config.TopN {
		tallies = tallies[:e.config.TopN]
	}
	return AnswerResult(Answer{Text: "Most frequently stocked items", Tallies: tallies})
}

func (e *Executor) breakdown(c *catalog.Catalog) QueryResult {
	stats := c.Stats()
	if len(stats.Categories) == 0 {
		return QueryResult{}
	}
	tallies := make([]Tally, len(stats.Categories))
	for i, cc := range stats.Categories {
		tallies[i] = Tally{Label: cc.Major, Count: cc.Count}
	}
	return AnswerResult(Answer{Text: "Items per category", Tallies: tallies})
}

func (e *Executor) categoryFilter(records []catalog.Record, category Category) QueryResult {
	keyword := category.Keyword()
	if keyword == "" {
		return QueryResult{}
	}

	var preview []catalog.Record
	total := 0
	for i := range records {
		rec := &records[i]
		if containsFold(rec, catalog.FieldMajor, keyword) || containsFold(rec, catalog.FieldDescription, keyword) {
			total++
			if len(preview) < e.config.PreviewSize {
				preview = append(preview, *rec)
			}
		}
	}
	return RecordsResult(preview, total)
}

func containsFold(rec *catalog.Record, f catalog.Field, needle string) bool {
	v, ok := rec.Get(f)
	return ok && strings.Contains(strings.ToLower(v.Text), needle)
}

func (e *Executor) lookupByID(records []catalog.Record, tokens []string) QueryResult {
	v, ok := idValue(tokens)
	if !ok {
		return QueryResult{}
	}
	id := int64(v.Num)

	var matches []catalog.Record
	for i := range records {
		if records[i].Has(catalog.FieldItemID) && records[i].ItemID == id {
			matches = append(matches, records[i])
		}
	}
	return RecordsResult(matches, len(matches))
}

// ExecuteFilter applies field/condition/value to every record. Records that
// lack the field or cannot be compared are skipped.
func (e *Executor) ExecuteFilter(c *catalog.Catalog, ex Extraction) QueryResult {
	if !ex.HasField() || ex.Value == nil {
		return QueryResult{}
	}

	records := c.Records()
	var matches []catalog.Record
	for i := range records {
		got, ok := records[i].Get(ex.Field)
		if !ok {
			continue
		}
		if e.compare(got, ex.Condition, *ex.Value) {
			matches = append(matches, records[i])
		}
	}
	return RecordsResult(matches, len(matches))
}

// CountFilter counts the records matching field/condition/value.
func (e *Executor) CountFilter(c *catalog.Catalog, ex Extraction) QueryResult {
	matched := e.ExecuteFilter(c, ex)
	n := float64(matched.Total)
	return AnswerResult(Answer{
		Text:  fmt.Sprintf("Items where %s %s %s: %d", ex.Field, ex.Condition, ex.Value.String(), matched.Total),
		Value: &n,
	})
}

func (e *Executor) compare(got catalog.Value, cond Condition, want catalog.Value) bool {
	switch cond {
	case ConditionContains:
		return strings.Contains(strings.ToLower(got.String()), strings.ToLower(want.String()))

	case ConditionGreater, ConditionLess:
		a, okA := numeric(got)
		b, okB := numeric(want)
		if !okA || !okB {
			return false
		}
		if cond == ConditionGreater {
			return a > b
		}
		return a < b

	default:
		if !got.Numeric {
			return Similarity(strings.ToLower(got.Text), strings.ToLower(want.String())) >= e.config.EqualsCutoff
		}
		b, ok := numeric(want)
		return ok && got.Num == b
	}
}

func numeric(v catalog.Value) (float64, bool) {
	if v.Numeric {
		return v.Num, true
	}
	return catalog.ParseNumber(v.Text)
}
