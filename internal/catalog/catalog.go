package catalog

import "strings"

// Catalog is an ordered, immutable set of inventory records plus the value
// domain index derived from them. Reloading builds a new Catalog.
type Catalog struct {
	records []Record
	index   *Index
}

// New builds a Catalog and its index. The records slice is owned by the
// catalog afterwards and must not be modified by the caller.
func New(records []Record) *Catalog {
	return &Catalog{
		records: records,
		index:   buildIndex(records),
	}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Records returns the records in source order. The slice is shared and read-only.
func (c *Catalog) Records() []Record {
	return c.records
}

// Index returns the value domain index.
func (c *Catalog) Index() *Index {
	return c.index
}

// Index maps each domain field to its distinct lowercased values in
// first-seen order.
type Index struct {
	values map[Field][]string
	sets   map[Field]map[string]struct{}
}

func buildIndex(records []Record) *Index {
	idx := &Index{
		values: make(map[Field][]string, len(DomainFields)),
		sets:   make(map[Field]map[string]struct{}, len(DomainFields)),
	}
	for _, f := range DomainFields {
		idx.sets[f] = make(map[string]struct{})
	}

	for i := range records {
		for _, f := range DomainFields {
			v, ok := records[i].Get(f)
			if !ok {
				continue
			}
			lv := strings.ToLower(v.Text)
			if _, seen := idx.sets[f][lv]; seen {
				continue
			}
			idx.sets[f][lv] = struct{}{}
			idx.values[f] = append(idx.values[f], lv)
		}
	}
	return idx
}

// Values returns the distinct values observed for f, or nil for fields that
// are not indexed.
func (i *Index) Values(f Field) []string {
	return i.values[f]
}

// Contains reports whether value (already lowercased) was observed for f.
func (i *Index) Contains(f Field, value string) bool {
	_, ok := i.sets[f][value]
	return ok
}

// Size returns the number of distinct values observed for f.
func (i *Index) Size(f Field) int {
	return len(i.values[f])
}

// CategoryCount is the number of records sharing one major category.
type CategoryCount struct {
	Major string `json:"major"`
	Count int    `json:"count"`
}

// Stats summarizes a catalog.
type Stats struct {
	Records         int             `json:"records"`
	TotalStockValue float64         `json:"totalStockValue"`
	Categories      []CategoryCount `json:"categories"`
	DomainSizes     map[Field]int   `json:"domainSizes"`
}

// Stats computes the catalog summary. Categories are in first-seen order.
func (c *Catalog) Stats() Stats {
	stats := Stats{
		Records:     len(c.records),
		Categories:  []CategoryCount{},
		DomainSizes: make(map[Field]int, len(DomainFields)),
	}

	positions := make(map[string]int)
	for i := range c.records {
		rec := &c.records[i]
		if rec.Has(FieldStockValue) {
			stats.TotalStockValue += rec.StockValue
		}
		if !rec.Has(FieldMajor) {
			continue
		}
		if pos, ok := positions[rec.Major]; ok {
			stats.Categories[pos].Count++
			continue
		}
		positions[rec.Major] = len(stats.Categories)
		stats.Categories = append(stats.Categories, CategoryCount{Major: rec.Major, Count: 1})
	}

	for _, f := range DomainFields {
		stats.DomainSizes[f] = c.index.Size(f)
	}
	return stats
}
