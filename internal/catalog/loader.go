package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

// ErrEmptySource is returned when the catalog source has no content at all.
var ErrEmptySource = errors.New("catalog source is empty")

// keyAliases maps normalized source keys onto canonical fields.
var keyAliases = map[string]Field{
	"itemid":          FieldItemID,
	"id":              FieldItemID,
	"inventoryitemid": FieldItemID,
	"inventoryid":     FieldItemID,
	"description":     FieldDescription,
	"desc":            FieldDescription,
	"major":           FieldMajor,
	"category":        FieldMajor,
	"fabtype":         FieldFabType,
	"fabrictype":      FieldFabType,
	"qty":             FieldQty,
	"quantity":        FieldQty,
	"stockvalue":      FieldStockValue,
	"value":           FieldStockValue,
	"secqty":          FieldSecQty,
	"secondaryqty":    FieldSecQty,
	"aging60":         FieldAging60,
	"aging90":         FieldAging90,
	"aging180":        FieldAging180,
	"aging180plus":    FieldAging180Plus,
}

// bucketAliases maps keys inside an agingBuckets object.
var bucketAliases = map[string]Field{
	"d60":      FieldAging60,
	"60":       FieldAging60,
	"d90":      FieldAging90,
	"90":       FieldAging90,
	"d180":     FieldAging180,
	"180":      FieldAging180,
	"d180plus": FieldAging180Plus,
	"180plus":  FieldAging180Plus,
}

// LoadFile reads and parses a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.CatalogError(fmt.Sprintf("read catalog %s", path), err)
	}
	return Parse(data)
}

// Parse decodes a catalog document of the form {"items": [...]}.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.CatalogError("parse catalog", ErrEmptySource)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.CatalogError("parse catalog", err)
	}

	raw, ok := findItems(doc)
	if !ok {
		return nil, domain.CatalogError("parse catalog", errors.New(`document has no "items" array`))
	}

	var items []map[string]interface{}
	itemDec := json.NewDecoder(bytes.NewReader(raw))
	itemDec.UseNumber()
	if err := itemDec.Decode(&items); err != nil {
		return nil, domain.CatalogError("parse catalog items", err)
	}
	if items == nil {
		return nil, domain.CatalogError("parse catalog", errors.New(`"items" must be an array`))
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, decodeRecord(item))
	}

	return New(records), nil
}

func findItems(doc map[string]json.RawMessage) (json.RawMessage, bool) {
	if raw, ok := doc["items"]; ok {
		return raw, true
	}
	for k, raw := range doc {
		if strings.EqualFold(k, "items") {
			return raw, true
		}
	}
	return nil, false
}

func decodeRecord(item map[string]interface{}) Record {
	rec := Record{
		Description: Unknown,
		Major:       Unknown,
		FabType:     Unknown,
	}

	// Sorted so that duplicate aliases ("id" and "itemId") resolve the same way every load.
	keys := make([]string, 0, len(item))
	for key := range item {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := item[key]
		nk := normalizeKey(key)
		if nk == "agingbuckets" || nk == "aging" {
			if buckets, ok := v.(map[string]interface{}); ok {
				for bk, bv := range buckets {
					if f, ok := bucketAliases[normalizeKey(bk)]; ok {
						setField(&rec, f, bv)
					}
				}
			}
			continue
		}
		if f, ok := keyAliases[nk]; ok {
			setField(&rec, f, v)
		}
	}

	return rec
}

func setField(rec *Record, f Field, v interface{}) {
	if f.IsText() {
		s, ok := coerceText(v)
		if !ok {
			return
		}
		switch f {
		case FieldDescription:
			rec.Description = s
		case FieldMajor:
			rec.Major = s
		case FieldFabType:
			rec.FabType = s
		}
		rec.mark(f)
		return
	}

	n, ok := coerceNumber(v)
	if !ok {
		return
	}
	switch f {
	case FieldItemID:
		rec.ItemID = int64(n)
	case FieldQty:
		rec.Qty = n
	case FieldStockValue:
		rec.StockValue = n
	case FieldSecQty:
		rec.SecQty = n
	case FieldAging60:
		rec.Aging.D60 = n
	case FieldAging90:
		rec.Aging.D90 = n
	case FieldAging180:
		rec.Aging.D180 = n
	case FieldAging180Plus:
		rec.Aging.D180Plus = n
	}
	rec.mark(f)
}

func coerceText(v interface{}) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case bool:
		s = fmt.Sprint(t)
	default:
		return "", false
	}
	if s == "" || strings.EqualFold(s, Unknown) {
		return "", false
	}
	return s, true
}

func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		return ParseNumber(t.String())
	case string:
		return ParseNumber(t)
	}
	return 0, false
}

// normalizeKey lowercases a source key and drops punctuation so that
// "Stock Value", "stock_value" and "stockValue" collapse to one form.
func normalizeKey(key string) string {
	key = strings.ReplaceAll(strings.ToLower(key), "+", "plus")
	var b strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
