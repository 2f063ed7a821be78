// Package catalog loads and serves the read-only inventory record set and the
// value-domain index derived from it.
package catalog

import (
	"math"
	"strconv"
	"strings"
)

// Unknown is the sentinel stored in text fields that were absent from the source.
const Unknown = "unknown"

// Field is a canonical inventory record field name.
type Field string

const (
	FieldItemID       Field = "itemid"
	FieldDescription  Field = "description"
	FieldMajor        Field = "major"
	FieldFabType      Field = "fabtype"
	FieldQty          Field = "qty"
	FieldStockValue   Field = "stockvalue"
	FieldSecQty       Field = "secqty"
	FieldAging60      Field = "aging60"
	FieldAging90      Field = "aging90"
	FieldAging180     Field = "aging180"
	FieldAging180Plus Field = "aging180plus"
)

// Fields lists every field in record order.
var Fields = []Field{
	FieldItemID, FieldDescription, FieldMajor, FieldFabType,
	FieldQty, FieldStockValue, FieldSecQty,
	FieldAging60, FieldAging90, FieldAging180, FieldAging180Plus,
}

// DomainFields are the textual fields whose distinct values are indexed for
// exact and fuzzy value resolution.
var DomainFields = []Field{FieldDescription, FieldMajor, FieldFabType}

// IsText reports whether the field holds free text rather than a number.
func (f Field) IsText() bool {
	switch f {
	case FieldDescription, FieldMajor, FieldFabType:
		return true
	}
	return false
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return fieldBit(f) != 0
}

func fieldBit(f Field) uint16 {
	for i, known := range Fields {
		if known == f {
			return 1 << uint(i)
		}
	}
	return 0
}

// AgingBuckets counts stock by age in days.
type AgingBuckets struct {
	D60      float64 `json:"d60"`
	D90      float64 `json:"d90"`
	D180     float64 `json:"d180"`
	D180Plus float64 `json:"d180plus"`
}

// Record is one stock-keeping unit. Numeric fields are zero and text fields
// are Unknown when the source omitted them; Has reports which were present.
type Record struct {
	ItemID      int64        `json:"itemId"`
	Description string       `json:"description"`
	Major       string       `json:"major"`
	FabType     string       `json:"fabType"`
	Qty         float64      `json:"qty"`
	StockValue  float64      `json:"stockValue"`
	SecQty      float64      `json:"secQty"`
	Aging       AgingBuckets `json:"agingBuckets"`

	present uint16
}

// Has reports whether the field carried a usable value in the source document.
func (r *Record) Has(f Field) bool {
	bit := fieldBit(f)
	return bit != 0 && r.present&bit != 0
}

func (r *Record) mark(f Field) {
	r.present |= fieldBit(f)
}

// Value is a field value in either text or numeric form.
type Value struct {
	Text    string
	Num     float64
	Numeric bool
}

// String renders the value the way it would be typed in a query.
func (v Value) String() string {
	if v.Numeric {
		return FormatNumber(v.Num)
	}
	return v.Text
}

// Get returns the value of f, or false when the field is absent.
func (r *Record) Get(f Field) (Value, bool) {
	if !r.Has(f) {
		return Value{}, false
	}
	switch f {
	case FieldItemID:
		return Value{Num: float64(r.ItemID), Numeric: true}, true
	case FieldDescription:
		return Value{Text: r.Description}, true
	case FieldMajor:
		return Value{Text: r.Major}, true
	case FieldFabType:
		return Value{Text: r.FabType}, true
	case FieldQty:
		return Value{Num: r.Qty, Numeric: true}, true
	case FieldStockValue:
		return Value{Num: r.StockValue, Numeric: true}, true
	case FieldSecQty:
		return Value{Num: r.SecQty, Numeric: true}, true
	case FieldAging60:
		return Value{Num: r.Aging.D60, Numeric: true}, true
	case FieldAging90:
		return Value{Num: r.Aging.D90, Numeric: true}, true
	case FieldAging180:
		return Value{Num: r.Aging.D180, Numeric: true}, true
	case FieldAging180Plus:
		return Value{Num: r.Aging.D180Plus, Numeric: true}, true
	}
	return Value{}, false
}

// FormatNumber prints whole numbers without a fractional part.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ParseNumber coerces text into a number, tolerating thousands separators
// and surrounding whitespace.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
