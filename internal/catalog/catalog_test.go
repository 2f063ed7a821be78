package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

func loadFixture(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadFile(filepath.Join("testdata", "inventory.json"))
	require.NoError(t, err)
	return c
}

func TestLoadFile_Fixture(t *testing.T) {
	c := loadFixture(t)
	require.Equal(t, 3, c.Len())

	first := c.Records()[0]
	assert.Equal(t, int64(1), first.ItemID)
	assert.Equal(t, "Bleach White", first.Description)
	assert.Equal(t, 100.0, first.StockValue)
	assert.Equal(t, 10.0, first.Aging.D60)
	assert.Equal(t, 1.0, first.Aging.D180Plus)
	assert.True(t, first.Has(FieldAging180Plus))

	// Aliased keys and string numbers
	second := c.Records()[1]
	assert.Equal(t, int64(2), second.ItemID)
	assert.Equal(t, "Dyes", second.Major)
	assert.Equal(t, 1250.0, second.Qty)
	assert.Equal(t, 500.0, second.StockValue)
	assert.Equal(t, 3.0, second.Aging.D60)
	assert.Equal(t, Unknown, second.FabType)
	assert.False(t, second.Has(FieldFabType))
	assert.False(t, second.Has(FieldSecQty))
}

func TestLoadFile_AbsentFieldsDefault(t *testing.T) {
	c := loadFixture(t)
	third := c.Records()[2]

	assert.True(t, third.Has(FieldItemID))
	assert.Equal(t, Unknown, third.Description)
	assert.Equal(t, Unknown, third.Major)
	assert.Equal(t, 0.0, third.Qty)
	assert.Equal(t, 0.0, third.StockValue)

	for _, f := range []Field{FieldDescription, FieldMajor, FieldQty, FieldStockValue} {
		_, ok := third.Get(f)
		assert.False(t, ok, "field %s should be absent", f)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "   "},
		{"malformed", `{"items": [`},
		{"no items", `{"records": []}`},
		{"items not array", `{"items": {"a": 1}}`},
		{"items null", `{"items": null}`},
		{"top level array", `[{"itemId": 1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeCatalog))
		})
	}
}

func TestParse_EmptyItemsIsValid(t *testing.T) {
	c, err := Parse([]byte(`{"items": []}`))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Index().Values(FieldDescription))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeCatalog))
}

func TestIndex_FirstSeenDistinctLowercase(t *testing.T) {
	c := New([]Record{
		textRecord(1, "Olive Dye", "Dyes"),
		textRecord(2, "Bleach White", "Chemicals"),
		textRecord(3, "OLIVE DYE", "dyes"),
	})

	idx := c.Index()
	assert.Equal(t, []string{"olive dye", "bleach white"}, idx.Values(FieldDescription))
	assert.Equal(t, []string{"dyes", "chemicals"}, idx.Values(FieldMajor))
	assert.True(t, idx.Contains(FieldMajor, "chemicals"))
	assert.False(t, idx.Contains(FieldMajor, "Chemicals"))
	assert.Nil(t, idx.Values(FieldQty))
}

func TestStats(t *testing.T) {
	c := loadFixture(t)
	stats := c.Stats()

	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 600.0, stats.TotalStockValue)
	assert.Equal(t, []CategoryCount{{Major: "Chemicals", Count: 1}, {Major: "Dyes", Count: 1}}, stats.Categories)
	assert.Equal(t, 2, stats.DomainSizes[FieldDescription])
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" 1,250.5 ", 1250.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "500", FormatNumber(500))
	assert.Equal(t, "12.75", FormatNumber(12.75))
}

func textRecord(id int64, desc, major string) Record {
	r := Record{ItemID: id, Description: desc, Major: major, FabType: Unknown}
	r.mark(FieldItemID)
	r.mark(FieldDescription)
	r.mark(FieldMajor)
	return r
}
