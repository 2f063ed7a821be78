package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
)

func TestParseQA_Formats(t *testing.T) {
	array, err := ParseQA([]byte(`[{"question":"Where is the stores desk?","answer":"Bay 2"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, array.Len())

	wrapped, err := ParseQA([]byte(`{"qa":[{"question":"q1","answer":"a1"},{"question":" ","answer":"dropped"},{"question":"q3","answer":""}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, wrapped.Len())
	assert.Equal(t, "q1", wrapped.Entries()[0].Question)

	empty, err := ParseQA([]byte("  "))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestParseQA_Malformed(t *testing.T) {
	for _, doc := range []string{`[{"question":`, `{"entries":[]}`, `"text"`} {
		_, err := ParseQA([]byte(doc))
		require.Error(t, err, doc)
		assert.True(t, domain.IsType(err, domain.ErrorTypeConfig), doc)
	}
}

func TestLoadQAFile(t *testing.T) {
	dir := t.TempDir()

	table, found, err := LoadQAFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, table.Len())

	path := filepath.Join(dir, "qa.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"question":"q","answer":"a"}]`), 0o644))
	table, found, err = LoadQAFile(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, table.Len())

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, found, err = LoadQAFile(path)
	require.Error(t, err)
	assert.True(t, found)
}

func TestQATable_Lookup(t *testing.T) {
	table := NewQATable([]QAEntry{
		{Question: "What are your working hours", Answer: "9 to 6"},
		{Question: "Where is the stores desk", Answer: "Bay 2"},
	})

	entry, score, ok := table.Lookup("  WHAT ARE YOUR WORKING HOURS ", 0.6)
	require.True(t, ok)
	assert.Equal(t, "9 to 6", entry.Answer)
	assert.Equal(t, 1.0, score)

	entry, _, ok = table.Lookup("where is the store desk", 0.6)
	require.True(t, ok)
	assert.Equal(t, "Bay 2", entry.Answer)

	_, _, ok = table.Lookup("top costing", 0.6)
	assert.False(t, ok)

	_, _, ok = table.Lookup("", 0.6)
	assert.False(t, ok)

	var nilTable *QATable
	_, _, ok = nilTable.Lookup("anything", 0.1)
	assert.False(t, ok)
}

func TestLoadQAFile_SampleData(t *testing.T) {
	table, found, err := LoadQAFile(filepath.Join("..", "..", "data", "qa.json"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 5, table.Len())
}
