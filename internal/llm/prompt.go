package llm

import (
	"encoding/json"
	"fmt"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

// maxListedItems bounds how many bullets the model may return.
const maxListedItems = 50

// BuildSystemPrompt renders the grounding instructions around the records.
func BuildSystemPrompt(records []catalog.Record) (string, error) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode inventory sample: %w", err)
	}

	return fmt.Sprintf(`You are an Inventory Assistant. Using ONLY this JSON data:
%s

Rules:
1. Answer strictly from the data above.
2. List matching items as bullets, one per line: "• <description> (ID <itemId>, Qty <qty>, Value <stockValue>)".
3. Show at most %d items.
4. If nothing matches, reply exactly: %s
5. Do not guess or make up data.`, data, maxListedItems, retrieval.NoMatchMessage), nil
}
