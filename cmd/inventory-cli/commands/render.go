package commands

import (
	"fmt"
	"strconv"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

var recordHeaders = []string{"ID", "Description", "Major", "Fab Type", "Qty", "Stock Value"}

// renderResponse prints one resolved query for a human reader.
func renderResponse(resp *retrieval.Response) {
	switch resp.Outcome {
	case retrieval.OutcomeDelegationFailed:
		ui.Error("%s", resp.Answer)
	case retrieval.OutcomeEmpty, retrieval.OutcomeClarify, retrieval.OutcomeNoQuery:
		ui.Warning("%s", resp.Answer)
	default:
		ui.Message("%s", resp.Answer)
	}

	if a := resp.Result.Answer; a != nil && len(a.Tallies) > 0 {
		rows := make([][]string, 0, len(a.Tallies))
		for _, t := range a.Tallies {
			rows = append(rows, []string{t.Label, strconv.Itoa(t.Count)})
		}
		ui.Newline()
		ui.Table([]string{"Label", "Count"}, rows)
	}

	if p := resp.Page; p != nil && len(p.Items) > 0 {
		ui.Newline()
		ui.Table(recordHeaders, recordRows(p.Items))
		ui.Newline()
		ui.Hint("Page %d of %d (%d records)", p.Index+1, p.TotalPages, p.Total)
	}

	ui.Debug("intent=%q field=%q condition=%q value=%q outcome=%s source=%s cached=%t latency=%dms",
		resp.Intent, resp.Field, resp.Condition, resp.Value, resp.Outcome, resp.Source, resp.Cached, resp.LatencyMs)
}

func recordRows(records []catalog.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		rows = append(rows, []string{
			cell(rec, catalog.FieldItemID),
			ui.Truncate(cell(rec, catalog.FieldDescription), 40),
			cell(rec, catalog.FieldMajor),
			cell(rec, catalog.FieldFabType),
			cell(rec, catalog.FieldQty),
			cell(rec, catalog.FieldStockValue),
		})
	}
	return rows
}

func cell(rec *catalog.Record, f catalog.Field) string {
	v, ok := rec.Get(f)
	if !ok {
		return "-"
	}
	return v.String()
}

func describeOutcome(o retrieval.Outcome) string {
	return fmt.Sprintf("%-18s", o)
}
