package commands

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/inventory-engine/cmd/inventory-cli/ui"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/retrieval"
)

var (
	evalOutput string
)

var evalCmd = &cobra.Command{
	Use:   "eval [questions-file]",
	Short: "Resolve a set of questions and summarize the outcomes",
	Long: `Resolve every question in a file concurrently. The file is either a JSON
array of strings or plain text with one question per line; blank lines and
lines starting with # are ignored. Without a file the curated Q&A questions
are used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalOutput, "output", "o", "", "write full results as JSON to this file")
	rootCmd.AddCommand(evalCmd)
}

// readQuestions parses a question file.
func readQuestions(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var questions []string
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, fmt.Errorf("parse question list: %w", err)
		}
		return questions, nil
	}

	var questions []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	return questions, scanner.Err()
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var questions []string
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open questions: %w", err)
		}
		questions, err = readQuestions(f)
		f.Close()
		if err != nil {
			return err
		}
	}

	engine, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	if len(args) == 0 {
		questions = curatedQuestions(engine.Fallback.QA().Entries())
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions to evaluate")
	}

	var onDone func(retrieval.BatchItem)
	var bar *ui.ProgressBar
	if !jsonOutput {
		bar = ui.NewProgressBar(int64(len(questions)), "Resolving")
		onDone = func(retrieval.BatchItem) { bar.Add(1) }
	}

	items, err := engine.Batch.Process(ctx, questions, onDone)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		ui.Warning("Batch stopped early: %v", err)
	}

	if evalOutput != "" {
		out, createErr := os.Create(evalOutput)
		if createErr != nil {
			return fmt.Errorf("create output: %w", createErr)
		}
		defer out.Close()
		if err := printJSON(out, items); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	summary := retrieval.Summary(items)
	if jsonOutput {
		return printJSON(os.Stdout, map[string]interface{}{"summary": summary, "total": len(items)})
	}

	ui.Section("Outcomes")
	ui.Table([]string{"Outcome", "Questions", "Share"}, summaryRows(summary, len(items)))
	if evalOutput != "" {
		ui.Success("Results written to %s", evalOutput)
	}
	return nil
}

func curatedQuestions(entries []retrieval.QAEntry) []string {
	questions := make([]string, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, e.Question)
	}
	return questions
}

func summaryRows(summary map[retrieval.Outcome]int, total int) [][]string {
	outcomes := make([]string, 0, len(summary))
	for o := range summary {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		n := summary[retrieval.Outcome(o)]
		rows = append(rows, []string{
			describeOutcome(retrieval.Outcome(o)),
			strconv.Itoa(n),
			fmt.Sprintf("%.0f%%", float64(n)*100/float64(total)),
		})
	}
	return rows
}
