package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BatchItem is the outcome of one question in a batch.
type BatchItem struct {
	Question string    `json:"question"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// BatchProcessor resolves many questions concurrently through a Router.
type BatchProcessor struct {
	router     *Router
	maxWorkers int
	timeout    time.Duration
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(router *Router, maxWorkers int, timeout time.Duration) *BatchProcessor {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &BatchProcessor{
		router:     router,
		maxWorkers: maxWorkers,
		timeout:    timeout,
	}
}

// Process resolves every question, preserving input order in the result.
// onDone, when set, is called once per finished question from worker goroutines.
func (bp *BatchProcessor) Process(ctx context.Context, questions []string, onDone func(BatchItem)) ([]BatchItem, error) {
	if len(questions) == 0 {
		return []BatchItem{}, nil
	}

	processCtx, cancel := context.WithTimeout(ctx, bp.timeout)
	defer cancel()

	type workItem struct {
		index    int
		question string
	}

	workChan := make(chan workItem, len(questions))
	results := make([]BatchItem, len(questions))
	for i, q := range questions {
		results[i] = BatchItem{Question: q}
		workChan <- workItem{index: i, question: q}
	}
	close(workChan)

	var wg sync.WaitGroup
	for i := 0; i < bp.maxWorkers && i < len(questions); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				if processCtx.Err() != nil {
					results[item.index].Error = processCtx.Err().Error()
					continue
				}
				resp, err := bp.router.Query(processCtx, Request{Question: item.question})
				// Each index is written by exactly one worker.
				results[item.index].Response = resp
				if err != nil {
					results[item.index].Error = err.Error()
				}
				if onDone != nil {
					onDone(results[item.index])
				}
			}
		}()
	}

	wg.Wait()

	if err := processCtx.Err(); err != nil && ctx.Err() == nil {
		return results, fmt.Errorf("batch processing timeout after %v", bp.timeout)
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Summary counts batch responses per outcome. Failed items count under "error".
func Summary(items []BatchItem) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, item := range items {
		if item.Response == nil {
			counts["error"]++
			continue
		}
		counts[item.Response.Outcome]++
	}
	return counts
}
