package llmapi

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one model's call in a fan-out batch.
type Result struct {
	Model   string
	Content string
	Err     error
}

// ChatCompletionAll queries every model concurrently and waits for all of
// them. Each model writes only its own slot, so the returned slice is
// ordered by the models argument regardless of completion timing; callers
// that assign positional artifacts (anonymized labels) depend on that.
// Failures never short-circuit the batch; they land in the Err field of
// their slot.
func (c *Client) ChatCompletionAll(ctx context.Context, models []string, messages []Message) []Result {
	results := make([]Result, len(models))

	var g errgroup.Group
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			content, err := c.ChatCompletion(ctx, model, messages)
			if err != nil {
				log.Printf("Error querying model %s: %v", model, err)
			}
			results[i] = Result{Model: model, Content: content, Err: err}
			return nil
		})
	}

	// Goroutines never return errors, so Wait only serves as the join point.
	_ = g.Wait()

	return results
}
