package extract

import (
	"context"
	"sync"

	"github.com/pnae-dados/merenda-pipeline/internal/logger"
)

const (
	// DefaultWorkers bounds concurrent in-flight extraction calls.
	DefaultWorkers = 10
	// DefaultDailyLimit caps how many new descriptions one run may send to
	// the model; the rest stay unresolved until a future run.
	DefaultDailyLimit = 100000
)

// Batch dispatches uncached descriptions to the extractor through a fixed-size
// worker pool and merges the answers into the cache. One description's failure
// is recorded as a zero-confidence placeholder and never aborts its siblings.
type Batch struct {
	Extractor  Extractor
	Cache      *Cache
	Workers    int
	DailyLimit int
}

// taskResult carries either an answer or a captured failure for one
// description; worker errors never escape the pool.
type taskResult struct {
	description string
	result      UnitExtraction
	err         error
}

// Run resolves every distinct description not yet cached, up to the daily
// limit, then persists the cache. Returns how many entries were added.
func (b *Batch) Run(ctx context.Context, descriptions []string) (int, error) {
	log := logger.FromContext(ctx)

	workers := b.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	limit := b.DailyLimit
	if limit <= 0 {
		limit = DefaultDailyLimit
	}

	pending := b.pending(descriptions, limit)
	log.Info().
		Int("distinct", len(distinct(descriptions))).
		Int("cached", b.Cache.Len()).
		Int("dispatching", len(pending)).
		Msg("resolving item descriptions")

	if len(pending) == 0 {
		return 0, nil
	}

	tasks := make(chan string)
	results := make(chan taskResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for description := range tasks {
				res, err := b.Extractor.ExtractUnit(ctx, description)
				if err != nil {
					results <- taskResult{description: description, result: Placeholder(), err: err}
					continue
				}
				results <- taskResult{description: description, result: res}
			}
		}()
	}

	go func() {
		for _, description := range pending {
			tasks <- description
		}
		close(tasks)
		wg.Wait()
		close(results)
	}()

	// Single merge point: the cache is only touched after each task settles.
	added := 0
	failed := 0
	for r := range results {
		if r.err != nil {
			failed++
			log.Warn().Str("item", r.description).Err(r.err).Msg("extraction failed, caching placeholder")
		}
		b.Cache.Put(r.description, r.result)
		added++
	}

	log.Info().Int("added", added).Int("failed", failed).Msg("extraction batch finished")

	if err := b.Cache.Persist(); err != nil {
		return added, err
	}
	return added, nil
}

// pending lists the distinct uncached descriptions in first-seen order,
// capped at limit. Descriptions beyond the cap are deferred to a future run.
func (b *Batch) pending(descriptions []string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range descriptions {
		if d == "" || seen[d] || b.Cache.Has(d) {
			continue
		}
		seen[d] = true
		out = append(out, d)
		if len(out) == limit {
			break
		}
	}
	return out
}

func distinct(descriptions []string) []string {
	seen := make(map[string]bool, len(descriptions))
	var out []string
	for _, d := range descriptions {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}
