package search

import (
	"sync"

	"github.com/mzashi/moodkey/internal/model"
)

// Result is the outcome of one message analysis in a batch.
type Result struct {
	Index   int
	Message model.Message
	Record  model.KeyRecord
	Err     error
}

// AnalyzeBatch searches messages concurrently with at most workers
// goroutines. Each worker owns its message exclusively; results are merged
// by a single collector and returned in input order. A failed message does
// not affect its siblings.
func (s *Searcher) AnalyzeBatch(msgs []model.Message, workers int) []Result {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(msgs) {
		workers = len(msgs)
	}

	jobs := make(chan int)
	out := make(chan Result, len(msgs))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec, err := s.AnalyzeMessage(msgs[i])
				out <- Result{Index: i, Message: msgs[i], Record: rec, Err: err}
			}
		}()
	}
	for i := range msgs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]Result, len(msgs))
	for r := range out {
		results[r.Index] = r
	}
	return results
}

// Records filters the accepted key records out of batch results, preserving
// input order.
func Records(results []Result) []model.KeyRecord {
	var recs []model.KeyRecord
	for _, r := range results {
		if r.Err == nil {
			recs = append(recs, r.Record)
		}
	}
	return recs
}
