package evaluation

import (
	"fmt"
	"sync"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/domain"
)

const defaultWorkers = 10

// ProgressCallback is called after each completed evaluation
type ProgressCallback func(current, total int, message string)

// WorkerPool fans snapshot evaluations out to a fixed number of goroutines
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool; non-positive sizes default to 10 workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// EvaluateBatch evaluates every snapshot with the engine. Results keep the input order.
func (p *WorkerPool) EvaluateBatch(e *Engine, snapshots []domain.Snapshot, progress ProgressCallback) []Evaluation {
	if len(snapshots) == 0 {
		return nil
	}

	results := make([]Evaluation, len(snapshots))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	workers := p.numWorkers
	if workers > len(snapshots) {
		workers = len(snapshots)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.Evaluate(snapshots[i])

				if progress != nil {
					mu.Lock()
					completed++
					progress(completed, len(snapshots), fmt.Sprintf("Evaluating %s", snapshots[i].Instrument))
					mu.Unlock()
				}
			}
		}()
	}

	for i := range snapshots {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
