package camtparser

import (
	"runtime"
	"sync"

	"fjacquet/bank-recon/internal/logging"
	"fjacquet/bank-recon/internal/xmlutils"

	"gopkg.in/xmlpath.v2"
)

// sequentialThreshold is the entry count below which a worker pool costs
// more than it saves.
const sequentialThreshold = 100

// entryFunc converts one entry. ordinal is 1-based.
type entryFunc func(ordinal int, entry *xmlpath.Node, e *xmlutils.Evaluator) entryResult

// ConcurrentProcessor converts statement entries, in parallel for large
// statements. Results are always returned in document order.
type ConcurrentProcessor struct {
	logger      logging.Logger
	workerCount int
}

// NewConcurrentProcessor creates a processor with one worker per CPU.
func NewConcurrentProcessor(logger logging.Logger) *ConcurrentProcessor {
	return &ConcurrentProcessor{
		logger:      logging.OrDefault(logger),
		workerCount: runtime.NumCPU(),
	}
}

// ProcessEntries applies convert to every entry.
func (cp *ConcurrentProcessor) ProcessEntries(entries []*xmlpath.Node, convert entryFunc) []entryResult {
	if len(entries) < sequentialThreshold || cp.workerCount < 2 {
		return cp.processSequential(entries, convert)
	}
	return cp.processConcurrent(entries, convert)
}

func (cp *ConcurrentProcessor) processSequential(entries []*xmlpath.Node, convert entryFunc) []entryResult {
	e := xmlutils.NewEvaluator()
	results := make([]entryResult, 0, len(entries))
	for i, entry := range entries {
		results = append(results, convert(i+1, entry, e))
	}
	return results
}

func (cp *ConcurrentProcessor) processConcurrent(entries []*xmlpath.Node, convert entryFunc) []entryResult {
	indexes := make(chan int, cp.workerCount)
	results := make([]entryResult, len(entries))

	var wg sync.WaitGroup
	for w := 0; w < cp.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Evaluators cache compiled paths and are not shared.
			e := xmlutils.NewEvaluator()
			for i := range indexes {
				results[i] = convert(i+1, entries[i], e)
			}
		}()
	}

	for i := range entries {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	cp.logger.Debug("Concurrent entry processing completed",
		logging.F(logging.FieldCount, len(entries)),
		logging.F("workers", cp.workerCount))

	return results
}
