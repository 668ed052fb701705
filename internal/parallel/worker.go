// Package parallel provides the worker-pool infrastructure used by join and
// salting operations on large DataFrames.
//
// Operations fan work out in chunks to a fixed pool of goroutines and fan the
// results back in. Each chunk operates on independent data copies, so workers
// never share mutable state. Pools default to runtime.NumCPU() workers.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing.
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a worker pool with the given number of workers.
// A non-positive count means one worker per CPU.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Close shuts down the worker pool.
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// Process executes work items in parallel. Result order is unspecified;
// callers that need positional results use ProcessIndexed.
func Process[T, R any](wp *WorkerPool, items []T, worker func(T) R) []R {
	results := ProcessIndexed(wp, items, func(_ int, item T) R {
		return worker(item)
	})
	return results
}

// ProcessIndexed executes work items in parallel while preserving the
// position of each result relative to its input item.
func ProcessIndexed[T, R any](wp *WorkerPool, items []T, worker func(int, T) R) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

type indexedItem[T any] struct {
	index int
	value T
}

type indexedResult[R any] struct {
	index  int
	result R
}
