package dynamo

import (
	"runtime"
	"sync"
)

// Shards splits [0, n) into at most workers contiguous ranges and runs fn
// on each range in its own goroutine. The shard index is stable for a
// given (n, workers) pair so callers can keep per-shard buffers and merge
// them in order. With workers <= 1 or n <= minChunk everything runs on
// the calling goroutine as shard 0.
func Shards(n, workers, minChunk int, fn func(shard, start, end int)) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, 0, n)
		return 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	used := (n + chunkSize - 1) / chunkSize

	var wg sync.WaitGroup
	wg.Add(used)
	for w := 0; w < used; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(shard, s, e int) {
			defer wg.Done()
			fn(shard, s, e)
		}(w, start, end)
	}
	wg.Wait()
	return used
}

// ShardCount returns how many shards Shards would use for the arguments.
func ShardCount(n, workers, minChunk int) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		return 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers
	return (n + chunkSize - 1) / chunkSize
}
