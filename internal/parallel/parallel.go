// Package parallel splits element-wise loops over large tensors across
// goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how a loop is split.
type Config struct {
	NumWorkers   int // Upper bound on goroutines.
	MinChunkSize int // Loops shorter than this run on the calling goroutine.
}

// DefaultConfig uses one worker per CPU and chunks of at least 16K elements.
func DefaultConfig() Config {
	return Config{
		NumWorkers:   runtime.NumCPU(),
		MinChunkSize: 16 << 10,
	}
}

// Ranges calls f on consecutive half-open ranges covering [0, n). The ranges
// are disjoint, so f may write to index-aligned output without locking.
func Ranges(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if cfg.NumWorkers <= 1 || n < 2*cfg.MinChunkSize {
		f(0, n)
		return
	}

	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(start, end)
		}()
	}
	wg.Wait()
}
