package parallel

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collectRanges(n int, cfg Config) [][2]int {
	var mu sync.Mutex
	var got [][2]int
	Ranges(n, func(start, end int) {
		mu.Lock()
		got = append(got, [2]int{start, end})
		mu.Unlock()
	}, cfg)
	sort.Slice(got, func(i, j int) bool { return got[i][0] < got[j][0] })
	return got
}

func TestRanges(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
		want [][2]int
	}{
		{"empty", 0, Config{NumWorkers: 4, MinChunkSize: 1}, nil},
		{"sequential worker", 10, Config{NumWorkers: 1, MinChunkSize: 1}, [][2]int{{0, 10}}},
		{"below threshold", 10, Config{NumWorkers: 4, MinChunkSize: 8}, [][2]int{{0, 10}}},
		{"even split", 8, Config{NumWorkers: 4, MinChunkSize: 2}, [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"min chunk wins", 10, Config{NumWorkers: 8, MinChunkSize: 4}, [][2]int{{0, 4}, {4, 8}, {8, 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collectRanges(tt.n, tt.cfg))
		})
	}
}

func TestRanges_CoversEveryIndex(t *testing.T) {
	n := 100_003
	seen := make([]int, n)
	Ranges(n, func(start, end int) {
		for i := start; i < end; i++ {
			seen[i]++
		}
	}, Config{NumWorkers: 7, MinChunkSize: 1000})

	for i, c := range seen {
		if c != 1 {
			t.Fatalf("index %d visited %d times", i, c)
		}
	}
}
