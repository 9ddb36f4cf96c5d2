package parallel

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFor_CoversEveryIndexOnce(t *testing.T) {
	tests := []struct {
		name     string
		n, grain int
	}{
		{"empty", 0, 16},
		{"single chunk", 10, 16},
		{"exact chunks", 64, 16},
		{"ragged tail", 1001, 64},
		{"grain one", 257, 1},
		{"zero grain", 33, 0},
		{"many chunks", 100000, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			For(tt.n, tt.grain, func(lo, hi int) {
				if lo >= hi {
					t.Errorf("empty chunk [%d, %d)", lo, hi)
				}
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestFor_SmallRunsInline(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	For(8, 64, func(lo, hi int) {
		mu.Lock()
		calls++
		mu.Unlock()
		if lo != 0 || hi != 8 {
			t.Errorf("chunk = [%d, %d), want [0, 8)", lo, hi)
		}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestFor_ChunksRespectGrain(t *testing.T) {
	const n, grain = 10000, 500
	var mu sync.Mutex
	var sizes []int
	For(n, grain, func(lo, hi int) {
		mu.Lock()
		sizes = append(sizes, hi-lo)
		mu.Unlock()
	})

	total, short := 0, 0
	for _, s := range sizes {
		total += s
		if s < grain {
			short++
		}
	}
	if short > 1 {
		t.Errorf("%d chunks below grain %d, only the tail may be: %v", short, grain, sizes)
	}
	if total != n {
		t.Errorf("chunks cover %d indices, want %d", total, n)
	}
}
