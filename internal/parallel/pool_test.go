package parallel

import (
	"runtime"
	"sync"
	"testing"
)

func TestNewPool_Workers(t *testing.T) {
	p := NewPool(3)
	defer p.Close()
	if p.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", p.Workers())
	}

	q := NewPool(-1)
	defer q.Close()
	if q.Workers() != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers() = %d, want GOMAXPROCS", q.Workers())
	}
}

// coverage runs Rows and returns how many times each row was visited
// and how many bands there were.
func coverage(t *testing.T, p *Pool, n int) (visits []int, bands int) {
	t.Helper()
	visits = make([]int, n)
	var mu sync.Mutex
	p.Rows(n, func(lo, hi int) {
		mu.Lock()
		defer mu.Unlock()
		bands++
		for y := lo; y < hi; y++ {
			visits[y]++
		}
	})
	return visits, bands
}

func TestRows_CoversEveryRowOnce(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	tests := []struct {
		n         int
		wantBands int
	}{
		{0, 0},
		{1, 1},
		{MinBandRows*2 - 1, 1},
		{MinBandRows * 2, 2},
		{1080, 4},
		{541, 4},
	}
	for _, tt := range tests {
		visits, bands := coverage(t, p, tt.n)
		if bands != tt.wantBands {
			t.Errorf("Rows(%d): %d bands, want %d", tt.n, bands, tt.wantBands)
		}
		for y, v := range visits {
			if v != 1 {
				t.Fatalf("Rows(%d): row %d visited %d times", tt.n, y, v)
			}
		}
	}
}

func TestRows_AfterClose(t *testing.T) {
	p := NewPool(4)
	p.Close()
	p.Close()

	visits, bands := coverage(t, p, 1000)
	if bands != 1 {
		t.Errorf("closed pool split into %d bands, want inline run", bands)
	}
	for y, v := range visits {
		if v != 1 {
			t.Fatalf("row %d visited %d times", y, v)
		}
	}
}

func TestRows_Shared(t *testing.T) {
	var mu sync.Mutex
	total := 0
	Rows(500, func(lo, hi int) {
		mu.Lock()
		total += hi - lo
		mu.Unlock()
	})
	if total != 500 {
		t.Errorf("shared pool covered %d rows, want 500", total)
	}
}

func TestRows_ConcurrentWithClose(t *testing.T) {
	p := NewPool(4)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			visits, _ := coverage(t, p, 256)
			for y, v := range visits {
				if v != 1 {
					t.Errorf("row %d visited %d times", y, v)
					return
				}
			}
		}()
	}
	p.Close()
	wg.Wait()
}
