package goid

import (
	"sync"
	"testing"
)

func TestIDIsPositive(t *testing.T) {
	if id := ID(); id <= 0 {
		t.Fatalf("expected positive goroutine ID, got %d", id)
	}
}

func TestIDStableWithinGoroutine(t *testing.T) {
	first := ID()
	second := ID()
	if first != second {
		t.Errorf("ID changed within one goroutine: %d then %d", first, second)
	}
}

func TestIDDiffersAcrossGoroutines(t *testing.T) {
	const n = 8
	ids := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- ID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if id <= 0 {
			t.Errorf("got non-positive ID %d", id)
		}
		if seen[id] {
			t.Errorf("duplicate goroutine ID %d", id)
		}
		seen[id] = true
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		want  int64
	}{
		{"running", "goroutine 123 [running]:\nmain.main()", 123},
		{"single digit", "goroutine 1 [running]:", 1},
		{"large", "goroutine 9876543210 [select]:", 9876543210},
		{"garbage", "not a stack", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parse([]byte(tt.stack)); got != tt.want {
				t.Errorf("parse(%q) = %d, want %d", tt.stack, got, tt.want)
			}
		})
	}
}

func BenchmarkID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ID()
	}
}
