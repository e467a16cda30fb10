package workpool

import (
	"sync/atomic"
	"testing"
)

func TestPool_ForEachCoversRangeOnce(t *testing.T) {
	sizes := []int{1, 2, 4, 8}
	counts := []int{0, 1, 31, 32, 33, 100, 1000, 4097}

	for _, size := range sizes {
		p := New(size)
		for _, n := range counts {
			hits := make([]int32, n)
			p.ForEach(n, func(lo, hi int) {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("size=%d n=%d: index %d visited %d times; want 1", size, n, i, h)
				}
			}
		}
		p.Close()
	}
}

func TestPool_ForEachIsABarrier(t *testing.T) {
	p := New(4)
	defer p.Close()

	const n = 2000
	first := make([]int, n)
	second := make([]int, n)

	p.ForEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			first[i] = i
		}
	})
	// every worker of the second pass reads slots written by other workers of the first
	p.ForEach(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			second[i] = first[n-1-i]
		}
	})

	for i := range second {
		if second[i] != n-1-i {
			t.Fatalf("second[%d] = %d; want %d", i, second[i], n-1-i)
		}
	}
}

func TestPool_DefaultSize(t *testing.T) {
	p := New(0)
	defer p.Close()
	if p.Size() < 1 {
		t.Errorf("Size() = %d; want at least 1", p.Size())
	}
}

func TestPool_UsableAfterClose(t *testing.T) {
	p := New(3)
	p.Close()
	p.Close()

	var sum atomic.Int64
	p.ForEach(500, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sum.Add(int64(i))
		}
	})
	if got, want := sum.Load(), int64(499*500/2); got != want {
		t.Errorf("sum after Close = %d; want %d", got, want)
	}
}

func BenchmarkPool_ForEach(b *testing.B) {
	p := New(0)
	defer p.Close()
	data := make([]float64, 10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ForEach(len(data), func(lo, hi int) {
			for j := lo; j < hi; j++ {
				data[j] += 1
			}
		})
	}
}
