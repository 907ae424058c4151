package buffer

import (
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"testing"
)

func TestNewRingRejectsZeroCapacity(t *testing.T) {
	if _, err := NewRing[float64](0); !errors.Is(err, ErrZeroCapacity) {
		t.Fatalf("NewRing(0) error = %v, want ErrZeroCapacity", err)
	}
	if _, err := NewRingFrom[float64](nil); !errors.Is(err, ErrZeroCapacity) {
		t.Fatalf("NewRingFrom(nil) error = %v, want ErrZeroCapacity", err)
	}
}

func TestRingWriteReadWrapAround(t *testing.T) {
	r, err := NewRing[float64](5)
	if err != nil {
		t.Fatalf("NewRing() error = %v", err)
	}

	if n := r.Write([]float64{1, 2, 3, 4}); n != 4 {
		t.Fatalf("Write() = %d, want 4", n)
	}

	out := make([]float64, 3)
	if n := r.Read(out); n != 3 {
		t.Fatalf("Read() = %d, want 3", n)
	}

	// Wraps: positions 4, 0, 1, 2.
	if n := r.Write([]float64{5, 6, 7, 8, 9}); n != 4 {
		t.Fatalf("Write() = %d, want 4 (only free space)", n)
	}
	if r.Len() != 5 || r.Free() != 0 {
		t.Fatalf("Len()=%d Free()=%d, want 5/0", r.Len(), r.Free())
	}

	got := make([]float64, 8)
	n := r.Read(got)
	want := []float64{4, 5, 6, 7, 8}
	if n != len(want) {
		t.Fatalf("Read() = %d, want %d", n, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRingPushPop(t *testing.T) {
	r, _ := NewRingFrom(make([]int, 2))

	if !r.Push(1) || !r.Push(2) {
		t.Fatal("Push into empty ring failed")
	}
	if r.Push(3) {
		t.Fatal("Push into full ring succeeded")
	}

	v, ok := r.Pop()
	if !ok || v != 1 {
		t.Fatalf("Pop() = %v, %t, want 1, true", v, ok)
	}
	v, ok = r.Pop()
	if !ok || v != 2 {
		t.Fatalf("Pop() = %v, %t, want 2, true", v, ok)
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("Pop from empty ring succeeded")
	}
}

func TestRingReset(t *testing.T) {
	r, _ := NewRing[float64](4)
	r.Write([]float64{1, 2, 3})
	r.Reset()

	if r.Len() != 0 || r.Free() != 4 {
		t.Fatalf("after Reset Len()=%d Free()=%d", r.Len(), r.Free())
	}
}

type frameRef struct {
	id  uint64
	amp float64
}

func TestRingHoldsStructs(t *testing.T) {
	r, _ := NewRing[frameRef](3)
	r.Push(frameRef{id: 7, amp: 0.5})

	v, ok := r.Pop()
	if !ok || v.id != 7 || v.amp != 0.5 {
		t.Fatalf("Pop() = %+v, %t", v, ok)
	}
}

// Any interleaving of writes and reads keeps FIFO order and never reads
// more than was written.
func TestRingRandomInterleaving(t *testing.T) {
	const capacity = 37

	r, _ := NewRing[int](capacity)
	rng := rand.New(rand.NewSource(1))

	next, expect := 0, 0
	src := make([]int, 64)
	dst := make([]int, 64)

	for step := 0; step < 20000; step++ {
		if rng.Intn(2) == 0 {
			k := rng.Intn(len(src))
			for i := range k {
				src[i] = next + i
			}
			n := r.Write(src[:k])
			next += n
			if n < k && r.Free() != 0 {
				t.Fatalf("step %d: short write %d/%d with free space %d", step, n, k, r.Free())
			}
		} else {
			k := rng.Intn(len(dst))
			n := r.Read(dst[:k])
			for i := range n {
				if dst[i] != expect {
					t.Fatalf("step %d: read %d, want %d", step, dst[i], expect)
				}
				expect++
			}
		}

		if r.Consumed() > r.Written() {
			t.Fatalf("step %d: consumed %d > written %d", step, r.Consumed(), r.Written())
		}
		if r.Len() > capacity {
			t.Fatalf("step %d: Len() = %d > capacity", step, r.Len())
		}
	}
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	const total = 200000

	r, _ := NewRing[int](64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		block := make([]int, 48)
		sent := 0
		for sent < total {
			k := min(len(block), total-sent)
			for i := range k {
				block[i] = sent + i
			}
			n := r.Write(block[:k])
			sent += n
			if n < k {
				runtime.Gosched()
			}
		}
	}()

	buf := make([]int, 256)
	got := 0
	for got < total {
		n := r.Read(buf)
		for i := range n {
			if buf[i] != got {
				t.Fatalf("read %d, want %d", buf[i], got)
			}
			got++
		}
		if n == 0 {
			runtime.Gosched()
		}
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("Len() = %d after draining", r.Len())
	}
}

func BenchmarkRingWriteRead(b *testing.B) {
	r, _ := NewRing[float64](1024)
	block := make([]float64, 48)
	out := make([]float64, 48)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r.Write(block)
		r.Read(out)
	}
}
