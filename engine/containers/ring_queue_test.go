package containers

import (
	"errors"
	"testing"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)

	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}
	if err := rq.Enqueue(4); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Enqueue on full queue error = %v, want %v", err, ErrQueueFull)
	}

	if v, _ := rq.Peek(); v != 1 {
		t.Errorf("Peek() = %d, want 1", v)
	}
	if v, _ := rq.Dequeue(); v != 1 {
		t.Errorf("Dequeue() = %d, want 1", v)
	}

	// wraps around the end of the buffer
	if err := rq.Enqueue(4); err != nil {
		t.Fatalf("Enqueue(4) error = %v", err)
	}
	var got []int
	rq.Each(func(v int) { got = append(got, v) })
	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Each() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each() = %v, want %v", got, want)
		}
	}
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)
	if _, err := rq.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue() error = %v, want %v", err, ErrQueueEmpty)
	}
	if _, err := rq.Peek(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Peek() error = %v, want %v", err, ErrQueueEmpty)
	}
	if rq.Len() != 0 || rq.Cap() != 2 {
		t.Errorf("Len() = %d Cap() = %d", rq.Len(), rq.Cap())
	}
}
