package browsercontext

import (
	"testing"
	"time"
)

type timestamped struct {
	at time.Time
	id int
}

func TestRingBuffer_PushBeyondCapacityDropsOldest(t *testing.T) {
	r := newRingBuffer[int](3)
	r.push(1)
	r.push(2)
	r.push(3)
	r.push(4)

	if r.len() != 3 {
		t.Fatalf("len() = %d, want 3", r.len())
	}
	got := r.since(time.Time{}, func(int) time.Time { return time.Time{} })
	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("got[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestRingBuffer_SinceZeroCutoffReturnsEverything(t *testing.T) {
	r := newRingBuffer[int](5)
	r.push(1)
	r.push(2)
	got := r.since(time.Time{}, func(int) time.Time { return time.Time{} })
	if len(got) != 2 {
		t.Fatalf("expected all 2 items with a zero cutoff, got %d", len(got))
	}
}

func TestRingBuffer_SinceCutoffFiltersOlderItems(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := newRingBuffer[timestamped](10)
	r.push(timestamped{at: base, id: 1})
	r.push(timestamped{at: base.Add(time.Minute), id: 2})
	r.push(timestamped{at: base.Add(2 * time.Minute), id: 3})

	got := r.since(base.Add(time.Minute), func(v timestamped) time.Time { return v.at })
	if len(got) != 2 {
		t.Fatalf("expected 2 items at or after cutoff, got %d", len(got))
	}
	if got[0].id != 2 || got[1].id != 3 {
		t.Errorf("got ids %d, %d, want 2, 3", got[0].id, got[1].id)
	}
}

func TestRingBuffer_SinceReturnsACopyNotTheBackingSlice(t *testing.T) {
	r := newRingBuffer[int](5)
	r.push(1)
	got := r.since(time.Time{}, func(int) time.Time { return time.Time{} })
	got[0] = 999
	if r.items[0] == 999 {
		t.Error("expected since() to return a copy, mutation leaked into the buffer")
	}
}

func TestRingBuffer_LenReflectsCurrentSize(t *testing.T) {
	r := newRingBuffer[int](2)
	if r.len() != 0 {
		t.Fatalf("len() = %d, want 0 for an empty buffer", r.len())
	}
	r.push(1)
	if r.len() != 1 {
		t.Fatalf("len() = %d, want 1", r.len())
	}
}
