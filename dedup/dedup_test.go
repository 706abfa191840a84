package dedup

import "testing"

func TestLRUAddAndExists(t *testing.T) {
	l := New(3)
	if l.Exists(1) {
		t.Fatalf("empty LRU should not contain 1")
	}
	l.Add(1)
	if !l.Exists(1) {
		t.Fatalf("expected 1 to exist after Add")
	}
}

func TestLRUEvictsLeastRecentlyAdded(t *testing.T) {
	l := New(2)
	l.Add(1)
	l.Add(2)
	l.Add(3) // evicts 1

	if l.Exists(1) {
		t.Fatalf("expected 1 to be evicted")
	}
	if !l.Exists(2) || !l.Exists(3) {
		t.Fatalf("expected 2 and 3 to remain")
	}
	if l.Len() != 2 {
		t.Fatalf("expected length 2, got %d", l.Len())
	}
}

func TestLRUReAddRefreshesRecency(t *testing.T) {
	l := New(2)
	l.Add(1)
	l.Add(2)
	l.Add(1) // 1 is now most recent again
	l.Add(3) // should evict 2, not 1

	if !l.Exists(1) {
		t.Fatalf("expected 1 to survive since it was re-added")
	}
	if l.Exists(2) {
		t.Fatalf("expected 2 to be evicted")
	}
}

func TestLRUResizeShrinks(t *testing.T) {
	l := New(3)
	l.Add(1)
	l.Add(2)
	l.Add(3)
	l.Resize(1)

	if l.Len() != 1 {
		t.Fatalf("expected length 1 after shrinking, got %d", l.Len())
	}
	if !l.Exists(3) {
		t.Fatalf("expected most recently added entry (3) to survive a shrink")
	}
}
