package errz

import "testing"

func TestPoolAcquireReleaseReuse(t *testing.T) {
	p := newPool(2)

	r1 := p.acquire()
	if !r1.Flags.Has(FlagIsPooled) {
		t.Fatal("expected acquired record to have FlagIsPooled set")
	}
	if r1.pool != p {
		t.Fatal("expected acquired record to reference its owning pool")
	}

	p.release(r1)
	_, misses, size, _ := p.stats()
	if size != 1 {
		t.Fatalf("expected free list size 1 after release, got %d", size)
	}
	if misses != 1 {
		t.Fatalf("expected exactly one miss for the first acquire, got %d", misses)
	}

	r2 := p.acquire()
	hits, _, _, _ := p.stats()
	if hits != 1 {
		t.Fatalf("expected the second acquire to be a pool hit, got %d hits", hits)
	}
	if r2 != r1 {
		t.Fatal("expected the released record to be reused by the next acquire")
	}
}

func TestPoolDoubleReleaseIsSilent(t *testing.T) {
	p := newPool(2)
	r := p.acquire()
	p.release(r)
	p.release(r) // double release must not panic and must not corrupt the free list

	_, _, size, _ := p.stats()
	if size != 1 {
		t.Fatalf("expected free list size to remain 1 after double release, got %d", size)
	}
}

func TestPoolReleaseNilIsNoop(t *testing.T) {
	p := newPool(1)
	p.release(nil)
}

func TestPoolCapacityBound(t *testing.T) {
	p := newPool(1)
	a := p.acquire()
	b := p.acquire()
	p.release(a)
	p.release(b)

	_, _, size, _ := p.stats()
	if size != 1 {
		t.Fatalf("expected free list to be capped at capacity 1, got %d", size)
	}
}

func TestReleasePackageFuncIgnoresUnpooledRecords(t *testing.T) {
	r := CreateError("X", "not pooled")
	Release(r) // must be a no-op, not a panic
	if r.Type != "X" {
		t.Error("expected Release to leave a non-pooled record untouched")
	}
}
