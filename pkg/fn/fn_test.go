package fn

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestResultBasics(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok result misreports state")
	}
	if v, err := ok.Unwrap(); v != 42 || err != nil {
		t.Fatalf("Unwrap = (%d, %v)", v, err)
	}

	e := Err[int](errors.New("boom"))
	if e.IsOk() {
		t.Fatal("Err result reports ok")
	}
	if got := e.UnwrapOr(7); got != 7 {
		t.Fatalf("UnwrapOr = %d, want fallback", got)
	}
}

func TestMapResult(t *testing.T) {
	doubled := MapResult(Ok(21), func(v int) int { return v * 2 })
	if v, _ := doubled.Unwrap(); v != 42 {
		t.Fatalf("mapped value = %d", v)
	}
	failed := MapResult(Err[int](errors.New("boom")), func(v int) int { return v * 2 })
	if failed.IsOk() {
		t.Fatal("mapping an error produced ok")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)})
	if vs, err := all.Unwrap(); err != nil || len(vs) != 3 {
		t.Fatalf("Collect = (%v, %v)", vs, err)
	}
	some := Collect([]Result[int]{Ok(1), Err[int](errors.New("boom"))})
	if some.IsOk() {
		t.Fatal("Collect ignored an error")
	}
}

func TestRetrySucceedsAfterTransient(t *testing.T) {
	var calls atomic.Int64
	opts := RetryOpts{MaxAttempts: 4, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

	res := Retry(context.Background(), opts, func(context.Context) Result[string] {
		if calls.Add(1) < 3 {
			return Err[string](errors.New("transient"))
		}
		return Ok("done")
	})
	if v, err := res.Unwrap(); err != nil || v != "done" {
		t.Fatalf("Retry = (%q, %v)", v, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryStopsOnPermanent(t *testing.T) {
	permanent := errors.New("permanent")
	var calls atomic.Int64
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		MaxWait:     time.Millisecond,
		RetryIf:     func(err error) bool { return !errors.Is(err, permanent) },
	}

	res := Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls.Add(1)
		return Err[int](permanent)
	})
	if res.IsOk() || calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (permanent stops retrying)", calls.Load())
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls atomic.Int64
	opts := RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	res := Retry(context.Background(), opts, func(context.Context) Result[int] {
		calls.Add(1)
		return Err[int](errors.New("still failing"))
	})
	if res.IsOk() || calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 10, InitialWait: time.Hour, MaxWait: time.Hour}

	res := Retry(ctx, opts, func(context.Context) Result[int] {
		return Err[int](errors.New("transient"))
	})
	if _, err := res.Unwrap(); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestParMapResultPreservesOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}
	results := ParMapResult(items, 3, func(v int) Result[int] {
		return Ok(v * 10)
	})
	for i, r := range results {
		if v, _ := r.Unwrap(); v != i*10 {
			t.Fatalf("results[%d] = %d, want %d", i, v, i*10)
		}
	}
}

func TestParMapResultBoundsConcurrency(t *testing.T) {
	const workers = 2
	var active, peak atomic.Int64
	items := make([]int, 16)

	ParMapResult(items, workers, func(int) Result[int] {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return Ok(0)
	})
	if peak.Load() > workers {
		t.Fatalf("peak concurrency = %d, want <= %d", peak.Load(), workers)
	}
}

func TestParMapResultIsolatesErrors(t *testing.T) {
	items := []int{1, 2, 3}
	results := ParMapResult(items, 2, func(v int) Result[int] {
		if v == 2 {
			return Err[int](errors.New("boom"))
		}
		return Ok(v)
	})
	if results[0].IsErr() || results[2].IsErr() {
		t.Fatal("sibling results failed")
	}
	if results[1].IsOk() {
		t.Fatal("failing item succeeded")
	}
}

func TestStageComposition(t *testing.T) {
	ctx := context.Background()
	double := MapStage(func(v int) int { return v * 2 })
	var tapped int
	observe := TapStage(func(_ context.Context, v int) { tapped = v })

	pipeline := Then(double, observe)
	if v, err := pipeline(ctx, 21).Unwrap(); err != nil || v != 42 {
		t.Fatalf("pipeline = (%d, %v)", v, err)
	}
	if tapped != 42 {
		t.Fatalf("tap saw %d, want 42", tapped)
	}

	failing := Then(pipeline, func(context.Context, int) Result[int] {
		return Err[int](errors.New("boom"))
	})
	short := Then(failing, MapStage(func(v int) int {
		t.Fatal("stage ran after an error")
		return v
	}))
	if short(ctx, 1).IsOk() {
		t.Fatal("composed stage ignored the error")
	}
}

func TestTracedPassesThrough(t *testing.T) {
	stage := Traced("test.stage", MapStage(func(v string) string { return v + "!" }))
	if v, err := stage(context.Background(), "ok").Unwrap(); err != nil || v != "ok!" {
		t.Fatalf("traced stage = (%q, %v)", v, err)
	}
	failed := Traced("test.fail", func(context.Context, string) Result[string] {
		return Err[string](errors.New("boom"))
	})
	if failed(context.Background(), "x").IsOk() {
		t.Fatal("traced stage swallowed the error")
	}
}

func TestSliceHelpers(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(v int) int { return v * 2 })
	if len(doubled) != 3 || doubled[2] != 6 {
		t.Fatalf("Map = %v", doubled)
	}
	evens := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(evens) != 2 {
		t.Fatalf("Filter = %v", evens)
	}
	grouped := GroupBy([]string{"aa", "b", "cc"}, func(s string) int { return len(s) })
	if len(grouped[2]) != 2 || len(grouped[1]) != 1 {
		t.Fatalf("GroupBy = %v", grouped)
	}
	flat := FlatMap([]int{1, 2}, func(v int) []int { return []int{v, v} })
	if len(flat) != 4 || flat[3] != 2 {
		t.Fatalf("FlatMap = %v", flat)
	}
}
