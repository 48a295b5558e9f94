package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGatherKeepsInputOrderRegardlessOfCompletionOrder(t *testing.T) {
	items := []int{30, 10, 20, 0}
	got, err := Gather(context.Background(), items, func(ctx context.Context, ms int) (int, bool, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return ms * 2, true, nil
	})
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	want := []int{60, 20, 40, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestGatherDropsUnkeptItems(t *testing.T) {
	got, err := Gather(context.Background(), []string{"a", "", "c"}, func(ctx context.Context, s string) (string, bool, error) {
		return strings.ToUpper(s), s != "", nil
	})
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(got) != 2 || got[0] != "A" || got[1] != "C" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestGatherEmptyInputSkipsWork(t *testing.T) {
	var calls int32
	got, err := Gather(context.Background(), nil, func(ctx context.Context, s string) (string, bool, error) {
		atomic.AddInt32(&calls, 1)
		return s, true, nil
	})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %v (%v)", got, err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls, got %d", calls)
	}
}

func TestGatherReturnsFirstErrorAndCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	var cancelled int32
	_, err := Gather(context.Background(), []int{0, 1, 2}, func(ctx context.Context, i int) (int, bool, error) {
		if i == 0 {
			return 0, false, boom
		}
		select {
		case <-ctx.Done():
			atomic.AddInt32(&cancelled, 1)
		case <-time.After(time.Second):
		}
		return i, true, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if atomic.LoadInt32(&cancelled) != 2 {
		t.Fatalf("expected remaining branches to observe cancellation, got %d", cancelled)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([][]int{{1, 2}, nil, {3}})
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected flatten result %v", got)
	}
}
