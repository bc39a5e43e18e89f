package pagination

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFetchAll_SinglePage(t *testing.T) {
	var calls atomic.Int32
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		calls.Add(1)
		return []int{1, 2, 3}, 1, nil
	})

	got, err := FetchAll[int](context.Background(), fetcher, DefaultConfig())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestFetchAll_KeepsPageOrder(t *testing.T) {
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		// Later pages answer first.
		time.Sleep(time.Duration(5-page) * time.Millisecond)
		return []int{page * 10, page*10 + 1}, 4, nil
	})

	got, err := FetchAll[int](context.Background(), fetcher, Config{MaxConcurrency: 3})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	want := []int{10, 11, 20, 21, 30, 31, 40, 41}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchAll_BoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []int{page}, 10, nil
	})

	if _, err := FetchAll[int](context.Background(), fetcher, Config{MaxConcurrency: 2}); err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestFetchAll_FirstPageError(t *testing.T) {
	boom := errors.New("boom")
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		return nil, 0, boom
	})

	_, err := FetchAll[int](context.Background(), fetcher, DefaultConfig())
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
}

func TestFetchAll_LaterPageErrorFailsWalk(t *testing.T) {
	boom := errors.New("page 3 exploded")
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		if page == 3 {
			return nil, 0, boom
		}
		return []int{page}, 4, nil
	})

	got, err := FetchAll[int](context.Background(), fetcher, DefaultConfig())
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
	if got != nil {
		t.Errorf("items = %v, want nil on failure", got)
	}
}

func TestFetchAll_MaxPages(t *testing.T) {
	var calls atomic.Int32
	fetcher := PageFunc[int](func(ctx context.Context, page int) ([]int, int, error) {
		calls.Add(1)
		return []int{page}, 50, nil
	})

	got, err := FetchAll[int](context.Background(), fetcher, Config{MaxPages: 3})
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}
