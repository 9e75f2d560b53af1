package dataflow_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/locvowork/hiring_analytics/pkg/dataflow"
)

type row struct {
	ID   int
	Name string
}

func parseRow(s string) (row, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return row{}, fmt.Errorf("invalid format")
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return row{}, err
	}
	return row{ID: id, Name: parts[1]}, nil
}

func TestMapDropsFailedItems(t *testing.T) {
	ctx := context.Background()

	var failures int32
	parsed := dataflow.Map(ctx, dataflow.From(ctx, "1,Alice", "bad", "2,Bob", "x,Charlie"), parseRow,
		dataflow.WithErrorHandler(func(error) bool {
			atomic.AddInt32(&failures, 1)
			return true
		}))

	results, err := dataflow.Collect(ctx, parsed)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Name != "Alice" || results[1].Name != "Bob" {
		t.Errorf("Expected input order with a single worker, got %+v", results)
	}
	if failures != 2 {
		t.Errorf("Expected 2 failures, got %d", failures)
	}
}

func TestMapSkipBypassesHandlerAndRetry(t *testing.T) {
	ctx := context.Background()

	var calls, handled int32
	fn := func(s string) (string, error) {
		atomic.AddInt32(&calls, 1)
		if s == "" {
			return "", fmt.Errorf("%w: blank", dataflow.ErrSkip)
		}
		return s, nil
	}
	out := dataflow.Map(ctx, dataflow.From(ctx, "a", "", "b"), fn,
		dataflow.WithRetry(3, func(int) time.Duration { return 0 }),
		dataflow.WithErrorHandler(func(error) bool {
			atomic.AddInt32(&handled, 1)
			return true
		}))

	results, err := dataflow.Collect(ctx, out)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	if len(results) != 2 || results[0] != "a" || results[1] != "b" {
		t.Errorf("Expected [a b], got %v", results)
	}
	if calls != 3 {
		t.Errorf("Expected skipped item to run once, got %d calls", calls)
	}
	if handled != 0 {
		t.Errorf("Expected no handled errors, got %d", handled)
	}
}

func TestMapRetry(t *testing.T) {
	ctx := context.Background()

	var attempts int32
	saved := dataflow.Map(ctx, dataflow.From(ctx, 1, 2, 3), func(n int) (int, error) {
		if n == 2 && atomic.AddInt32(&attempts, 1) < 3 {
			return 0, errors.New("transient error")
		}
		return n * 10, nil
	}, dataflow.WithRetry(3, func(int) time.Duration { return time.Millisecond }), dataflow.WithWorkers(2))

	sum := 0
	if err := dataflow.ForEach(ctx, saved, func(n int) error {
		sum += n
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if sum != 60 {
		t.Errorf("Expected sum 60, got %d", sum)
	}
}

func TestForEachReturnsFirstError(t *testing.T) {
	ctx := context.Background()

	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3), func(n int) error {
		if n == 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil || err.Error() != "boom" {
		t.Errorf("Expected boom, got %v", err)
	}
}

func TestForEachWorkersRetryAndHandler(t *testing.T) {
	ctx := context.Background()

	var calls, handled int32
	err := dataflow.ForEach(ctx, dataflow.From(ctx, 1, 2, 3, 4), func(n int) error {
		atomic.AddInt32(&calls, 1)
		if n == 3 {
			return errors.New("unavailable")
		}
		return nil
	},
		dataflow.WithWorkers(2),
		dataflow.WithRetry(2, func(int) time.Duration { return time.Millisecond }),
		dataflow.WithErrorHandler(func(error) bool {
			atomic.AddInt32(&handled, 1)
			return true
		}),
	)
	if err != nil {
		t.Fatalf("handled errors must not fail the stage: %v", err)
	}
	// three items once, item 3 three times
	if calls != 6 {
		t.Errorf("Expected 6 calls, got %d", calls)
	}
	if handled != 1 {
		t.Errorf("Expected 1 handled error, got %d", handled)
	}
}
