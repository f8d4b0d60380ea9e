package exec

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/rexec/models"
)

type notFoundError struct{}

func (notFoundError) Error() string   { return "bazel: tool not found in PATH (looked for: bazel)" }
func (notFoundError) ReturnCode() int { return models.ReturnCodeToolNotFound }

func targetList(n int) []string {
	targets := make([]string, n)
	for i := range targets {
		targets[i] = fmt.Sprintf("//pkg%d:lib", i)
	}
	return targets
}

func TestDispatcher_Bijection(t *testing.T) {
	targets := targetList(25)

	var calls sync.Map
	d := NewDispatcher(4, nil)
	slots := d.Dispatch(context.Background(), targets, func(ctx context.Context, target string) (*Outcome, error) {
		n, _ := calls.LoadOrStore(target, new(int32))
		atomic.AddInt32(n.(*int32), 1)
		return &Outcome{ExitCode: 0, Stdout: target}, nil
	})

	require.Len(t, slots, len(targets))
	for i, target := range targets {
		require.NotNil(t, slots[i])
		assert.Equal(t, target, slots[i].Target)
		assert.Equal(t, target, slots[i].Stdout)

		n, ok := calls.Load(target)
		require.True(t, ok)
		assert.Equal(t, int32(1), atomic.LoadInt32(n.(*int32)))
	}
}

func TestDispatcher_OrderInvariance(t *testing.T) {
	targets := targetList(12)

	invoke := func(ctx context.Context, target string) (*Outcome, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		code := 0
		if len(target)%2 == 0 {
			code = 1
		}
		return &Outcome{ExitCode: code, Stderr: "err " + target}, nil
	}

	baseline := Collect("BazelBuild", NewDispatcher(1, nil).Dispatch(context.Background(), targets, invoke))

	for workers := 1; workers <= len(targets)+2; workers++ {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			report := Collect("BazelBuild", NewDispatcher(workers, nil).Dispatch(context.Background(), targets, invoke))
			require.Len(t, report.Results, len(baseline.Results))
			for i := range baseline.Results {
				assert.Equal(t, baseline.Results[i].Target, report.Results[i].Target)
				assert.Equal(t, baseline.Results[i].ReturnCode, report.Results[i].ReturnCode)
				assert.Equal(t, baseline.Results[i].Stderr, report.Results[i].Stderr)
			}
		})
	}
}

func TestDispatcher_BoundedConcurrency(t *testing.T) {
	var running, peak int32
	d := NewDispatcher(3, nil)
	d.Dispatch(context.Background(), targetList(10), func(ctx context.Context, target string) (*Outcome, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return &Outcome{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestDispatcher_Isolation(t *testing.T) {
	targets := []string{"//ok", "//fail", "//missing", "//timeout", "//panic", "//launch", "//nil", "//canceled", "//after"}

	invoke := func(ctx context.Context, target string) (*Outcome, error) {
		switch target {
		case "//fail":
			return &Outcome{ExitCode: 1, Stderr: "boom"}, nil
		case "//missing":
			return nil, notFoundError{}
		case "//timeout":
			return &Outcome{ExitCode: 137, Stderr: "partial\n"}, &TimeoutError{Timeout: time.Second}
		case "//panic":
			panic("invoker exploded")
		case "//launch":
			return nil, &LaunchError{Binary: "/usr/bin/bazel", Err: errors.New("permission denied")}
		case "//nil":
			return nil, nil
		case "//canceled":
			return &Outcome{ExitCode: 143}, context.Canceled
		}
		return &Outcome{ExitCode: 0, Stdout: "ok"}, nil
	}

	tests := []struct {
		target         string
		expectedCode   int
		expectedStderr string
	}{
		{target: "//ok", expectedCode: 0, expectedStderr: ""},
		{target: "//fail", expectedCode: 1, expectedStderr: "boom"},
		{target: "//missing", expectedCode: models.ReturnCodeToolNotFound, expectedStderr: "bazel: tool not found in PATH (looked for: bazel)"},
		{target: "//timeout", expectedCode: models.ReturnCodeTimeout, expectedStderr: "partial\ntimed out after 1s"},
		{target: "//panic", expectedCode: models.ReturnCodeInternal, expectedStderr: "internal error: invoker exploded"},
		{target: "//launch", expectedCode: models.ReturnCodeLaunchFailed, expectedStderr: "failed to launch /usr/bin/bazel: permission denied"},
		{target: "//nil", expectedCode: models.ReturnCodeInternal, expectedStderr: "invoker returned no outcome"},
		{target: "//canceled", expectedCode: models.ReturnCodeCanceled, expectedStderr: "context canceled"},
		{target: "//after", expectedCode: 0, expectedStderr: ""},
	}

	slots := NewDispatcher(2, nil).Dispatch(context.Background(), targets, invoke)
	report := Collect("BazelTest", slots)
	require.Len(t, report.Results, len(tests))

	for i, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			result := report.Results[i]
			assert.Equal(t, tt.target, result.Target)
			assert.Equal(t, tt.expectedCode, result.ReturnCode)
			assert.Equal(t, tt.expectedStderr, result.Stderr)
		})
	}
}

func TestDispatcher_CanceledContextSkipsLaunch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	slots := NewDispatcher(2, nil).Dispatch(ctx, targetList(4), func(ctx context.Context, target string) (*Outcome, error) {
		atomic.AddInt32(&calls, 1)
		return &Outcome{}, nil
	})

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	for _, slot := range slots {
		require.NotNil(t, slot)
		assert.Equal(t, models.ReturnCodeCanceled, slot.ReturnCode)
		assert.Equal(t, "not started: context canceled", slot.Stderr)
	}
}

func TestDispatcher_Observers(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	d := NewDispatcher(3, nil)
	d.OnResult(func(result models.TargetResult) {
		mu.Lock()
		defer mu.Unlock()
		seen[result.Target] = result.ReturnCode
	})

	targets := []string{"//a", "//b", "//c"}
	d.Dispatch(context.Background(), targets, func(ctx context.Context, target string) (*Outcome, error) {
		if target == "//b" {
			return &Outcome{ExitCode: 2}, nil
		}
		return &Outcome{}, nil
	})

	assert.Equal(t, map[string]int{"//a": 0, "//b": 2, "//c": 0}, seen)
}

func TestDispatcher_PanickingObserver(t *testing.T) {
	var calls atomic.Int32

	d := NewDispatcher(2, nil)
	d.OnResult(func(result models.TargetResult) {
		panic("observer failed for " + result.Target)
	})
	d.OnResult(func(models.TargetResult) {
		calls.Add(1)
	})

	targets := []string{"//a", "//b", "//c"}
	var slots Slots
	require.NotPanics(t, func() {
		slots = d.Dispatch(context.Background(), targets, func(ctx context.Context, target string) (*Outcome, error) {
			return &Outcome{Stdout: target}, nil
		})
	})

	report := Collect("BazelBuild", slots)
	require.Len(t, report.Results, 3)
	for i, target := range targets {
		assert.Equal(t, target, report.Results[i].Target)
		assert.Equal(t, 0, report.Results[i].ReturnCode)
	}
	assert.Equal(t, int32(3), calls.Load(), "later observers still run")
}

func TestDispatcher_EmptyTargets(t *testing.T) {
	slots := NewDispatcher(4, nil).Dispatch(context.Background(), nil, func(ctx context.Context, target string) (*Outcome, error) {
		t.Fatal("invoke must not be called")
		return nil, nil
	})
	assert.Empty(t, slots)
}

func TestNewDispatcher_ClampsWorkers(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		expected int
	}{
		{name: "zero", workers: 0, expected: 1},
		{name: "negative", workers: -3, expected: 1},
		{name: "positive", workers: 6, expected: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(tt.workers, nil)
			assert.Equal(t, tt.expected, d.maxWorkers)
		})
	}
}
