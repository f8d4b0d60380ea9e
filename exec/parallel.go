package exec

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/vcnkl/rexec/logger"
	"github.com/vcnkl/rexec/models"
	"github.com/vcnkl/rexec/tracing"
)

type Dispatcher struct {
	maxWorkers int
	log        logger.Logger
	observers  []Observer
}

func NewDispatcher(maxWorkers int, log logger.Logger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		maxWorkers: maxWorkers,
		log:        log,
	}
}

func (d *Dispatcher) OnResult(fn Observer) {
	d.observers = append(d.observers, fn)
}

// Dispatch runs every target through invoke on at most maxWorkers goroutines.
// Each task writes only the slot at its target's index, and pool.Wait is the
// barrier before the slots are handed back. A failing target never cancels
// its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, targets []string, invoke InvokeFunc) Slots {
	slots := make(Slots, len(targets))

	p := pool.New().WithMaxGoroutines(d.maxWorkers)
	for i, target := range targets {
		p.Go(func() {
			slots[i] = d.runTarget(ctx, target, invoke)
		})
	}
	p.Wait()

	return slots
}

func (d *Dispatcher) runTarget(ctx context.Context, target string, invoke InvokeFunc) (result *models.TargetResult) {
	targetLog := d.log.WithPrefix(target)
	ctx, span := tracing.StartSpan(ctx, "rexec.target", tracing.StringAttr("target", target))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = &models.TargetResult{
				Target:     target,
				ReturnCode: models.ReturnCodeInternal,
				Stderr:     fmt.Sprintf("internal error: %v", r),
			}
		}
		result.Duration = time.Since(start)

		span.SetAttributes(tracing.IntAttr("returncode", result.ReturnCode))
		if result.Passed() {
			tracing.SetOK(span)
			targetLog.Info("passed", logger.Duration("duration", result.Duration))
		} else {
			tracing.RecordError(span, fmt.Errorf("exit code %d", result.ReturnCode))
			targetLog.Error("failed",
				logger.Int("returncode", result.ReturnCode),
				logger.String("outcome", result.Outcome()),
				logger.Duration("duration", result.Duration))
		}
		span.End()

		for _, fn := range d.observers {
			notify(fn, *result, targetLog)
		}
	}()

	if err := ctx.Err(); err != nil {
		return &models.TargetResult{
			Target:     target,
			ReturnCode: models.ReturnCodeCanceled,
			Stderr:     "not started: " + err.Error(),
		}
	}

	targetLog.Info("running...")
	outcome, err := invoke(ctx, target)
	return toResult(target, outcome, err)
}

// notify isolates observer panics so they cannot take down the pool.
func notify(fn Observer, result models.TargetResult, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("result observer panicked", logger.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(result)
}

func toResult(target string, outcome *Outcome, err error) *models.TargetResult {
	result := &models.TargetResult{Target: target}
	if outcome != nil {
		result.ReturnCode = outcome.ExitCode
		result.Stdout = outcome.Stdout
		result.Stderr = outcome.Stderr
	}
	if err == nil {
		if outcome == nil {
			result.ReturnCode = models.ReturnCodeInternal
			result.Stderr = "invoker returned no outcome"
		}
		return result
	}

	var c coded
	switch {
	case errors.As(err, &c):
		result.ReturnCode = c.ReturnCode()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result.ReturnCode = models.ReturnCodeCanceled
	default:
		result.ReturnCode = models.ReturnCodeLaunchFailed
	}
	result.Stderr = appendLine(result.Stderr, err.Error())

	return result
}

func appendLine(text, line string) string {
	if text == "" {
		return line
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + line
}
