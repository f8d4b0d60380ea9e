package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vcnkl/rexec/backends"
	"github.com/vcnkl/rexec/config"
	"github.com/vcnkl/rexec/exec"
	"github.com/vcnkl/rexec/exitcodes"
	"github.com/vcnkl/rexec/logger"
	"github.com/vcnkl/rexec/metrics"
	"github.com/vcnkl/rexec/models"
	"github.com/vcnkl/rexec/reporting"
	"github.com/vcnkl/rexec/targets"
	"github.com/vcnkl/rexec/tracing"
)

type RunOptions struct {
	Backend     backends.Backend
	Command     string
	Source      targets.Source
	MaxWorkers  int
	Remote      bool
	ExtraArgs   []string
	Timeout     time.Duration
	StripANSI   bool
	WorkDir     string
	Outputs     reporting.Outputs
	MetricsPath string
	// Summary receives the batch summary table; nil disables it.
	Summary io.Writer
	Colored bool
}

type RunResult struct {
	Request  *models.ExecutionRequest
	Report   *models.Report
	ExitCode int
	// WriteErr joins every report or metrics file that could not be written.
	WriteErr error
}

type RunAction struct {
	config *config.Config
	log    logger.Logger
	opts   RunOptions
}

func NewRunAction(cfg *config.Config, log logger.Logger, opts RunOptions) *RunAction {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RunAction{
		config: cfg,
		log:    log,
		opts:   opts,
	}
}

// Execute resolves, dispatches and reports one batch. A returned error means
// the run was rejected before anything was dispatched; target failures and
// report write failures are carried in RunResult.
func (a *RunAction) Execute(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	resolved, err := targets.Resolve(a.opts.Source)
	if err != nil {
		return nil, err
	}

	req := a.buildRequest(resolved)
	runLog := a.log.With(logger.String("run_id", req.RunID))

	env, err := exec.ComposeEnv(a.config, req.Backend, req.RunID)
	if err != nil {
		return nil, err
	}

	if len(req.Targets) == 0 {
		runLog.Warn("no targets resolved, writing empty reports")
	}

	ctx, span := tracing.StartSpan(ctx, "rexec.run",
		tracing.StringAttr("backend", req.Backend),
		tracing.StringAttr("command", req.Command),
		tracing.StringAttr("run_id", req.RunID),
		tracing.IntAttr("targets", len(req.Targets)))
	defer span.End()

	runLog.Info("dispatching",
		logger.String("backend", req.Backend),
		logger.String("command", req.Command),
		logger.Int("targets", len(req.Targets)),
		logger.Int("max_workers", req.Workers()),
		logger.Bool("remote", req.Remote))

	invoker := backends.NewInvoker(a.opts.Backend, req, a.config.Backend(req.Backend), backends.InvokerOptions{
		Env:       env,
		WorkDir:   a.opts.WorkDir,
		Timeout:   req.Timeout,
		StripANSI: a.opts.StripANSI,
	}, runLog)

	recorder := metrics.NewRecorder(req.Backend, req.Command)
	dispatcher := exec.NewDispatcher(req.Workers(), runLog)
	dispatcher.OnResult(recorder.Observe)

	slots := dispatcher.Dispatch(ctx, req.Targets, invoker.Invoke)
	report := exec.Collect(models.SuiteName(a.opts.Backend.DisplayName(), req.Command), slots)
	report.Duration = time.Since(start)
	recorder.SetRunDuration(report.Duration)

	if a.opts.Summary != nil {
		reporting.WriteSummary(a.opts.Summary, report, a.opts.Colored)
	}

	result := &RunResult{
		Request:  req,
		Report:   report,
		ExitCode: exitcodes.Aggregate(report),
		WriteErr: a.writeOutputs(runLog, report, recorder),
	}
	if result.WriteErr != nil {
		result.ExitCode = exitcodes.TargetFailure
	}

	if result.ExitCode == exitcodes.Success {
		tracing.SetOK(span)
	} else {
		tracing.RecordError(span, fmt.Errorf("%d of %d targets failed", len(report.Failed()), report.Total()))
	}

	runLog.Info("run completed",
		logger.Int("total", report.Total()),
		logger.Int("failed", len(report.Failed())),
		logger.Duration("duration", report.Duration))

	return result, nil
}

// OutputPaths lists the report and metrics files each run rewrites.
func (a *RunAction) OutputPaths() []string {
	var paths []string
	for _, p := range []string{a.opts.Outputs.JUnit, a.opts.Outputs.JSON, a.opts.MetricsPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

func (a *RunAction) buildRequest(resolved []string) *models.ExecutionRequest {
	workers := a.opts.MaxWorkers
	if workers <= 0 {
		workers = a.config.MaxWorkers
	}
	timeout := a.opts.Timeout
	if timeout <= 0 {
		timeout = a.config.Timeout
	}

	return &models.ExecutionRequest{
		RunID:      uuid.NewString(),
		Backend:    a.opts.Backend.Name(),
		Command:    a.opts.Command,
		Targets:    resolved,
		MaxWorkers: workers,
		Remote:     a.opts.Remote,
		ExtraArgs:  a.opts.ExtraArgs,
		Timeout:    timeout,
	}
}

func (a *RunAction) writeOutputs(log logger.Logger, report *models.Report, recorder *metrics.Recorder) error {
	errs := []error{reporting.Emit(report, a.opts.Outputs)}
	if a.opts.MetricsPath != "" {
		if err := recorder.WriteTextfile(a.opts.MetricsPath); err != nil {
			errs = append(errs, &reporting.WriteError{Format: "metrics", Path: a.opts.MetricsPath, Err: err})
		}
	}
	err := errors.Join(errs...)

	written := []struct {
		label string
		path  string
	}{
		{label: "wrote JUnit XML", path: a.opts.Outputs.JUnit},
		{label: "wrote JSON summary", path: a.opts.Outputs.JSON},
		{label: "wrote metrics", path: a.opts.MetricsPath},
	}
	for _, w := range written {
		if w.path != "" && !failedPath(err, w.path) {
			log.Info(w.label, logger.String("path", w.path))
		}
	}

	return err
}

func failedPath(err error, path string) bool {
	if err == nil {
		return false
	}
	var writeErr *reporting.WriteError
	if errors.As(err, &writeErr) && writeErr.Path == path {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if failedPath(e, path) {
				return true
			}
		}
	}
	return false
}
