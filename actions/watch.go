package actions

import (
	"context"
	"time"

	"github.com/vcnkl/rexec/logger"
	"github.com/vcnkl/rexec/watcher"
)

type WatchAction struct {
	run      *RunAction
	paths    []string
	ignore   []string
	debounce time.Duration
	log      logger.Logger
}

func NewWatchAction(run *RunAction, paths, ignore []string, log logger.Logger) *WatchAction {
	if log == nil {
		log = logger.Nop()
	}
	return &WatchAction{
		run:      run,
		paths:    paths,
		ignore:   ignore,
		debounce: watcher.DefaultDebounce,
		log:      log,
	}
}

// Execute runs once, then again after every debounced change until ctx is
// done. Each run re-resolves targets and rewrites the reports. The returned
// exit code is that of the last completed run.
func (a *WatchAction) Execute(ctx context.Context) (int, error) {
	result, err := a.run.Execute(ctx)
	if err != nil {
		return 0, err
	}
	exitCode := result.ExitCode

	w, err := watcher.NewWatcher(a.paths, a.ignore, a.log)
	if err != nil {
		return exitCode, err
	}
	defer w.Stop()
	w.SetDebounce(a.debounce)
	w.Exclude(a.run.OutputPaths()...)

	changed := make(chan []string, 1)
	w.OnChange(func(paths []string) {
		select {
		case changed <- paths:
		default:
		}
	})

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Start(ctx)
	}()

	a.log.Info("watching for changes", logger.Strings("paths", a.paths))

	for {
		select {
		case <-ctx.Done():
			return exitCode, nil
		case err = <-watchErr:
			if err != nil {
				return exitCode, err
			}
			return exitCode, nil
		case paths := <-changed:
			a.log.Info("change detected, re-running", logger.Strings("paths", paths))
			result, err = a.run.Execute(ctx)
			if err != nil {
				// a rejected run keeps the session alive
				a.log.Error("run rejected", logger.Err(err))
				continue
			}
			exitCode = result.ExitCode
		}
	}
}
