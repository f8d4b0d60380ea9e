package backends

import (
	"context"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/vcnkl/rexec/config"
	"github.com/vcnkl/rexec/exec"
	"github.com/vcnkl/rexec/logger"
	"github.com/vcnkl/rexec/models"
)

type InvokerOptions struct {
	Env       []string
	WorkDir   string
	Timeout   time.Duration
	StripANSI bool
}

// Invoker runs single targets through one backend for one request.
type Invoker struct {
	backend  Backend
	command  string
	binaries []string
	remote   []string
	extra    []string
	opts     InvokerOptions
	log      logger.Logger
}

func NewInvoker(backend Backend, req *models.ExecutionRequest, cfg *config.BackendConfig, opts InvokerOptions, log logger.Logger) *Invoker {
	if cfg == nil {
		cfg = &config.BackendConfig{}
	}
	if log == nil {
		log = logger.Nop()
	}

	binaries := backend.Binaries()
	if cfg.Binary != "" {
		binaries = []string{cfg.Binary}
	}

	var remote []string
	if req.Remote {
		remote = backend.RemoteArgs()
		if len(cfg.RemoteArgs) > 0 {
			remote = cfg.RemoteArgs
		}
	}

	extra := make([]string, 0, len(cfg.Extra)+len(req.ExtraArgs))
	extra = append(extra, cfg.Extra...)
	extra = append(extra, req.ExtraArgs...)

	return &Invoker{
		backend:  backend,
		command:  req.Command,
		binaries: binaries,
		remote:   remote,
		extra:    extra,
		opts:     opts,
		log:      log,
	}
}

// Args returns the argument list passed to the tool for target.
func (i *Invoker) Args(target string) []string {
	return i.backend.BuildArgs(i.command, target, i.remote, i.extra)
}

// Resolve finds the tool binary. It runs on every invocation so a tool
// installed mid-run is picked up by later targets.
func (i *Invoker) Resolve() (string, error) {
	return ResolveBinary(i.backend.Name(), i.binaries)
}

func (i *Invoker) Invoke(ctx context.Context, target string) (*exec.Outcome, error) {
	binary, err := i.Resolve()
	if err != nil {
		return nil, err
	}

	args := i.Args(target)
	targetLog := i.log.WithPrefix(target)
	targetLog.Debug("invoking", logger.String("binary", binary), logger.Strings("args", args))

	return exec.RunProcess(ctx, binary, args, &exec.ProcessOptions{
		Env:       i.opts.Env,
		WorkDir:   i.opts.WorkDir,
		Timeout:   i.opts.Timeout,
		StripANSI: i.opts.StripANSI,
		Stdout:    targetLog.StreamWriter("stdout"),
		Stderr:    targetLog.StreamWriter("stderr"),
	})
}

// ResolveBinary returns the first candidate found. Candidates containing a
// path separator are used as-is when they exist, so a present but
// non-executable file surfaces as a launch failure instead of a missing tool.
func ResolveBinary(tool string, candidates []string) (string, error) {
	for _, name := range candidates {
		if strings.ContainsRune(name, os.PathSeparator) {
			if _, err := os.Stat(name); err == nil {
				return name, nil
			}
			continue
		}
		if path, err := osexec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", &ToolUnavailableError{Tool: tool, Looked: candidates}
}
