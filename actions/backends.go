package actions

import (
	"context"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/bitfield/script"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vcnkl/rexec/backends"
	"github.com/vcnkl/rexec/config"
	"github.com/vcnkl/rexec/exec"
	"github.com/vcnkl/rexec/logger"
)

const checkTimeout = 30 * time.Second

type BackendStatus struct {
	Name       string
	Binary     string
	Available  bool
	CheckCmd   string
	CheckOK    bool
	CheckOut   string
	CheckError error
}

type BackendsAction struct {
	config *config.Config
	log    logger.Logger
}

func NewBackendsAction(cfg *config.Config, log logger.Logger) *BackendsAction {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BackendsAction{
		config: cfg,
		log:    log,
	}
}

// Execute resolves every backend's binary and runs its check_cmd when one is
// configured and the tool was found.
func (a *BackendsAction) Execute(ctx context.Context) []BackendStatus {
	var statuses []BackendStatus

	for _, b := range backends.All() {
		bcfg := a.config.Backend(b.Name())
		status := BackendStatus{
			Name:     b.Name(),
			CheckCmd: bcfg.CheckCmd,
		}

		candidates := b.Binaries()
		if bcfg.Binary != "" {
			candidates = []string{bcfg.Binary}
		}
		if binary, err := backends.ResolveBinary(b.Name(), candidates); err == nil {
			status.Binary = binary
			status.Available = true
		} else {
			a.log.Debug("backend unavailable", logger.String("backend", b.Name()), logger.Err(err))
		}

		if status.Available && bcfg.CheckCmd != "" {
			a.check(ctx, b.Name(), &status)
		}

		statuses = append(statuses, status)
	}

	return statuses
}

func (a *BackendsAction) check(ctx context.Context, name string, status *BackendStatus) {
	env, err := exec.ComposeEnv(a.config, name, "")
	if err != nil {
		status.CheckError = err
		return
	}

	res, err := exec.RunShell(ctx, status.CheckCmd, &exec.ShellOptions{
		Env:     env,
		WorkDir: a.config.Dir(),
		Timeout: checkTimeout,
		Stderr:  a.log.WithPrefix(name).StreamWriter("stderr"),
	})
	if err != nil {
		status.CheckError = err
		return
	}

	status.CheckOut = res.Output
	status.CheckOK = res.ExitStatus == 0
}

func RenderBackends(w io.Writer, statuses []BackendStatus) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Backend", "Binary", "Check"})

	for _, s := range statuses {
		binary := s.Binary
		if !s.Available {
			binary = "missing"
		}

		check := "-"
		switch {
		case s.CheckError != nil:
			check = "error: " + s.CheckError.Error()
		case s.CheckCmd != "" && s.Available && s.CheckOK:
			check = "ok " + firstLine(s.CheckOut)
		case s.CheckCmd != "" && s.Available:
			check = "failed " + firstLine(s.CheckOut)
		}

		t.AppendRow(table.Row{s.Name, binary, check})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}

var nonBlank = regexp.MustCompile(`\S`)

// firstLine returns the first non-blank line of a check's output.
func firstLine(s string) string {
	line, err := script.Echo(s).MatchRegexp(nonBlank).First(1).String()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
