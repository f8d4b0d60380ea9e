package subcmds

import (
	"context"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"mvdan.cc/sh/v3/shell"

	"github.com/vcnkl/rexec/actions"
	"github.com/vcnkl/rexec/backends"
	"github.com/vcnkl/rexec/config"
	"github.com/vcnkl/rexec/exitcodes"
	"github.com/vcnkl/rexec/reporting"
	"github.com/vcnkl/rexec/targets"
	"github.com/vcnkl/rexec/tracing"
)

// BackendCmd builds the subcommand for one build tool. All four tools share
// the same flags and differ only in the Backend they select.
func BackendCmd(b backends.Backend) *cli.Command {
	return &cli.Command{
		Name:      b.Name(),
		Usage:     "Run " + b.DisplayName() + " on one or more targets in parallel",
		ArgsUsage: "<command> [target]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Use remote execution (if configured)",
			},
			&cli.IntFlag{
				Name:  "max-workers",
				Usage: "Max parallel invocations (default: config or 4)",
			},
			&cli.StringFlag{
				Name:  "targets",
				Usage: "Comma separated targets, overrides [target]",
			},
			&cli.StringFlag{
				Name:  "targets-file",
				Usage: "File with one target per line (# comments allowed)",
			},
			&cli.StringFlag{
				Name:  "junit-output",
				Usage: "Write a JUnit XML report to this file",
			},
			&cli.StringFlag{
				Name:  "json-output",
				Usage: "Write a JSON report to this file",
			},
			&cli.StringFlag{
				Name:  "metrics-output",
				Usage: "Write Prometheus metrics in textfile format to this file",
			},
			&cli.StringFlag{
				Name:  "extra",
				Usage: "Extra arguments passed to every invocation (shell quoting)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-target timeout, 0 disables (default: config)",
			},
			&cli.BoolFlag{
				Name:  "strip-ansi",
				Usage: "Remove ANSI escape codes from captured output",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-run whenever the targets file or a watch path changes",
			},
			&cli.StringSliceFlag{
				Name:  "watch-path",
				Usage: "Additional path to watch (repeatable)",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			command := strings.TrimSpace(ctx.Args().First())
			if command == "" {
				return cli.Exit("error: missing "+b.Name()+" command (e.g. build, test)", exitcodes.ConfigError)
			}
			if ctx.Args().Len() > 2 {
				return cli.Exit("error: unexpected arguments: "+strings.Join(ctx.Args().Slice()[2:], " "), exitcodes.ConfigError)
			}

			cfg, err := loadConfig(ctx, log)
			if err != nil {
				return configExit(err)
			}

			extra, err := shell.Fields(ctx.String("extra"), nil)
			if err != nil {
				return configExit(err)
			}

			shutdown, err := tracing.Setup(ctx.Bool("trace"), os.Stderr)
			if err != nil {
				return configExit(err)
			}
			defer shutdown(context.Background())

			opts := actions.RunOptions{
				Backend: b,
				Command: command,
				Source: targets.Source{
					Explicit:    targets.ParseList(ctx.String("targets")),
					ExplicitSet: ctx.IsSet("targets"),
					File:        ctx.String("targets-file"),
					Default:     ctx.Args().Get(1),
				},
				MaxWorkers: ctx.Int("max-workers"),
				Remote:     ctx.Bool("remote"),
				ExtraArgs:  extra,
				Timeout:    ctx.Duration("timeout"),
				StripANSI:  ctx.Bool("strip-ansi") || cfg.StripANSI,
				Outputs: reporting.Outputs{
					JUnit: flagOrConfig(ctx, "junit-output", cfg, cfg.Reports.JUnit),
					JSON:  flagOrConfig(ctx, "json-output", cfg, cfg.Reports.JSON),
				},
				MetricsPath: flagOrConfig(ctx, "metrics-output", cfg, cfg.Reports.Metrics),
				Summary:     os.Stdout,
				Colored:     isatty.IsTerminal(os.Stdout.Fd()),
			}
			if ctx.IsSet("max-workers") && opts.MaxWorkers <= 0 {
				return cli.Exit("error: --max-workers must be positive", exitcodes.ConfigError)
			}

			run := actions.NewRunAction(cfg, log, opts)

			if ctx.Bool("watch") {
				paths := watchPaths(ctx, cfg)
				code, err := actions.NewWatchAction(run, paths, cfg.Watch.Ignore, log).Execute(ctx.Context)
				if err != nil {
					return configExit(err)
				}
				if code != exitcodes.Success {
					return cli.Exit("last run failed", code)
				}
				return nil
			}

			result, err := run.Execute(ctx.Context)
			if err != nil {
				return configExit(err)
			}

			if result.WriteErr != nil {
				return cli.Exit("error: "+result.WriteErr.Error(), exitcodes.TargetFailure)
			}
			if result.ExitCode != exitcodes.Success {
				return cli.Exit(b.DisplayName()+" "+command+" failed", result.ExitCode)
			}

			return nil
		},
	}
}

func flagOrConfig(ctx *cli.Context, name string, cfg *config.Config, configured string) string {
	if ctx.IsSet(name) {
		return ctx.String(name)
	}
	return cfg.Path(configured)
}

// watchPaths returns the targets file, every --watch-path and the configured
// watch paths, falling back to the current directory.
func watchPaths(ctx *cli.Context, cfg *config.Config) []string {
	var paths []string
	if file := ctx.String("targets-file"); file != "" {
		paths = append(paths, file)
	}
	paths = append(paths, ctx.StringSlice("watch-path")...)
	for _, p := range cfg.Watch.Paths {
		paths = append(paths, cfg.Path(p))
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return paths
}
