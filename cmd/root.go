package cmd

import (
	"fmt"

	"github.com/vcnkl/rexec/backends"
	"github.com/vcnkl/rexec/cmd/subcmds"
	"github.com/vcnkl/rexec/exitcodes"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	commands := make([]*cli.Command, 0, len(backends.All())+1)
	for _, b := range backends.All() {
		commands = append(commands, subcmds.BackendCmd(b))
	}
	commands = append(commands, subcmds.BackendsCmd())

	return &cli.App{
		Name:    "rexec",
		Usage:   "Run build tool targets in parallel and report the results",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging (streams tool output)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to rexec.yml (default: auto-detect via git root)",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Export OpenTelemetry spans to stderr",
			},
		},
		Commands: commands,
		Action:   unknownCommand,
	}
}

// unknownCommand runs when the first argument names no subcommand. Without
// arguments it prints help.
func unknownCommand(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.ShowAppHelp(ctx)
	}

	name := ctx.Args().First()
	if _, err := backends.Select(name); err != nil {
		return cli.Exit("error: "+err.Error(), exitcodes.ConfigError)
	}
	return cli.Exit(fmt.Sprintf("error: unknown command %q (backend names are lowercase)", name), exitcodes.ConfigError)
}
