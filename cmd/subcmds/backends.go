package subcmds

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vcnkl/rexec/actions"
)

func BackendsCmd() *cli.Command {
	return &cli.Command{
		Name:  "backends",
		Usage: "List backends, their resolved binaries and check_cmd results",
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			cfg, err := loadConfig(ctx, log)
			if err != nil {
				return configExit(err)
			}

			statuses := actions.NewBackendsAction(cfg, log).Execute(ctx.Context)
			actions.RenderBackends(os.Stdout, statuses)

			return nil
		},
	}
}
