package subcmds

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vcnkl/rexec/config"
	"github.com/vcnkl/rexec/exitcodes"
	"github.com/vcnkl/rexec/logger"
)

func newLogger(ctx *cli.Context) logger.Logger {
	level := logger.InfoLevel
	if ctx.Bool("debug") {
		level = logger.DebugLevel
	}
	return logger.New(level)
}

func loadConfig(ctx *cli.Context, log logger.Logger) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path, err := config.Locate(ctx.String("config"), cwd)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug("loading config", logger.String("path", path))
	}

	return config.Load(path)
}

func configExit(err error) error {
	return cli.Exit("error: "+err.Error(), exitcodes.ConfigError)
}
