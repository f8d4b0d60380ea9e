package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/vcnkl/rexec/git"
)

// Default returns the configuration used when no rexec.yml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Locate returns the config file to load. An explicit path must exist. Without
// one, rexec.yml is looked up at the git repo root (or cwd outside a repo);
// an empty result means no file was found.
func Locate(explicit, cwd string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, "config file %s", explicit)
		}
		return explicit, nil
	}

	root, err := git.RepoRoot(cwd)
	if err != nil {
		root = cwd
	}

	candidate := filepath.Join(root, FileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", nil
	}
	return candidate, nil
}

func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	if cfg.MaxWorkers < 0 {
		return nil, errors.Errorf("%s: max_workers must not be negative", path)
	}
	if cfg.Timeout < 0 {
		return nil, errors.Errorf("%s: timeout must not be negative", path)
	}

	cfg.SetDefaults()
	cfg.dir = filepath.Dir(path)

	return &cfg, nil
}
