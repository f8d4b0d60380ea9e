package config

import (
	"path/filepath"
	"time"
)

const FileName = "rexec.yml"

type Config struct {
	MaxWorkers int                       `koanf:"max_workers"`
	Timeout    time.Duration             `koanf:"timeout"`
	StripANSI  bool                      `koanf:"strip_ansi"`
	Env        map[string]string         `koanf:"env"`
	Dotenv     string                    `koanf:"dotenv"`
	Reports    ReportsConfig             `koanf:"reports"`
	Watch      WatchConfig               `koanf:"watch"`
	Backends   map[string]*BackendConfig `koanf:"backends"`

	dir string
}

type ReportsConfig struct {
	JUnit   string `koanf:"junit"`
	JSON    string `koanf:"json"`
	Metrics string `koanf:"metrics"`
}

type WatchConfig struct {
	Paths  []string `koanf:"paths"`
	Ignore []string `koanf:"ignore"`
}

type BackendConfig struct {
	Binary     string            `koanf:"binary"`
	RemoteArgs []string          `koanf:"remote_args"`
	Extra      []string          `koanf:"extra"`
	Env        map[string]string `koanf:"env"`
	CheckCmd   string            `koanf:"check_cmd"`
}

func (c *Config) SetDefaults() {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	if c.Backends == nil {
		c.Backends = make(map[string]*BackendConfig)
	}
	for _, b := range c.Backends {
		if b != nil {
			b.SetDefaults()
		}
	}
	c.Watch.SetDefaults()
}

func (w *WatchConfig) SetDefaults() {
	if w.Paths == nil {
		w.Paths = []string{}
	}
	if w.Ignore == nil {
		w.Ignore = []string{"bazel-*", "buck-out", ".git"}
	}
}

func (b *BackendConfig) SetDefaults() {
	if b.Env == nil {
		b.Env = make(map[string]string)
	}
}

// Backend returns the settings for name, or an empty defaulted entry.
func (c *Config) Backend(name string) *BackendConfig {
	if b, ok := c.Backends[name]; ok && b != nil {
		return b
	}
	b := &BackendConfig{}
	b.SetDefaults()
	return b
}

// Dir is the directory relative paths in the file are resolved against.
func (c *Config) Dir() string {
	return c.dir
}

// Path resolves p against the config directory unless it is absolute or empty.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}
