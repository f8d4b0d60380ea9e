package exec

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/vcnkl/rexec/config"
)

const RunIDVar = "REXEC_RUN_ID"

// ComposeEnv builds the environment for backend processes. Later layers win:
// process env, config env, dotenv file, backend env, then RunIDVar.
func ComposeEnv(cfg *config.Config, backend, runID string) ([]string, error) {
	layers := [][]string{os.Environ(), pairs(cfg.Env)}

	if cfg.Dotenv != "" {
		vars, err := LoadDotenv(cfg.Path(cfg.Dotenv))
		if err != nil {
			return nil, fmt.Errorf("failed to load dotenv: %w", err)
		}
		layers = append(layers, pairs(vars))
	}

	layers = append(layers, pairs(cfg.Backend(backend).Env))
	if runID != "" {
		layers = append(layers, []string{RunIDVar + "=" + runID})
	}

	return MergeEnv(layers...), nil
}

// LoadDotenv reads KEY=value lines. Blank lines, comments and lines without
// '=' are skipped; an "export " prefix and matching outer quotes are dropped.
func LoadDotenv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		vars[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}

	return vars, scanner.Err()
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if first == last && (first == '"' || first == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

// MergeEnv flattens KEY=value layers, later layers overriding earlier ones.
// The result is sorted by entry.
func MergeEnv(layers ...[]string) []string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for _, entry := range layer {
			if key, value, ok := strings.Cut(entry, "="); ok {
				merged[key] = value
			}
		}
	}

	return pairs(merged)
}

func pairs(vars map[string]string) []string {
	env := make([]string, 0, len(vars))
	for k, v := range vars {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
