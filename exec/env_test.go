package exec

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/rexec/config"
)

func TestLoadDotenv(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected map[string]string
	}{
		{
			name:     "comments and blank lines skipped",
			content:  "# registry creds\nREGISTRY=gcr.io\n\n# cache\nCACHE_DIR=/tmp/cache",
			expected: map[string]string{"REGISTRY": "gcr.io", "CACHE_DIR": "/tmp/cache"},
		},
		{
			name:     "quotes stripped",
			content:  "A=\"bar baz\"\nB='bar baz'\nC=\"mismatched'",
			expected: map[string]string{"A": "bar baz", "B": "bar baz", "C": "\"mismatched'"},
		},
		{
			name:     "value keeps later equals signs",
			content:  "BES_URL=grpcs://bes.example.com:443?auth=token",
			expected: map[string]string{"BES_URL": "grpcs://bes.example.com:443?auth=token"},
		},
		{
			name:     "whitespace trimmed",
			content:  "  FOO  =  bar  \n  BAZ=qux",
			expected: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:     "export prefix",
			content:  "export RBE_INSTANCE=default\nexport TOKEN='x'",
			expected: map[string]string{"RBE_INSTANCE": "default", "TOKEN": "x"},
		},
		{
			name:     "line without equals ignored",
			content:  "FOO=bar\nINVALID_LINE\nBAZ=qux",
			expected: map[string]string{"FOO": "bar", "BAZ": "qux"},
		},
		{
			name:     "empty value",
			content:  "EMPTY=",
			expected: map[string]string{"EMPTY": ""},
		},
		{
			name:     "empty file",
			content:  "",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envPath := filepath.Join(t.TempDir(), ".env")
			require.NoError(t, os.WriteFile(envPath, []byte(tt.content), 0644))

			result, err := LoadDotenv(envPath)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLoadDotenv_FileNotFound(t *testing.T) {
	_, err := LoadDotenv("/nonexistent/path/.env")
	require.Error(t, err)
}

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name     string
		layers   [][]string
		expected []string
	}{
		{
			name:     "later layer wins",
			layers:   [][]string{{"FOO=bar", "BAZ=qux"}, {"FOO=overridden"}, {"NEW=value"}},
			expected: []string{"BAZ=qux", "FOO=overridden", "NEW=value"},
		},
		{
			name:     "values with equals",
			layers:   [][]string{{"URL=http://host?a=1"}, {"URL=http://host?a=2&b=3"}},
			expected: []string{"URL=http://host?a=2&b=3"},
		},
		{
			name:     "malformed entries dropped",
			layers:   [][]string{{"NOEQUALS", "A=1"}},
			expected: []string{"A=1"},
		},
		{
			name:     "no layers",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MergeEnv(tt.layers...))
		})
	}
}

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, e := range env {
		if k, v, ok := strings.Cut(e, "="); ok {
			m[k] = v
		}
	}
	return m
}

func TestComposeEnv(t *testing.T) {
	tests := []struct {
		name          string
		cfg           *config.Config
		backend       string
		runID         string
		dotenvContent string
		expectedEnvs  map[string]string
		expectError   bool
	}{
		{
			name: "config and backend env",
			cfg: &config.Config{
				Env: map[string]string{"CI": "true", "SHARED": "config"},
				Backends: map[string]*config.BackendConfig{
					"bazel": {Env: map[string]string{"SHARED": "backend", "BAZEL_OPTS": "fast"}},
				},
			},
			backend: "bazel",
			runID:   "run-1",
			expectedEnvs: map[string]string{
				"CI":           "true",
				"SHARED":       "backend",
				"BAZEL_OPTS":   "fast",
				"REXEC_RUN_ID": "run-1",
			},
		},
		{
			name: "other backend env not applied",
			cfg: &config.Config{
				Backends: map[string]*config.BackendConfig{
					"bazel": {Env: map[string]string{"BAZEL_OPTS": "fast"}},
				},
			},
			backend:      "buck2",
			expectedEnvs: map[string]string{"BAZEL_OPTS": ""},
		},
		{
			name: "dotenv overrides config env",
			cfg: &config.Config{
				Env:    map[string]string{"TOKEN": "config"},
				Dotenv: ".env",
			},
			backend:       "bazel",
			dotenvContent: "TOKEN=dotenv\nEXTRA='quoted'",
			expectedEnvs: map[string]string{
				"TOKEN": "dotenv",
				"EXTRA": "quoted",
			},
		},
		{
			name: "missing dotenv file",
			cfg: &config.Config{
				Dotenv: "missing.env",
			},
			backend:     "bazel",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.dotenvContent != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.dotenvContent), 0644))
			}

			path := filepath.Join(dir, config.FileName)
			require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
			loaded, err := config.Load(path)
			require.NoError(t, err)
			loaded.Env = tt.cfg.Env
			loaded.Dotenv = tt.cfg.Dotenv
			loaded.Backends = tt.cfg.Backends
			loaded.SetDefaults()

			result, err := ComposeEnv(loaded, tt.backend, tt.runID)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			resultMap := envMap(result)

			for key, expectedVal := range tt.expectedEnvs {
				assert.Equal(t, expectedVal, resultMap[key], "env var %s mismatch", key)
			}
			assert.Contains(t, resultMap, "PATH")
		})
	}
}
