package targets

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

const DefaultPattern = "//..."

// Source collects every place a target list can come from. ExplicitSet is
// true when --targets was passed at all, even with an empty value.
type Source struct {
	Explicit    []string
	ExplicitSet bool
	File        string
	Default     string
}

type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid target configuration: %s: %v", e.Reason, e.Err)
	}
	return "invalid target configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Resolve picks the target list. Precedence is explicit list, then file, then
// the default pattern. The result is deduplicated keeping first occurrences.
// An empty result with a nil error means a single given source was empty.
func Resolve(src Source) ([]string, error) {
	if explicit := dedupe(src.Explicit); len(explicit) > 0 {
		return explicit, nil
	}

	if src.File != "" {
		lines, err := readFile(src.File)
		if err != nil {
			return nil, &ConfigurationError{Reason: "cannot read targets file " + src.File, Err: err}
		}
		if fromFile := dedupe(lines); len(fromFile) > 0 {
			return fromFile, nil
		}
	}

	switch {
	case src.ExplicitSet && src.File != "":
		return nil, &ConfigurationError{Reason: "--targets and --targets-file together yield no targets"}
	case src.ExplicitSet, src.File != "":
		return []string{}, nil
	}

	if def := strings.TrimSpace(src.Default); def != "" {
		return []string{def}, nil
	}
	return []string{DefaultPattern}, nil
}

// ParseList splits a comma separated --targets value.
func ParseList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func readFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	return lines, scanner.Err()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
