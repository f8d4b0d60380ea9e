package backends

import (
	"fmt"
	"strings"
)

var ordered = []Backend{
	BazelBackend{},
	Buck2Backend{},
	GomaBackend{},
	ReclientBackend{},
}

// All returns the backends in a stable display order.
func All() []Backend {
	out := make([]Backend, len(ordered))
	copy(out, ordered)
	return out
}

func Names() []string {
	names := make([]string, len(ordered))
	for i, b := range ordered {
		names[i] = b.Name()
	}
	return names
}

func Select(name string) (Backend, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, b := range ordered {
		if b.Name() == key {
			return b, nil
		}
	}
	return nil, fmt.Errorf("unsupported backend %q (expected one of: %s)", name, strings.Join(Names(), ", "))
}
