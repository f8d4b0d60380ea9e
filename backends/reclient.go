package backends

// ReclientBackend falls back to reproxy when no reclient binary is installed.
type ReclientBackend struct{}

func (ReclientBackend) Name() string         { return "reclient" }
func (ReclientBackend) DisplayName() string  { return "Reclient" }
func (ReclientBackend) Binaries() []string   { return []string{"reclient", "reproxy"} }
func (ReclientBackend) RemoteArgs() []string { return nil }

func (ReclientBackend) BuildArgs(command, target string, remote, extra []string) []string {
	return buildArgs(command, target, remote, extra)
}
