package backends

// GomaBackend falls back to the gomacc compiler wrapper when no goma client
// is installed. Goma has no remote switch of its own.
type GomaBackend struct{}

func (GomaBackend) Name() string         { return "goma" }
func (GomaBackend) DisplayName() string  { return "Goma" }
func (GomaBackend) Binaries() []string   { return []string{"goma", "gomacc"} }
func (GomaBackend) RemoteArgs() []string { return nil }

func (GomaBackend) BuildArgs(command, target string, remote, extra []string) []string {
	return buildArgs(command, target, remote, extra)
}
