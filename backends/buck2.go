package backends

type Buck2Backend struct{}

func (Buck2Backend) Name() string         { return "buck2" }
func (Buck2Backend) DisplayName() string  { return "Buck2" }
func (Buck2Backend) Binaries() []string   { return []string{"buck2"} }
func (Buck2Backend) RemoteArgs() []string { return []string{"--remote-execution"} }

func (Buck2Backend) BuildArgs(command, target string, remote, extra []string) []string {
	return buildArgs(command, target, remote, extra)
}
