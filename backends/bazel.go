package backends

type BazelBackend struct{}

func (BazelBackend) Name() string         { return "bazel" }
func (BazelBackend) DisplayName() string  { return "Bazel" }
func (BazelBackend) Binaries() []string   { return []string{"bazel"} }
func (BazelBackend) RemoteArgs() []string { return []string{"--config=remote"} }

func (BazelBackend) BuildArgs(command, target string, remote, extra []string) []string {
	return buildArgs(command, target, remote, extra)
}
