package version

var (
	// GitCommit is the current HEAD set using ldflags.
	GitCommit string

	// Version is the built softwares version.
	Version = SNCoreSemVer
)

func init() {
	if GitCommit != "" {
		Version += "-" + GitCommit
	}
}

const (
	// SNCoreSemVer is the current version of starknode.
	// It's the Semantic Version of the software.
	SNCoreSemVer = "0.1.0"

	// StarknetSemVer is the newest Starknet version whose feeder gateway
	// payloads are understood.
	StarknetSemVer = "0.12.0"
)

// Info describes the running software.
type Info struct {
	Starknode string `json:"starknode"`
	Commit    string `json:"commit,omitempty"`
	Starknet  string `json:"starknet"`
}

// Current returns the Info of this build.
func Current() Info {
	return Info{
		Starknode: Version,
		Commit:    GitCommit,
		Starknet:  StarknetSemVer,
	}
}
