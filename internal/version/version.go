package version

import "github.com/prometheus/common/version"

// Set at build time through prometheus/common/version ldflags.
var (
	Branch   = version.Branch
	Revision = version.Revision
)

func Info() string {
	return version.Info()
}

func BuildContext() string {
	return version.BuildContext()
}
