// Package settings holds build metadata and the resolved settings of one
// rtable run.
package settings

// CliBinaryName is the canonical binary name.
const CliBinaryName = "rtable"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// Run holds the settings of a single invocation after flags and config
// have been merged.
type Run struct {
	MinLogLevel int8
	NoColor     bool
	Width       int
	Output      string
	Interactive bool
	KeyMode     string
	ConfigPath  string
}

// NewCliParams returns the built-in defaults for a CLI run.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Output:      "table",
		KeyMode:     "vim",
	}
}
