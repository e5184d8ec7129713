// Package buildinfo reports the version of the running kqlified binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// These values are injected via ldflags for release binaries.
// They default to empty for local/dev builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// DefaultModulePath is reported when the binary carries no module info.
const DefaultModulePath = "github.com/realnamesareboring/KQLified"

// Info describes the running build.
type Info struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"goos"`
	GOARCH     string `json:"goarch"`
}

var readBuildInfo = debug.ReadBuildInfo

// Current returns build details from the embedded module info, filling gaps
// from the ldflags values.
func Current() Info {
	info := Info{
		Version:    "devel",
		ModulePath: DefaultModulePath,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		applyLdflags(&info)
		return info
	}

	if bi.Main.Path != "" {
		info.ModulePath = bi.Main.Path
	}
	info.Version = normalizeVersion(bi.Main.Version)
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if val := setting(bi, "GOOS"); val != "" {
		info.GOOS = val
	}
	if val := setting(bi, "GOARCH"); val != "" {
		info.GOARCH = val
	}

	info.Commit = setting(bi, "vcs.revision")
	info.CommitTime = setting(bi, "vcs.time")
	info.Modified = strings.EqualFold(setting(bi, "vcs.modified"), "true")
	applyLdflags(&info)

	return info
}

// Short is the one-line form used in headers and logs.
func (i Info) Short() string {
	s := "kqlified " + i.Version
	if i.Commit != "" {
		commit := i.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += " (" + commit
		if i.Modified {
			s += ", modified"
		}
		s += ")"
	}
	return s
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func setting(bi *debug.BuildInfo, key string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func applyLdflags(info *Info) {
	if info.Version == "devel" && Version != "" {
		info.Version = normalizeVersion(Version)
	}
	if info.Commit == "" && Commit != "" {
		info.Commit = Commit
	}
	if info.CommitTime == "" && Date != "" {
		info.CommitTime = Date
	}
}
