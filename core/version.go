package core

import "fmt"

// VersionInfo carries build metadata injected through ldflags in main.
type VersionInfo struct {
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Build    string `json:"build"`
}

var Version = VersionInfo{Version: "dev"}

func SetVersion(version, revision, build string) {
	Version = VersionInfo{
		Version:  version,
		Revision: revision,
		Build:    build,
	}
}

func (v VersionInfo) String() string {
	if v.Revision == "" {
		return v.Version
	}
	return fmt.Sprintf("%s (%s)", v.Version, v.Revision)
}
