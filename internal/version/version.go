package version

import (
	"runtime"
	"runtime/debug"
)

const (
	ProjectName        = "AppServer"
	ProjectLongName    = "Go Application Server"
	ProjectDescription = "Identity and notification core for backend services"
	License            = "MIT"
)

var (
	// Version is set during build
	Version = "0.1.0"
	// Commit is set during build
	Commit string
	// BuildTime is set during build
	BuildTime string
)

// Info is the system information reported by the API
type Info struct {
	Project struct {
		Name        string `json:"name"`
		LongName    string `json:"long_name"`
		Description string `json:"description"`
		License     string `json:"license"`
	} `json:"project"`
	Version struct {
		Full   string `json:"full"`
		Commit string `json:"commit,omitempty"`
	} `json:"version"`
	Build struct {
		GoVersion string `json:"go_version"`
		Platform  string `json:"platform"`
		Time      string `json:"time,omitempty"`
	} `json:"build"`
}

// GetInfo returns the build and project information
func GetInfo() Info {
	var info Info
	info.Project.Name = ProjectName
	info.Project.LongName = ProjectLongName
	info.Project.Description = ProjectDescription
	info.Project.License = License

	info.Version.Full = Version
	info.Version.Commit = Commit
	if info.Version.Commit == "" {
		info.Version.Commit = vcsRevision()
	}

	info.Build.GoVersion = runtime.Version()
	info.Build.Platform = runtime.GOOS + "/" + runtime.GOARCH
	info.Build.Time = BuildTime
	return info
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range bi.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}
