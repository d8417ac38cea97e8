// Package version holds build information for hark and checks version
// constraints declared by command files.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "0.3.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// Info represents build information.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
	SemVer    *semver.Version
}

// GetInfo returns the build information, failing if Version is not semantic.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// GetFormattedVersion returns a one-line version string.
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("hark v%s (invalid version)", Version)
	}

	parts := []string{"hark v" + info.Version}
	if info.GitCommit != "unknown" && info.GitCommit != "" {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, "commit "+shortCommit)
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, "built "+info.BuildDate)
	}
	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns multi-line build information.
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("hark v%s (error: %v)", Version, err)
	}

	lines := []string{
		"hark v" + info.Version,
		"Git Commit: " + info.GitCommit,
		"Build Date: " + info.BuildDate,
	}
	if meta := info.SemVer.Metadata(); meta != "" {
		lines = append(lines, "Build Metadata: "+meta)
	}
	if pre := info.SemVer.Prerelease(); pre != "" {
		lines = append(lines, "Prerelease: "+pre)
	}
	lines = append(lines,
		"Go Version: "+info.GoVersion,
		"Platform: "+info.Platform,
	)
	return strings.Join(lines, "\n")
}

// Check reports whether the running version satisfies constraint, such as
// ">= 0.2, < 1". An empty constraint always passes.
func Check(constraint string) error {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint '%s': %w", constraint, err)
	}
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	if !c.Check(sv) {
		return fmt.Errorf("hark v%s does not satisfy '%s'", Version, constraint)
	}
	return nil
}

// IsDevelopment returns true if this appears to be a development build
func IsDevelopment() bool {
	return GitCommit == "unknown" || BuildDate == "unknown"
}

// SetBuildInfo sets build information (used for testing)
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}
