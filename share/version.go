package share

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// Version information for isoshare.
const (
	// Version is the current library version.
	Version = "0.3.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 3

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// ErrIncompatible is matched by errors from CheckCompatible when the library
// does not satisfy the requested version.
var ErrIncompatible = errors.New("incompatible isoshare version")

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// Containers lists the container kinds provided.
	Containers []string

	// GoVersion is the Go runtime the binary was built with.
	GoVersion string

	// MaxProcs is the current GOMAXPROCS, which sizes the default map
	// sharding.
	MaxProcs int
}

// GetInfo returns information about the library.
//
// Example:
//
//	info := share.GetInfo()
//	fmt.Printf("isoshare %s (%s)\n", info.Version, info.GoVersion)
func GetInfo() Info {
	return Info{
		Version:    Version,
		Containers: []string{"atomic_integer", "hash_map", "queue"},
		GoVersion:  runtime.Version(),
		MaxProcs:   runtime.GOMAXPROCS(0),
	}
}

// CheckCompatible reports whether this library satisfies required, a
// semantic version with or without the leading "v".
//
// The library is compatible when it has the same major version and is not
// older than required. Prerelease and build suffixes follow semver ordering.
func CheckCompatible(required string) error {
	req := canonical(required)
	if !semver.IsValid(req) {
		return fmt.Errorf("invalid version %q", required)
	}
	have := canonical(Version)
	if semver.Major(req) != semver.Major(have) {
		return fmt.Errorf("%w: have %s, need major %s", ErrIncompatible, have, semver.Major(req))
	}
	if semver.Compare(have, req) < 0 {
		return fmt.Errorf("%w: have %s, need at least %s", ErrIncompatible, have, semver.Canonical(req))
	}
	return nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
