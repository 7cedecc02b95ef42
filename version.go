package schemautils

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported OpenRPC specification versions for this SDK.
const (
	MinSupportedVersion = "1.0.0"
	MaxTestedVersion    = "1.2.6"
)

// SupportedRange returns the minimum and maximum OpenRPC versions this
// SDK supports.
func SupportedRange() (min, max string) {
	return MinSupportedVersion, MaxTestedVersion
}

var (
	minSupported = mustVersion(MinSupportedVersion)
	maxTested    = mustVersion(MaxTestedVersion)
)

// IsSupportedVersion reports whether an openrpc version string is within
// the supported range. Pre-release suffixes ("1.2.6-rc.1") compare on
// the numeric core only.
func IsSupportedVersion(v string) (bool, error) {
	parsed, err := parseVersion(v)
	if err != nil {
		return false, err
	}
	return compareVersions(parsed, minSupported) >= 0 && compareVersions(parsed, maxTested) <= 0, nil
}

type version [3]int

func parseVersion(v string) (version, error) {
	core, _, _ := strings.Cut(strings.TrimSpace(v), "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return version{}, fmt.Errorf("invalid openrpc version %q", v)
	}
	var out version
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return version{}, fmt.Errorf("invalid openrpc version %q", v)
		}
		out[i] = n
	}
	return out, nil
}

func compareVersions(a, b version) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func mustVersion(v string) version {
	parsed, err := parseVersion(v)
	if err != nil {
		panic(fmt.Sprintf("schemautils: invalid supported version %q: %v", v, err))
	}
	return parsed
}
