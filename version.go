package qview

import (
	_ "embed"
	"regexp"
	"strings"
)

// Name is the product name shown in the welcome banner.
const Name = "qview"

// Author is credited on the welcome screen.
const Author = "kobzarvs"

var semverRE = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

//go:embed VERSION
var embeddedVersion string

// Version returns the release version without the leading `v`.
func Version() string {
	return strings.TrimSpace(embeddedVersion)
}

// VersionTag returns Version with a leading `v`.
func VersionTag() string {
	return "v" + Version()
}

// isSemver reports whether v matches SemVer 2.0.0.
func isSemver(v string) bool {
	return semverRE.MatchString(strings.TrimSpace(v))
}
