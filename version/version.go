// Package version holds the build version, overridden at link time with
// -ldflags "-X github.com/JiscSD/cessda-fair-checker/version.VERSION=...".
package version

var VERSION = "dev"
