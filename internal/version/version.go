// Package version exposes the build version injected at link time.
package version

// Version is overridden at build time via -ldflags.
var Version = "dev"
