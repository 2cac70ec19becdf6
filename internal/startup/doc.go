// Package startup carries build metadata and the banner/system-info
// logging used when a long-running mode boots. Version, Commit and
// BuildTime are injected at link time via -ldflags.
package startup
