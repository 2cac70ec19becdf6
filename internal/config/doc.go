// Package config layers the three configuration sources: reformat.yaml,
// REFORMAT_* environment variables, and whatever the CLI sets on top.
// A missing file is not an error; defaults always produce a usable run.
package config
