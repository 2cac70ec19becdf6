// Package logging provides a simple leveled logging interface for the
// reformat tool.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable and
// may be overridden at startup with SetLevel. All output goes to stderr
// so it never interleaves with the progress display on stdout.
package logging
