// Package tui renders interactive run progress and the end-of-run summary
// table. The progress model is a bubbletea program fed by the scheduler's
// progress channel; the summary helpers are plain string renderers the
// command layer prints after the program exits.
package tui
