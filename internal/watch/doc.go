// Package watch implements hot-folder mode: directories are monitored with
// fsnotify and files are handed off for conversion once their size stops
// changing. New subdirectories are picked up as they appear; the output
// directory is excluded so conversions never feed back into the watcher.
package watch
