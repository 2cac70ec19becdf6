package item

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/logging"
)

// Scan imports the given files and directories. Directories are walked
// recursively with hidden entries skipped; during walks only files whose
// extension is in exts are considered, while explicitly named files are
// probed regardless (content decides, not the extension). Per-entry
// problems become warnings rather than failing the scan.
func Scan(paths []string, exts map[string]bool) ([]Item, []string, error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no input paths given")
	}
	if exts == nil {
		exts = codec.SourceExtensions
	}

	var (
		items    []Item
		warnings []string
	)
	seen := make(map[string]bool)

	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		logging.Warn("scan: %s", msg)
		warnings = append(warnings, msg)
	}

	importFile := func(path string, info fs.FileInfo) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if seen[path] {
			return
		}
		seen[path] = true

		it, err := FromFile(path, info)
		if err != nil {
			warn("skipping %s: %v", path, err)
			return
		}
		items = append(items, it)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			warn("cannot access %s: %v", root, err)
			continue
		}

		if !info.IsDir() {
			importFile(root, info)
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				warn("cannot access %s: %v", path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			// An explicitly named hidden root is intentional; hidden
			// entries inside the walk are not.
			if strings.HasPrefix(d.Name(), ".") && path != root {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !exts[strings.ToLower(filepath.Ext(d.Name()))] {
				return nil
			}

			fi, err := d.Info()
			if err != nil {
				warn("cannot stat %s: %v", path, err)
				return nil
			}
			importFile(path, fi)
			return nil
		})
		if walkErr != nil {
			warn("walk of %s aborted: %v", root, walkErr)
		}
	}

	logging.Debug("scan imported %d items (%d warnings)", len(items), len(warnings))
	return items, warnings, nil
}
