package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zumgugger/reformat-sub001/internal/codec"
	"github.com/Zumgugger/reformat-sub001/internal/fsutil"
	"github.com/Zumgugger/reformat-sub001/internal/item"
	"github.com/Zumgugger/reformat-sub001/internal/pipeline"
)

// ResolveOutputDir picks the output folder for a batch. An explicit
// override wins verbatim. Otherwise file items that all share one parent
// directory get a sibling folder named after it; batches with no file
// items, or files from several directories, get a date-stamped folder
// relative to the working directory.
//
// Parent comparison ignores case and separator style, so the same folder
// reached through different spellings still counts as shared. The
// function only computes the path; nothing is created here.
func ResolveOutputDir(items []item.Item, override string, now func() time.Time) string {
	if override != "" {
		return override
	}
	if now == nil {
		now = time.Now
	}

	var (
		parent string
		key    string
		shared = true
		seen   = false
	)
	for _, it := range items {
		if it.Origin != item.OriginFile {
			continue
		}
		p := filepath.Dir(it.Path)
		k := strings.ToLower(filepath.ToSlash(filepath.Clean(p)))
		if !seen {
			parent, key, seen = p, k, true
			continue
		}
		if k != key {
			shared = false
		}
	}

	if seen && shared {
		return filepath.Join(filepath.Dir(parent), filepath.Base(parent)+"_reformat")
	}
	return "Reformat_" + now().Format("2006-01-02")
}

// resolveOutputPaths assigns every item a collision-free path under dir,
// strictly in submission order. The candidate name is the item's base
// name plus the extension of its effective output format; clashes with
// names already taken this run, or with files already on disk, append
// -1, -2, … until a free name appears. Reservation keys are lowercased
// so the scheme also holds on case-insensitive filesystems.
//
// This pre-pass is the run's only ordering barrier: it finishes before
// any task starts, so tasks never race for a name.
func resolveOutputPaths(dir string, items []item.Item, target codec.Format) []string {
	reserved := make(map[string]bool, len(items))
	paths := make([]string, len(items))

	for i, it := range items {
		base := it.Name
		if base == "" {
			base = "image"
		}
		// Extension from the same format resolution the pipeline will
		// do; warnings are recorded later, when the conversion runs.
		format, _ := pipeline.EffectiveFormat(target, it.Format, it.HasAlpha)
		ext := format.Ext()

		name := base + ext
		for n := 1; taken(reserved, dir, name); n++ {
			name = fmt.Sprintf("%s-%d%s", base, n, ext)
		}

		reserved[strings.ToLower(name)] = true
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

func taken(reserved map[string]bool, dir, name string) bool {
	if reserved[strings.ToLower(name)] {
		return true
	}
	return fsutil.Exists(filepath.Join(dir, name))
}
