// Package item models units of conversion work: files discovered by the
// import scan and in-memory buffers registered by callers.
package item

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zumgugger/reformat-sub001/internal/codec"

	"github.com/google/uuid"
)

// Origin says where an item's bytes live.
type Origin string

const (
	// OriginFile items are read from Path at conversion time.
	OriginFile Origin = "file"
	// OriginBuffer items are read from a BufferSource keyed by ID.
	OriginBuffer Origin = "buffer"
)

// Item is one unit of conversion work. Immutable once imported; the
// conversion core only reads it.
type Item struct {
	ID       string
	Name     string // output base name, no extension
	Origin   Origin
	Path     string // file origin only
	Size     int64
	Width    int
	Height   int
	Format   codec.Format
	HasAlpha bool
	ModTime  time.Time
}

// FromFile probes a file on disk into an Item. The output extension is
// decided by the target format at export time, so Name drops the
// original one.
func FromFile(path string, info fs.FileInfo) (Item, error) {
	probe, err := codec.Probe(path)
	if err != nil {
		return Item{}, err
	}

	return Item{
		ID:       uuid.NewString(),
		Name:     stemOf(path),
		Origin:   OriginFile,
		Path:     path,
		Size:     info.Size(),
		Width:    probe.Width,
		Height:   probe.Height,
		Format:   probe.Format,
		HasAlpha: probe.HasAlpha,
		ModTime:  info.ModTime(),
	}, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		// Dotfiles like ".photo" have an extension and no stem.
		return base
	}
	return stem
}
