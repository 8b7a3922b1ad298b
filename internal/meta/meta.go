// Package meta resolves filesystem metadata for individual paths.
// It is the only place the indexing core touches stat(); every fallible
// filesystem call the pipeline depends on funnels through the Resolver.
package meta

import (
	"io/fs"
	"os"
	"syscall"
	"time"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
)

// Kind classifies an indexed filesystem object.
type Kind int

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link (not followed).
	KindSymlink
	// KindOther is any other object (device, socket, fifo).
	KindOther
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Metadata is the result of a single lstat call. The permission record and
// path entry derived from it always come from the same call, never from two
// separate stats.
type Metadata struct {
	// Kind is the object classification.
	Kind Kind
	// Size is the object size in bytes.
	Size int64
	// ModTime is the last modification time.
	ModTime time.Time
	// UID is the owning user id.
	UID uint32
	// GID is the owning group id.
	GID uint32
	// Mode holds the permission bits (rwx for owner/group/other).
	Mode fs.FileMode
}

// Resolver fetches metadata for paths. The zero value is ready to use.
type Resolver struct{}

// Resolve stats the given path without following symlinks.
// A failure (typically the path vanished between event and stat) is returned
// as a MetadataResolutionError; the pipeline treats it as an implicit removal.
func (Resolver) Resolve(path string) (Metadata, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Metadata{}, pdxerrors.MetadataError(path, err)
	}
	return fromFileInfo(info), nil
}

// fromFileInfo converts a FileInfo into Metadata.
func fromFileInfo(info fs.FileInfo) Metadata {
	m := Metadata{
		Kind:    kindOf(info.Mode()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode().Perm(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		m.UID = st.Uid
		m.GID = st.Gid
	}
	return m
}

// kindOf classifies a file mode.
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	default:
		return KindOther
	}
}
