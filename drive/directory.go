package drive

import "path"

// Directory represents a common-prefix "folder" in a non-recursive listing.
// It is an immutable value with no content operations.
type Directory struct {
	prefix string
	name   string
}

func newDirectory(prefix string) *Directory {
	return &Directory{prefix: prefix, name: path.Base(prefix)}
}

// Prefix returns the full prefix the directory represents.
func (d *Directory) Prefix() string { return d.prefix }

// Name returns the last path segment of the prefix.
func (d *Directory) Name() string { return d.name }

// EntryKey implements Entry.
func (d *Directory) EntryKey() string { return d.prefix }

// IsFile implements Entry.
func (d *Directory) IsFile() bool { return false }
