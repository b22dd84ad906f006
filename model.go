// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"sort"
)

// NoArchiveIndex is the sentinel archive_index value meaning "this entry
// has no bulk part" (it lives entirely in the directory file's preload
// area). It always co-occurs with Size == 0.
const NoArchiveIndex uint16 = 0x7FFF

// Node is a tagged variant: every Node is either a *Directory or a *File.
// Directories own their children; there are no back-pointers, so path
// queries always descend from the tree root.
type Node interface {
	// Name is the node's own name (never containing "/").
	Name() string
	isNode()
}

// Directory is an interior node: an ordered map from child name to child
// node. Iteration order is not the insertion order; Children returns
// entries sorted lexicographically by name so that listing, walking, and
// FUSE readdir are deterministic across runs.
type Directory struct {
	name     string
	children map[string]Node
}

// File is a leaf node describing one logical entry's on-disk locator.
type File struct {
	name string

	// CRC32 is the expected checksum of the logical file (preload bytes
	// followed by bulk bytes).
	CRC32 uint32
	// Preload is the inline byte prefix stored in the directory file.
	// Its length is always in [0, 65535].
	Preload []byte
	// ArchiveIndex names the numbered data archive holding the bulk part,
	// or NoArchiveIndex when Size == 0.
	ArchiveIndex uint16
	// Offset is the byte offset of the bulk part within that archive.
	Offset uint32
	// Size is the byte length of the bulk part; 0 means "preload only".
	Size uint32
}

func (d *Directory) Name() string { return d.name }
func (f *File) Name() string      { return f.name }
func (*Directory) isNode()        {}
func (*File) isNode()             {}

// newDirectory creates an empty directory node.
func newDirectory(name string) *Directory {
	return &Directory{name: name, children: make(map[string]Node)}
}

// Children returns this directory's children sorted by name.
func (d *Directory) Children() []Node {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Node, len(names))
	for i, name := range names {
		out[i] = d.children[name]
	}
	return out
}

// Child looks up one immediate child by name.
func (d *Directory) Child(name string) Node {
	return d.children[name]
}

// HasBulk reports whether the file's logical content includes a bulk part
// stored in a numbered data archive.
func (f *File) HasBulk() bool {
	return f.ArchiveIndex != NoArchiveIndex
}

// LogicalSize is the total length of the entry (preload plus bulk).
func (f *File) LogicalSize() int64 {
	return int64(len(f.Preload)) + int64(f.Size)
}

// Package aggregates a parsed VPK directory: the filesystem location of the
// archive files, the archive basename, and the root directory of the
// parsed tree.
type Package struct {
	// SourceDir is the filesystem directory holding the directory file and
	// its companion numbered archives.
	SourceDir string
	// Name is the archive basename with "_dir.vpk" stripped.
	Name string
	// IndexSize is the informational index_size header field, read and
	// discarded by the parser (never validated against actual index length).
	IndexSize uint32
	// HasHeader reports whether the v1 magic header was present.
	HasHeader bool
	// IndexEnd is the byte position where the directory index ends (the
	// same value ParseDirectory returns), the boundary AnalyzeCoverage
	// seeds as "covered by the index itself" rather than the directory
	// file's whole on-disk size.
	IndexEnd int64

	root *Directory
}

// newPackage creates an empty Package with an empty root directory.
func newPackage(sourceDir, name string) *Package {
	return &Package{
		SourceDir: sourceDir,
		Name:      name,
		root:      newDirectory(""),
	}
}

// Root returns the tree's root directory.
func (p *Package) Root() *Directory {
	return p.root
}

// ArchivePath formats the filesystem path of numbered data archive index,
// e.g. "<source_dir>/<name>_003.vpk".
func (p *Package) ArchivePath(index uint16) string {
	return fmt.Sprintf("%s/%s_%03d.vpk", p.SourceDir, p.Name, index)
}

// Get resolves a logical "/"-separated path to its node. It returns nil if
// the path does not exist, or if any intermediate component names a file
// rather than a directory.
func (p *Package) Get(path string) Node {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil
	}

	var node Node = p.root
	for i, part := range parts {
		dir, ok := node.(*Directory)
		if !ok {
			return nil
		}
		node = dir.children[part]
		if node == nil {
			return nil
		}
		if i < len(parts)-1 {
			if _, ok := node.(*Directory); !ok {
				return nil
			}
		}
	}
	return node
}

// mkpath descends from the package root creating any missing directory
// components, returning the final directory. It fails with
// ErrPathIsNotDirectory if a path component collides with an existing file.
func (p *Package) mkpath(parts []string) (*Directory, error) {
	if len(parts) == 0 {
		return nil, ErrEmptyPath
	}

	dir := p.root
	for i, part := range parts {
		child, ok := dir.children[part]
		if !ok {
			next := newDirectory(part)
			dir.children[part] = next
			dir = next
			continue
		}

		next, ok := child.(*Directory)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPathIsNotDirectory, joinPath(parts[:i+1]))
		}
		dir = next
	}

	return dir, nil
}

// FileCount returns the number of file leaves in the tree.
func (p *Package) FileCount() int {
	return countFiles(p.root)
}

func countFiles(d *Directory) int {
	n := 0
	for _, child := range d.children {
		switch c := child.(type) {
		case *Directory:
			n += countFiles(c)
		case *File:
			n++
		}
	}
	return n
}

// ListEntry is one flattened (logical path, *File) pair, used by Entries
// and the CLI's --list table.
type ListEntry struct {
	Path string
	File *File
}

// Entries returns every file leaf in the tree as a flattened, path-sorted
// list. Sorting makes --list output reproducible regardless of map
// iteration order.
func (p *Package) Entries() []ListEntry {
	var out []ListEntry
	collectEntries(p.root, nil, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func collectEntries(d *Directory, prefix []string, out *[]ListEntry) {
	for name, child := range d.children {
		path := append(append([]string{}, prefix...), name)
		switch c := child.(type) {
		case *Directory:
			collectEntries(c, path, out)
		case *File:
			*out = append(*out, ListEntry{Path: joinPath(path), File: c})
		}
	}
}
