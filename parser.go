// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-vpk/vpk/internal/binreader"
)

// magicV1 is the 4-byte little-endian signature of a version-1 VPK
// directory header. Legacy archives carry no header at all.
const magicV1 = 0x55AA1234

// terminatorValue is the required value of a file record's terminator
// field; any other value means the record shape is corrupt.
const terminatorValue = 0xFFFF

// ParseDirectory parses a VPK directory index from src (positioned at
// file start) into a new Package rooted under sourceDir/name. It returns
// the byte position where the directory index ends — the boundary the
// coverage analyzer seeds as "covered by the index itself".
//
// Grounded on Vpk::Package::read(std::istream&) in
// original_source/src/package.cpp: an optional 12-byte header, followed by
// three nested null-terminated-string loops (type, subpath, name), each
// terminated by an empty string.
func ParseDirectory(src io.ReadSeeker, sourceDir, name string) (*Package, int64, error) {
	br := binreader.New(src)

	pkg := newPackage(sourceDir, name)

	hasHeader, err := readHeader(br, pkg)
	if err != nil {
		return nil, 0, err
	}
	pkg.HasHeader = hasHeader

	if err := readBody(br, pkg); err != nil {
		return nil, 0, err
	}

	end, err := br.Tell()
	if err != nil {
		return nil, 0, wrapBinErr(err)
	}
	pkg.IndexEnd = end

	return pkg, end, nil
}

// readHeader peeks the first 4 bytes for the v1 magic. If absent, it
// rewinds so the body loop can reinterpret those bytes as the start of the
// first type string ("trust the first four bytes": a magic value that
// happens to appear later in the stream is never re-checked).
func readHeader(br *binreader.Reader, pkg *Package) (bool, error) {
	magic, err := br.ReadU32LE()
	if err != nil {
		return false, wrapBinErr(err)
	}

	if magic != magicV1 {
		if _, err := br.Seek(-4, io.SeekCurrent); err != nil {
			return false, wrapBinErr(err)
		}
		return false, nil
	}

	version, err := br.ReadU32LE()
	if err != nil {
		return false, wrapBinErr(err)
	}
	if version != 1 {
		return false, fmt.Errorf("%w: unexpected vpk version %d", ErrFileFormat, version)
	}

	indexSize, err := br.ReadU32LE()
	if err != nil {
		return false, wrapBinErr(err)
	}
	pkg.IndexSize = indexSize

	return true, nil
}

// readBody runs the three nested ASCIIZ loops (type, subpath, name) that
// populate the tree.
func readBody(br *binreader.Reader, pkg *Package) error {
	for {
		typeName, err := br.ReadASCIIZ()
		if err != nil {
			return wrapBinErr(err)
		}
		if typeName == "" {
			return nil
		}

		for {
			subpath, err := br.ReadASCIIZ()
			if err != nil {
				return wrapBinErr(err)
			}
			if subpath == "" {
				break
			}
			// A single space means "empty path": the entries live
			// directly under the type directory.
			if subpath == " " {
				subpath = ""
			}

			dirParts := append([]string{typeName}, splitPath(subpath)...)
			dir, err := pkg.mkpath(dirParts)
			if err != nil {
				return err
			}

			if err := readNameList(br, dir, typeName); err != nil {
				return err
			}
		}
	}
}

// readNameList runs the innermost ASCIIZ loop (file basenames) for one
// (type, subpath) pair, attaching ".<type>" to each basename per the
// invariant that a leaf's logical path is "<subpath>/<basename>.<type>".
func readNameList(br *binreader.Reader, dir *Directory, typeName string) error {
	for {
		baseName, err := br.ReadASCIIZ()
		if err != nil {
			return wrapBinErr(err)
		}
		if baseName == "" {
			return nil
		}

		file, err := readFileRecord(br, baseName+"."+typeName)
		if err != nil {
			return err
		}

		if err := validateFile(file); err != nil {
			return err
		}

		dir.children[file.name] = file
	}
}

// readFileRecord reads one fixed-layout file record: crc32, preload_len,
// archive_index, offset, size, terminator, followed by preload_len bytes
// of preload data.
func readFileRecord(br *binreader.Reader, leafName string) (*File, error) {
	crc32, err := br.ReadU32LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	preloadLen, err := br.ReadU16LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	archiveIndex, err := br.ReadU16LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	offset, err := br.ReadU32LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	size, err := br.ReadU32LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	terminator, err := br.ReadU16LE()
	if err != nil {
		return nil, wrapBinErr(err)
	}
	if terminator != terminatorValue {
		return nil, fmt.Errorf("%w: invalid terminator", ErrFileFormat)
	}

	var preload []byte
	if preloadLen > 0 {
		preload, err = br.ReadExact(int(preloadLen))
		if err != nil {
			return nil, wrapBinErr(err)
		}
	}

	return &File{
		name:         leafName,
		CRC32:        crc32,
		Preload:      preload,
		ArchiveIndex: archiveIndex,
		Offset:       offset,
		Size:         size,
	}, nil
}

// validateFile enforces the format invariants that are not mechanically
// guaranteed by the record layout itself.
func validateFile(f *File) error {
	if f.Size == 0 && f.ArchiveIndex != NoArchiveIndex {
		// The source leaves this combination undefined; spec.md §9
		// resolves the open question by treating it as malformed.
		return fmt.Errorf("%w: archive_index %d with size 0", ErrFileFormat, f.ArchiveIndex)
	}
	if f.Size > 0 && f.ArchiveIndex == NoArchiveIndex {
		return fmt.Errorf("%w: size %d with no archive index", ErrFileFormat, f.Size)
	}
	if len(f.Preload) == 0 && f.Size == 0 {
		return fmt.Errorf("%w: empty entry %q", ErrFileFormat, f.name)
	}
	return nil
}

// wrapBinErr translates internal/binreader's sentinel errors into this
// package's equivalents so callers only ever see the vpk error vocabulary.
func wrapBinErr(err error) error {
	switch {
	case errors.Is(err, binreader.ErrShortRead):
		return fmt.Errorf("%w: %w", ErrShortRead, err)
	case errors.Is(err, binreader.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, binreader.ErrIO):
		return fmt.Errorf("%w: %w", ErrIO, err)
	default:
		return err
	}
}
