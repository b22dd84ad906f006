// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const dirSuffix = "_dir.vpk"

// Open opens and parses the directory file at path. h may be nil; when
// non-nil, a directory filename that does not end in "_dir.vpk" is
// reported to h.ArchiveError instead of aborting the open (grounded on
// Vpk::Package::read(path) in original_source/src/package.cpp, which
// raises through the handler when one is installed and throws otherwise).
func Open(path string, h Handler) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	return OpenFile(f, path, h)
}

// OpenFile parses an already-open directory file. path is used only to
// derive the archive basename and source directory; it need not be
// seekable independently of f.
func OpenFile(f *os.File, path string, h Handler) (*Package, error) {
	base := filepath.Base(path)
	sourceDir := filepath.Dir(path)

	var name string
	if strings.HasSuffix(strings.ToLower(base), dirSuffix) {
		name = base[:len(base)-len(dirSuffix)]
	} else {
		err := fmt.Errorf("%w: %q", ErrNotDirectoryFile, path)
		if h == nil {
			return nil, err
		}
		if h.ArchiveError(err, path) {
			return nil, err
		}
		name = base
	}

	pkg, _, err := ParseDirectory(f, sourceDir, name)
	if err != nil {
		return nil, err
	}
	return pkg, nil
}
