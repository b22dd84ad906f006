// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import "errors"

// Sentinel errors for vpk operations. Use errors.Is in callers.
var (
	// ErrFileFormat means the directory index violated the binary format
	// (bad magic/version/terminator/record shape). Always fatal during parse.
	ErrFileFormat = errors.New("vpk: invalid directory format")
	// ErrIO means the underlying byte source failed.
	ErrIO = errors.New("vpk: io error")
	// ErrShortRead means fewer bytes were available than the format requires.
	ErrShortRead = errors.New("vpk: short read")
	// ErrClosed means an operation was attempted on a closed reader.
	ErrClosed = errors.New("vpk: reader is closed")
	// ErrPathIsNotDirectory means a parsed path component collided with an
	// existing file node while building the tree.
	ErrPathIsNotDirectory = errors.New("vpk: path is not a directory")
	// ErrEmptyPath means mkpath was called with no path components.
	ErrEmptyPath = errors.New("vpk: empty path")
	// ErrChecksumMismatch means a verified entry's CRC-32 did not match its
	// recorded value.
	ErrChecksumMismatch = errors.New("vpk: checksum mismatch")
	// ErrArchiveMissing means a numbered data archive referenced by an
	// entry does not exist on disk.
	ErrArchiveMissing = errors.New("vpk: archive does not exist")
	// ErrNilReader means a nil reader or package was used.
	ErrNilReader = errors.New("vpk: reader is nil")
	// ErrNotDirectoryFile means the archive was opened by a path not ending
	// in "_dir.vpk", so companion numbered archives cannot be located.
	ErrNotDirectoryFile = errors.New("vpk: filename does not end in \"_dir.vpk\"")
)
