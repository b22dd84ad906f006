// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

// DataHandler is the per-entry byte sink used by Walk. Process is called
// zero or more times in order with successive chunks of one logical
// file's bytes; Finish signals end-of-stream and may fail (e.g. on a CRC
// mismatch). Close releases any resources and is always called, even after
// a Finish failure.
//
// Grounded on spec.md §4.4 and §9's "tagged variant {Write, Check}"
// recommendation in place of a virtual DataHandler class hierarchy.
type DataHandler interface {
	Process(chunk []byte) error
	Finish() error
	io.Closer
}

// DataHandlerFactory creates a fresh DataHandler for each logical file
// Walk visits.
type DataHandlerFactory interface {
	Create(logicalPath string, expectedCRC32 uint32) (DataHandler, error)
}

// dataHandler is the single concrete DataHandler implementation: a tagged
// variant choosing between writing to disk and/or tallying a CRC-32,
// selected by which fields the factory populates.
type dataHandler struct {
	file        *os.File
	outPath     string
	crc         uint32
	checkCRC    bool
	expectedCRC uint32
	logicalPath string
}

func (h *dataHandler) Process(chunk []byte) error {
	if h.checkCRC {
		h.crc = crc32.Update(h.crc, crc32.IEEETable, chunk)
	}
	if h.file != nil {
		if _, err := h.file.Write(chunk); err != nil {
			return fmt.Errorf("%w: write %s: %w", ErrIO, h.logicalPath, err)
		}
	}
	return nil
}

// tallyPreload folds a split entry's preload bytes into the running CRC-32
// without writing them anywhere. Used by the walk to combine preload+bulk
// into the single whole-file checksum File.CRC32 is defined against,
// while still routing the preload to its own ".smalldata" artifact (or
// nowhere, for a non-writing checking sink) rather than the main output.
func (h *dataHandler) tallyPreload(preload []byte) {
	if h.checkCRC {
		h.crc = crc32.Update(h.crc, crc32.IEEETable, preload)
	}
}

func (h *dataHandler) Finish() error {
	if h.checkCRC && h.crc != h.expectedCRC {
		return fmt.Errorf("%w: %s: expected %#08x, got %#08x",
			ErrChecksumMismatch, h.logicalPath, h.expectedCRC, h.crc)
	}
	return nil
}

func (h *dataHandler) Close() error {
	if h.file != nil {
		return h.file.Close()
	}
	return nil
}

// FileDataHandlerFactory writes each entry's bytes to destDir/logicalPath,
// creating parent directories as needed. When Check is set, CRC-32 is
// tallied as bytes pass and Finish fails with ErrChecksumMismatch on
// disagreement.
type FileDataHandlerFactory struct {
	DestDir string
	Check   bool
}

// NewFileDataHandlerFactory creates a FileDataHandlerFactory.
func NewFileDataHandlerFactory(destDir string, check bool) *FileDataHandlerFactory {
	return &FileDataHandlerFactory{DestDir: destDir, Check: check}
}

// Create implements DataHandlerFactory.
func (f *FileDataHandlerFactory) Create(logicalPath string, expectedCRC32 uint32) (DataHandler, error) {
	relPath, ok := safeRelPath(logicalPath)
	if !ok {
		return nil, fmt.Errorf("%w: invalid path %q", ErrFileFormat, logicalPath)
	}

	outPath := filepath.Join(f.DestDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir for %s: %w", ErrIO, logicalPath, err)
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, logicalPath, err)
	}

	h := &dataHandler{file: out, outPath: outPath, logicalPath: logicalPath}
	if f.Check {
		h.checkCRC = true
		h.expectedCRC = expectedCRC32
	}
	return h, nil
}

// CheckingDataHandlerFactory writes nowhere; it only tallies CRC-32 and
// validates it in Finish.
type CheckingDataHandlerFactory struct{}

// NewCheckingDataHandlerFactory creates a CheckingDataHandlerFactory.
func NewCheckingDataHandlerFactory() *CheckingDataHandlerFactory {
	return &CheckingDataHandlerFactory{}
}

// Create implements DataHandlerFactory.
func (*CheckingDataHandlerFactory) Create(logicalPath string, expectedCRC32 uint32) (DataHandler, error) {
	return &dataHandler{checkCRC: true, expectedCRC: expectedCRC32, logicalPath: logicalPath}, nil
}
