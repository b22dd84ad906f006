// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"context"
	"errors"
	"io"
	"os"
)

// walkBufferSize is the chunk size used to stream an entry's bulk bytes
// out of a numbered archive. spec.md §4.4 accepts any implementation-
// chosen size; 8 KiB mirrors the reference's BUFSIZ.
const walkBufferSize = 8 * 1024

// stopWalk is a private sentinel threaded up through the walk to short-circuit
// the traversal once a handler's error callback returns true.
type stopWalk struct{ err error }

func (s *stopWalk) Error() string { return s.err.Error() }
func (s *stopWalk) Unwrap() error { return s.err }

// errEntrySkipped marks an entry that failed but was not propagated
// because the handler's error callback chose not to stop the walk. It
// keeps walkFile's "err != nil means don't call h.Success" contract
// distinct from a silently successful entry.
var errEntrySkipped = errors.New("vpk: entry skipped after reported error")

// Walk traverses the tree in path order, routing each file leaf's bytes
// through a DataHandler obtained from factory, and reports progress and
// errors to h. It implements spec.md §4.4's five-step per-entry protocol,
// including the deliberate "preload is not concatenated with bulk" quirk
// for split entries: when extracting through a FileDataHandlerFactory the
// main output holds only the bulk bytes and the preload prefix is written
// to "<path>.smalldata". The CRC-32 check of a split entry still covers
// preload followed by bulk.
//
// ctx is checked once between entries (not mid-chunk): cancellation stops
// the walk before the next entry begins, consistent with spec.md §5's
// single-threaded, non-suspending, no-mid-entry-cancellation model.
func (p *Package) Walk(ctx context.Context, h Handler, factory DataHandlerFactory) error {
	if h == nil {
		h = NewConsoleHandler(io.Discard, nil, false, nil)
	}

	cache := newArchiveCache()
	defer cache.closeAll()

	h.Begin(p.FileCount())
	defer h.End()

	err := walkDir(ctx, p, p.root, nil, h, factory, cache)
	var sw *stopWalk
	if err != nil {
		if se, ok := err.(*stopWalk); ok { //nolint:errorlint // sentinel unwrap below
			sw = se
		}
	}
	if sw != nil {
		return sw.err
	}
	return err
}

// Extract walks the tree writing every surviving entry under destDir.
func (p *Package) Extract(ctx context.Context, h Handler, destDir string, check bool) error {
	return p.Walk(ctx, h, NewFileDataHandlerFactory(destDir, check))
}

// Check walks the tree verifying every entry's CRC-32 without writing
// anything to disk.
func (p *Package) Check(ctx context.Context, h Handler) error {
	return p.Walk(ctx, h, NewCheckingDataHandlerFactory())
}

func walkDir(ctx context.Context, p *Package, dir *Directory, prefix []string, h Handler, factory DataHandlerFactory, cache *archiveCache) error {
	for _, child := range dir.Children() {
		path := append(append([]string{}, prefix...), child.Name())

		switch c := child.(type) {
		case *Directory:
			if err := walkDir(ctx, p, c, path, h, factory, cache); err != nil {
				return err
			}
		case *File:
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := walkFile(p, joinPath(path), c, h, factory, cache); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkFile implements spec.md §4.4 steps 1-5 for a single file leaf.
func walkFile(p *Package, path string, f *File, h Handler, factory DataHandlerFactory, cache *archiveCache) error {
	h.Extract(path)

	dh, err := factory.Create(path, f.CRC32)
	if err != nil {
		if h.FileError(err, path) {
			return &stopWalk{err}
		}
		return nil
	}

	var stop bool
	if !f.HasBulk() {
		stop, err = runPreloadOnly(dh, f, path, h)
	} else {
		stop, err = runSplitOrBulk(p, dh, f, path, h, cache, factory)
	}
	if err != nil {
		removePartialOutput(dh)
		if stop {
			return &stopWalk{err}
		}
		return nil
	}

	h.Success(path)
	return nil
}

// removePartialOutput deletes the file a FileDataHandlerFactory created for
// an entry that ultimately failed, so a skipped or aborted entry leaves no
// empty or truncated artifact behind.
func removePartialOutput(dh DataHandler) {
	if fh, ok := dh.(*dataHandler); ok && fh.outPath != "" {
		_ = os.Remove(fh.outPath)
	}
}

// runPreloadOnly handles the size == 0 case: a single Process call over
// the preload bytes, then Finish.
func runPreloadOnly(dh DataHandler, f *File, path string, h Handler) (stop bool, err error) {
	defer func() { _ = dh.Close() }()

	if err := dh.Process(f.Preload); err != nil {
		return reportFileError(h, err, path)
	}
	if err := dh.Finish(); err != nil {
		return reportFileError(h, err, path)
	}
	return false, nil
}

// runSplitOrBulk handles the size > 0 case: stream the bulk part from its
// numbered archive, then — if the entry also carries a non-empty preload
// (a split entry) — materialize the preload separately as
// "<path>.smalldata" via a second, fresh data handler.
func runSplitOrBulk(p *Package, dh DataHandler, f *File, path string, h Handler, cache *archiveCache, factory DataHandlerFactory) (stop bool, err error) {
	defer func() { _ = dh.Close() }()

	// File.CRC32 covers preload bytes followed by bulk bytes (spec.md
	// §3). Extract mode still routes the preload to its own
	// ".smalldata" artifact below rather than the main output, but
	// check/xcheck's single tally must see both halves in order.
	if fh, ok := dh.(*dataHandler); ok {
		fh.tallyPreload(f.Preload)
	}

	archive, firstMissing, openErr := cache.open(p, f.ArchiveIndex)
	if openErr != nil {
		if !firstMissing {
			return false, errEntrySkipped
		}
		if h.ArchiveError(openErr, p.ArchivePath(f.ArchiveIndex)) {
			return true, openErr
		}
		return false, errEntrySkipped
	}

	if stop, err := streamBulk(archive, dh, f, path, p.ArchivePath(f.ArchiveIndex), h); err != nil {
		return stop, err
	}

	if err := dh.Finish(); err != nil {
		return reportFileError(h, err, path)
	}

	if ff, extracting := factory.(*FileDataHandlerFactory); extracting && len(f.Preload) > 0 {
		return runSmalldata(f, path, h, ff)
	}

	return false, nil
}

// streamBulk copies f.Size bytes from archive at f.Offset through dh in
// fixed-size chunks. A mid-stream read failure is reported against
// archivePath (the numbered archive being read), not the logical entry
// path, matching the original's archive-error reporting convention.
func streamBulk(archive *os.File, dh DataHandler, f *File, path, archivePath string, h Handler) (stop bool, err error) {
	sr := io.NewSectionReader(archive, int64(f.Offset), int64(f.Size))
	buf := make([]byte, walkBufferSize)
	var copied int64

	for {
		n, readErr := sr.Read(buf)
		if n > 0 {
			copied += int64(n)
			if procErr := dh.Process(buf[:n]); procErr != nil {
				return reportFileError(h, procErr, path)
			}
		}
		if readErr == io.EOF {
			if copied < int64(f.Size) {
				return reportArchiveError(h, ErrShortRead, archivePath)
			}
			return false, nil
		}
		if readErr != nil {
			return reportArchiveError(h, readErr, archivePath)
		}
	}
}

// runSmalldata feeds the preload bytes of a split entry to a second,
// independent data handler over the synthetic path "<path>.smalldata".
// This materializes split files' preload prefix as a separate artifact
// during extract — a deliberate debugging behavior carried over from the
// original implementation (spec.md §4.4 step 4, §9).
//
// The preload alone never satisfies the entry's whole-file CRC-32, so
// this always writes through a non-checking factory regardless of the
// caller's --xcheck setting.
func runSmalldata(f *File, path string, h Handler, ff *FileDataHandlerFactory) (stop bool, err error) {
	smallPath := path + ".smalldata"
	noCheck := &FileDataHandlerFactory{DestDir: ff.DestDir, Check: false}

	sdh, err := noCheck.Create(smallPath, 0)
	if err != nil {
		return reportFileError(h, err, smallPath)
	}
	defer func() { _ = sdh.Close() }()

	if err := sdh.Process(f.Preload); err != nil {
		return reportFileError(h, err, smallPath)
	}
	if err := sdh.Finish(); err != nil {
		return reportFileError(h, err, smallPath)
	}
	return false, nil
}

func reportFileError(h Handler, err error, path string) (bool, error) {
	if h.FileError(err, path) {
		return true, err
	}
	return false, errEntrySkipped
}

func reportArchiveError(h Handler, err error, path string) (bool, error) {
	if h.ArchiveError(err, path) {
		return true, err
	}
	return false, errEntrySkipped
}
