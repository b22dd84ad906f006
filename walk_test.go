// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"context"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

func addFile(t *testing.T, p *Package, path string, f *File) {
	t.Helper()
	parts := splitPath(path)
	dir := p.root
	if len(parts) > 1 {
		var err error
		dir, err = p.mkpath(parts[:len(parts)-1])
		if err != nil {
			t.Fatalf("mkpath: %v", err)
		}
	}
	f.name = parts[len(parts)-1]
	dir.children[f.name] = f
}

// countingHandler wraps ConsoleHandler to also record every path that hit
// an error callback, for assertions that need to see exactly which entries
// failed.
type countingHandler struct {
	*ConsoleHandler
	fileErrors    []string
	archiveErrors []string
}

func newCountingHandler(stop bool) *countingHandler {
	return &countingHandler{ConsoleHandler: NewConsoleHandler(nil, nil, stop, nil)}
}

func (c *countingHandler) FileError(err error, path string) bool {
	c.fileErrors = append(c.fileErrors, path)
	return c.ConsoleHandler.FileError(err, path)
}

func (c *countingHandler) ArchiveError(err error, path string) bool {
	c.archiveErrors = append(c.archiveErrors, path)
	return c.ConsoleHandler.ArchiveError(err, path)
}

func TestExtractPreloadOnlySucceeds(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	p := newPackage(src, "pkg")
	addFile(t, p, "txt/a.txt", &File{
		CRC32:        crc32.ChecksumIEEE([]byte("abc")),
		Preload:      []byte("abc"),
		ArchiveIndex: NoArchiveIndex,
	})

	h := newCountingHandler(false)
	if err := p.Extract(context.Background(), h, out, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.SuccessCount() != 1 || h.FailCount() != 0 {
		t.Fatalf("success=%d fail=%d, want 1, 0", h.SuccessCount(), h.FailCount())
	}

	got, err := os.ReadFile(filepath.Join(out, "txt", "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "abc" {
		t.Fatalf("content = %q, want %q", got, "abc")
	}
}

// TestExtractSplitEntryProducesSmalldata reproduces the split-file scenario:
// one entry with preload "HEAD", size 5, archive_index 0, offset 10. Archive
// pkg_000.vpk holds arbitrary bytes with "TAIL!" at offset 10. Extraction
// must produce both OUT/<path> containing "TAIL!" and OUT/<path>.smalldata
// containing "HEAD".
func TestExtractSplitEntryProducesSmalldata(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	archiveBytes := make([]byte, 15)
	copy(archiveBytes[10:], []byte("TAIL!"))
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), archiveBytes, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := newPackage(src, "pkg")
	full := append([]byte("HEAD"), []byte("TAIL!")...)
	addFile(t, p, "split.bin", &File{
		CRC32:        crc32.ChecksumIEEE(full),
		Preload:      []byte("HEAD"),
		ArchiveIndex: 0,
		Offset:       10,
		Size:         5,
	})

	h := newCountingHandler(false)
	if err := p.Extract(context.Background(), h, out, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.SuccessCount() != 1 || h.FailCount() != 0 {
		t.Fatalf("success=%d fail=%d, want 1, 0", h.SuccessCount(), h.FailCount())
	}

	main, err := os.ReadFile(filepath.Join(out, "split.bin"))
	if err != nil {
		t.Fatalf("ReadFile main: %v", err)
	}
	if string(main) != "TAIL!" {
		t.Fatalf("main content = %q, want %q", main, "TAIL!")
	}

	small, err := os.ReadFile(filepath.Join(out, "split.bin.smalldata"))
	if err != nil {
		t.Fatalf("ReadFile smalldata: %v", err)
	}
	if string(small) != "HEAD" {
		t.Fatalf("smalldata content = %q, want %q", small, "HEAD")
	}
}

// TestCheckValidatesCombinedPreloadAndBulkCRC pins spec.md §9's rule that
// check/xcheck tally a split entry's CRC-32 over preload bytes followed by
// bulk bytes, even though extract routes them to two separate artifacts.
func TestCheckValidatesCombinedPreloadAndBulkCRC(t *testing.T) {
	src := t.TempDir()

	archiveBytes := make([]byte, 15)
	copy(archiveBytes[10:], []byte("TAIL!"))
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), archiveBytes, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	combined := crc32.ChecksumIEEE(append([]byte("HEAD"), []byte("TAIL!")...))

	p := newPackage(src, "pkg")
	addFile(t, p, "split.bin", &File{
		CRC32:        combined,
		Preload:      []byte("HEAD"),
		ArchiveIndex: 0,
		Offset:       10,
		Size:         5,
	})

	h := newCountingHandler(false)
	if err := p.Check(context.Background(), h); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if h.SuccessCount() != 1 || h.FailCount() != 0 {
		t.Fatalf("success=%d fail=%d, want 1, 0 (combined CRC is correct)", h.SuccessCount(), h.FailCount())
	}

	p2 := newPackage(src, "pkg")
	addFile(t, p2, "split.bin", &File{
		CRC32:        crc32.ChecksumIEEE([]byte("TAIL!")), // bulk-only CRC, wrong for a split entry
		Preload:      []byte("HEAD"),
		ArchiveIndex: 0,
		Offset:       10,
		Size:         5,
	})

	h2 := newCountingHandler(false)
	if err := p2.Check(context.Background(), h2); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if h2.SuccessCount() != 0 || h2.FailCount() != 1 {
		t.Fatalf("success=%d fail=%d, want 0, 1 (bulk-only CRC must be rejected)", h2.SuccessCount(), h2.FailCount())
	}
}

// TestExtractMissingArchiveContinuesWithoutStop reproduces the scenario
// where one entry references a numbered archive that does not exist on
// disk, but stop-on-error is false: exactly one archive error is reported,
// zero successes for the missing entry, and an entry from a different,
// present archive still completes.
func TestExtractMissingArchiveContinuesWithoutStop(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	archiveBytes := []byte("0123456789")
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), archiveBytes, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := newPackage(src, "pkg")
	addFile(t, p, "ok.bin", &File{
		CRC32:        crc32.ChecksumIEEE([]byte("0123456789")),
		ArchiveIndex: 0,
		Offset:       0,
		Size:         10,
	})
	addFile(t, p, "missing.bin", &File{
		CRC32:        0xDEADBEEF,
		ArchiveIndex: 3,
		Offset:       0,
		Size:         4,
	})

	h := newCountingHandler(false)
	if err := p.Extract(context.Background(), h, out, false); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(h.archiveErrors) != 1 || h.archiveErrors[0] != p.ArchivePath(3) {
		t.Fatalf("archiveErrors = %v, want one entry for %s", h.archiveErrors, p.ArchivePath(3))
	}
	if h.SuccessCount() != 1 {
		t.Fatalf("SuccessCount = %d, want 1", h.SuccessCount())
	}

	if _, err := os.ReadFile(filepath.Join(out, "ok.bin")); err != nil {
		t.Fatalf("expected ok.bin to be extracted: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "missing.bin")); !os.IsNotExist(err) {
		t.Fatalf("expected missing.bin to not exist, stat err = %v", err)
	}
}

func TestExtractStopOnErrorAbortsWalk(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	p := newPackage(src, "pkg")
	addFile(t, p, "a_missing.bin", &File{
		ArchiveIndex: 7,
		Size:         1,
	})
	addFile(t, p, "z_never_reached.bin", &File{
		Preload:      []byte("x"),
		ArchiveIndex: NoArchiveIndex,
	})

	h := newCountingHandler(true)
	err := p.Extract(context.Background(), h, out, false)
	if !errors.Is(err, ErrArchiveMissing) {
		t.Fatalf("Extract error = %v, want ErrArchiveMissing", err)
	}

	if _, statErr := os.Stat(filepath.Join(out, "z_never_reached.bin")); !os.IsNotExist(statErr) {
		t.Fatal("expected the walk to stop before reaching the second entry")
	}
}

func TestCheckDetectsChecksumMismatch(t *testing.T) {
	src := t.TempDir()

	p := newPackage(src, "pkg")
	addFile(t, p, "bad.txt", &File{
		CRC32:        0x00000000,
		Preload:      []byte("not zero"),
		ArchiveIndex: NoArchiveIndex,
	})

	h := newCountingHandler(false)
	if err := p.Check(context.Background(), h); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if h.FailCount() != 1 {
		t.Fatalf("FailCount = %d, want 1", h.FailCount())
	}
	if h.SuccessCount() != 0 {
		t.Fatalf("SuccessCount = %d, want 0 (entry already reported as a failure)", h.SuccessCount())
	}
	if len(h.fileErrors) != 1 || h.fileErrors[0] != "bad.txt" {
		t.Fatalf("fileErrors = %v, want [bad.txt]", h.fileErrors)
	}
}

func TestXcheckValidatesWrittenBytes(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()

	p := newPackage(src, "pkg")
	addFile(t, p, "good.txt", &File{
		CRC32:        crc32.ChecksumIEEE([]byte("good")),
		Preload:      []byte("good"),
		ArchiveIndex: NoArchiveIndex,
	})

	h := newCountingHandler(false)
	if err := p.Extract(context.Background(), h, out, true); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if h.SuccessCount() != 1 || h.FailCount() != 0 {
		t.Fatalf("success=%d fail=%d, want 1, 0", h.SuccessCount(), h.FailCount())
	}
}
