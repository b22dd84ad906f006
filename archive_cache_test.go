// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestArchiveCacheOpenCachesHandle(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p := newPackage(src, "pkg")

	c := newArchiveCache()
	defer c.closeAll()

	f1, firstMissing1, err1 := c.open(p, 0)
	if err1 != nil {
		t.Fatalf("open: %v", err1)
	}
	if firstMissing1 {
		t.Fatal("expected firstMissing = false on a successful open")
	}

	f2, _, err2 := c.open(p, 0)
	if err2 != nil {
		t.Fatalf("open (cached): %v", err2)
	}
	if f1 != f2 {
		t.Fatal("expected the second open to return the cached handle")
	}
}

func TestArchiveCacheOpenReportsMissingOnceThenSilently(t *testing.T) {
	p := newPackage(t.TempDir(), "pkg")
	c := newArchiveCache()
	defer c.closeAll()

	_, first, err := c.open(p, 9)
	if !errors.Is(err, ErrArchiveMissing) {
		t.Fatalf("open = %v, want ErrArchiveMissing", err)
	}
	if !first {
		t.Fatal("expected first miss to report firstMissing = true")
	}

	_, second, err := c.open(p, 9)
	if !errors.Is(err, ErrArchiveMissing) {
		t.Fatalf("open = %v, want ErrArchiveMissing", err)
	}
	if second {
		t.Fatal("expected the second miss to report firstMissing = false")
	}
}

func TestArchiveCacheCloseAllIsIdempotent(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p := newPackage(src, "pkg")

	c := newArchiveCache()
	if _, _, err := c.open(p, 0); err != nil {
		t.Fatalf("open: %v", err)
	}
	c.closeAll()
	c.closeAll()
}

func TestArchiveCacheOpenIsConcurrencySafe(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "pkg_000.vpk"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p := newPackage(src, "pkg")

	c := newArchiveCache()
	defer c.closeAll()

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.open(p, 0); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent open: %v", err)
	}
}
