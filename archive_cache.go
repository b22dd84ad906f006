// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"os"
	"sync"
)

// archiveCache maps numbered-archive index to an open handle, with a
// "known missing" sentinel so a missing archive is reported exactly once
// and every later entry referencing it is silently skipped.
//
// Guarded by a mutex so it is safe for concurrent callers; a Walk only
// ever touches it from one goroutine. The FUSE bridge (internal/vpkfs)
// does not use this type: it keeps its own mutex-guarded handle map.
type archiveCache struct {
	mu      sync.Mutex
	handles map[uint16]*os.File
	missing map[uint16]bool
}

func newArchiveCache() *archiveCache {
	return &archiveCache{
		handles: make(map[uint16]*os.File),
		missing: make(map[uint16]bool),
	}
}

// open returns the cached handle for index, opening it on first use.
//
// If the archive is missing (or fails to open), err is non-nil and
// firstMissing reports whether this is the first time index was
// discovered missing: true means the caller should report it (once);
// false means a prior call already reported it and the caller should
// silently skip the entry.
func (c *archiveCache) open(pkg *Package, index uint16) (f *os.File, firstMissing bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.missing[index] {
		return nil, false, ErrArchiveMissing
	}
	if f, ok := c.handles[index]; ok {
		return f, false, nil
	}

	f, err = os.Open(pkg.ArchivePath(index))
	if err != nil {
		c.missing[index] = true
		return nil, true, ErrArchiveMissing
	}

	c.handles[index] = f
	return f, false, nil
}

// closeAll releases every open handle. Safe to call more than once.
func (c *archiveCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for index, f := range c.handles {
		_ = f.Close()
		delete(c.handles, index)
	}
}
