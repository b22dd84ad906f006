// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-vpk/vpk/internal/magic"
)

// archiveNamePattern matches "<name>_<digits>.vpk" (three or more digits),
// case-insensitively, as produced by VPK's numbered-archive naming
// convention.
var archiveNamePattern = regexp.MustCompile(`(?i)^(.+)_([0-9]{3,})\.vpk$`)

// ArchiveCoverage reports the covered/missing byte ranges of one numbered
// archive, or of the directory file itself (Index == dirArchiveIndex).
type ArchiveCoverage struct {
	Index      int
	SizeOnDisk uint64
	Covered    uint64
	Missing    Coverage
}

// dirArchiveIndex is the sentinel ArchiveCoverage.Index identifying the
// directory file's own coverage entry, whose covered range is the parsed
// index [0, Package.IndexEnd).
const dirArchiveIndex = -1

// AnalyzeCoverage implements spec.md §4.5's coverage pipeline: it seeds
// the directory file's own index bytes ([0, p.IndexEnd)) as covered —
// not its whole on-disk size, so trailing bytes past the parsed index
// still surface as missing — discovers numbered archives on disk so that
// archives with zero referenced bytes are still reported, walks the tree
// accumulating referenced byte ranges per archive, and returns one
// ArchiveCoverage per archive encountered (on disk or referenced), sorted
// by index with the directory entry first.
func (p *Package) AnalyzeCoverage(dirSize int64) ([]ArchiveCoverage, error) {
	cov := make(map[int]*Coverage)
	cov[dirArchiveIndex] = &Coverage{}
	cov[dirArchiveIndex].Add(0, uint64(p.IndexEnd))

	sizes, err := discoverArchiveSizes(p)
	if err != nil {
		return nil, err
	}
	for idx := range sizes {
		if _, ok := cov[idx]; !ok {
			cov[idx] = &Coverage{}
		}
	}

	walkCoverage(p.root, cov)

	indices := make([]int, 0, len(cov))
	for idx := range cov {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	reports := make([]ArchiveCoverage, 0, len(indices))
	for _, idx := range indices {
		var size uint64
		if idx == dirArchiveIndex {
			size = uint64(dirSize)
		} else {
			size = sizes[idx]
		}
		reports = append(reports, ArchiveCoverage{
			Index:      idx,
			SizeOnDisk: size,
			Covered:    cov[idx].Total(),
			Missing:    cov[idx].Invert(size),
		})
	}
	return reports, nil
}

// discoverArchiveSizes scans p.SourceDir for files matching
// "<name>_<digits>.vpk" and returns their on-disk sizes keyed by index.
func discoverArchiveSizes(p *Package) (map[int]uint64, error) {
	sizes := make(map[int]uint64)

	entries, err := os.ReadDir(p.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %w", ErrIO, p.SourceDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := archiveNamePattern.FindStringSubmatch(e.Name())
		if m == nil || !strings.EqualFold(m[1], p.Name) {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, e.Name(), err)
		}
		sizes[idx] = uint64(info.Size())
	}
	return sizes, nil
}

// walkCoverage accumulates (offset, size) into cov[archive_index] for
// every file leaf with a non-empty bulk part.
func walkCoverage(dir *Directory, cov map[int]*Coverage) {
	for _, child := range dir.Children() {
		switch c := child.(type) {
		case *Directory:
			walkCoverage(c, cov)
		case *File:
			if !c.HasBulk() {
				continue
			}
			idx := int(c.ArchiveIndex)
			if _, ok := cov[idx]; !ok {
				cov[idx] = &Coverage{}
			}
			cov[idx].Add(uint64(c.Offset), uint64(c.Size))
		}
	}
}

// archiveLabel renders an ArchiveCoverage's archive identity for
// reporting: the directory filename for the sentinel index, or the
// numbered archive path otherwise.
func (p *Package) archiveLabel(idx int) string {
	if idx == dirArchiveIndex {
		return filepath.Join(p.SourceDir, p.Name+dirSuffix)
	}
	return p.ArchivePath(uint16(idx))
}

// Report renders one ArchiveCoverage as the original's multi-line
// "File/Size/Covered/Missing/Missing Areas" block. Fully-covered archives
// render as an empty string, mirroring main.cpp:206's
// "if (missingSize == 0) continue" — a gap-free archive has nothing to
// report.
func (p *Package) Report(ac ArchiveCoverage, humanReadable bool) string {
	missing := ac.Missing.Total()
	if missing == 0 {
		return ""
	}

	var pct float64
	if ac.SizeOnDisk > 0 {
		pct = float64(ac.Covered) / float64(ac.SizeOnDisk) * 100
	}
	sizeStr := formatSize(ac.SizeOnDisk, humanReadable)
	coveredStr := formatSize(ac.Covered, humanReadable)
	missingStr := formatSize(missing, humanReadable)

	return fmt.Sprintf(
		"File: %s\nSize: %s\nCovered: %s (%.0f%%)\nMissing: %s\nMissing Areas:\n\t%s\n\n",
		p.archiveLabel(ac.Index), sizeStr, coveredStr, pct, missingStr, ac.Missing.Format(humanReadable),
	)
}

func formatSize(n uint64, humanReadable bool) string {
	return FormatSize(n, humanReadable)
}

// FormatSize renders a byte count either as a plain decimal integer or,
// when humanReadable is set, in base-1024 K/M/G with one decimal place
// (plain bytes with a "B" suffix below 1024). Shared by the coverage report and cmd/unvpk's --list table so both
// follow the same --human-readable convention.
func FormatSize(n uint64, humanReadable bool) string {
	if humanReadable {
		return humanSize(n)
	}
	return strconv.FormatUint(n, 10)
}

// DumpUncovered writes every missing slice of ac to
// destDir/<archive>_<offset>_<length>.<ext>, guessing each slice's
// extension by sniffing its first bytes via internal/magic. Implements
// the "--dump-uncovered" debugging feature from the original unvpk CLI.
// The directory file's own entry (dirArchiveIndex) is skipped.
func (p *Package) DumpUncovered(ac ArchiveCoverage, destDir string) error {
	if ac.Index == dirArchiveIndex || len(ac.Missing.Slices()) == 0 {
		return nil
	}

	src, err := os.Open(p.ArchivePath(uint16(ac.Index)))
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, p.ArchivePath(uint16(ac.Index)), err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrIO, destDir, err)
	}

	archiveBase := strings.TrimSuffix(filepath.Base(p.ArchivePath(uint16(ac.Index))), ".vpk")
	for _, span := range ac.Missing.Slices() {
		if err := dumpSlice(src, span, archiveBase, destDir); err != nil {
			return err
		}
	}
	return nil
}

func dumpSlice(src *os.File, span Span, archiveBase string, destDir string) error {
	head := make([]byte, magic.MaxSize)
	n, err := src.ReadAt(head, int64(span.Offset))
	if err != nil && n == 0 {
		return fmt.Errorf("%w: read slice at %d: %w", ErrIO, span.Offset, err)
	}
	ext := magic.ExtensionOf(head[:n])

	outPath := filepath.Join(destDir, fmt.Sprintf("%s_%d_%d.%s", archiveBase, span.Offset, span.Length, ext))
	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, outPath, err)
	}
	defer func() { _ = out.Close() }()

	sr := io.NewSectionReader(src, int64(span.Offset), int64(span.Length))
	if _, err := io.Copy(out, sr); err != nil {
		return fmt.Errorf("%w: dump %s: %w", ErrIO, outPath, err)
	}
	return nil
}
