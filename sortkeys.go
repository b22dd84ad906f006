// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"sort"
	"strings"
)

// SortKey names one field of ListEntry to sort by, with an optional
// descending direction. Grounded on the -S/--sort option's key letters
// from the original unvpk CLI (a|archive, c|crc32, o|offset, s|size,
// n|name), each optionally prefixed with "-" for descending order.
type SortKey struct {
	Field      SortField
	Descending bool
}

// SortField enumerates the comparable fields of a ListEntry.
type SortField int

const (
	SortByName SortField = iota
	SortByArchive
	SortByCRC32
	SortByOffset
	SortBySize
)

// ParseSortKeys parses a comma-separated "-S" argument such as
// "archive,-size" into an ordered list of SortKeys. An implicit
// ascending-by-name tiebreaker is appended if the list does not already
// contain a name key, so that sort order is always fully deterministic.
func ParseSortKeys(spec string) ([]SortKey, error) {
	if strings.TrimSpace(spec) == "" {
		return []SortKey{{Field: SortByName}}, nil
	}

	var keys []SortKey
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		desc := false
		if strings.HasPrefix(tok, "-") {
			desc = true
			tok = tok[1:]
		}
		field, err := parseSortField(tok)
		if err != nil {
			return nil, err
		}
		keys = append(keys, SortKey{Field: field, Descending: desc})
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: empty sort key list", ErrFileFormat)
	}
	for _, k := range keys {
		if k.Field == SortByName {
			return keys, nil
		}
	}
	keys = append(keys, SortKey{Field: SortByName})
	return keys, nil
}

func parseSortField(tok string) (SortField, error) {
	switch tok {
	case "a", "archive":
		return SortByArchive, nil
	case "c", "crc32":
		return SortByCRC32, nil
	case "o", "offset":
		return SortByOffset, nil
	case "s", "size":
		return SortBySize, nil
	case "n", "name":
		return SortByName, nil
	default:
		return 0, fmt.Errorf("%w: unknown sort key %q", ErrFileFormat, tok)
	}
}

// SortEntries sorts entries in place according to keys, applied in order
// as successive tiebreakers.
func SortEntries(entries []ListEntry, keys []SortKey) {
	sort.SliceStable(entries, func(i, j int) bool {
		for _, k := range keys {
			c := compareEntries(entries[i], entries[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareEntries(a, b ListEntry, field SortField) int {
	switch field {
	case SortByArchive:
		return compareUint16(a.File.ArchiveIndex, b.File.ArchiveIndex)
	case SortByCRC32:
		return compareUint32(a.File.CRC32, b.File.CRC32)
	case SortByOffset:
		return compareUint32(a.File.Offset, b.File.Offset)
	case SortBySize:
		return compareUint32(a.File.Size, b.File.Size)
	default:
		return strings.Compare(a.Path, b.Path)
	}
}

func compareUint16(a, b uint16) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
