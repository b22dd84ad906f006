// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"sort"
	"strings"
)

// Span is one half-open byte range [Offset, Offset+Length).
type Span struct {
	Offset uint64
	Length uint64
}

func (s Span) end() uint64 { return s.Offset + s.Length }

// Coverage is a sorted set of pairwise non-overlapping, non-adjacent
// half-open byte intervals within one archive. Adjacent or overlapping
// intervals are coalesced on insert.
//
// Grounded on the interval-set member of the original Coverage class
// referenced from unvpk/src/main.cpp's coverage() reporting function.
type Coverage struct {
	spans []Span
}

// Add inserts [offset, offset+length) into the set, coalescing with any
// interval it overlaps or abuts. A zero length is a no-op.
func (c *Coverage) Add(offset, length uint64) {
	if length == 0 {
		return
	}
	newSpan := Span{Offset: offset, Length: length}

	merged := make([]Span, 0, len(c.spans)+1)
	inserted := false
	for _, s := range c.spans {
		if newSpan.Offset > s.end() {
			merged = append(merged, s)
			continue
		}
		if s.Offset > newSpan.end() {
			if !inserted {
				merged = append(merged, newSpan)
				inserted = true
			}
			merged = append(merged, s)
			continue
		}
		// Overlaps or abuts newSpan: coalesce.
		lo := min(newSpan.Offset, s.Offset)
		hi := max(newSpan.end(), s.end())
		newSpan = Span{Offset: lo, Length: hi - lo}
	}
	if !inserted {
		merged = append(merged, newSpan)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Offset < merged[j].Offset })
	c.spans = merged
}

// Total returns the sum of every interval's length.
func (c *Coverage) Total() uint64 {
	var total uint64
	for _, s := range c.spans {
		total += s.Length
	}
	return total
}

// Invert returns the complement of c within [0, totalSize). Any interval
// extending past totalSize is clipped.
func (c *Coverage) Invert(totalSize uint64) Coverage {
	var out Coverage
	var cursor uint64
	for _, s := range c.spans {
		start := s.Offset
		if start > totalSize {
			start = totalSize
		}
		end := s.end()
		if end > totalSize {
			end = totalSize
		}
		if start > cursor {
			out.Add(cursor, start-cursor)
		}
		if end > cursor {
			cursor = end
		}
	}
	if cursor < totalSize {
		out.Add(cursor, totalSize-cursor)
	}
	return out
}

// Slices returns the intervals in ascending order. The returned slice
// must not be mutated by the caller.
func (c *Coverage) Slices() []Span {
	return c.spans
}

// Format renders the set as a comma-separated list of "offset:length"
// pairs, or, when humanReadable is set, "offset:length" with lengths
// rendered in base-1024 K/M/G with one decimal place (plain bytes with a
// "B" suffix below 1024).
func (c *Coverage) Format(humanReadable bool) string {
	parts := make([]string, len(c.spans))
	for i, s := range c.spans {
		if humanReadable {
			parts[i] = fmt.Sprintf("%d:%s", s.Offset, humanSize(s.Length))
		} else {
			parts[i] = fmt.Sprintf("%d:%d", s.Offset, s.Length)
		}
	}
	return strings.Join(parts, ",")
}

// humanSize renders n in base-1024 K/M/G with one decimal place, falling
// back to a plain byte count below 1024.
func humanSize(n uint64) string {
	const unit = 1024.0
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := unit, 0
	for v := float64(n) / unit; v >= unit && exp < 2; v /= unit {
		div *= unit
		exp++
	}
	suffix := [...]string{"K", "M", "G"}[exp]
	return fmt.Sprintf("%.1f%s", float64(n)/div, suffix)
}
