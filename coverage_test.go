// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import "testing"

func spansEqual(a, b []Span) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCoverageAddCoalescesOverlapping(t *testing.T) {
	var c Coverage
	c.Add(0, 10)
	c.Add(5, 10)

	want := []Span{{Offset: 0, Length: 15}}
	if !spansEqual(c.Slices(), want) {
		t.Fatalf("Slices = %v, want %v", c.Slices(), want)
	}
}

func TestCoverageAddCoalescesAdjacent(t *testing.T) {
	var c Coverage
	c.Add(0, 10)
	c.Add(10, 5)

	want := []Span{{Offset: 0, Length: 15}}
	if !spansEqual(c.Slices(), want) {
		t.Fatalf("Slices = %v, want %v", c.Slices(), want)
	}
}

func TestCoverageAddKeepsDisjointIntervalsSeparate(t *testing.T) {
	var c Coverage
	c.Add(100, 50)
	c.Add(0, 10)

	want := []Span{{Offset: 0, Length: 10}, {Offset: 100, Length: 50}}
	if !spansEqual(c.Slices(), want) {
		t.Fatalf("Slices = %v, want %v", c.Slices(), want)
	}
}

func TestCoverageAddIgnoresZeroLength(t *testing.T) {
	var c Coverage
	c.Add(5, 0)
	if len(c.Slices()) != 0 {
		t.Fatalf("Slices = %v, want empty", c.Slices())
	}
}

func TestCoverageTotal(t *testing.T) {
	var c Coverage
	c.Add(0, 10)
	c.Add(100, 50)
	if got := c.Total(); got != 60 {
		t.Fatalf("Total = %d, want 60", got)
	}
}

// TestCoverageInvertMatchesSizedExample reproduces the numeric coverage
// scenario: a directory file of size 64 and one entry at archive 0, offset
// 100, size 50, against an on-disk archive file of size 200. The missing
// area inverts to [0,100) and [150,200), for 150 missing bytes and 50
// covered.
func TestCoverageInvertMatchesSizedExample(t *testing.T) {
	var covered Coverage
	covered.Add(100, 50)

	if got := covered.Total(); got != 50 {
		t.Fatalf("covered Total = %d, want 50", got)
	}

	missing := covered.Invert(200)
	want := []Span{{Offset: 0, Length: 100}, {Offset: 150, Length: 50}}
	if !spansEqual(missing.Slices(), want) {
		t.Fatalf("Invert Slices = %v, want %v", missing.Slices(), want)
	}
	if got := missing.Total(); got != 150 {
		t.Fatalf("missing Total = %d, want 150", got)
	}
}

func TestCoverageInvertOfEmptyCoverageIsWholeRange(t *testing.T) {
	var c Coverage
	missing := c.Invert(64)
	want := []Span{{Offset: 0, Length: 64}}
	if !spansEqual(missing.Slices(), want) {
		t.Fatalf("Invert Slices = %v, want %v", missing.Slices(), want)
	}
}

func TestCoverageInvertOfFullCoverageIsEmpty(t *testing.T) {
	var c Coverage
	c.Add(0, 64)
	missing := c.Invert(64)
	if len(missing.Slices()) != 0 {
		t.Fatalf("Invert Slices = %v, want empty", missing.Slices())
	}
}

func TestCoverageInvertClipsIntervalPastTotalSize(t *testing.T) {
	var c Coverage
	c.Add(10, 100)
	missing := c.Invert(50)
	want := []Span{{Offset: 0, Length: 10}}
	if !spansEqual(missing.Slices(), want) {
		t.Fatalf("Invert Slices = %v, want %v", missing.Slices(), want)
	}
}

func TestCoverageFormatPlain(t *testing.T) {
	var c Coverage
	c.Add(0, 100)
	c.Add(200, 50)
	if got, want := c.Format(false), "0:100,200:50"; got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestCoverageFormatHumanReadable(t *testing.T) {
	var c Coverage
	c.Add(0, 1024)
	if got, want := c.Format(true), "0:1.0K"; got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}
