// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import "testing"

func TestFilterKeepsOnlyReachableSubtrees(t *testing.T) {
	p := buildTestTree(t)

	missing := p.Filter([]string{"a/b/c.txt", "e"})
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}

	if p.Get("a/b/c.txt") == nil {
		t.Fatal("expected a/b/c.txt to survive")
	}
	if p.Get("a/b/d.txt") != nil {
		t.Fatal("expected a/b/d.txt to be pruned")
	}
	if p.Get("e/f.txt") == nil {
		t.Fatal("expected e/f.txt to survive (kept via its parent directory e)")
	}
}

func TestFilterReportsMissingPaths(t *testing.T) {
	p := buildTestTree(t)

	missing := p.Filter([]string{"a/b/c.txt", "nope/nothing"})
	if len(missing) != 1 || missing[0] != "nope/nothing" {
		t.Fatalf("missing = %v, want [nope/nothing]", missing)
	}
}

func TestFilterPrunesEmptyDirectories(t *testing.T) {
	p := buildTestTree(t)

	p.Filter([]string{"e/f.txt"})

	root := p.Root()
	if root.Child("a") != nil {
		t.Fatal("expected directory a to be pruned once empty")
	}
	if root.Child("e") == nil {
		t.Fatal("expected directory e to survive")
	}
}

func TestFilterWithNoPathsPrunesEverything(t *testing.T) {
	p := buildTestTree(t)

	missing := p.Filter(nil)
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	if len(p.Root().Children()) != 0 {
		t.Fatal("expected an empty tree when Filter is given no paths")
	}
}
