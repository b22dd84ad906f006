// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

// Filter prunes the tree to only the subtrees reachable from paths. It
// returns the subset of paths for which Get found no node ("misses").
//
// A directory explicitly named in paths is preserved with all of its
// descendants regardless of whether those descendants are themselves
// reachable from paths. Filtering is non-recoverable: subsequent
// operations (Walk, Entries, coverage analysis) see only the pruned tree.
//
// Grounded on Vpk::Package::filter and the free function filter(Nodes&,
// set<Node*>&) in the original C++ implementation: collect the set of
// nodes hit by Get, then post-order remove anything not in that set
// (directories only when they become empty after recursing).
func (p *Package) Filter(paths []string) (missing []string) {
	keep := make(map[Node]struct{}, len(paths))
	for _, path := range paths {
		node := p.Get(path)
		if node == nil {
			missing = append(missing, path)
			continue
		}
		keep[node] = struct{}{}
	}

	filterDir(p.root, keep)
	return missing
}

// filterDir removes, from dir's children, every file not in keep and every
// directory not in keep whose children became empty after recursing.
func filterDir(dir *Directory, keep map[Node]struct{}) {
	var erase []string
	for name, child := range dir.children {
		if _, kept := keep[child]; kept {
			continue
		}

		switch c := child.(type) {
		case *Directory:
			filterDir(c, keep)
			if len(c.children) == 0 {
				erase = append(erase, name)
			}
		case *File:
			erase = append(erase, name)
		}
	}

	for _, name := range erase {
		delete(dir.children, name)
	}
}
