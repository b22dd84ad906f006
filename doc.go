// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

/*
Package vpk reads Valve Pak (VPK) game archives: the directory format
written by Source-engine tools as "<name>_dir.vpk", optionally split
across companion numbered archives "<name>_NNN.vpk" holding the bulk of
each entry's bytes.

# Opening

Open a directory file and inspect its tree:

	pkg, err := vpk.Open("pak01_dir.vpk", nil)
	if err != nil {
	    return err
	}
	for _, e := range pkg.Entries() {
	    fmt.Println(e.Path, e.File.LogicalSize())
	}

Pass a Handler to Open to receive a report instead of an error when the
directory filename does not end in "_dir.vpk":

	h := vpk.NewConsoleHandler(os.Stdout, nil, false, nil)
	pkg, err := vpk.Open("pak01.vpk", h)

# Filtering

Restrict the tree to one or more subtrees before walking it. Filter is
destructive: later operations only see the pruned tree.

	missing := pkg.Filter([]string{"scripts", "models/player.mdl"})
	for _, m := range missing {
	    fmt.Fprintln(os.Stderr, "not found:", m)
	}

# Extracting and checking

Walk drives the shared extraction/verification engine; Extract and Check
are its two built-in instantiations:

	if err := pkg.Extract(ctx, h, "out/", false); err != nil {
	    return err
	}
	if err := pkg.Check(ctx, h); err != nil {
	    return err
	}

A split entry (one with both a non-empty preload and a bulk part) is
extracted to two artifacts: the logical path holding the bulk bytes, and
"<path>.smalldata" holding the preload bytes, mirroring the reference
tool's debugging behavior.

# Coverage analysis

AnalyzeCoverage reports which byte ranges of each numbered archive (and
the directory file itself) are referenced by the tree, for spotting
padding, alignment gaps, or truncated archives:

	info, _ := os.Stat("pak01_dir.vpk")
	reports, err := pkg.AnalyzeCoverage(info.Size())
	if err != nil {
	    return err
	}
	for _, ac := range reports {
	    fmt.Print(pkg.Report(ac, true))
	}

# Mounting

The internal/vpkfs package exposes a parsed Package as a read-only FUSE
filesystem via github.com/hanwen/go-fuse/v2, reachable through
cmd/unvpk's --mount flag; see that command for a complete example.
*/
package vpk
