// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Handler is the progress/error callback collaborator a caller installs on
// a Walk. Each of the three error methods returns true to propagate the
// error and abort the walk, or false to continue with the next entry
// ("stop-on-error" switch).
//
// Grounded on the capability-set surface described by the original
// Vpk::Handler hierarchy (begin/end/extract/success/direrror/fileerror/
// archiveerror) — modeled here as a plain interface rather than virtual
// dispatch, with the "which callback" decision made explicit at each call
// site instead of through a member-function-pointer table.
type Handler interface {
	Begin(fileCount int)
	End()
	Extract(path string)
	Success(path string)
	DirError(err error, path string) bool
	FileError(err error, path string) bool
	ArchiveError(err error, path string) bool
}

// ConsoleHandler is the reference Handler implementation used by cmd/unvpk.
// It tracks success/failure counts, optionally filters Extract/Success
// messages to a whitelist of paths, prints plain progress lines to Out,
// and emits the same events as structured zap records for machine
// consumption.
//
// Grounded on ConsoleHandler/FilterHandler in
// original_source/include/vpk/console_handler.h: a "raise" default for the
// stop-on-error switch, a running success/fail tally, and suppression of
// extract/success chatter for paths outside an active filter.
type ConsoleHandler struct {
	// Out receives plain-text progress lines. Defaults to io.Discard.
	Out io.Writer
	// Log receives structured records. Defaults to zap.NewNop().
	Log *zap.Logger
	// Raise is the default stop-on-error value for all three error kinds.
	Raise bool
	// Filter, when non-empty, restricts Extract/Success chatter to paths
	// that are at or below one of these prefixes.
	Filter []string

	successCount int
	failCount    int
	fileCount    int
}

// NewConsoleHandler creates a ConsoleHandler writing plain text to out and
// structured records to log. A nil log installs a no-op logger.
func NewConsoleHandler(out io.Writer, log *zap.Logger, raise bool, filter []string) *ConsoleHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &ConsoleHandler{Out: out, Log: log, Raise: raise, Filter: filter}
}

// Begin records the total file count for progress reporting.
func (h *ConsoleHandler) Begin(fileCount int) {
	h.fileCount = fileCount
	h.Log.Info("walk begin", zap.Int("file_count", fileCount))
}

// End logs the final tally.
func (h *ConsoleHandler) End() {
	h.Log.Info("walk end",
		zap.Int("success", h.successCount),
		zap.Int("fail", h.failCount),
		zap.Int("total", h.fileCount),
	)
}

// Extract announces that path is about to be processed.
func (h *ConsoleHandler) Extract(path string) {
	if !h.included(path) {
		return
	}
	fmt.Fprintf(h.Out, "extract %s\n", path)
	h.Log.Debug("extract", zap.String("path", path))
}

// Success announces that path finished without error.
func (h *ConsoleHandler) Success(path string) {
	h.successCount++
	if !h.included(path) {
		return
	}
	h.Log.Debug("success", zap.String("path", path))
}

// DirError reports an error attributed to a directory path.
func (h *ConsoleHandler) DirError(err error, path string) bool {
	h.failCount++
	fmt.Fprintf(h.Out, "*** dir error: %s: %v\n", path, err)
	h.Log.Error("dir error", zap.String("path", path), zap.Error(err))
	return h.Raise
}

// FileError reports a per-entry failure (bad checksum, failed Process,
// failed Finish, or a missing data-handler construction).
func (h *ConsoleHandler) FileError(err error, path string) bool {
	h.failCount++
	fmt.Fprintf(h.Out, "*** file error: %s: %v\n", path, err)
	h.Log.Error("file error", zap.String("path", path), zap.Error(err))
	return h.Raise
}

// ArchiveError reports a missing/unreadable numbered data archive, or a
// directory-filename-suffix mismatch at open time.
func (h *ConsoleHandler) ArchiveError(err error, path string) bool {
	h.failCount++
	fmt.Fprintf(h.Out, "*** archive error: %s: %v\n", path, err)
	h.Log.Error("archive error", zap.String("path", path), zap.Error(err))
	return h.Raise
}

// SuccessCount returns the number of entries that completed without error.
func (h *ConsoleHandler) SuccessCount() int { return h.successCount }

// FailCount returns the number of error callbacks received (DirError,
// FileError and ArchiveError), whatever the stop-on-error decision was.
func (h *ConsoleHandler) FailCount() int { return h.failCount }

// included reports whether path should be reported, given the handler's
// filter whitelist. An empty filter means "report everything".
func (h *ConsoleHandler) included(path string) bool {
	if len(h.Filter) == 0 {
		return true
	}
	for _, prefix := range h.Filter {
		if path == prefix || (len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/') {
			return true
		}
	}
	return false
}
