// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

package vpk

import "strings"

// splitPath splits a logical "/"-separated path into its components.
// A leading or trailing "/" is ignored; an empty path yields no components.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// joinPath joins path components back into a logical "/"-separated path.
func joinPath(parts []string) string {
	return strings.Join(parts, "/")
}

// safeRelPath validates a logical entry path for use as a filesystem
// destination relative to an extraction root: it must be non-empty and
// must not contain "." or ".." components, which would let a malformed
// or adversarial directory entry escape the destination directory.
func safeRelPath(p string) (string, bool) {
	parts := splitPath(p)
	if len(parts) == 0 {
		return "", false
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", false
		}
	}
	return joinPath(parts), true
}
