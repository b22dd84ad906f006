// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

// Package magic guesses a file extension from the first bytes of an
// unidentified byte range, for labeling coverage dumps whose origin is
// unknown by construction (they are, by definition, bytes no directory
// entry claims).
//
// Grounded on the signature table implied by Magic::extensionOf in the
// original unvpk sources: a short ordered list of fixed byte prefixes
// checked against common game-asset formats, falling back to a
// printable-text heuristic and finally "bin".
package magic

import "unicode/utf8"

type signature struct {
	prefix []byte
	ext    string
}

var signatures = []signature{
	{[]byte("\x89PNG\r\n\x1a\n"), "png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte("RIFF"), "wav"}, // also covers AVI; refined below
	{[]byte("OggS"), "ogg"},
	{[]byte("PK\x03\x04"), "zip"},
	{[]byte("DDS "), "dds"},
	{[]byte("ID3"), "mp3"},
	{[]byte{0xFF, 0xFB}, "mp3"},
	{[]byte("\x1aVBSP"), "bsp"},
	{[]byte("IDSP"), "mdl"},
}

// MaxSize is the number of leading bytes the caller should make available
// to ExtensionOf; longer signatures than this are not supported.
const MaxSize = 12

// ExtensionOf inspects the first bytes of an unidentified byte range and
// returns a best-guess file extension, or "bin" if nothing matches and the
// bytes do not look like printable text, or "txt" if they do.
func ExtensionOf(head []byte) string {
	for _, sig := range signatures {
		if hasPrefix(head, sig.prefix) {
			if sig.ext == "wav" && !hasWaveTag(head) {
				continue
			}
			return sig.ext
		}
	}
	if looksLikeText(head) {
		return "txt"
	}
	return "bin"
}

func hasPrefix(head, prefix []byte) bool {
	if len(head) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if head[i] != b {
			return false
		}
	}
	return true
}

// hasWaveTag distinguishes a RIFF/WAVE file from other RIFF-based
// containers (AVI, WebP) by checking the format tag at offset 8.
func hasWaveTag(head []byte) bool {
	return len(head) >= 12 && string(head[8:12]) == "WAVE"
}

// looksLikeText reports whether head decodes as valid, control-character-
// free UTF-8 (aside from common whitespace), a cheap heuristic for
// labeling text-like coverage dumps.
func looksLikeText(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size <= 1 {
			return false
		}
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
		head = head[size:]
	}
	return true
}
