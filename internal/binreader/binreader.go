// SPDX-License-Identifier: MIT
// Copyright (c) 2026 go-vpk
// Source: github.com/go-vpk/vpk

// Package binreader provides a small positioned little-endian decoder over
// a seekable byte source. It is the lowest layer of the vpk module: the
// directory parser reads every primitive value of the VPK directory format
// through a Reader.
package binreader

import (
	"errors"
	"fmt"
	"io"
)

// ErrShortRead means fewer bytes were available than requested.
var ErrShortRead = errors.New("binreader: short read")

// ErrClosed means an operation was attempted on a closed Reader.
var ErrClosed = errors.New("binreader: reader is closed")

// ErrIO wraps an underlying I/O failure from the source stream.
var ErrIO = errors.New("binreader: io error")

// Reader decodes little-endian primitives from an io.ReadSeeker.
//
// A Reader has a distinguished closed state: once Close is called, every
// method returns ErrClosed. Close is idempotent.
type Reader struct {
	src    io.ReadSeeker
	closed bool
	// scratch avoids a fresh allocation per ReadU16LE/ReadU32LE call.
	scratch [4]byte
}

// New wraps src in a Reader.
func New(src io.ReadSeeker) *Reader {
	return &Reader{src: src}
}

// Close marks the reader closed. It does not close the underlying source;
// callers that own the source (e.g. an *os.File) close it themselves.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}

// ReadU16LE reads a little-endian uint16.
func (r *Reader) ReadU16LE() (uint16, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if _, err := r.readFull(r.scratch[:2]); err != nil {
		return 0, err
	}
	return uint16(r.scratch[0]) | uint16(r.scratch[1])<<8, nil
}

// ReadU32LE reads a little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if _, err := r.readFull(r.scratch[:4]); err != nil {
		return 0, err
	}
	return uint32(r.scratch[0]) | uint32(r.scratch[1])<<8 |
		uint32(r.scratch[2])<<16 | uint32(r.scratch[3])<<24, nil
}

// ReadASCIIZ reads bytes up to and including the first 0x00 byte and
// returns the bytes preceding it. An empty result is legal both when the
// terminator is the very next byte and when the source is already at
// EOF — both signal "end of list" per the directory format's nested-loop
// termination convention, mirroring the C++ source's "while (is.good())"
// loop guard rather than treating end-of-stream there as an error.
// Hitting EOF after collecting some bytes but before a terminator is a
// genuinely truncated file and remains ErrShortRead.
func (r *Reader) ReadASCIIZ() (string, error) {
	if r.closed {
		return "", ErrClosed
	}

	var out []byte
	var one [1]byte
	for {
		n, err := r.src.Read(one[:])
		if n == 0 {
			if err == nil || err == io.EOF {
				if len(out) == 0 {
					return "", nil
				}
				return "", fmt.Errorf("%w: unterminated string", ErrShortRead)
			}
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}
		if one[0] == 0 {
			return string(out), nil
		}
		out = append(out, one[0])
	}
}

// ReadExact reads exactly n bytes.
func (r *Reader) ReadExact(n int) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	buf := make([]byte, n)
	if _, err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Seek repositions the stream.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if r.closed {
		return 0, ErrClosed
	}
	pos, err := r.src.Seek(offset, whence)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return pos, nil
}

// Tell returns the current stream position.
func (r *Reader) Tell() (int64, error) {
	return r.Seek(0, io.SeekCurrent)
}

// readFull fills buf completely or returns ErrShortRead/ErrIO.
func (r *Reader) readFull(buf []byte) (int, error) {
	n, err := io.ReadFull(r.src, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return n, fmt.Errorf("%w: wanted %d bytes, got %d", ErrShortRead, len(buf), n)
		}
		return n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return n, nil
}
