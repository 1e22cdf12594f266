// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// LineFunc is called with each complete line, without the trailing newline.
type LineFunc func(line string)

// LineTeeReader wraps an io.Reader, keeps a copy of everything read and
// calls a LineFunc for every complete line. It is safe for concurrent use.
type LineTeeReader struct {
	reader  io.Reader
	onLine  LineFunc
	mu      sync.RWMutex
	full    bytes.Buffer
	limit   int
	dropped int64
	partial strings.Builder
	last    string
}

// maxPartial bounds how much unterminated output is held before it is flushed as a line.
const maxPartial = 64 * 1024

// New creates a LineTeeReader. onLine may be nil.
func New(r io.Reader, onLine LineFunc) *LineTeeReader {
	return &LineTeeReader{
		reader: r,
		onLine: onLine,
	}
}

// WithLimit caps the copy returned by Bytes at n bytes. Data beyond the cap is still
// read and split into lines but not retained. n <= 0 means no cap.
func (lt *LineTeeReader) WithLimit(n int) *LineTeeReader {
	lt.limit = n
	return lt
}

// Truncated reports whether data was dropped because of the limit.
func (lt *LineTeeReader) Truncated() bool {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.dropped > 0
}

// Read implements io.Reader.
func (lt *LineTeeReader) Read(p []byte) (int, error) {
	n, err := lt.reader.Read(p)
	if n > 0 {
		for _, line := range lt.consume(p[:n]) {
			if lt.onLine != nil {
				lt.onLine(line)
			}
		}
	}

	return n, err //nolint:wrapcheck
}

// consume records data and returns the lines it completed.
func (lt *LineTeeReader) consume(data []byte) []string {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	keep := data
	if lt.limit > 0 {
		room := max(lt.limit-lt.full.Len(), 0)
		if len(keep) > room {
			lt.dropped += int64(len(keep) - room)
			keep = keep[:room]
		}
	}

	lt.full.Write(keep)
	lt.partial.Write(data)

	pending := lt.partial.String()

	idx := strings.LastIndexByte(pending, '\n')
	if idx < 0 {
		if len(pending) < maxPartial {
			return nil
		}

		lt.last = strings.TrimSuffix(pending, "\r")
		lt.partial.Reset()

		return []string{lt.last}
	}

	lines := strings.Split(pending[:idx], "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	lt.last = lines[len(lines)-1]
	lt.partial.Reset()
	lt.partial.WriteString(pending[idx+1:])

	return lines
}

// LastLine returns the most recent complete line. If maxLength > 3 and the line is longer,
// it is truncated and suffixed with "...".
func (lt *LineTeeReader) LastLine(maxLength int) string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	if maxLength > 3 && len(lt.last) > maxLength {
		return lt.last[:maxLength-3] + "..."
	}

	return lt.last
}

// Partial returns any data read after the last newline.
func (lt *LineTeeReader) Partial() string {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return lt.partial.String()
}

// Bytes returns a copy of everything read so far.
func (lt *LineTeeReader) Bytes() []byte {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	return bytes.Clone(lt.full.Bytes())
}
