// Package codec packs variable-length byte strings into a fixed square
// integer matrix suitable for a SimplePIR database, and decodes rows back
// into strings.
//
// Each row holds a deflate-compressed string preceded by a one-cell length
// header; rows beyond the input count are left zero and decode to the
// empty string.
package codec

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"math"

	"github.com/exo-explore/private-search/internal/matrix"
)

func compress(s string) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("codec: creating compressor: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return nil, fmt.Errorf("codec: compressing string: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: flushing compressor: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(b []byte) (string, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("codec: decompressing row: %w", err)
	}
	return string(out), nil
}

// StringsToMatrix packs ss into an m-by-m matrix, one row per string plus
// zero-padding. Each row holds the compressed length in its first cell,
// then the compressed bytes one per cell, each in [0, 256). An empty string
// is stored as a zero length header with no payload. m is
// ceil(sqrt(n*width)), raised to the widest row's width and to the number
// of strings where either is larger, so every row fits.
func StringsToMatrix(ss []string) (*matrix.Matrix, error) {
	compressed := make([][]byte, len(ss))
	var maxLen int
	for i, s := range ss {
		if s == "" {
			continue
		}
		c, err := compress(s)
		if err != nil {
			return nil, err
		}
		compressed[i] = c
		if len(c) > maxLen {
			maxLen = len(c)
		}
	}

	width := uint64(maxLen + 1)
	n := uint64(len(ss))
	m := uint64(math.Ceil(math.Sqrt(float64(n) * float64(width))))
	if m < width {
		m = width
	}
	if m < n {
		m = n
	}

	db := matrix.New(m, m)
	for i, c := range compressed {
		row := make([]uint64, m)
		row[0] = uint64(len(c))
		for j, b := range c {
			row[j+1] = uint64(b)
		}
		db.SetRow(uint64(i), row)
	}
	return db, nil
}

// MatrixToStrings decodes the first n rows of db back into strings. Rows
// with a zero length header decode to the empty string.
func MatrixToStrings(db *matrix.Matrix, n uint64) ([]string, error) {
	out := make([]string, n)
	for i := uint64(0); i < n; i++ {
		s, err := decodeRow(db, i)
		if err != nil {
			return nil, fmt.Errorf("codec: decoding row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// DecodeRow decodes a single row of db, for callers (e.g. client sessions)
// that retrieved exactly one row via PIR rather than the whole matrix.
func DecodeRow(db *matrix.Matrix, i uint64) (string, error) {
	s, err := decodeRow(db, i)
	if err != nil {
		return "", fmt.Errorf("codec: decoding row %d: %w", i, err)
	}
	return s, nil
}

func decodeRow(db *matrix.Matrix, i uint64) (string, error) {
	row := db.Row(i)
	length := row[0]
	if length == 0 {
		return "", nil
	}
	if length+1 > uint64(len(row)) {
		return "", fmt.Errorf("codec: row %d declares length %d exceeding row width %d", i, length, len(row))
	}
	raw := make([]byte, length)
	for j := range raw {
		raw[j] = byte(row[j+1])
	}
	return decompress(raw)
}
