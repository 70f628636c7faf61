// Package compression provides transparent decompression of harness input
// files (datasets, column descriptions and models).
//
// The algorithm is chosen from the file extension:
//
//	pool.tsv       -> None
//	pool.tsv.gz    -> Gzip
//	pool.tsv.zst   -> Zstd
//	model.json.lz4 -> LZ4
//	pool.arrow.s2  -> S2
//
// Example:
//
//	rc, err := compression.Open("train.tsv.zst")
//	if err != nil {
//	    return err
//	}
//	defer rc.Close()
package compression

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None means the stream is read as-is
	None Algorithm = "none"
	// Gzip compression
	Gzip Algorithm = "gzip"
	// LZ4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd compression
	Zstd Algorithm = "zstd"
	// S2 stream compression (Snappy compatible)
	S2 Algorithm = "s2"
)

var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".lz4":  LZ4,
	".zst":  Zstd,
	".zstd": Zstd,
	".s2":   S2,
	".sz":   S2,
}

// Detect returns the algorithm implied by the file extension.
func Detect(path string) Algorithm {
	if alg, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return alg
	}
	return None
}

// TrimExtension strips a compression extension, so callers can inspect the
// underlying format ("pool.arrow.zst" -> "pool.arrow").
func TrimExtension(path string) string {
	if Detect(path) == None {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// NewReader wraps r with a decompressor for alg.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// NewWriter wraps w with a compressor for alg. Closing the returned writer
// flushes the compressor but does not close w.
func NewWriter(w io.Writer, alg Algorithm) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, nil
	case S2:
		return s2.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", alg)
	}
}

// Open opens path and decompresses it according to its extension. Closing the
// returned reader closes the file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // G304: input paths come from the run configuration
	if err != nil {
		return nil, err
	}

	rc, err := NewReader(f, Detect(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &fileReadCloser{ReadCloser: rc, file: f}, nil
}

type fileReadCloser struct {
	io.ReadCloser
	file *os.File
}

func (f *fileReadCloser) Close() error {
	err := f.ReadCloser.Close()
	if cerr := f.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
