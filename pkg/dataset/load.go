package dataset

import (
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/modelperf/pkg/compression"
	"github.com/ajitpratap0/modelperf/pkg/mmap"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Format is the on-disk encoding of a pool file.
type Format string

const (
	// FormatDSV is delimiter-separated text
	FormatDSV Format = "dsv"
	// FormatArrow is an Arrow IPC file
	FormatArrow Format = "arrow"
)

// DetectFormat picks the pool format from the path, ignoring any compression
// extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(compression.TrimExtension(path))) {
	case ".arrow", ".feather", ".ipc":
		return FormatArrow
	default:
		return FormatDSV
	}
}

// Load reads a pool file in the format implied by its extension.
func Load(path string, cd *ColumnsDescription, opts LoadOptions) (*Pool, error) {
	if DetectFormat(path) == FormatArrow && compression.Detect(path) == compression.None {
		return loadMappedArrow(path, cd)
	}

	rc, err := compression.Open(path)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to open pool").
			WithDetail("path", path)
	}
	defer rc.Close()

	var pool *Pool
	switch DetectFormat(path) {
	case FormatArrow:
		pool, err = ReadArrow(rc, cd)
	default:
		pool, err = ReadDSV(rc, cd, opts)
	}
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// loadMappedArrow reads an uncompressed Arrow file through a read-only
// mapping. The pool copies every value, so the mapping is released on return.
func loadMappedArrow(path string, cd *ColumnsDescription) (*Pool, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to open pool").
			WithDetail("path", path)
	}
	defer f.Close()

	return ReadArrowAt(f.Reader(), cd)
}
