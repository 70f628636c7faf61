// Package mmap maps whole files read-only so loaders can parse them without
// copying them into the heap first.
package mmap

import (
	"bytes"
	"fmt"
	"os"
)

// File is a read-only view of a file's contents.
type File struct {
	data   []byte
	mapped bool
}

// Open maps path into memory. Empty files, and platforms without mmap, fall
// back to reading the file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := stat.Size()
	if size == 0 {
		return &File{data: []byte{}}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("file is too large to map: %d bytes", size)
	}

	data, mapped, err := mapFile(f, int(size))
	if err != nil {
		return nil, err
	}
	return &File{data: data, mapped: mapped}, nil
}

// Bytes returns the file contents. They are invalid after Close.
func (f *File) Bytes() []byte {
	return f.data
}

// Len returns the file size.
func (f *File) Len() int {
	return len(f.data)
}

// Reader returns a reader over the contents, also usable as io.ReaderAt.
func (f *File) Reader() *bytes.Reader {
	return bytes.NewReader(f.data)
}

// Mapped reports whether the contents are backed by a mapping.
func (f *File) Mapped() bool {
	return f.mapped
}

// Close releases the mapping. It is safe to call more than once.
func (f *File) Close() error {
	data, mapped := f.data, f.mapped
	f.data, f.mapped = nil, false
	if !mapped {
		return nil
	}
	return unmap(data)
}
