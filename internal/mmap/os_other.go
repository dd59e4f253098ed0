//go:build !unix

package mmap

import "os"

// Fallback for platforms without mmap support: read the file into memory.
func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, nil, err
	}
	return data, func([]byte) error { return nil }, nil
}

func osAdvise(_ []byte, _ AccessPattern) error {
	return nil
}
