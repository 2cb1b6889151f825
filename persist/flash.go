package persist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Flash is one erasable block of non-volatile memory. EraseAndWrite blocks
// until the whole page is programmed.
type Flash interface {
	Load() ([]byte, error)
	EraseAndWrite(data []byte) error
}

var ErrTooLarge = errors.New("data exceeds flash page")

func erasedPage(size int) []byte {
	return bytes.Repeat([]byte{0xFF}, size)
}

// FileFlash emulates a flash page with a file. A missing file reads as an
// erased page.
type FileFlash struct {
	path     string
	pageSize int
}

func NewFileFlash(path string, pageSize int) *FileFlash {
	return &FileFlash{path: path, pageSize: pageSize}
}

func (f *FileFlash) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return erasedPage(f.pageSize), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flash file %s: %w", f.path, err)
	}
	return data, nil
}

// EraseAndWrite replaces the file atomically so a crash never leaves a half
// written page behind.
func (f *FileFlash) EraseAndWrite(data []byte) error {
	if len(data) > f.pageSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), f.pageSize)
	}
	page := erasedPage(f.pageSize)
	copy(page, data)

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create flash directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create flash file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(page); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write flash file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync flash file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close flash file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace flash file: %w", err)
	}
	return nil
}

// MemFlash keeps the page in memory. Fail, when set, is returned by the next
// writes instead of programming the page.
type MemFlash struct {
	Page   []byte
	Writes int
	Fail   error
}

func NewMemFlash(pageSize int) *MemFlash {
	return &MemFlash{Page: erasedPage(pageSize)}
}

func (m *MemFlash) Load() ([]byte, error) {
	return bytes.Clone(m.Page), nil
}

func (m *MemFlash) EraseAndWrite(data []byte) error {
	if m.Fail != nil {
		return m.Fail
	}
	if len(data) > len(m.Page) {
		return fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), len(m.Page))
	}
	m.Page = erasedPage(len(m.Page))
	copy(m.Page, data)
	m.Writes++
	return nil
}
