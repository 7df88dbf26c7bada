package internal

import (
	"fmt"
	"io"
	"os"
)

// WriteReadCloserToFile streams rc into a file at path and returns the byte
// count. rc is always closed. The copy is chunked by io.Copy, so memory stays
// bounded regardless of the source size.
func WriteReadCloserToFile(rc io.ReadCloser, path string) (int64, error) {
	defer rc.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file[%s]: %w", path, err)
	}

	n, err := io.Copy(file, rc)
	if err != nil {
		file.Close()
		return n, fmt.Errorf("failed to write file[%s]: %w", path, err)
	}

	return n, file.Close()
}

// MoveFile renames src to dst, falling back to copy-and-remove when the two
// paths live on different filesystems.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open file[%s]: %w", src, err)
	}

	if _, err = WriteReadCloserToFile(in, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
