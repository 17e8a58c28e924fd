package store

import (
	"fmt"
	"io"
	"os"
)

func fileSize(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("stat %s: is a directory", path)
	}
	return uint64(info.Size()), nil
}

// byteRange formats an inclusive HTTP Range header value.
func byteRange(offset, length uint64) string {
	return fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// countingFile reports bytes handed to an uploader that reads the file
// through ReadAt from several goroutines at once.
type countingFile struct {
	f       *os.File
	tracker *progressTracker
}

func (c *countingFile) Read(p []byte) (int, error) {
	n, err := c.f.Read(p)
	c.count(n)
	return n, err
}

func (c *countingFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.f.ReadAt(p, off)
	c.count(n)
	return n, err
}

func (c *countingFile) Seek(offset int64, whence int) (int64, error) {
	return c.f.Seek(offset, whence)
}

func (c *countingFile) count(n int) {
	if n <= 0 {
		return
	}
	c.tracker.add(uint64(n))
}
