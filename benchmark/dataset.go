package benchmark

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"

	"storebench/config"
	"storebench/logging"
)

const (
	datasetRowSize = 1024
	rowsPerMB      = config.MB / datasetRowSize
)

// GenerateDataset writes sizeMB*1024 rows of 1023 random lowercase letters
// and a newline to path. An existing file of exactly the target size is kept
// and generated is false. Any other existing file is replaced.
func GenerateDataset(ctx context.Context, sizeMB int64, path string) (generated bool, err error) {
	logger := logging.Component("dataset")

	if sizeMB < 0 {
		return false, fmt.Errorf("%w: negative dataset size %d MB", ErrInvalidArgument, sizeMB)
	}
	if path == "" {
		return false, fmt.Errorf("%w: empty dataset path", ErrInvalidArgument)
	}
	target := uint64(sizeMB) * config.MB

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("%w: create directory: %w", ErrIO, err)
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular() && uint64(info.Size()) == target:
		logger.Info().Str("path", path).Int64("size_mb", sizeMB).Msg("dataset exists, skipping generation")
		return false, nil
	case err == nil:
		logger.Debug().Str("path", path).Int64("size", info.Size()).Msg("removing stale dataset")
		if err := os.Remove(path); err != nil {
			return false, fmt.Errorf("%w: remove stale dataset: %w", ErrIO, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("%w: stat dataset: %w", ErrIO, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return false, fmt.Errorf("%w: create dataset: %w", ErrIO, err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(path)
		}
	}()

	w := bufio.NewWriterSize(f, config.MB)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	row := make([]byte, datasetRowSize)
	row[datasetRowSize-1] = '\n'

	rows := sizeMB * rowsPerMB
	for i := int64(0); i < rows; i++ {
		if i%rowsPerMB == 0 {
			if err := ctx.Err(); err != nil {
				return false, fmt.Errorf("generate dataset: %w", err)
			}
		}
		fillLetters(rng, row[:datasetRowSize-1])
		if _, err := w.Write(row); err != nil {
			return false, fmt.Errorf("%w: write dataset: %w", ErrIO, err)
		}
	}

	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("%w: flush dataset: %w", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("%w: close dataset: %w", ErrIO, err)
	}

	logger.Info().Str("path", path).Int64("size_mb", sizeMB).Msg("dataset generated")
	return true, nil
}

// fillLetters draws 13 base-26 digits from each random word.
func fillLetters(rng *rand.Rand, dst []byte) {
	for i := 0; i < len(dst); {
		v := rng.Uint64()
		for j := 0; j < 13 && i < len(dst); j++ {
			dst[i] = 'a' + byte(v%26)
			v /= 26
			i++
		}
	}
}
