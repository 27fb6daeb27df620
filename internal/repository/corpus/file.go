package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
)

// Format is an embeddings file encoding.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatFromPath picks the format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported embeddings file %q (want .csv or .parquet)", path)
	}
}

// Load reads a corpus file, choosing the decoder by extension.
func Load(path string) (domcorpus.Corpus, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domcorpus.Corpus{}, err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var c domcorpus.Corpus
	switch format {
	case FormatParquet:
		stat, err := f.Stat()
		if err != nil {
			return domcorpus.Corpus{}, fmt.Errorf("stat %s: %w", path, err)
		}
		c, err = LoadParquet(f, stat.Size())
		if err != nil {
			return domcorpus.Corpus{}, fmt.Errorf("load %s: %w", path, err)
		}
	default:
		c, err = LoadCSV(f)
		if err != nil {
			return domcorpus.Corpus{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return c, nil
}

// Save writes a corpus file, choosing the encoder by extension.
func Save(path string, c domcorpus.Corpus) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if format == FormatParquet {
		return WriteParquet(f, c)
	}
	return WriteCSV(f, c)
}
