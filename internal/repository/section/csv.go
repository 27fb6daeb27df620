// Package section loads and stores the text records behind ranked sections.
package section

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kailas-cloud/askctx/internal/domain"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
)

// Required CSV columns. Extra columns are ignored.
const (
	colTitle   = "title"
	colHeading = "heading"
	colContent = "content"
	colTokens  = "tokens"
)

// ReadCSV reads section records from CSV with columns title, heading, content and tokens.
// Records keep file order.
func ReadCSV(r io.Reader) ([]domsection.Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty sections file", domain.ErrMalformedCorpus)
		}
		return nil, fmt.Errorf("%w: read header: %w", domain.ErrMalformedCorpus, err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{colTitle, colHeading, colContent, colTokens} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", domain.ErrMalformedCorpus, col)
		}
	}

	var records []domsection.Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrMalformedCorpus, line, err)
		}

		tokens, err := strconv.Atoi(strings.TrimSpace(row[idx[colTokens]]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d tokens: %w", domain.ErrMalformedCorpus, line, err)
		}
		rec, err := domsection.NewRecord(
			domsection.Key{Title: row[idx[colTitle]], Heading: row[idx[colHeading]]},
			row[idx[colContent]],
			tokens,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrMalformedCorpus, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadCSV reads a sections file and indexes it by key.
func LoadCSV(path string) (domsection.Records, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return domsection.Records{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	list, err := ReadCSV(f)
	if err != nil {
		return domsection.Records{}, fmt.Errorf("load %s: %w", path, err)
	}
	records, err := domsection.NewRecords(list)
	if err != nil {
		return domsection.Records{}, fmt.Errorf("load %s: %w", path, err)
	}
	return records, nil
}
