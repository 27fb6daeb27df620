// Package corpus reads and writes document embedding files.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

const (
	colTitle   = "title"
	colHeading = "heading"
)

// csvLayout maps header positions to key fields and vector components.
type csvLayout struct {
	title   int
	heading int
	dims    []int // dims[i] is the column holding component i
}

// parseHeader expects "title", "heading" and integer columns "0".."N-1" in any order.
// The vector length is the largest integer column name plus one.
func parseHeader(header []string) (csvLayout, error) {
	l := csvLayout{title: -1, heading: -1}
	byDim := map[int]int{}
	maxDim := -1

	for i, name := range header {
		switch name {
		case colTitle:
			l.title = i
		case colHeading:
			l.heading = i
		default:
			d, err := strconv.Atoi(name)
			if err != nil || d < 0 {
				return csvLayout{}, fmt.Errorf("%w: unexpected column %q", domain.ErrMalformedCorpus, name)
			}
			byDim[d] = i
			maxDim = max(maxDim, d)
		}
	}

	if l.title < 0 || l.heading < 0 {
		return csvLayout{}, fmt.Errorf("%w: title and heading columns are required", domain.ErrMalformedCorpus)
	}
	if maxDim < 0 {
		return csvLayout{}, fmt.Errorf("%w: no embedding columns", domain.ErrMalformedCorpus)
	}

	l.dims = make([]int, maxDim+1)
	for d := range l.dims {
		col, ok := byDim[d]
		if !ok {
			return csvLayout{}, fmt.Errorf("%w: missing embedding column %d", domain.ErrMalformedCorpus, d)
		}
		l.dims[d] = col
	}
	return l, nil
}

// LoadCSV reads a corpus from CSV with columns title, heading, 0, 1, ... N-1.
func LoadCSV(r io.Reader) (domcorpus.Corpus, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domcorpus.Corpus{}, fmt.Errorf("%w: empty file", domain.ErrMalformedCorpus)
		}
		return domcorpus.Corpus{}, fmt.Errorf("%w: read header: %w", domain.ErrMalformedCorpus, err)
	}
	layout, err := parseHeader(header)
	if err != nil {
		return domcorpus.Corpus{}, err
	}

	var entries []domcorpus.Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domcorpus.Corpus{}, fmt.Errorf("%w: line %d: %w", domain.ErrMalformedCorpus, line, err)
		}

		v := make(vector.Vector, len(layout.dims))
		for d, col := range layout.dims {
			f, err := strconv.ParseFloat(rec[col], 32)
			if err != nil {
				return domcorpus.Corpus{}, fmt.Errorf("%w: line %d column %d: %w", domain.ErrMalformedCorpus, line, d, err)
			}
			v[d] = float32(f)
		}

		entries = append(entries, domcorpus.Entry{
			Key:    section.Key{Title: rec[layout.title], Heading: rec[layout.heading]},
			Vector: v,
		})
	}

	c, err := domcorpus.New(entries)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("build corpus: %w", err)
	}
	return c, nil
}

// WriteCSV writes the corpus in the layout LoadCSV reads, rows in key order.
func WriteCSV(w io.Writer, c domcorpus.Corpus) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, c.Dimensions()+2)
	header = append(header, colTitle, colHeading)
	for d := range c.Dimensions() {
		header = append(header, strconv.Itoa(d))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(header))
	var werr error
	c.Each(func(key section.Key, v vector.Vector) bool {
		row[0], row[1] = key.Title, key.Heading
		for d, f := range v {
			row[d+2] = strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		if err := cw.Write(row); err != nil {
			werr = fmt.Errorf("write %s: %w", key, err)
			return false
		}
		return true
	})
	if werr != nil {
		return werr
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
