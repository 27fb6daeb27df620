package corpus

import (
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/askctx/internal/domain"
	domcorpus "github.com/kailas-cloud/askctx/internal/domain/corpus"
	"github.com/kailas-cloud/askctx/internal/domain/section"
	"github.com/kailas-cloud/askctx/internal/domain/vector"
)

const (
	colEmbedding = "embedding"
	rowBatchSize = 256
)

// embeddingRow is the Parquet schema of a corpus file.
type embeddingRow struct {
	Title     string    `parquet:"title"`
	Heading   string    `parquet:"heading"`
	Embedding []float32 `parquet:"embedding,list"`
}

// parquetColumns are leaf column indexes resolved by name.
type parquetColumns struct {
	title     int
	heading   int
	embedding int
	// double is set when the embedding leaf is DOUBLE rather than FLOAT.
	double bool
}

func resolveColumns(pf *parquet.File) (parquetColumns, error) {
	cols := parquetColumns{title: -1, heading: -1, embedding: -1}
	schema := pf.Schema()
	for i, path := range schema.Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case colTitle:
			cols.title = i
		case colHeading:
			cols.heading = i
		case colEmbedding:
			cols.embedding = i
			leaf, ok := schema.Lookup(path...)
			if !ok {
				continue
			}
			switch kind := leaf.Node.Type().Kind(); kind {
			case parquet.Float:
			case parquet.Double:
				cols.double = true
			default:
				return parquetColumns{}, fmt.Errorf("%w: embedding column has type %s, want FLOAT or DOUBLE",
					domain.ErrMalformedCorpus, kind)
			}
		}
	}
	if cols.title < 0 || cols.heading < 0 || cols.embedding < 0 {
		return parquetColumns{}, fmt.Errorf("%w: parquet file needs title, heading and embedding columns",
			domain.ErrMalformedCorpus)
	}
	return cols, nil
}

// LoadParquet reads a corpus from a Parquet file with columns title, heading and
// embedding (a list of FLOAT or DOUBLE values). Rows are read through the generic row API so that
// files written by other tools with a plain repeated column load as well.
func LoadParquet(r io.ReaderAt, size int64) (domcorpus.Corpus, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("%w: open parquet: %w", domain.ErrMalformedCorpus, err)
	}
	cols, err := resolveColumns(pf)
	if err != nil {
		return domcorpus.Corpus{}, err
	}

	entries := make([]domcorpus.Entry, 0, pf.NumRows())
	buf := make([]parquet.Row, rowBatchSize)

	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				entries = append(entries, rowToEntry(buf[i], cols))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return domcorpus.Corpus{}, fmt.Errorf("%w: read rows: %w", domain.ErrMalformedCorpus, readErr)
			}
		}
	}

	c, err := domcorpus.New(entries)
	if err != nil {
		return domcorpus.Corpus{}, fmt.Errorf("build corpus: %w", err)
	}
	return c, nil
}

func rowToEntry(row parquet.Row, cols parquetColumns) domcorpus.Entry {
	var e domcorpus.Entry
	for _, v := range row {
		switch v.Column() {
		case cols.title:
			e.Key.Title = v.String()
		case cols.heading:
			e.Key.Heading = v.String()
		case cols.embedding:
			switch {
			case v.IsNull():
			case cols.double:
				e.Vector = append(e.Vector, float32(v.Double()))
			default:
				e.Vector = append(e.Vector, v.Float())
			}
		}
	}
	return e
}

// WriteParquet writes the corpus in the layout LoadParquet reads, rows in key order.
func WriteParquet(w io.Writer, c domcorpus.Corpus) error {
	pw := parquet.NewGenericWriter[embeddingRow](w)

	batch := make([]embeddingRow, 0, rowBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := pw.Write(batch); err != nil {
			return fmt.Errorf("write rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	var werr error
	c.Each(func(key section.Key, v vector.Vector) bool {
		batch = append(batch, embeddingRow{Title: key.Title, Heading: key.Heading, Embedding: v})
		if len(batch) == rowBatchSize {
			werr = flush()
		}
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	if err := flush(); err != nil {
		return err
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
