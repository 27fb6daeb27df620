package section

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/askctx/internal/db"
	"github.com/kailas-cloud/askctx/internal/domain"
	domsection "github.com/kailas-cloud/askctx/internal/domain/section"
)

var keyPrefix = domain.KeyPrefix + "section:"

// Hash fields of a stored section.
const (
	fieldTitle   = "title"
	fieldHeading = "heading"
	fieldContent = "content"
	fieldTokens  = "tokens"
)

// putBatchSize bounds the number of HSET commands in one pipeline.
const putBatchSize = 500

// store is the consumer interface for section records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// RedisStore keeps one hash per section under askctx:section:<sha256(title, heading)>.
type RedisStore struct {
	store store
}

// NewRedisStore creates a section store.
func NewRedisStore(s store) *RedisStore {
	return &RedisStore{store: s}
}

// Put writes records, overwriting existing sections with the same key.
func (s *RedisStore) Put(ctx context.Context, records []domsection.Record) error {
	for start := 0; start < len(records); start += putBatchSize {
		chunk := records[start:min(start+putBatchSize, len(records))]
		items := make([]db.HashSetItem, len(chunk))
		for i := range chunk {
			items[i] = db.HashSetItem{Key: recordKey(chunk[i].Key()), Fields: toHash(&chunk[i])}
		}
		if err := s.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("put sections [%d:%d]: %w", start, start+len(chunk), err)
		}
	}
	return nil
}

// Snapshot loads every stored section into an immutable lookup.
func (s *RedisStore) Snapshot(ctx context.Context) (domsection.Records, error) {
	keys, err := s.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return domsection.Records{}, fmt.Errorf("scan sections: %w", err)
	}

	list := make([]domsection.Record, 0, len(keys))
	for start := 0; start < len(keys); start += putBatchSize {
		chunk := keys[start:min(start+putBatchSize, len(keys))]
		hashes, err := s.store.HGetAllMulti(ctx, chunk)
		if err != nil {
			return domsection.Records{}, fmt.Errorf("load sections: %w", err)
		}
		for i, m := range hashes {
			// Deleted between SCAN and HGETALL.
			if len(m) == 0 {
				continue
			}
			rec, err := fromHash(m)
			if err != nil {
				return domsection.Records{}, fmt.Errorf("section %s: %w", chunk[i], err)
			}
			list = append(list, rec)
		}
	}

	records, err := domsection.NewRecords(list)
	if err != nil {
		return domsection.Records{}, fmt.Errorf("index sections: %w", err)
	}
	return records, nil
}

// recordKey hashes the key pair so titles and headings may contain any character.
func recordKey(k domsection.Key) string {
	h := sha256.New()
	h.Write([]byte(k.Title))
	h.Write([]byte{0})
	h.Write([]byte(k.Heading))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func toHash(r *domsection.Record) map[string]string {
	return map[string]string{
		fieldTitle:   r.Key().Title,
		fieldHeading: r.Key().Heading,
		fieldContent: r.Content(),
		fieldTokens:  strconv.Itoa(r.Tokens()),
	}
}

func fromHash(m map[string]string) (domsection.Record, error) {
	tokens, err := strconv.Atoi(m[fieldTokens])
	if err != nil {
		return domsection.Record{}, fmt.Errorf("%w: tokens %q", domain.ErrMalformedCorpus, m[fieldTokens])
	}
	rec, err := domsection.NewRecord(
		domsection.Key{Title: m[fieldTitle], Heading: m[fieldHeading]},
		m[fieldContent],
		tokens,
	)
	if err != nil {
		return domsection.Record{}, fmt.Errorf("%w: %w", domain.ErrMalformedCorpus, err)
	}
	return rec, nil
}
