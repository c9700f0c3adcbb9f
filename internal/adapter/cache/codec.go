package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/property-distress-service/internal/domain"
)

// storedEntry is the persisted form shared by the file and Redis stores.
type storedEntry struct {
	Record    *domain.PropertyRecord `json:"record"`
	NotFound  bool                   `json:"not_found"`
	CreatedAt time.Time              `json:"created_at"`
}

func encodeEntry(e domain.CacheEntry) ([]byte, error) {
	b, err := json.Marshal(storedEntry{
		Record:    e.Record,
		NotFound:  e.NotFound(),
		CreatedAt: e.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return b, nil
}

// decodeEntry rejects entries whose not_found flag contradicts the record.
func decodeEntry(key string, b []byte) (domain.CacheEntry, error) {
	var s storedEntry
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if s.NotFound != (s.Record == nil) {
		return domain.CacheEntry{}, fmt.Errorf("decode cache entry %s: inconsistent not_found flag", key)
	}
	return domain.CacheEntry{Key: key, Record: s.Record, CreatedAt: s.CreatedAt}, nil
}
