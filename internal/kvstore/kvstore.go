// Package kvstore persists the record collection as one JSON blob under a
// single key. Every save rewrites the whole collection.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/zulandar/ribbonlog/internal/models"
)

// Adapter is the durable storage boundary for the record collection.
type Adapter interface {
	// Load returns the stored collection. Missing or unreadable data yields
	// an empty list; Load never fails.
	Load(ctx context.Context) []models.Record

	// Save replaces the stored collection with records.
	Save(ctx context.Context, records []models.Record) error

	// Raw returns the stored blob verbatim and whether the key exists.
	Raw(ctx context.Context) (string, bool, error)
}

// Encode serializes the collection. A nil slice encodes as an empty array.
func Encode(records []models.Record) ([]byte, error) {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("kvstore: encode: %w", err)
	}
	return data, nil
}

// Decode parses a stored blob. A JSON null decodes as an empty list.
func Decode(data []byte) ([]models.Record, error) {
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("kvstore: decode: %w", err)
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// decodeSoft is Decode with failures logged and turned into an empty list.
func decodeSoft(key, data string) []models.Record {
	records, err := Decode([]byte(data))
	if err != nil {
		log.Printf("kvstore: %s holds unreadable data, starting empty: %v", key, err)
		return []models.Record{}
	}
	return records
}
