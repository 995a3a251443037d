package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/ribbonlog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAdapter stores the collection in the entries table.
type GormAdapter struct {
	db  *gorm.DB
	key string
}

// NewGormAdapter returns an adapter writing under key. The entries table must
// already be migrated.
func NewGormAdapter(db *gorm.DB, key string) (*GormAdapter, error) {
	if db == nil {
		return nil, fmt.Errorf("kvstore: db is required")
	}
	if key == "" {
		return nil, fmt.Errorf("kvstore: key is required")
	}
	return &GormAdapter{db: db, key: key}, nil
}

// Key returns the storage key.
func (a *GormAdapter) Key() string { return a.key }

// Load reads and decodes the blob, degrading to an empty list on any failure.
func (a *GormAdapter) Load(ctx context.Context) []models.Record {
	raw, ok, err := a.Raw(ctx)
	if err != nil {
		log.Printf("kvstore: load %s: %v", a.key, err)
		return []models.Record{}
	}
	if !ok {
		return []models.Record{}
	}
	return decodeSoft(a.key, raw)
}

// Raw returns the stored blob verbatim.
func (a *GormAdapter) Raw(ctx context.Context) (string, bool, error) {
	var e models.Entry
	err := a.db.WithContext(ctx).Where(&models.Entry{Key: a.key}).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: read %s: %w", a.key, err)
	}
	return e.Value, true, nil
}

// Save encodes the collection and upserts it in one transaction, so the
// stored value is either the previous blob or the new one.
func (a *GormAdapter) Save(ctx context.Context, records []models.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	entry := models.Entry{Key: a.key, Value: string(data), UpdatedAt: time.Now()}
	err = a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
	})
	if err != nil {
		return fmt.Errorf("kvstore: save %s: %w", a.key, err)
	}
	return nil
}
