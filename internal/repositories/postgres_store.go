package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is one row of the key-value table backing PostgresBlobStore
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// PostgresBlobStore implements BlobStore on a single PostgreSQL table
type PostgresBlobStore struct {
	db *gorm.DB
}

// NewPostgresBlobStore creates a new PostgresBlobStore
func NewPostgresBlobStore(db *gorm.DB) *PostgresBlobStore {
	return &PostgresBlobStore{db: db}
}

func (r *PostgresBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load kv entry %s: %w", key, err)
	}
	return []byte(entry.Value), nil
}

func (r *PostgresBlobStore) Set(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save kv entry %s: %w", key, err)
	}
	return nil
}
