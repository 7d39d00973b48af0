package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/hpungsan/careerbridge/internal/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// kvEntry is the Postgres row for one stored key.
type kvEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt int64  `gorm:"not null;index:idx_careerbridge_kv_updated,sort:desc"`
}

func (kvEntry) TableName() string { return "careerbridge_kv" }

// PostgresStore is a kv.Store backed by a shared Postgres database, for
// deployments where several clients should see the same state.
type PostgresStore struct {
	gdb *gorm.DB
}

// OpenPostgres connects to dsn and migrates the kv table.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresStore(gdb)
}

// NewPostgresStore wraps an open gorm handle and migrates the kv table.
func NewPostgresStore(gdb *gorm.DB) (*PostgresStore, error) {
	if err := gdb.AutoMigrate(&kvEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate kv table: %w", err)
	}
	return &PostgresStore{gdb: gdb}, nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var e kvEntry
	err := s.gdb.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return []byte(e.Value), true, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, value []byte) error {
	e := kvEntry{Key: key, Value: string(value), UpdatedAt: time.Now().UnixMilli()}
	err := s.gdb.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := s.gdb.WithContext(ctx).Where("key = ?", key).Delete(&kvEntry{}).Error; err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
