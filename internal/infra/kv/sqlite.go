package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// document is the single table of the sqlite driver, one row per owner and key.
type document struct {
	OwnerID   int64  `gorm:"column:owner_id;primaryKey"`
	DocKey    string `gorm:"column:doc_key;primaryKey"`
	Doc       []byte `gorm:"column:doc"`
	UpdatedAt time.Time
}

func (document) TableName() string { return "kv_documents" }

type SQLite struct{ db *gorm.DB }

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("kv/sqlite: open: %w", err)
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("kv/sqlite: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, owner int64, key Key) ([]byte, error) {
	var d document
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND doc_key = ?", owner, string(key)).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv/sqlite: get: %w", err)
	}
	return d.Doc, nil
}

func (s *SQLite) Put(ctx context.Context, owner int64, key Key, doc []byte) error {
	d := document{OwnerID: owner, DocKey: string(key), Doc: doc, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&d).Error
	if err != nil {
		return fmt.Errorf("kv/sqlite: put: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, owner int64, key Key) error {
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND doc_key = ?", owner, string(key)).
		Delete(&document{}).Error
	if err != nil {
		return fmt.Errorf("kv/sqlite: delete: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
