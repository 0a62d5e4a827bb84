// Package docstore implements the documents capability on MySQL via GORM:
// named collections of typed records with exact-title duplicate suppression.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
)

// collectionRow is the collections table.
type collectionRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"uniqueIndex;size:191;not null"`
	Schema    string `gorm:"type:text"`
	CreatedAt time.Time
}

func (collectionRow) TableName() string { return "collections" }

// recordRow is the records table.
type recordRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	CollectionID string `gorm:"index:idx_coll_title;size:36;not null"`
	Title        string `gorm:"index:idx_coll_title;size:191;not null"`
	Category     string `gorm:"size:64"`
	Body         string `gorm:"type:longtext"`
	Author       string `gorm:"size:64"`
	Status       string `gorm:"size:32"`
	CreatedAt    time.Time
}

func (recordRow) TableName() string { return "records" }

// Options configure optional store collaborators.
type Options struct {
	Logger logging.Logger
}

// Store is a capability.Documents backed by a GORM MySQL connection.
type Store struct {
	db     *gorm.DB
	logger logging.Logger
}

var _ capability.Documents = (*Store)(nil)

// Open connects to MySQL and runs the schema migration.
func Open(dsn string, optFns ...func(o *Options)) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: open mysql: %w", err)
	}
	return New(db, optFns...)
}

// New wraps an existing GORM connection, migrating the schema.
func New(db *gorm.DB, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := db.AutoMigrate(&collectionRow{}, &recordRow{}); err != nil {
		return nil, fmt.Errorf("docstore: migrate: %w", err)
	}
	return &Store{db: db, logger: opts.Logger}, nil
}

// EnsureCollection finds the collection by exact name or creates it with the
// given schema. The unique index on name makes concurrent creates safe: the
// loser of the race re-reads the winner's row.
func (s *Store) EnsureCollection(ctx context.Context, name string, schema capability.Schema) (capability.Collection, error) {
	var row collectionRow
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err == nil {
		return capability.Collection{ID: row.ID, AlreadyExisted: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return capability.Collection{}, fmt.Errorf("docstore: find collection: %w", err)
	}

	encoded, err := json.Marshal(schema)
	if err != nil {
		return capability.Collection{}, fmt.Errorf("docstore: encode schema: %w", err)
	}
	row = collectionRow{ID: uuid.NewString(), Name: name, Schema: string(encoded), CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing collectionRow
			if ferr := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; ferr == nil {
				return capability.Collection{ID: existing.ID, AlreadyExisted: true}, nil
			}
		}
		return capability.Collection{}, fmt.Errorf("docstore: create collection: %w", err)
	}
	s.logger.Info("collection created", "collection", name, "id", row.ID)
	return capability.Collection{ID: row.ID}, nil
}

// FindByTitle returns the id of a record with the exact title, if any.
func (s *Store) FindByTitle(ctx context.Context, collectionID, title string) (string, bool, error) {
	var row recordRow
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND title = ?", collectionID, title).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("docstore: find record: %w", err)
	}
	return row.ID, true, nil
}

// Append adds a record, suppressing exact-title duplicates within the
// collection: the existing record id is returned and nothing is inserted.
func (s *Store) Append(ctx context.Context, collectionID string, rec capability.Record) (string, error) {
	if existingID, found, err := s.FindByTitle(ctx, collectionID, rec.Title); err != nil {
		return "", err
	} else if found {
		s.logger.Debug("duplicate title suppressed", "title", rec.Title)
		return existingID, nil
	}

	row := recordFromCapability(collectionID, rec)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("docstore: append record: %w", err)
	}
	return row.ID, nil
}

// Query returns records matching the filter (all records if nil), oldest
// first.
func (s *Store) Query(ctx context.Context, collectionID string, filter *capability.Filter) ([]capability.Record, error) {
	q := s.db.WithContext(ctx).Where("collection_id = ?", collectionID)
	if filter != nil {
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Author != "" {
			q = q.Where("author = ?", filter.Author)
		}
	}

	var rows []recordRow
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("docstore: query records: %w", err)
	}

	records := make([]capability.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toCapability())
	}
	return records, nil
}

func recordFromCapability(collectionID string, rec capability.Record) recordRow {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return recordRow{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Title:        rec.Title,
		Category:     rec.Category,
		Body:         rec.Body,
		Author:       rec.Author,
		Status:       rec.Status,
		CreatedAt:    createdAt,
	}
}

func (r recordRow) toCapability() capability.Record {
	return capability.Record{
		ID:        r.ID,
		Title:     r.Title,
		Category:  r.Category,
		Body:      r.Body,
		Author:    r.Author,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}
