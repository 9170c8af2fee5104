package recordstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one JSON document addressed by a slash separated path.
type Record struct {
	Path      string         `gorm:"column:path;primaryKey"`
	Parent    string         `gorm:"column:parent;index"`
	Value     datatypes.JSON `gorm:"column:value;not null"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (Record) TableName() string { return "records" }

// Repository persists records through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert replaces the value at path, keeping the original creation time.
func (r *Repository) Upsert(ctx context.Context, path string, value []byte) error {
	now := time.Now().UTC()
	rec := Record{
		Path:      path,
		Parent:    parentOf(path),
		Value:     datatypes.JSON(value),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
}

// Find returns nil without error when no record exists at path.
func (r *Repository) Find(ctx context.Context, path string) (*Record, error) {
	var rec Record
	err := r.db.WithContext(ctx).Where("path = ?", path).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListChildren returns the direct children of parent ordered by path.
func (r *Repository) ListChildren(ctx context.Context, parent string) ([]Record, error) {
	var recs []Record
	if err := r.db.WithContext(ctx).
		Where("parent = ?", parent).
		Order("path ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
