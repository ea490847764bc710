package repository

import (
	"context"

	"partdepot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TyptCount is one row of the per-typt aggregate used by the stats endpoint.
type TyptCount struct {
	Typt  string
	Count int64
}

// PartRepository defines the data access contract for parts.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type PartRepository interface {
	Create(ctx context.Context, p *model.Part) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	FindByPartNumber(ctx context.Context, partNumber int) (*model.Part, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Part, error)
	// FindAll returns the full snapshot the query engine filters over.
	FindAll(ctx context.Context) ([]model.Part, error)
	Update(ctx context.Context, p *model.Part) error

	// MaxPartNumber returns the highest assigned part number, 0 when empty.
	MaxPartNumber(ctx context.Context) (int, error)
	DistinctLocations(ctx context.Context) ([]string, error)

	Count(ctx context.Context) (int64, error)
	CountByPartType(ctx context.Context, t model.PartType) (int64, error)
	CountByTypt(ctx context.Context) ([]TyptCount, error)
}

type partRepo struct{ db *gorm.DB }

func NewPartRepository(db *gorm.DB) PartRepository { return &partRepo{db: db} }

func (r *partRepo) Create(ctx context.Context, p *model.Part) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	var p model.Part
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) FindByPartNumber(ctx context.Context, partNumber int) (*model.Part, error) {
	var p model.Part
	err := r.db.WithContext(ctx).Where("part_number = ?", partNumber).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Part, error) {
	var parts []model.Part
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("part_number ASC").Find(&parts).Error
	return parts, err
}

func (r *partRepo) FindAll(ctx context.Context) ([]model.Part, error) {
	var parts []model.Part
	err := r.db.WithContext(ctx).Order("name ASC").Find(&parts).Error
	return parts, err
}

func (r *partRepo) Update(ctx context.Context, p *model.Part) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *partRepo) MaxPartNumber(ctx context.Context) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&model.Part{}).
		Select("COALESCE(MAX(part_number), 0)").Scan(&max).Error
	return max, err
}

func (r *partRepo) DistinctLocations(ctx context.Context) ([]string, error) {
	var locations []string
	err := r.db.WithContext(ctx).Model(&model.Part{}).
		Where("location <> ''").
		Distinct("location").
		Order("location ASC").
		Pluck("location", &locations).Error
	return locations, err
}

func (r *partRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Part{}).Count(&n).Error
	return n, err
}

func (r *partRepo) CountByPartType(ctx context.Context, t model.PartType) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Part{}).Where("part_type = ?", t).Count(&n).Error
	return n, err
}

func (r *partRepo) CountByTypt(ctx context.Context) ([]TyptCount, error) {
	var rows []TyptCount
	err := r.db.WithContext(ctx).Model(&model.Part{}).
		Select("typt, COUNT(*) AS count").
		Group("typt").
		Order("typt ASC").
		Scan(&rows).Error
	return rows, err
}
