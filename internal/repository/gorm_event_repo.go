package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
)

// GormEventRepository implements EventRepository using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewGormEventRepository creates a new GORM-backed event repository.
func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// ListEvents returns the metadata of ids, most recently created first.
// Unknown ids are skipped.
func (r *GormEventRepository) ListEvents(ctx context.Context, ids []int64) ([]domain.Event, error) {
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}

	var models []domain.PredictionModel
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(models))
	for i := range models {
		events = append(events, models[i].ToDomain())
	}
	return events, nil
}

// ListCategories returns every category ordered by name.
func (r *GormEventRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var models []domain.CategoryModel
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(models))
	for _, m := range models {
		categories = append(categories, domain.Category{ID: m.ID, Name: m.Name, Icon: m.Icon})
	}
	return categories, nil
}

// Ensure interface is satisfied at compile time.
var _ EventRepository = (*GormEventRepository)(nil)
