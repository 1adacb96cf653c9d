package service

import (
	"context"

	"github.com/Foresight-builder/Foresight-backend/internal/domain"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
)

type catalogService struct {
	events repository.EventRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(events repository.EventRepository) CatalogService {
	return &catalogService{events: events}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.events.ListCategories(ctx)
}
