package repositories

import (
	"fmt"

	"showroom/internal/models"

	"gorm.io/gorm"
)

// GORMTagRepository is a GORM implementation of TagRepository.
type GORMTagRepository struct {
	db *gorm.DB
}

// NewGORMTagRepository creates a new instance of GORMTagRepository.
func NewGORMTagRepository(db *gorm.DB) *GORMTagRepository {
	return &GORMTagRepository{db: db}
}

// GetByName looks a tag up by exact, case-sensitive name.
func (r *GORMTagRepository) GetByName(name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to get tag %q: %w", name, translate(err))
	}
	return &tag, nil
}

// Create inserts a new tag. A name collision yields ErrDuplicate.
func (r *GORMTagRepository) Create(tag *models.Tag) error {
	if err := r.db.Create(tag).Error; err != nil {
		return fmt.Errorf("failed to create tag %q: %w", tag.Name, translate(err))
	}
	return nil
}
