package repositories

import (
	"fmt"

	"showroom/internal/models"

	"gorm.io/gorm"
)

// GORMImageRepository is a GORM implementation of ImageRepository.
type GORMImageRepository struct {
	db *gorm.DB
}

// NewGORMImageRepository creates a new instance of GORMImageRepository.
func NewGORMImageRepository(db *gorm.DB) *GORMImageRepository {
	return &GORMImageRepository{db: db}
}

// Create records an uploaded image for a car.
func (r *GORMImageRepository) Create(image *models.Image) error {
	if err := r.db.Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image for car %d: %w", image.CarID, err)
	}
	return nil
}

// ListByCar returns every image row owned by carID.
func (r *GORMImageRepository) ListByCar(carID uint) ([]models.Image, error) {
	var images []models.Image
	if err := r.db.Where("car_id = ?", carID).Order("id").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images for car %d: %w", carID, err)
	}
	return images, nil
}

// DeleteByCar removes every image row owned by carID.
func (r *GORMImageRepository) DeleteByCar(carID uint) error {
	if err := r.db.Where("car_id = ?", carID).Delete(&models.Image{}).Error; err != nil {
		return fmt.Errorf("failed to delete images for car %d: %w", carID, err)
	}
	return nil
}
