package repositories

import "showroom/internal/models"

// CarRepository defines the interface for car data access.
// Read methods return cars with images and tags loaded.
type CarRepository interface {
	Create(car *models.Car) error
	GetByID(id uint) (*models.Car, error)
	ListByOwner(userID string) ([]models.Car, error)
	Search(userID, keyword string) ([]models.Car, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	AttachTag(carID, tagID uint) error
	Delete(id uint) error
}

// ImageRepository defines the interface for image metadata access.
type ImageRepository interface {
	Create(image *models.Image) error
	ListByCar(carID uint) ([]models.Image, error)
	DeleteByCar(carID uint) error
}

// TagRepository defines the interface for the global tag namespace.
type TagRepository interface {
	GetByName(name string) (*models.Tag, error)
	Create(tag *models.Tag) error
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
}
