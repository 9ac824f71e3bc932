package repositories

import (
	"fmt"
	"strings"

	"showroom/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCarRepository is a GORM implementation of CarRepository.
type GORMCarRepository struct {
	db *gorm.DB
}

// NewGORMCarRepository creates a new instance of GORMCarRepository.
func NewGORMCarRepository(db *gorm.DB) *GORMCarRepository {
	return &GORMCarRepository{
		db: db,
	}
}

func (r *GORMCarRepository) withRelations() *gorm.DB {
	return r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("images.id")
	}).Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("tags.id")
	})
}

// Create inserts the car row only; images and tags are attached separately.
func (r *GORMCarRepository) Create(car *models.Car) error {
	if err := r.db.Omit(clause.Associations).Create(car).Error; err != nil {
		return fmt.Errorf("failed to create car: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a car with its images and tags.
func (r *GORMCarRepository) GetByID(id uint) (*models.Car, error) {
	var car models.Car
	if err := r.withRelations().First(&car, "cars.id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get car by ID %d: %w", id, translate(err))
	}
	return &car, nil
}

// ListByOwner retrieves every car owned by userID.
func (r *GORMCarRepository) ListByOwner(userID string) ([]models.Car, error) {
	var cars []models.Car
	if err := r.withRelations().Where("cars.user_id = ?", userID).Order("cars.id").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to list cars for user %s: %w", userID, err)
	}
	return cars, nil
}

// Search retrieves cars owned by userID whose title, description or any tag name
// contains keyword, ignoring case. An empty keyword matches every owned car.
func (r *GORMCarRepository) Search(userID, keyword string) ([]models.Car, error) {
	q := r.withRelations().Where("cars.user_id = ?", userID)
	if keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
		q = q.Where(searchCondition(r.db.Dialector.Name()), pattern, pattern, pattern)
	}

	var cars []models.Car
	if err := q.Order("cars.id").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("failed to search cars for user %s: %w", userID, err)
	}
	return cars, nil
}

// UpdateFields writes only the given columns.
func (r *GORMCarRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.Model(&models.Car{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update car %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("car with ID %d not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// AttachTag links a tag to a car. Linking an already linked tag is a no-op.
func (r *GORMCarRepository) AttachTag(carID, tagID uint) error {
	link := models.CarTag{CarID: carID, TagID: tagID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
		return fmt.Errorf("failed to attach tag %d to car %d: %w", tagID, carID, err)
	}
	return nil
}

// Delete clears the car's tag links and removes the car row. Image rows must be
// removed beforehand through the ImageRepository.
func (r *GORMCarRepository) Delete(id uint) error {
	if err := r.db.Where("car_id = ?", id).Delete(&models.CarTag{}).Error; err != nil {
		return fmt.Errorf("failed to detach tags from car %d: %w", id, err)
	}
	res := r.db.Delete(&models.Car{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete car: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("car with ID %d not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// searchCondition matches title, description or a linked tag name against one
// lowercased, escaped pattern. Postgres folds case with ILIKE for any script;
// sqlite's LOWER only folds ASCII letters.
func searchCondition(dialect string) string {
	match := func(column string) string {
		if dialect == "postgres" {
			return column + ` ILIKE ? ESCAPE '\'`
		}
		return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
	}
	return match("cars.title") + " OR " + match("cars.description") + ` OR EXISTS (
		SELECT 1 FROM car_tags JOIN tags ON tags.id = car_tags.tag_id
		WHERE car_tags.car_id = cars.id AND ` + match("tags.name") + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
