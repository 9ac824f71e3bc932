package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"showroom/internal/models"
	"showroom/internal/repositories"
	"showroom/pkg/apperr"
	"showroom/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventPublisher receives car lifecycle events. Publishing failures never fail a request.
type EventPublisher interface {
	PublishCarEvent(event models.CarEvent) error
}

// Upload is one file of a multipart request.
type Upload struct {
	FieldName string
	Filename  string
	Open      func() (io.ReadCloser, error)
}

// CreateCarInput carries the fields of a new car. Tags is a comma-separated list.
type CreateCarInput struct {
	Title       string
	Description string
	Tags        string
	Files       []Upload
}

// UpdateCarInput is a sparse patch: empty strings leave the stored value untouched,
// files are appended and tags are only ever added.
type UpdateCarInput struct {
	Title       string
	Description string
	Tags        string
	Files       []Upload
}

// RemovalResult is the outcome of removing one stored image.
type RemovalResult struct {
	Locator string
	Err     error
}

// DeleteReport lists the stored-file removals attempted while deleting a car.
type DeleteReport struct {
	CarID    uint
	Removals []RemovalResult
}

// Warnings returns one message per failed removal.
func (r *DeleteReport) Warnings() []string {
	var out []string
	for _, rr := range r.Removals {
		if rr.Err != nil {
			out = append(out, fmt.Sprintf("failed to remove %s: %v", rr.Locator, rr.Err))
		}
	}
	return out
}

// CarService handles business logic for cars, their images and tags.
type CarService struct {
	cars    repositories.CarRepository
	images  repositories.ImageRepository
	tags    *TagResolver
	storage storage.Storage
	events  EventPublisher
	log     *zap.Logger
}

// NewCarService creates a new CarService. events may be nil.
func NewCarService(
	cars repositories.CarRepository,
	images repositories.ImageRepository,
	tags repositories.TagRepository,
	store storage.Storage,
	events EventPublisher,
	log *zap.Logger,
) *CarService {
	return &CarService{
		cars:    cars,
		images:  images,
		tags:    NewTagResolver(tags, cars),
		storage: store,
		events:  events,
		log:     log,
	}
}

// CreateCar stores a new car owned by ownerID with its images and tags.
// Images and tags are written concurrently after the car row; a failure is
// reported but nothing already written is rolled back.
func (s *CarService) CreateCar(ctx context.Context, in CreateCarInput, ownerID string) (*models.Car, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	tagNames := ParseTags(in.Tags)
	if title == "" || description == "" || len(tagNames) == 0 {
		return nil, apperr.New(apperr.CodeInvalid, "All fields are required")
	}

	car := &models.Car{Title: title, Description: description, UserID: ownerID}
	if err := s.cars.Create(car); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	log := s.log.With(zap.Uint("car_id", car.ID), zap.String("user_id", ownerID))

	if err := s.addImages(ctx, car.ID, in.Files); err != nil {
		log.Error("failed to store car images", zap.Error(err))
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	if err := s.attachTags(car.ID, tagNames); err != nil {
		log.Error("failed to attach car tags", zap.Error(err))
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}

	created, err := s.cars.GetByID(car.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	log.Info("car created", zap.Int("images", len(created.Images)), zap.Int("tags", len(created.Tags)))
	s.publish(models.CarCreated, created)
	return created, nil
}

// ListCars returns every car owned by ownerID.
func (s *CarService) ListCars(ownerID string) ([]models.Car, error) {
	cars, err := s.cars.ListByOwner(ownerID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	return cars, nil
}

// GetCar returns the car if it exists and belongs to requesterID.
func (s *CarService) GetCar(carID uint, requesterID string) (*models.Car, error) {
	return s.ownedCar(carID, requesterID)
}

// UpdateCar applies a sparse patch to an owned car and returns the reloaded car.
// The field update, image inserts and tag links are independent writes: if a later
// step fails, earlier ones stay committed.
func (s *CarService) UpdateCar(ctx context.Context, carID uint, requesterID string, in UpdateCarInput) (*models.Car, error) {
	if _, err := s.ownedCar(carID, requesterID); err != nil {
		return nil, err
	}
	log := s.log.With(zap.Uint("car_id", carID), zap.String("user_id", requesterID))

	fields := make(map[string]interface{}, 2)
	if title := strings.TrimSpace(in.Title); title != "" {
		fields["title"] = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		fields["description"] = description
	}
	if len(fields) > 0 {
		if err := s.cars.UpdateFields(carID, fields); err != nil {
			log.Error("failed to update car fields", zap.Error(err))
			return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
		}
	}

	if err := s.addImages(ctx, carID, in.Files); err != nil {
		log.Error("failed to store car images", zap.Error(err))
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	if in.Tags != "" {
		if err := s.attachTags(carID, ParseTags(in.Tags)); err != nil {
			log.Error("failed to attach car tags", zap.Error(err))
			return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
		}
	}

	updated, err := s.cars.GetByID(carID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	log.Info("car updated", zap.Int("new_images", len(in.Files)))
	s.publish(models.CarUpdated, updated)
	return updated, nil
}

// DeleteCar removes an owned car and its image rows. Stored files are removed
// best-effort: failures are logged and reported, never fatal.
func (s *CarService) DeleteCar(ctx context.Context, carID uint, requesterID string) (*DeleteReport, error) {
	car, err := s.ownedCar(carID, requesterID)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.Uint("car_id", carID), zap.String("user_id", requesterID))

	images, err := s.images.ListByCar(carID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}

	report := &DeleteReport{CarID: carID, Removals: make([]RemovalResult, 0, len(images))}
	for _, img := range images {
		err := s.storage.Remove(ctx, img.URL)
		if err != nil {
			log.Warn("failed to remove stored image", zap.String("locator", img.URL), zap.Error(err))
		}
		report.Removals = append(report.Removals, RemovalResult{Locator: img.URL, Err: err})
	}

	if err := s.images.DeleteByCar(carID); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	if err := s.cars.Delete(carID); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}

	log.Info("car deleted", zap.Int("images", len(images)), zap.Int("removal_failures", len(report.Warnings())))
	car.Images = images
	s.publish(models.CarDeleted, car)
	return report, nil
}

// SearchCars returns owned cars whose title, description or tag names contain keyword.
func (s *CarService) SearchCars(ownerID, keyword string) ([]models.Car, error) {
	cars, err := s.cars.Search(ownerID, strings.TrimSpace(keyword))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	return cars, nil
}

func (s *CarService) ownedCar(carID uint, requesterID string) (*models.Car, error) {
	car, err := s.cars.GetByID(carID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.Wrap(err, apperr.CodeNotFound, "Car not found")
		}
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Server error")
	}
	if car.UserID != requesterID {
		return nil, apperr.New(apperr.CodeForbidden, "Access denied")
	}
	return car, nil
}

// addImages stores every upload and records an image row for it, one goroutine
// per file. It waits for all of them and returns the first error.
func (s *CarService) addImages(ctx context.Context, carID uint, files []Upload) error {
	var g errgroup.Group
	for _, f := range files {
		f := f
		g.Go(func() error {
			return s.addImage(ctx, carID, f)
		})
	}
	return g.Wait()
}

func (s *CarService) addImage(ctx context.Context, carID uint, f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload %s: %w", f.Filename, err)
	}
	defer rc.Close()

	locator, err := s.storage.Store(ctx, f.FieldName, f.Filename, rc)
	if err != nil {
		return err
	}
	return s.images.Create(&models.Image{CarID: carID, URL: locator})
}

// attachTags resolves and links every name, one goroutine per tag.
func (s *CarService) attachTags(carID uint, names []string) error {
	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			_, err := s.tags.Attach(carID, name)
			return err
		})
	}
	return g.Wait()
}

func (s *CarService) publish(eventType string, car *models.Car) {
	if s.events == nil {
		return
	}
	event := models.CarEvent{
		Type:       eventType,
		CarID:      car.ID,
		UserID:     car.UserID,
		Title:      car.Title,
		ImageCount: len(car.Images),
		OccurredAt: time.Now().UTC(),
	}
	for _, t := range car.Tags {
		event.Tags = append(event.Tags, t.Name)
	}
	if err := s.events.PublishCarEvent(event); err != nil {
		s.log.Warn("failed to publish car event", zap.String("type", eventType), zap.Uint("car_id", car.ID), zap.Error(err))
	}
}
