package services_test

import (
	"context"
	"io"
	"strings"

	"showroom/internal/models"
	"showroom/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockCarRepository is a mock implementation of repositories.CarRepository
type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) Create(car *models.Car) error {
	args := m.Called(car)
	return args.Error(0)
}

func (m *MockCarRepository) GetByID(id uint) (*models.Car, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Car), args.Error(1)
}

func (m *MockCarRepository) ListByOwner(userID string) ([]models.Car, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Car), args.Error(1)
}

func (m *MockCarRepository) Search(userID, keyword string) ([]models.Car, error) {
	args := m.Called(userID, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Car), args.Error(1)
}

func (m *MockCarRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

func (m *MockCarRepository) AttachTag(carID, tagID uint) error {
	args := m.Called(carID, tagID)
	return args.Error(0)
}

func (m *MockCarRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockImageRepository is a mock implementation of repositories.ImageRepository
type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) Create(image *models.Image) error {
	args := m.Called(image)
	return args.Error(0)
}

func (m *MockImageRepository) ListByCar(carID uint) ([]models.Image, error) {
	args := m.Called(carID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Image), args.Error(1)
}

func (m *MockImageRepository) DeleteByCar(carID uint) error {
	args := m.Called(carID)
	return args.Error(0)
}

// MockTagRepository is a mock implementation of repositories.TagRepository
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) GetByName(name string) (*models.Tag, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) Create(tag *models.Tag) error {
	args := m.Called(tag)
	return args.Error(0)
}

// MockStorage is a mock implementation of storage.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, fieldName, originalName string, r io.Reader) (string, error) {
	args := m.Called(fieldName, originalName)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Remove(ctx context.Context, locator string) error {
	args := m.Called(locator)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishCarEvent(event models.CarEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func upload(name, content string) services.Upload {
	return services.Upload{
		FieldName: "images",
		Filename:  name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
