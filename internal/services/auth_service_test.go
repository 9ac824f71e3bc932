package services_test

import (
	"fmt"
	"testing"
	"time"

	"showroom/internal/models"
	"showroom/internal/repositories"
	"showroom/internal/services"
	"showroom/pkg/apperr"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, zap.NewNop())

	user := &models.User{Email: " Test@Example.com", Password: "password123"}

	mockRepo.On("GetByEmail", "test@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := authService.RegisterUser(user)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	mockRepo.AssertExpectations(t)

	// Email already registered
	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	err = authService.RegisterUser(&models.User{Email: "test@example.com", Password: "password123"})
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")

	// Lost a registration race on the unique index
	mockRepo.On("GetByEmail", "race@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(fmt.Errorf("insert: %w", repositories.ErrDuplicate)).Once()
	err = authService.RegisterUser(&models.User{Email: "race@example.com", Password: "password123"})
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour, zap.NewNop())

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Email: "test@example.com", Password: string(hashedPassword)}

	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	token, err := authService.LoginUser("test@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])

	// Wrong password
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	_, err = authService.LoginUser("test@example.com", "wrongpassword")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")

	// Unknown user gets the same answer
	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.LoginUser("nobody@example.com", "password123")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_VerifyToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour, zap.NewNop())

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	valid := sign(jwt.MapClaims{
		"user_id": "user-123",
		"email":   "test@example.com",
		"exp":     jwt.TimeFunc().Add(time.Hour).Unix(),
	}, testJWTSecret)
	identity, err := authService.VerifyToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "test@example.com", identity.Email)

	var verifier services.TokenVerifier = authService
	_, err = verifier.VerifyToken("invalid.token.string")
	assert.ErrorContains(t, err, "invalid token")

	expired := sign(jwt.MapClaims{"user_id": "user-123", "exp": jwt.TimeFunc().Add(-time.Hour).Unix()}, testJWTSecret)
	_, err = authService.VerifyToken(expired)
	assert.ErrorContains(t, err, "invalid token")

	wrongSecret := sign(jwt.MapClaims{"user_id": "user-123", "exp": jwt.TimeFunc().Add(time.Hour).Unix()}, "other")
	_, err = authService.VerifyToken(wrongSecret)
	assert.ErrorContains(t, err, "invalid token")

	noSubject := sign(jwt.MapClaims{"exp": jwt.TimeFunc().Add(time.Hour).Unix()}, testJWTSecret)
	_, err = authService.VerifyToken(noSubject)
	assert.ErrorContains(t, err, "missing user_id")
}
