package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"showroom/internal/config"
	"showroom/internal/models"
	"showroom/pkg/database"
	"showroom/pkg/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:         "test",
		AppPort:        ":0",
		LogLevel:       "debug",
		LogFormat:      "console",
		DBDriver:       "sqlite",
		DatabaseDSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		JWTSecret:      "test_jwt_secret",
		TokenTTL:       time.Hour,
		StorageDriver:  "disk",
		UploadDir:      t.TempDir(),
		MaxUploadFiles: 10,
		BodyLimitMB:    5,
		RateLimitMax:   1000,
		CORSOrigins:    "*",
	}
}

func TestNewApp(t *testing.T) {
	cfg := testConfig(t)
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	store, err := newStorage(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.DiskStorage{}, store)

	app := newApp(cfg, db, store, nil, zap.NewNop())

	t.Run("health", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, false, body["events"])
	})

	t.Run("cars require a token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/cars", nil))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("user routes are public", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/users/login", nil))
		require.NoError(t, err)
		assert.NotEqual(t, 401, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})
}

func TestLogCarEvent(t *testing.T) {
	handler := logCarEvent(zap.NewNop())
	assert.NoError(t, handler(models.CarEvent{Type: models.CarCreated, CarID: 1}))
}
