package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")

	c, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":4000", c.AppPort)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disk", c.StorageDriver)
	assert.Equal(t, "uploads", c.UploadDir)
	assert.Equal(t, 10, c.MaxUploadFiles)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Empty(t, c.RabbitMQURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "supersecret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "car-images")

	c, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "production", c.AppEnv)
	assert.Equal(t, 90*time.Minute, c.TokenTTL)
	assert.Equal(t, "car-images", c.S3Bucket)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := load(viper.New())
		assert.Error(t, err)
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "supersecret")
		t.Setenv("STORAGE_DRIVER", "s3")
		_, err := load(viper.New())
		assert.Error(t, err)
	})

	t.Run("bad ttl", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "supersecret")
		t.Setenv("TOKEN_TTL", "forever")
		_, err := load(viper.New())
		assert.Error(t, err)
	})
}
