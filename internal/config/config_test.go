package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDriver(t *testing.T) {
	c := &Config{Port: "1", JWTSecret: "x", DBDriver: "mysql"}
	assert.Error(t, c.Validate())

	c.DBDriver = "sqlite"
	assert.NoError(t, c.Validate())

	c.Env = "production"
	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "secure-password"
	c.DBSSLMode = "require"
	assert.Error(t, c.Validate(), "sqlite must be rejected in production")
}

func TestConfig_DurationsFallBack(t *testing.T) {
	c := &Config{}
	assert.Equal(t, time.Hour, c.JWTTTL())
	assert.Equal(t, time.Hour, c.StoryReaperInterval())
	assert.Equal(t, time.Duration(0), c.StoryReaperGrace())
	assert.Equal(t, int64(10*1024*1024), c.UploadMaxBytes())

	c.StoryReaperGraceHours = 168
	assert.Equal(t, 7*24*time.Hour, c.StoryReaperGrace())
}

func TestLoadConfig_EnvNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("DB_DRIVER", " SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "3500", c.Port)
}
