package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/agentflow/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/agentflow")
	t.Setenv("JWT_SECRET", "secret")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	c, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, ":8080", c.Addr())
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.False(t, c.CookieSecure)
	assert.Equal(t, 12, c.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173"}, c.CORSOrigins)
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes)
	assert.Equal(t, 50000, c.MaxUploadRecords)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Empty(t, c.StaticDir)
}

func TestFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MAX_UPLOAD_RECORDS", "10")
	t.Setenv("LOG_FORMAT", "text")

	c, err := config.FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.Addr())
	assert.Equal(t, time.Hour, c.JWTTTL)
	assert.True(t, c.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 10, c.MaxUploadRecords)
	assert.Equal(t, "text", c.LogFormat)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"zero upload bytes", map[string]string{"MAX_UPLOAD_BYTES": "0"}},
		{"negative record cap", map[string]string{"MAX_UPLOAD_RECORDS": "-1"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"unparsable duration", map[string]string{"JWT_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.FromEnv()
			assert.Error(t, err)
		})
	}
}
