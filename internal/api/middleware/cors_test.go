package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSOrigins_DefaultsToLocalhost(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("APP_ENV", "")

	assert.Equal(t, []string{"http://localhost:3000"}, corsOrigins())
}

func TestCORSOrigins_ParsesAndTrimsList(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.dev , https://admin.example.dev ,")
	t.Setenv("APP_ENV", "")

	assert.Equal(t,
		[]string{"https://app.example.dev", "https://admin.example.dev"},
		corsOrigins())
}

func TestCORSOrigins_WildcardStrippedInProduction(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "*,https://app.example.dev")
	t.Setenv("APP_ENV", "production")

	assert.Equal(t, []string{"https://app.example.dev"}, corsOrigins())
}

func TestCORSOrigins_WildcardAllowedOutsideProduction(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "*")
	t.Setenv("APP_ENV", "development")

	assert.Equal(t, []string{"*"}, corsOrigins())
}

func TestCORSOrigins_ProductionWithOnlyWildcardFailsClosed(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "*")
	t.Setenv("APP_ENV", "production")

	assert.Equal(t, []string{"http://localhost:3000"}, corsOrigins())
}
