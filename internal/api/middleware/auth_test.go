package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inboxkit/inboxkit/internal/models"
	"github.com/inboxkit/inboxkit/internal/repository"
)

func setupAuthTest(t *testing.T) (repository.ApiKeyRepository, *models.Organization) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Organization{}, &models.ApiKey{}))

	org := &models.Organization{Name: "acme"}
	require.NoError(t, db.Create(org).Error)

	keys := repository.NewApiKeyRepository(db)
	require.NoError(t, keys.Create(context.Background(), &models.ApiKey{
		Key:            "sk_live_valid",
		OrganizationID: org.ID,
	}))
	return keys, org
}

func runAuth(t *testing.T, keys repository.ApiKeyRepository, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/inboxes", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := APIKeyAuth(keys, nil)(func(c echo.Context) error {
		org := OrganizationFromContext(c)
		require.NotNil(t, org)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec
}

// requireAuthRejected asserts the shared error envelope on a 401.
func requireAuthRejected(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "UNAUTHORIZED", body["code"])
	assert.NotEmpty(t, body["error"])
}

func TestAPIKeyAuth_ValidKeyResolvesOrganization(t *testing.T) {
	keys, org := setupAuthTest(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/inboxes", nil)
	req.Header.Set("Authorization", "Bearer sk_live_valid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var resolved *models.Organization
	handler := APIKeyAuth(keys, nil)(func(c echo.Context) error {
		resolved = OrganizationFromContext(c)
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	require.NotNil(t, resolved)
	assert.Equal(t, org.ID, resolved.ID)
	assert.Equal(t, "acme", resolved.Name)
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	keys, _ := setupAuthTest(t)

	requireAuthRejected(t, runAuth(t, keys, ""))
}

func TestAPIKeyAuth_UnknownKey(t *testing.T) {
	keys, _ := setupAuthTest(t)

	requireAuthRejected(t, runAuth(t, keys, "Bearer sk_live_forged"))
}

func TestAPIKeyAuth_EmptyBearerToken(t *testing.T) {
	keys, _ := setupAuthTest(t)

	requireAuthRejected(t, runAuth(t, keys, "Bearer   "))
}

func TestOrganizationFromContext_Unset(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Nil(t, OrganizationFromContext(c))
}
