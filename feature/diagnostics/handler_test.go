package diagnostics

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/wangkanai/foundation/core/entity"
	"github.com/wangkanai/foundation/core/valueobject"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coordinate struct {
	X, Y int
}

func setupApp() *fiber.App {
	app := fiber.New()
	NewHandler(nil).RegisterRoutes(app)
	return app
}

func TestHandleCacheStats(t *testing.T) {
	valueobject.ClearCache()
	entity.ClearCache()

	// Populate both caches so the counters are non-trivial.
	assert.True(t, valueobject.Equals(coordinate{1, 2}, coordinate{1, 2}))
	entity.RealTypeOf(reflect.TypeOf(coordinate{}))

	app := setupApp()
	req := httptest.NewRequest("GET", "/diagnostics/caches", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload struct {
		ValueObjects struct {
			OptimizedTypes int64 `json:"optimized_types"`
			TotalTypes     int64 `json:"total_types"`
		} `json:"value_objects"`
		TypeResolution struct {
			Capacity int `json:"capacity"`
		} `json:"type_resolution"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, int64(1), payload.ValueObjects.OptimizedTypes)
	assert.Equal(t, int64(1), payload.ValueObjects.TotalTypes)
	assert.Equal(t, entity.DefaultCapacity, payload.TypeResolution.Capacity)
}

func TestHandleCacheClear(t *testing.T) {
	assert.True(t, valueobject.Equals(coordinate{3, 4}, coordinate{3, 4}))
	require.NotZero(t, valueobject.Stats().TotalTypes)

	app := setupApp()
	req := httptest.NewRequest("POST", "/diagnostics/caches/clear", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Zero(t, valueobject.Stats().TotalTypes)
	assert.Zero(t, entity.CacheStats().Size)
}
