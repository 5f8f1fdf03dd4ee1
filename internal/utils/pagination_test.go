// internal/utils/pagination_test.go
package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(t *testing.T, rawQuery string) PaginationParams {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest("GET", "/?"+rawQuery, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParamsDefaults(t *testing.T) {
	params := paramsFor(t, "")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
	assert.Equal(t, defaultSort, params.Sort)
	assert.Equal(t, "desc", params.Order)
	assert.Empty(t, params.Search)
}

func TestGetPaginationParamsClampsOutOfRange(t *testing.T) {
	params := paramsFor(t, "page=-3&limit=5000&order=sideways")
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, defaultPageSize, params.Limit)
	assert.Equal(t, "desc", params.Order)
}

func TestGetPaginationParamsPassesValidValues(t *testing.T) {
	params := paramsFor(t, "page=3&limit=50&sort=name&order=asc&search=napkin")
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, "name", params.Sort)
	assert.Equal(t, "asc", params.Order)
	assert.Equal(t, "napkin", params.Search)
}

func TestCreatePaginationResultRoundsPagesUp(t *testing.T) {
	result := CreatePaginationResult(nil, 41, PaginationParams{Page: 1, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, int64(41), result.Total)
}
