package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10", nil)
	p := GetPaginationParams(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, PaginationParams{Page: 3, PageSize: 10, Offset: 20}, p)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=5000", nil)
	p = GetPaginationParams(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}, p)
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Page(items, PaginationParams{Page: 1, PageSize: 2, Offset: 0}))
	assert.Equal(t, []int{5}, Page(items, PaginationParams{Page: 3, PageSize: 2, Offset: 4}))
	assert.Equal(t, []int{}, Page(items, PaginationParams{Page: 4, PageSize: 2, Offset: 6}))
}
