package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/logger"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_Success(t *testing.T) {
	mock := &StorefrontMock{home: &service.HomePage{
		Categories: []domain.Category{{ID: "c1", Name: "Burgers", Slug: "burgers"}},
		Products:   []domain.Product{},
		Banners:    []domain.Banner{},
	}}
	handler := NewStorefrontHandler(mock, logger.Discard())

	recorder := httptest.NewRecorder()
	handler.Home(recorder, httptest.NewRequest("GET", "/home", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	var page service.HomePage
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&page))
	require.Len(t, page.Categories, 1)
	assert.Equal(t, "burgers", page.Categories[0].Slug)
}

func TestHome_Error(t *testing.T) {
	handler := NewStorefrontHandler(&StorefrontMock{err: errors.New("db down")}, logger.Discard())

	recorder := httptest.NewRecorder()
	handler.Home(recorder, httptest.NewRequest("GET", "/home", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "internal_error", response.Code)
}

func TestCategory_BySlug(t *testing.T) {
	mock := &StorefrontMock{category: &domain.Category{ID: "c1", Name: "Burgers", Slug: "burgers"}}
	handler := NewStorefrontHandler(mock, logger.Discard())

	recorder := httptest.NewRecorder()
	handler.Category(recorder, withURLParam(httptest.NewRequest("GET", "/categories/burgers", nil), "slug", "burgers"))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.Category(recorder, withURLParam(httptest.NewRequest("GET", "/categories/pizza", nil), "slug", "pizza"))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestProduct_NotFound(t *testing.T) {
	handler := NewStorefrontHandler(&StorefrontMock{}, logger.Discard())

	recorder := httptest.NewRecorder()
	handler.Product(recorder, withURLParam(httptest.NewRequest("GET", "/products/x", nil), "id", "x"))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "product not found", response.Error)
}
