package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestAddFavoriteHandler(t *testing.T) {
	t.Run("saves a listing", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetPropertyByExternalId", "abc123").Return(database.Property{Id: 5, ExternalId: "abc123"}, nil).Once()
		mockRepo.On("AddFavorite", 1, 5).Return(nil).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodPost, "/api/favorites/abc123", nil, 1)
		req.SetPathValue("propertyId", "abc123")
		rr := httptest.NewRecorder()
		app.addFavorite(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "expected status code to be 201")
	})

	t.Run("unknown listing is not found", func(t *testing.T) {
		mockRepo := &database.MockEstatelyRepository{}
		defer mockRepo.AssertExpectations(t)
		mockRepo.On("GetPropertyByExternalId", "missing").Return(database.Property{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)

		req := authedRequest(http.MethodPost, "/api/favorites/missing", nil, 1)
		req.SetPathValue("propertyId", "missing")
		rr := httptest.NewRecorder()
		app.addFavorite(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
	})
}

func TestCheckFavoriteHandler(t *testing.T) {
	mockRepo := &database.MockEstatelyRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("GetPropertyByExternalId", "abc123").Return(database.Property{Id: 5, ExternalId: "abc123"}, nil).Once()
	mockRepo.On("IsFavorite", 1, 5).Return(true, nil).Once()

	app := newTestApp(t, mockRepo)

	req := authedRequest(http.MethodGet, "/api/favorites/abc123/check", nil, 1)
	req.SetPathValue("propertyId", "abc123")
	rr := httptest.NewRecorder()
	app.checkFavorite(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	var resp FavoriteCheckResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
	assert.True(t, resp.IsFavorite, "expected listing to be reported as saved")
}

func TestListFavoritesHandler(t *testing.T) {
	mockRepo := &database.MockEstatelyRepository{}
	defer mockRepo.AssertExpectations(t)
	mockRepo.On("ListFavorites", 1).Return([]database.Property{
		{Id: 5, ExternalId: "abc123", Title: "Sunny flat"},
	}, nil).Once()

	app := newTestApp(t, mockRepo)

	req := authedRequest(http.MethodGet, "/api/favorites", nil, 1)
	rr := httptest.NewRecorder()
	app.listFavorites(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	var resp PropertiesResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected valid json response")
	assert.Len(t, resp.Properties, 1, "expected one saved listing")
}
