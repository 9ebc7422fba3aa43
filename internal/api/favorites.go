package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/npezzotti/go-estately/internal/database"
)

type FavoriteCheckResponse struct {
	Success    bool `json:"success"`
	IsFavorite bool `json:"is_favorite"`
}

// resolveFavoriteTarget maps the external property id in the request path
// to the stored property, translating a miss into a not found response.
func (s *EstatelyApp) resolveFavoriteTarget(w http.ResponseWriter, r *http.Request) (database.Property, bool) {
	prop, err := s.db.GetPropertyByExternalId(r.PathValue("propertyId"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return database.Property{}, false
	}

	return prop, true
}

func (s *EstatelyApp) addFavorite(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, ok := s.resolveFavoriteTarget(w, r)
	if !ok {
		return
	}

	if err := s.db.AddFavorite(userId, prop.Id); err != nil {
		s.log.Println("add favorite:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, StatusResponse{
		Success: true,
		Message: "property added to favorites",
	})
}

func (s *EstatelyApp) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, ok := s.resolveFavoriteTarget(w, r)
	if !ok {
		return
	}

	if err := s.db.RemoveFavorite(userId, prop.Id); err != nil {
		s.log.Println("remove favorite:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: "property removed from favorites",
	})
}

func (s *EstatelyApp) listFavorites(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	props, err := s.db.ListFavorites(userId)
	if err != nil {
		s.log.Println("list favorites:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PropertiesResponse{
		Success:    true,
		Properties: apiProperties(props),
	})
}

func (s *EstatelyApp) checkFavorite(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, ok := s.resolveFavoriteTarget(w, r)
	if !ok {
		return
	}

	isFav, err := s.db.IsFavorite(userId, prop.Id)
	if err != nil {
		s.log.Println("check favorite:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, FavoriteCheckResponse{
		Success:    true,
		IsFavorite: isFav,
	})
}
