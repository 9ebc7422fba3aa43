package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/types"
	"github.com/teris-io/shortid"
)

type PropertyRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	PropertyType string   `json:"property_type"`
	Price        int64    `json:"price"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	Area         int      `json:"area"`
	Images       []string `json:"images"`
}

type PropertyResponse struct {
	Success  bool           `json:"success"`
	Property types.Property `json:"property"`
}

type PropertiesResponse struct {
	Success    bool              `json:"success"`
	Properties []types.Property  `json:"properties"`
	Pagination *types.Pagination `json:"pagination,omitempty"`
}

func (pr *PropertyRequest) validate() *ApiError {
	if strings.TrimSpace(pr.Title) == "" || strings.TrimSpace(pr.City) == "" {
		return NewValidationError("title and city are required")
	}
	if pr.Price <= 0 {
		return NewValidationError("price must be positive")
	}

	return nil
}

func (s *EstatelyApp) createProperty(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := req.validate(); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId, err := shortid.Generate()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, err := s.db.CreateProperty(database.CreatePropertyParams{
		ExternalId:   externalId,
		OwnerId:      userId,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Price:        req.Price,
		City:         req.City,
		Address:      req.Address,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		Images:       req.Images,
	})
	if err != nil {
		s.log.Println("create property:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, PropertyResponse{
		Success:  true,
		Property: apiProperty(prop),
	})
}

func (s *EstatelyApp) listProperties(w http.ResponseWriter, r *http.Request) {
	params := database.ListPropertiesParams{
		City:         r.URL.Query().Get("city"),
		PropertyType: r.URL.Query().Get("property_type"),
		Page:         1,
		Limit:        20,
	}

	query := r.URL.Query()
	for name, dst := range map[string]*int64{
		"min_price": &params.MinPrice,
		"max_price": &params.MaxPrice,
	} {
		if raw := query.Get(name); raw != "" {
			val, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || val < 0 {
				errResp := NewBadRequestError()
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			*dst = val
		}
	}
	for name, dst := range map[string]*int{
		"min_bedrooms": &params.MinBedrooms,
		"page":         &params.Page,
		"limit":        &params.Limit,
	} {
		if raw := query.Get(name); raw != "" {
			val, err := strconv.Atoi(raw)
			if err != nil || val < 1 {
				errResp := NewBadRequestError()
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			*dst = val
		}
	}

	props, total, err := s.db.ListProperties(params)
	if err != nil {
		s.log.Println("list properties:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PropertiesResponse{
		Success:    true,
		Properties: apiProperties(props),
		Pagination: &types.Pagination{
			Total: total,
			Page:  params.Page,
			Limit: params.Limit,
			Pages: (total + params.Limit - 1) / params.Limit,
		},
	})
}

func (s *EstatelyApp) myProperties(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	props, err := s.db.ListPropertiesByOwner(userId)
	if err != nil {
		s.log.Println("list properties by owner:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PropertiesResponse{
		Success:    true,
		Properties: apiProperties(props),
	})
}

func (s *EstatelyApp) getProperty(w http.ResponseWriter, r *http.Request) {
	prop, err := s.db.GetPropertyByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PropertyResponse{
		Success:  true,
		Property: apiProperty(prop),
	})
}

func (s *EstatelyApp) updateProperty(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, err := s.db.GetPropertyByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if prop.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req PropertyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := req.validate(); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateProperty(database.UpdatePropertyParams{
		Id:           prop.Id,
		Title:        req.Title,
		Description:  req.Description,
		PropertyType: req.PropertyType,
		Price:        req.Price,
		City:         req.City,
		Address:      req.Address,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		Images:       req.Images,
	})
	if err != nil {
		s.log.Println("update property:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, PropertyResponse{
		Success:  true,
		Property: apiProperty(updated),
	})
}

func (s *EstatelyApp) deleteProperty(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	prop, err := s.db.GetPropertyByExternalId(r.PathValue("id"))
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if prop.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteProperty(prop.Id); err != nil {
		s.log.Println("delete property:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, StatusResponse{
		Success: true,
		Message: "property deleted",
	})
}

func apiProperty(p database.Property) types.Property {
	return types.Property{
		Id:           p.Id,
		ExternalId:   p.ExternalId,
		OwnerId:      p.OwnerId,
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Price:        p.Price,
		City:         p.City,
		Address:      p.Address,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		Area:         p.Area,
		Images:       p.Images,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func apiProperties(props []database.Property) []types.Property {
	out := make([]types.Property, 0, len(props))
	for _, p := range props {
		out = append(out, apiProperty(p))
	}

	return out
}
