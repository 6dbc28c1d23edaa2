package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luxtouch/spadispatch/internal/domain"
	"github.com/luxtouch/spadispatch/internal/service/search"
)

type TherapistSearchHandler struct {
	service         search.SearchUseCase
	defaultRadiusKm float64
}

func NewTherapistSearchHandler(service search.SearchUseCase, defaultRadiusKm float64) *TherapistSearchHandler {
	return &TherapistSearchHandler{service: service, defaultRadiusKm: defaultRadiusKm}
}

func (h *TherapistSearchHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
}

type searchResultResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Address  addressResponse   `json:"address"`
	Distance float64           `json:"distance"`
	Services map[string]string `json:"services"`
}

type addressResponse struct {
	Address     string      `json:"address"`
	Coordinates coordinates `json:"coordinates"`
}

type coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

func (h *TherapistSearchHandler) search(c *gin.Context) {
	latRaw := c.Query("latitude")
	lonRaw := c.Query("longitude")
	if latRaw == "" || lonRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing latitude or longitude"})
		return
	}

	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lon, errLon := strconv.ParseFloat(lonRaw, 64)
	radius := h.defaultRadiusKm
	var errRadius error
	if raw := c.Query("radius"); raw != "" {
		radius, errRadius = strconv.ParseFloat(raw, 64)
	}
	if errLat != nil || errLon != nil || errRadius != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates or radius"})
		return
	}

	var services []domain.ServiceKey
	if raw := c.Query("services"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				services = append(services, domain.NormalizeServiceKey(part))
			}
		}
	}

	results, err := h.service.Search(c.Request.Context(), search.Query{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radius,
		Services:  services,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		services := make(map[string]string, len(r.Therapist.Services))
		for key, price := range r.Therapist.Services {
			services[string(key)] = price.String()
		}
		response = append(response, searchResultResponse{
			ID:    r.Therapist.ID,
			Name:  r.Therapist.Name,
			Email: r.Therapist.Email,
			Address: addressResponse{
				Address: r.Therapist.Location.Address,
				Coordinates: coordinates{
					Latitude:  r.Therapist.Location.Latitude.Decimal.StringFixed(6),
					Longitude: r.Therapist.Location.Longitude.Decimal.StringFixed(6),
				},
			},
			Distance: r.DistanceKm,
			Services: services,
		})
	}
	c.JSON(http.StatusOK, response)
}
