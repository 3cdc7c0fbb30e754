package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/regrid/internal/catalog"
	"go.ngs.io/regrid/internal/converter"
	"go.ngs.io/regrid/internal/domain"
	"go.ngs.io/regrid/internal/usecase"
)

// Handler handles HTTP requests for grid lookups and resampling.
type Handler struct {
	resampleUC *usecase.ResampleUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(resampleUC *usecase.ResampleUseCase) *Handler {
	return &Handler{
		resampleUC: resampleUC,
	}
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidRequest),
		errors.Is(err, domain.ErrRange),
		errors.Is(err, domain.ErrShapeMismatch),
		errors.Is(err, domain.ErrUnsupportedMethod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// ListGrids handles GET /v1/grids.
func (h *Handler) ListGrids(c *gin.Context) {
	grids, err := h.resampleUC.ListGrids()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"grids": grids,
		"count": len(grids),
	})
}

// GetGrid handles GET /v1/grids/:domain/:name.
func (h *Handler) GetGrid(c *gin.Context) {
	info, err := h.resampleUC.DescribeGrid(c.Param("domain"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// FindPoint handles GET /v1/grids/:domain/:name/point.
func (h *Handler) FindPoint(c *gin.Context) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon parameters are required"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}

	response, err := h.resampleUC.FindPoint(usecase.PointRequest{
		Domain: c.Param("domain"),
		Name:   c.Param("name"),
		Lat:    lat,
		Lon:    lon,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ResampleBody is the JSON body of POST /v1/resample. Null values are read
// as missing samples.
type ResampleBody struct {
	Domain     string        `json:"domain" binding:"required"`
	Name       string        `json:"name" binding:"required"`
	Method     string        `json:"method"`
	Values     []*float64    `json:"values" binding:"required"`
	Times      int           `json:"times"`
	Resolution float64       `json:"resolution"`
	DLat       float64       `json:"dlat"`
	DLon       float64       `json:"dlon"`
	Latitude   *domain.Range `json:"latitude"`
	Longitude  *domain.Range `json:"longitude"`
}

// Resample handles POST /v1/resample.
func (h *Handler) Resample(c *gin.Context) {
	var body ResampleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	values := make([]float64, len(body.Values))
	for i, v := range body.Values {
		if v == nil {
			values[i] = math.NaN()
		} else {
			values[i] = *v
		}
	}

	target := usecase.TargetSpec{
		DLat:      body.DLat,
		DLon:      body.DLon,
		Latitude:  body.Latitude,
		Longitude: body.Longitude,
	}
	if target.DLat == 0 {
		target.DLat = body.Resolution
	}
	if target.DLon == 0 {
		target.DLon = body.Resolution
	}

	response, err := h.resampleUC.Resample(usecase.ResampleRequest{
		Domain: body.Domain,
		Name:   body.Name,
		Method: body.Method,
		Values: values,
		Times:  body.Times,
		Target: target,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ListMethods handles GET /v1/methods.
func (h *Handler) ListMethods(c *gin.Context) {
	methods := converter.Methods()
	c.JSON(http.StatusOK, gin.H{
		"methods": methods,
		"count":   len(methods),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
