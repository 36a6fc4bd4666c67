package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/hydroviewer/internal/adapter/export"
	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/mapping"
	"go.ngs.io/hydroviewer/internal/usecase"
	"go.ngs.io/hydroviewer/internal/zonal"
)

var nowFunc = time.Now

// Handler serves the dashboard page and the stateless API.
type Handler struct {
	svc     Services
	sidebar usecase.Sidebar

	regionsOnce sync.Once
	regions     []byte
	regionsErr  error
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc Services) *Handler {
	return &Handler{
		svc:     svc,
		sidebar: usecase.BuildSidebar(svc.Config.Catalog, svc.Config.DocumentationURL),
	}
}

// Index renders the dashboard page.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":   h.svc.Config.Title,
		"Sidebar": h.sidebar,
		"Welcome": usecase.WelcomeMessage(),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  h.svc.Version,
		"regions":  h.svc.Layer.Len(),
		"sessions": h.svc.Sessions.Len(),
		"time":     nowFunc().UTC().Format(time.RFC3339),
	})
}

// GetVariables handles GET /v1/variables.
func (h *Handler) GetVariables(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Config.Catalog)
}

// GetSidebar handles GET /v1/sidebar.
func (h *Handler) GetSidebar(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title":   h.svc.Config.Title,
		"sidebar": h.sidebar,
		"welcome": usecase.WelcomeMessage(),
	})
}

// GetRegions handles GET /v1/regions and returns the layer as GeoJSON.
func (h *Handler) GetRegions(c *gin.Context) {
	h.regionsOnce.Do(func() {
		h.regions, h.regionsErr = region.EncodeFeatureCollection(h.svc.Layer.Regions(), h.svc.Config.RegionIDField)
	})
	if h.regionsErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": h.regionsErr.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", h.regions)
}

// GetZonal handles GET /v1/zonal.
func (h *Handler) GetZonal(c *gin.Context) {
	req := usecase.ZonalRequest{
		RegionID: c.Query("region"),
		Variable: c.Query("variable"),
	}
	if s := c.Query("profile"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid profile: %v", err)})
			return
		}
		req.Profile = &p
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
		return
	}

	response, err := h.svc.Zonal.Execute(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if format == "csv" {
		name := export.Filename(req.RegionID, response.Variable, req.Profile)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, response.Table, response.Variable); err != nil {
			h.svc.Log.Error().Err(err).Msg("failed to stream CSV")
		}
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetProbe handles GET /v1/probe.
func (h *Handler) GetProbe(c *gin.Context) {
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return
	}
	timeIndex, err := strconv.Atoi(c.DefaultQuery("time_index", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid time_index: %v", err)})
		return
	}
	profile, err := strconv.Atoi(c.DefaultQuery("profile", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid profile: %v", err)})
		return
	}

	response, err := h.svc.Probe.Execute(c.Request.Context(), usecase.ProbeRequest{
		Lon:       lon,
		Lat:       lat,
		Variable:  c.Query("variable"),
		TimeIndex: timeIndex,
		Profile:   profile,
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, usecase.ErrNoRegionAtLocation),
		errors.Is(err, mapping.ErrNoRegionAtPoint),
		errors.Is(err, region.ErrUnknownRegion):
		return http.StatusBadRequest
	case errors.Is(err, zonal.ErrEmptyMask),
		errors.Is(err, store.ErrVariableNotFound),
		errors.Is(err, store.ErrNoTimeAxis):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
