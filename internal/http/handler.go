package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go.ngs.io/harmonize/internal/usecase"
)

// Handler handles HTTP requests for regridding.
type Handler struct {
	regridUC     *usecase.RegridUseCase
	maxBodyBytes int64
}

// NewHandler creates a new HTTP handler. maxBodyBytes caps the request body of POST /v1/regrid.
func NewHandler(regridUC *usecase.RegridUseCase, maxBodyBytes int64) *Handler {
	return &Handler{
		regridUC:     regridUC,
		maxBodyBytes: maxBodyBytes,
	}
}

// Regrid handles POST /v1/regrid.
func (h *Handler) Regrid(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}

	var body RegridRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.regridUC.Execute(usecase.RegridRequest{
		Grid:       body.Grid.ToDomain(),
		Bounds:     *body.Bounds,
		Resolution: body.Resolution,
		Method:     body.Method,
		ChunkSize:  body.ChunkSize,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			loggerFrom(c).Error("regrid failed", zap.Error(err))
		}
		abortWithError(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, RegridResponse{
		Method:   resp.Method,
		Strategy: resp.Strategy,
		SourceResolution: ResolutionDTO{
			Lat: resp.SourceResolution.Lat,
			Lon: resp.SourceResolution.Lon,
		},
		MaskedCells: resp.MaskedCells,
		ElapsedMS:   float64(resp.Elapsed.Microseconds()) / 1000,
		Grid:        NewGridDTO(resp.Grid),
	})
}

// statusFor maps a regrid error to an HTTP status.
func statusFor(err error) int {
	switch usecase.Reason(err) {
	case usecase.ReasonUnknownMethod, usecase.ReasonInvalidInput:
		return http.StatusBadRequest
	case usecase.ReasonUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ListMethods handles GET /v1/methods.
func (h *Handler) ListMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": h.regridUC.DefaultMethod(),
		"methods": h.regridUC.Methods(),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
