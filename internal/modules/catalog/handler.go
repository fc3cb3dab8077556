package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"agrirent/internal/middleware"
	"agrirent/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog under the rental group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/equipment", h.CreateEquipment)
	rg.GET("/equipment/:id", h.GetEquipment)
	rg.DELETE("/equipment/:id", h.DeleteEquipment)
	rg.GET("/nearby", h.Nearby)
	rg.GET("/my-listings", h.MyListings)
	rg.GET("/my-bookings", h.MyBookings)
}

// CreateEquipment handles POST /equipment
func (h *Handler) CreateEquipment(c *gin.Context) {
	var req CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid equipment payload", err.Error())
		return
	}

	owner, err := middleware.ResolveUser(c, req.OwnerID)
	if err != nil {
		handleError(c, ErrForbidden)
		return
	}
	req.OwnerID = owner

	e, err := h.service.AddEquipment(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"id":      e.ID,
	})
}

// GetEquipment handles GET /equipment/:id
func (h *Handler) GetEquipment(c *gin.Context) {
	e, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// Nearby handles GET /nearby?lat&lng&radius&category&limit
func (h *Handler) Nearby(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "lng is required and must be a number")
		return
	}

	p := NearbyParams{Lat: lat, Lng: lng, Category: c.Query("category")}
	if raw := c.Query("radius"); raw != "" {
		if p.RadiusKm, err = strconv.ParseFloat(raw, 64); err != nil || p.RadiusKm <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "radius must be a positive number")
			return
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if p.Limit, err = strconv.Atoi(raw); err != nil || p.Limit <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
	}

	items, err := h.service.FindNearby(c.Request.Context(), p)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// MyListings handles GET /my-listings?owner_id
func (h *Handler) MyListings(c *gin.Context) {
	owner, ok := requireUser(c, "owner_id")
	if !ok {
		return
	}

	list, err := h.service.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// MyBookings handles GET /my-bookings?user_id
func (h *Handler) MyBookings(c *gin.Context) {
	user, ok := requireUser(c, "user_id")
	if !ok {
		return
	}

	rows, err := h.service.ListBookingsByUser(c.Request.Context(), user)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// DeleteEquipment handles DELETE /equipment/:id?owner_id
func (h *Handler) DeleteEquipment(c *gin.Context) {
	owner, ok := requireUser(c, "owner_id")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteEquipment(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		handleError(c, err)
		return
	}
	if !deleted {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found or unauthorized")
		return
	}
	response.Message(c, http.StatusOK, "Equipment deleted")
}

// requireUser resolves the acting user from the token or the named query
// parameter and writes the error response itself when it cannot.
func requireUser(c *gin.Context, param string) (string, bool) {
	id, err := middleware.ResolveUser(c, strings.TrimSpace(c.Query(param)))
	if err != nil {
		handleError(c, ErrForbidden)
		return "", false
	}
	if id == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", param+" is required")
		return "", false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Identity does not match the authenticated user")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
