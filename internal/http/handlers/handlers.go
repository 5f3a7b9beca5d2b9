package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/service"
)

type Handler struct {
	Store        *db.Store
	Orchestrator *service.Orchestrator
	Resolver     *service.HubResolver
	Validator    *validator.Validate
	Logger       zerolog.Logger

	MaxHubDistanceKm float64
}

func writeError(c *gin.Context, status int, code, message string, details any) {
	body := gin.H{"error": gin.H{"code": code, "message": message}}
	if details != nil {
		body["error"].(gin.H)["details"] = details
	}
	c.JSON(status, body)
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List bookings
// @Produce json
// @Param status query string false "booking status filter"
// @Router /api/bookings [get]
func (h *Handler) BookingsList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	bookings, err := h.Store.ListBookings(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "List bookings failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": bookings, "count": len(bookings)})
}

// @Summary List routes
// @Produce json
// @Param status query string false "route status filter"
// @Router /api/routes [get]
func (h *Handler) RoutesList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	routes, err := h.Store.ListRoutes(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "List routes failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": routes, "count": len(routes)})
}

// @Summary List hubs
// @Produce json
// @Router /api/hubs [get]
func (h *Handler) HubsList(c *gin.Context) {
	hubs, err := h.Store.ListHubs(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "List hubs failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": hubs, "count": len(hubs)})
}

// @Summary Latest optimization run
// @Produce json
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	run, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs yet", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Latest run lookup failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, run)
}

// @Summary Trigger a full optimization sweep
// @Produce json
// @Router /api/optimize [post]
func (h *Handler) Optimize(c *gin.Context) {
	summary, err := h.Orchestrator.RunWithRetry(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "SWEEP_FAILED", "Optimization sweep failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

type hubAssignRequest struct {
	Force         bool     `json:"force"`
	MaxDistanceKm *float64 `json:"max_distance_km" binding:"omitempty"`
}

// @Summary Assign bookings to their nearest hub
// @Accept json
// @Produce json
// @Router /api/hubs/assign [post]
func (h *Handler) HubsAssign(c *gin.Context) {
	var req hubAssignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
			return
		}
	}
	maxKm := h.MaxHubDistanceKm
	if req.MaxDistanceKm != nil {
		maxKm = *req.MaxDistanceKm
	}
	assigned, err := h.Resolver.AssignNearestHub(c.Request.Context(), req.Force, maxKm)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "ASSIGN_FAILED", "Hub assignment failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

type manualRouteRequest struct {
	BookingIDs []string `json:"booking_ids" validate:"required,min=1"`
	Leg        string   `json:"leg" validate:"required,oneof=pickup delivery mixed"`
	HubID      string   `json:"hub_id"`
	DriverID   string   `json:"driver_id"`
}

// @Summary Create one route from an explicit booking selection
// @Accept json
// @Produce json
// @Router /api/routes/manual [post]
func (h *Handler) ManualRoute(c *gin.Context) {
	var req manualRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Validation failed", err.Error())
		return
	}

	routeID, err := h.Orchestrator.CreateManualRoute(c.Request.Context(), service.ManualRouteRequest{
		BookingIDs: req.BookingIDs,
		Leg:        models.LegType(req.Leg),
		HubID:      req.HubID,
		DriverID:   req.DriverID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRouteTooShort):
			writeError(c, http.StatusUnprocessableEntity, "ROUTE_TOO_SHORT", "Route below minimum duration", nil)
		case errors.Is(err, db.ErrDailyHoursExceeded):
			writeError(c, http.StatusUnprocessableEntity, "DAILY_HOURS_EXCEEDED", "Driver daily hours exceeded", nil)
		case errors.Is(err, db.ErrBookingStateChanged):
			writeError(c, http.StatusConflict, "BOOKING_CONFLICT", "A booking was routed concurrently", nil)
		case errors.Is(err, service.ErrNoEligibleBookings):
			writeError(c, http.StatusUnprocessableEntity, "NO_ELIGIBLE_BOOKINGS", "No bookings eligible for the requested leg", nil)
		default:
			writeError(c, http.StatusInternalServerError, "ROUTE_FAILED", "Manual route creation failed", err.Error())
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route_id": routeID})
}
