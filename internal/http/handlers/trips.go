package handlers

import (
	"net/http"
	"strconv"
	"time"

	"medtransport/internal/domain/models"
	"medtransport/internal/http/middleware"
	"medtransport/internal/services"

	"github.com/gin-gonic/gin"
)

type tripPayload struct {
	Destination string     `json:"destination" binding:"required"`
	DepartureAt time.Time  `json:"departure_at" binding:"required"`
	ReturnAt    *time.Time `json:"return_at"`
	SeatsTotal  int        `json:"seats_total" binding:"required"`
	VehicleID   int64      `json:"vehicle_id" binding:"required"`
	DriverID    int64      `json:"driver_id" binding:"required"`
}

func tripService(c *gin.Context) services.TripService {
	return services.TripService{RequestID: middleware.GetRequestID(c)}
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}

// POST /api/trips
func CreateTrip(c *gin.Context) {
	var payload tripPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	trip, err := tripService(c).CreateTrip(c.Request.Context(), models.Trip{
		Destination: payload.Destination,
		DepartureAt: payload.DepartureAt,
		ReturnAt:    payload.ReturnAt,
		SeatsTotal:  payload.SeatsTotal,
		VehicleID:   payload.VehicleID,
		DriverID:    payload.DriverID,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trip)
}

// GET /api/trips
func GetTrips(c *gin.Context) {
	trips, err := tripService(c).TripRepo.ListTrips(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trips)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	trip, err := tripService(c).TripRepo.GetTrip(c.Request.Context(), nil, tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}

// PUT /api/trips/:id/status
func UpdateTripStatus(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if !BindJSONOrError(c, &payload) {
		return
	}
	if err := tripService(c).UpdateStatus(c.Request.Context(), tripID, models.TripStatus(payload.Status)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "status": payload.Status})
}

// PUT /api/trips/:id/assignment
func ReassignTrip(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		VehicleID int64 `json:"vehicle_id" binding:"required"`
		DriverID  int64 `json:"driver_id" binding:"required"`
	}
	if !BindJSONOrError(c, &payload) {
		return
	}
	if err := tripService(c).Reassign(c.Request.Context(), tripID, payload.VehicleID, payload.DriverID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "vehicle_id": payload.VehicleID, "driver_id": payload.DriverID})
}

// GET /api/trips/:id/capacity
func GetTripCapacity(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	capacity, err := admissionService(c).Capacity(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, capacity)
}

// GET /api/trips/:id/patients
func GetTripPatients(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	svc := admissionService(c)
	records, err := svc.RecordRepo.ListByTrip(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
