package handlers

import (
	"net/http"

	"medtransport/internal/domain"
	"medtransport/internal/domain/models"
	"medtransport/internal/repositories"

	"github.com/gin-gonic/gin"
)

// Fleet endpoints are thin: the engine consumes vehicle and driver status,
// it does not own their lifecycle.

// GET /api/vehicles
func GetVehicles(c *gin.Context) {
	vehicles, err := repositories.VehicleRepo{}.ListVehicles(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// PUT /api/vehicles/:id/status
func UpdateVehicleStatus(c *gin.Context) {
	vehicleID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if !BindJSONOrError(c, &payload) {
		return
	}
	status := models.VehicleStatus(payload.Status)
	if !status.Valid() {
		RespondDomainError(c, domain.ValidationError{Field: "status", Msg: "unknown vehicle status"})
		return
	}
	if err := (repositories.VehicleRepo{}).UpdateStatus(c.Request.Context(), vehicleID, status); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle_id": vehicleID, "operational_status": status})
}

// GET /api/drivers
func GetDrivers(c *gin.Context) {
	drivers, err := repositories.DriverRepo{}.ListDrivers(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, drivers)
}

// PUT /api/drivers/:id/status
func UpdateDriverStatus(c *gin.Context) {
	driverID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if !BindJSONOrError(c, &payload) {
		return
	}
	status := models.DriverStatus(payload.Status)
	if !status.Valid() {
		RespondDomainError(c, domain.ValidationError{Field: "status", Msg: "unknown driver status"})
		return
	}
	if err := (repositories.DriverRepo{}).UpdateStatus(c.Request.Context(), driverID, status); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver_id": driverID, "status": status})
}
