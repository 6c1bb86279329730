package handlers

import (
	"net/http"

	"medtransport/internal/domain/models"
	"medtransport/internal/http/middleware"
	"medtransport/internal/services"

	"github.com/gin-gonic/gin"
)

type admissionPayload struct {
	PatientID       int64  `json:"patient_id" binding:"required"`
	PatientName     string `json:"patient_name" binding:"required"`
	HasCompanion    bool   `json:"has_companion"`
	HasSpecialNeeds bool   `json:"has_special_needs"`
	Priority        string `json:"priority"`
}

func admissionService(c *gin.Context) services.AdmissionService {
	reqID := middleware.GetRequestID(c)
	return services.AdmissionService{
		RequestID: reqID,
		Geo: services.GeolocationService{
			Timeout:   Cfg.GeoTimeout,
			RequestID: reqID,
		},
	}
}

// POST /api/trips/:id/patients
func AdmitPatient(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload admissionPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	result, err := admissionService(c).Admit(c.Request.Context(), tripID, services.AdmissionRequest{
		PatientID:       payload.PatientID,
		PatientName:     payload.PatientName,
		HasCompanion:    payload.HasCompanion,
		HasSpecialNeeds: payload.HasSpecialNeeds,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if result.State == models.RecordWaitlisted {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// POST /api/trips/:id/patients/:patientId/checkin
func CheckinPatient(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	patientID, ok := parseID(c, "patientId")
	if !ok {
		return
	}

	var payload struct {
		Location *models.GeoPoint `json:"location"`
	}
	// body is optional for check-in
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !BindJSONOrError(c, &payload) {
			return
		}
	}

	rec, err := admissionService(c).CheckIn(c.Request.Context(), tripID, patientID, payload.Location)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record_id":  rec.ID,
		"state":      rec.State,
		"checkin_at": rec.CheckinAt,
		"location":   rec.CheckinLocation,
	})
}

// POST /api/trips/:id/patients/:patientId/checkout
func CheckoutPatient(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	patientID, ok := parseID(c, "patientId")
	if !ok {
		return
	}

	var payload struct {
		Notes string `json:"notes"`
	}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !BindJSONOrError(c, &payload) {
			return
		}
	}

	rec, promoted, err := admissionService(c).CheckOut(c.Request.Context(), tripID, patientID, payload.Notes)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"record_id":   rec.ID,
		"state":       rec.State,
		"checkout_at": rec.CheckoutAt,
		"promoted":    len(promoted),
	})
}

// DELETE /api/trips/:id/patients/:patientId
func CancelPatient(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	patientID, ok := parseID(c, "patientId")
	if !ok {
		return
	}

	promoted, err := admissionService(c).Cancel(c.Request.Context(), tripID, patientID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trip_id":    tripID,
		"patient_id": patientID,
		"state":      models.RecordCancelled,
		"promoted":   len(promoted),
	})
}
