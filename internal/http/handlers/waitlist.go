package handlers

import (
	"net/http"

	"medtransport/internal/domain/models"
	"medtransport/internal/http/middleware"
	"medtransport/internal/services"

	"github.com/gin-gonic/gin"
)

func waitlistService(c *gin.Context) services.WaitlistService {
	return services.WaitlistService{RequestID: middleware.GetRequestID(c)}
}

// POST /api/trips/:id/waitlist
func EnqueueWaitlist(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var payload admissionPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	result, err := admissionService(c).EnqueueWaitlist(c.Request.Context(), tripID, services.AdmissionRequest{
		PatientID:       payload.PatientID,
		PatientName:     payload.PatientName,
		HasCompanion:    payload.HasCompanion,
		HasSpecialNeeds: payload.HasSpecialNeeds,
		Priority:        models.WaitlistPriority(payload.Priority),
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// GET /api/trips/:id/waitlist
func GetWaitlist(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	entries, err := waitlistService(c).List(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// DELETE /api/trips/:id/waitlist/:entryId
func WithdrawWaitlistEntry(c *gin.Context) {
	tripID, ok := parseID(c, "id")
	if !ok {
		return
	}
	entryID, ok := parseID(c, "entryId")
	if !ok {
		return
	}
	if err := waitlistService(c).Withdraw(c.Request.Context(), tripID, entryID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "entry_id": entryID, "withdrawn": true})
}
