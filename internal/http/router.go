package api

import (
	"log"
	stdhttp "net/http"
	"os"
	"strings"
	"time"

	intconfig "medtransport/internal/config"
	h "medtransport/internal/http/handlers"
	"medtransport/internal/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.Init(env)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), corsConfig())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.OPTIONS("/*path", func(c *gin.Context) { c.AbortWithStatus(stdhttp.StatusNoContent) })

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	api.Use(middleware.OperatorAuth(env.JWTSecret))
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		trips := api.Group("/trips")
		trips.POST("", h.CreateTrip)
		trips.GET("", h.GetTrips)
		trips.GET("/:id", h.GetTrip)
		trips.PUT("/:id/status", h.UpdateTripStatus)
		trips.PUT("/:id/assignment", h.ReassignTrip)
		trips.GET("/:id/capacity", h.GetTripCapacity)

		trips.GET("/:id/patients", h.GetTripPatients)
		trips.POST("/:id/patients", h.AdmitPatient)
		trips.POST("/:id/patients/:patientId/checkin", h.CheckinPatient)
		trips.POST("/:id/patients/:patientId/checkout", h.CheckoutPatient)
		trips.DELETE("/:id/patients/:patientId", h.CancelPatient)

		trips.POST("/:id/waitlist", h.EnqueueWaitlist)
		trips.GET("/:id/waitlist", h.GetWaitlist)
		trips.DELETE("/:id/waitlist/:entryId", h.WithdrawWaitlistEntry)

		vehicles := api.Group("/vehicles")
		vehicles.GET("", h.GetVehicles)
		vehicles.PUT("/:id/status", h.UpdateVehicleStatus)

		drivers := api.Group("/drivers")
		drivers.GET("", h.GetDrivers)
		drivers.PUT("/:id/status", h.UpdateDriverStatus)
	}

	return r
}

func corsConfig() gin.HandlerFunc {
	origins := []string{
		"http://localhost:3000", "http://127.0.0.1:3000",
		"http://localhost:5173", "http://127.0.0.1:5173",
	}
	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
