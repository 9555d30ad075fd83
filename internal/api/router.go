package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"labpower-backend/config"
	"labpower-backend/internal/engine"
	"labpower-backend/internal/mw"
	"labpower-backend/internal/notification"
	"labpower-backend/internal/optimizer"
	"labpower-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, eng *engine.Service, opt *optimizer.Optimizer, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, eng, opt, webpushOptions, notifier)

	rateLimiter := mw.RateLimiter(cfg.Server)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Reference data (cached)
		api.GET("/laboratories", caching, handler.GetLaboratories)
		api.GET("/laboratories/:lab_id/machines", caching, handler.GetLaboratoryMachines)

		// Availability & optimization
		api.POST("/availability", handler.CheckAvailability)
		api.POST("/optimize", handler.OptimizeScheduling)
		api.POST("/optimize/weekly", handler.OptimizeWeek)
		api.GET("/laboratories/:lab_id/energy-profile", handler.GetEnergyProfile)

		// Booking workflow
		api.GET("/appointments", handler.ListAppointments)
		api.POST("/appointments", handler.CreateAppointment)
		api.DELETE("/appointments/:id", handler.CancelAppointment)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
