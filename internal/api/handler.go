package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"labpower-backend/internal/engine"
	"labpower-backend/internal/notification"
	"labpower-backend/internal/optimizer"
	"labpower-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	engine    *engine.Service
	optimizer *optimizer.Optimizer
	webpush   *webpush.Options
	notifier  *notification.WorkerPool
}

// NewHandler creates a new API handler. notifier may be nil when push
// notifications are not configured.
func NewHandler(s store.Store, eng *engine.Service, opt *optimizer.Optimizer, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *Handler {
	return &Handler{
		store:     s,
		engine:    eng,
		optimizer: opt,
		webpush:   webpushOptions,
		notifier:  notifier,
	}
}
