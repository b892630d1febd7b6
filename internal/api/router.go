package api

import (
	"net/http"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/middleware"
	"github.com/chrisdamba/rentalbooking/internal/utils"
)

const versionPrefix = "/v1"

type Middleware func(http.Handler) http.Handler

func passthrough(next http.Handler) http.Handler { return next }

// NewRouter mounts every booking route under /v1. authenticate and limit may be nil.
func NewRouter(h *Handler, health http.HandlerFunc, authenticate, limit Middleware) http.Handler {
	if authenticate == nil {
		authenticate = passthrough
	}
	if limit == nil {
		limit = passthrough
	}
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	protected := func(next http.HandlerFunc, methods ...string) http.Handler {
		return authenticate(limit(utils.AllowedMethods(utils.AllowedContentTypes(next, "application/json"), methods...)))
	}
	admin := func(next http.HandlerFunc) http.Handler {
		return authenticate(adminOnly(limit(utils.AllowedMethods(next, http.MethodGet))))
	}

	router := http.NewServeMux()
	router.HandleFunc(versionPrefix+"/health", utils.AllowedMethods(health, http.MethodGet))

	router.Handle(versionPrefix+"/bookings", protected(h.Bookings(), http.MethodPost, http.MethodGet))
	router.Handle(versionPrefix+"/bookings/{id}", protected(h.Booking(), http.MethodGet))
	router.Handle(versionPrefix+"/bookings/{id}/status", protected(h.Status(), http.MethodPatch))
	router.Handle(versionPrefix+"/bookings/{id}/cancel", protected(h.Cancel(), http.MethodPost))
	router.Handle(versionPrefix+"/bookings/{id}/cancellation-quote", protected(h.CancellationQuote(), http.MethodGet))
	router.Handle(versionPrefix+"/bookings/{id}/driver", protected(h.Driver(), http.MethodPut, http.MethodDelete))
	router.Handle(versionPrefix+"/bookings/{id}/messages", protected(h.Messages(), http.MethodPost))
	router.Handle(versionPrefix+"/bookings/{id}/messages/read", protected(h.MessagesRead(), http.MethodPost))
	router.Handle(versionPrefix+"/bookings/{id}/reviews", protected(h.Reviews(), http.MethodPost))

	router.Handle(versionPrefix+"/clients/{id}/bookings", protected(h.ClientBookings(), http.MethodGet))
	router.Handle(versionPrefix+"/owners/{id}/bookings", protected(h.OwnerBookings(), http.MethodGet))
	router.Handle(versionPrefix+"/drivers/{id}/bookings", protected(h.DriverBookings(), http.MethodGet))
	router.Handle(versionPrefix+"/vehicles/{id}/availability", protected(h.VehicleAvailability(), http.MethodGet))
	router.Handle(versionPrefix+"/drivers/{id}/availability", protected(h.DriverAvailability(), http.MethodGet))

	router.Handle(versionPrefix+"/admin/bookings", admin(h.AdminBookings()))
	router.Handle(versionPrefix+"/admin/bookings/stats", admin(h.AdminStats()))
	router.Handle(versionPrefix+"/admin/bookings/export", admin(h.AdminExport()))

	return router
}
