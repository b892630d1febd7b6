package api

import (
	"context"
	"errors"
	"net/http"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/middleware"
	"github.com/chrisdamba/rentalbooking/internal/ports"
	"github.com/chrisdamba/rentalbooking/internal/utils"
	"go.uber.org/zap"
)

type Handler struct {
	service        ports.BookingService
	logger         *zap.Logger
	exposeInternal bool
}

type Option func(*Handler)

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithInternalErrors puts the cause of internal errors in the response body. Development only.
func WithInternalErrors(expose bool) Option {
	return func(h *Handler) {
		h.exposeInternal = expose
	}
}

func NewHandler(service ports.BookingService, opts ...Option) *Handler {
	h := &Handler{service: service, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Bookings serves POST (create) and GET ?reference= (lookup by reference).
func (h *Handler) Bookings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.create(w, r)
		case http.MethodGet:
			h.getByReference(w, r)
		}
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var request models.CreateBookingRequest
	if err := utils.JsonDecodeBody(r, &request); err != nil {
		ae := utils.NewBadRequest("error json decoding body")
		utils.RenderResponse(r, w, ae.StatusCode, ae)
		return
	}

	// clients book for themselves
	if actor.Role == models.RoleClient {
		if request.ClientID == "" {
			request.ClientID = actor.ID
		}
		if request.ClientID != actor.ID {
			ae := utils.NewForbidden("clients can only book for themselves")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}
	}

	booking, err := h.service.CreateBooking(r.Context(), actor, &request)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	utils.RenderResponse(r, w, http.StatusCreated, booking)
}

func (h *Handler) getByReference(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		ae := utils.NewBadRequest("reference query parameter is required")
		utils.RenderResponse(r, w, ae.StatusCode, ae)
		return
	}
	booking, err := h.service.GetBookingByReference(r.Context(), actor, reference)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	utils.RenderResponse(r, w, http.StatusOK, booking)
}

func (h *Handler) Booking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		booking, err := h.service.GetBooking(r.Context(), actor, r.PathValue("id"))
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func (h *Handler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var request models.UpdateStatusRequest
		if !h.decode(w, r, &request) {
			return
		}
		booking, err := h.service.UpdateStatus(r.Context(), actor, r.PathValue("id"), &request)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func (h *Handler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var request models.CancelBookingRequest
		if !h.decode(w, r, &request) {
			return
		}
		booking, err := h.service.CancelBooking(r.Context(), actor, r.PathValue("id"), request.Reason)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func (h *Handler) CancellationQuote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		quote, err := h.service.QuoteCancellation(r.Context(), actor, r.PathValue("id"))
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, quote)
	}
}

// Driver serves PUT (assign) and DELETE (unassign).
func (h *Handler) Driver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}

		var booking *models.Booking
		var err error
		switch r.Method {
		case http.MethodPut:
			var request models.AssignDriverRequest
			if !h.decode(w, r, &request) {
				return
			}
			booking, err = h.service.AssignDriver(r.Context(), actor, r.PathValue("id"), request.DriverID)
		case http.MethodDelete:
			booking, err = h.service.UnassignDriver(r.Context(), actor, r.PathValue("id"))
		}
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func (h *Handler) Messages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var request models.MessageRequest
		if !h.decode(w, r, &request) {
			return
		}
		booking, err := h.service.AddMessage(r.Context(), actor, r.PathValue("id"), request.Text)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusCreated, booking)
	}
}

func (h *Handler) MessagesRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		booking, err := h.service.MarkMessagesRead(r.Context(), actor, r.PathValue("id"))
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, booking)
	}
}

func (h *Handler) Reviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		var request models.ReviewRequest
		if !h.decode(w, r, &request) {
			return
		}
		booking, err := h.service.AddReview(r.Context(), actor, r.PathValue("id"), &request)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusCreated, booking)
	}
}

func (h *Handler) VehicleAvailability() http.HandlerFunc {
	return h.availability(h.service.CheckVehicleAvailability)
}

func (h *Handler) DriverAvailability() http.HandlerFunc {
	return h.availability(h.service.CheckDriverAvailability)
}

func (h *Handler) availability(check func(ctx context.Context, id string, r models.DateRange) (*models.Availability, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		dates, err := models.ParseDateRange(q.Get("start"), q.Get("end"))
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		availability, err := check(r.Context(), r.PathValue("id"), dates)
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, availability)
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		ae := utils.NewUnauthorized("authentication required")
		utils.RenderResponse(r, w, ae.StatusCode, ae)
	}
	return actor, ok
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.JsonDecodeBody(r, dst); err != nil {
		ae := utils.NewBadRequest("error json decoding body")
		utils.RenderResponse(r, w, ae.StatusCode, ae)
		return false
	}
	return true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	ae := h.getApiError(err)
	utils.RenderResponse(r, w, ae.StatusCode, ae)
}

func (h *Handler) getApiError(err error) utils.ApiError {
	var me *models.Error
	if !errors.As(err, &me) {
		me = models.NewInternalError("internal server error", err)
	}

	ae := utils.ApiError{Kind: string(me.Kind), Msg: me.Message}
	switch me.Kind {
	case models.KindValidation:
		ae.StatusCode = http.StatusBadRequest
	case models.KindNotFound:
		ae.StatusCode = http.StatusNotFound
	case models.KindForbidden:
		ae.StatusCode = http.StatusForbidden
	case models.KindConflict:
		ae.StatusCode = http.StatusConflict
		ae.Conflicts = me.Conflicts
	case models.KindInvalidTransition:
		ae.StatusCode = http.StatusUnprocessableEntity
		ae.CurrentStatus = me.Current
		ae.AllowedStatuses = me.Allowed
	default:
		ae.StatusCode = http.StatusInternalServerError
		ae.Kind = string(models.KindInternal)
		if h.exposeInternal {
			ae.Msg = me.Error()
		} else {
			ae.Msg = "internal server error"
		}
	}
	return ae
}
