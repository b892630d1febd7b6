package api

import (
	"net/http"
	"net/url"
	"strconv"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/utils"
)

func (h *Handler) ClientBookings() http.HandlerFunc {
	return h.scopedList(func(f *models.BookingFilter, id string) { f.ClientID = id })
}

func (h *Handler) OwnerBookings() http.HandlerFunc {
	return h.scopedList(func(f *models.BookingFilter, id string) { f.OwnerID = id })
}

func (h *Handler) DriverBookings() http.HandlerFunc {
	return h.scopedList(func(f *models.BookingFilter, id string) { f.DriverID = id })
}

// scopedList lists the bookings of the party named in the path. Only that party or an admin may read them.
func (h *Handler) scopedList(scope func(*models.BookingFilter, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := h.actor(w, r)
		if !ok {
			return
		}
		id := r.PathValue("id")
		if actor.Role != models.RoleAdmin && actor.ID != id {
			ae := utils.NewForbidden("cannot list another party's bookings")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		scope(&filter, id)
		h.list(w, r, filter)
	}
}

func (h *Handler) AdminBookings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		h.list(w, r, filter)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter models.BookingFilter) {
	page, err := h.service.ListBookings(r.Context(), filter)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	utils.RenderResponse(r, w, http.StatusOK, page)
}

func (h *Handler) AdminStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.service.Stats(r.Context())
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		utils.RenderResponse(r, w, http.StatusOK, stats)
	}
}

func parseFilter(q url.Values) (models.BookingFilter, error) {
	filter := models.BookingFilter{
		ClientID:  q.Get("client_id"),
		OwnerID:   q.Get("owner_id"),
		VehicleID: q.Get("vehicle_id"),
		DriverID:  q.Get("driver_id"),
		Search:    q.Get("search"),
		Sort:      q.Get("sort"),
		Order:     q.Get("order"),
	}

	if v := q.Get("status"); v != "" {
		status, err := models.ParseBookingStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if v := q.Get("from"); v != "" {
		from, err := models.ParseDate(v)
		if err != nil {
			return filter, models.NewValidationError("from must be a date")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := models.ParseDate(v)
		if err != nil {
			return filter, models.NewValidationError("to must be a date")
		}
		filter.To = &to
	}

	var err error
	if filter.Page, err = intParam(q, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = intParam(q, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, models.NewValidationError(name + " must be an integer")
	}
	return n, nil
}
