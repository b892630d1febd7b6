package queue

import (
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
)

const (
	RoutingBookingCreated = "booking.created"
	RoutingStatusChanged  = "booking.status_changed"
	RoutingDriverChanged  = "booking.driver_changed"
)

// BookingEvent is the JSON body of every booking lifecycle message.
type BookingEvent struct {
	BookingID      string               `json:"booking_id"`
	Reference      string               `json:"reference"`
	ClientID       string               `json:"client_id"`
	OwnerID        string               `json:"owner_id"`
	VehicleID      string               `json:"vehicle_id"`
	DriverID       *string              `json:"driver_id,omitempty"`
	Status         models.BookingStatus `json:"status"`
	PreviousStatus models.BookingStatus `json:"previous_status,omitempty"`
	StartDate      time.Time            `json:"start_date"`
	EndDate        time.Time            `json:"end_date"`
	TotalAmount    int64                `json:"total_amount"`
	Reason         string               `json:"reason,omitempty"`
	ActorID        string               `json:"actor_id,omitempty"`
	ActorRole      models.Role          `json:"actor_role,omitempty"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

func NewBookingEvent(b *models.Booking, actor models.Actor, at time.Time) BookingEvent {
	return BookingEvent{
		BookingID:   b.ID.String(),
		Reference:   b.Reference,
		ClientID:    b.ClientID,
		OwnerID:     b.OwnerID,
		VehicleID:   b.VehicleID,
		DriverID:    b.Driver.DriverID,
		Status:      b.Status,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
		TotalAmount: b.Pricing.TotalAmount,
		ActorID:     actor.ID,
		ActorRole:   actor.Role,
		OccurredAt:  at.UTC(),
	}
}
