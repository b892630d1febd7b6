package models

import "fmt"

type BookingStatus string

const (
	StatusPending        BookingStatus = "pending"
	StatusConfirmed      BookingStatus = "confirmed"
	StatusPaymentPending BookingStatus = "payment_pending"
	StatusPaid           BookingStatus = "paid"
	StatusActive         BookingStatus = "active"
	StatusCompleted      BookingStatus = "completed"
	StatusCancelled      BookingStatus = "cancelled"
	StatusRejected       BookingStatus = "rejected"
	StatusRefunded       BookingStatus = "refunded"
)

// transitions is the only place the booking lifecycle is defined.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:        {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed:      {StatusPaymentPending, StatusPaid, StatusCancelled},
	StatusPaymentPending: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusActive, StatusCancelled},
	StatusActive:         {StatusCompleted, StatusCancelled},
	StatusCompleted:      {StatusRefunded},
	StatusCancelled:      {StatusRefunded},
	StatusRejected:       {},
	StatusRefunded:       {},
}

var allStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusPaymentPending,
	StatusPaid,
	StatusActive,
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
	StatusRefunded,
}

// revenue is counted over these statuses in the admin stats
var revenueStatuses = []BookingStatus{StatusCompleted, StatusActive, StatusPaid}

func AllStatuses() []BookingStatus {
	out := make([]BookingStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func RevenueStatuses() []BookingStatus {
	out := make([]BookingStatus, len(revenueStatuses))
	copy(out, revenueStatuses)
	return out
}

// TerminalStatuses release the vehicle and driver for other bookings.
func TerminalStatuses() []BookingStatus {
	return []BookingStatus{StatusCancelled, StatusRejected, StatusRefunded}
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", NewValidationError(fmt.Sprintf("unknown booking status %q", s))
	}
	return status, nil
}

func (s BookingStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusRefunded:
		return true
	}
	return false
}

func (s BookingStatus) CountsAsRevenue() bool {
	for _, r := range revenueStatuses {
		if r == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) AllowedTransitions() []BookingStatus {
	next := transitions[s]
	out := make([]BookingStatus, len(next))
	copy(out, next)
	return out
}

func (s BookingStatus) RequiresReason() bool {
	return s == StatusRejected || s == StatusCancelled
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
