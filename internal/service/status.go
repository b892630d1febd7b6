package service

import (
	"context"
	"errors"
	"strings"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/queue"
	"go.uber.org/zap"
)

func (s *bookingService) UpdateStatus(ctx context.Context, actor models.Actor, id string, request *models.UpdateStatusRequest) (*models.Booking, error) {
	if err := s.validator.Validate(request); err != nil {
		return nil, err
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStatus(actor, booking, request.Status); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, booking, request.Status, request.Reason, request.Notes)
}

func (s *bookingService) CancelBooking(ctx context.Context, actor models.Actor, id string, reason string) (*models.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, models.NewValidationError("cancellation reason is required")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeStatus(actor, booking, models.StatusCancelled); err != nil {
		return nil, err
	}

	// the fee policy decides first so closed or started bookings report a conflict
	if _, err := models.QuoteCancellation(booking, s.now()); err != nil {
		return nil, err
	}

	return s.transition(ctx, actor, booking, models.StatusCancelled, reason, "")
}

func (s *bookingService) QuoteCancellation(ctx context.Context, actor models.Actor, id string) (*models.CancellationQuote, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, booking, partyClient|partyOwner, "quote a cancellation for"); err != nil {
		return nil, err
	}
	quote, err := models.QuoteCancellation(booking, s.now())
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (s *bookingService) transition(ctx context.Context, actor models.Actor, booking *models.Booking,
	to models.BookingStatus, reason, notes string) (*models.Booking, error) {
	from := booking.Status
	if !models.CanTransition(from, to) {
		return nil, models.NewInvalidTransitionError(from, to)
	}

	reason = strings.TrimSpace(reason)
	if to.RequiresReason() && reason == "" {
		return nil, models.NewValidationError("a reason is required to move a booking to " + string(to))
	}

	now := s.now().UTC()
	if err := applyTransition(booking, to, actor, reason, strings.TrimSpace(notes), now); err != nil {
		return nil, err
	}

	err := s.repo.UpdateStatus(ctx, booking, from)
	if errors.Is(err, models.ErrStaleStatus) {
		return nil, models.NewConflictError("booking status changed concurrently, reload and retry")
	}
	if err != nil {
		return nil, s.internal("update booking status", err,
			zap.String("booking_id", booking.ID.String()),
			zap.String("reference", booking.Reference),
		)
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	event := queue.NewBookingEvent(booking, actor, now)
	event.PreviousStatus = from
	event.Reason = reason
	s.publish(ctx, queue.RoutingStatusChanged, event)
	s.invalidateStats(ctx)

	return booking, nil
}

// applyTransition sets the status and the side effects that come with it.
func applyTransition(b *models.Booking, to models.BookingStatus, actor models.Actor, reason, notes string, now time.Time) error {
	switch to {
	case models.StatusConfirmed:
		b.Approval = &models.Approval{
			ApprovedBy: actor.ID,
			ApprovedAt: &now,
			Notes:      notes,
		}
	case models.StatusRejected:
		b.Approval = &models.Approval{
			Notes:           notes,
			RejectionReason: reason,
		}
	case models.StatusCancelled:
		quote, err := models.QuoteCancellation(b, now)
		if err != nil {
			return err
		}
		b.Cancellation = &models.Cancellation{
			CancelledBy:   actor.Role,
			CancelledByID: actor.ID,
			Reason:        reason,
			CancelledAt:   now,
			Fee:           quote.Fee,
			Refund:        quote.Refund,
		}
	case models.StatusPaid:
		b.Payment.Status = models.PaymentCompleted
		b.Payment.PaidAmount = b.Pricing.TotalAmount
		b.Payment.PaidAt = &now
	case models.StatusRefunded:
		refund := b.Pricing.TotalAmount
		if b.Cancellation != nil {
			refund = b.Cancellation.Refund
		}
		b.Payment.Status = models.PaymentRefunded
		b.Payment.RefundAmount = refund
		b.Payment.RefundedAt = &now
	}

	b.Status = to
	b.UpdatedAt = now
	return nil
}
