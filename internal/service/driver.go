package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/queue"
	"go.uber.org/zap"
)

func (s *bookingService) AssignDriver(ctx context.Context, actor models.Actor, id string, driverID string) (*models.Booking, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, models.NewValidationError("driver_id is required")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, booking, partyOwner, "assign a driver to"); err != nil {
		return nil, err
	}
	if !booking.Driver.Required {
		return nil, models.NewConflictError("booking does not require a driver")
	}
	if booking.Status.IsTerminal() || booking.Status == models.StatusCompleted {
		return nil, models.NewConflictError(fmt.Sprintf("cannot assign a driver to a %s booking", booking.Status))
	}

	driver, err := s.drivers.GetDriver(ctx, driverID)
	if err != nil {
		return nil, s.lookupError("driver", err)
	}
	if driver.ApprovalStatus != models.DriverApproved {
		return nil, models.NewConflictError("driver is not approved")
	}

	// overlapping bookings for the driver, ignoring this one
	overlapping, err := s.repo.FindOverlapping(ctx, models.OverlapQuery{
		Resource:  models.OverlapDriver,
		ID:        driver.ID,
		Range:     booking.Range(),
		ExcludeID: &booking.ID,
	})
	if err != nil {
		return nil, s.internal("check driver availability", err)
	}
	if len(overlapping) > 0 {
		return nil, models.NewConflictError("driver is already booked for these dates", summaries(overlapping)...)
	}

	updated, err := s.repo.SetDriver(ctx, booking.ID, &driver.ID)
	if err != nil {
		return nil, s.driverWriteError(err, booking)
	}

	s.driverChanged(ctx, actor, updated)
	return updated, nil
}

func (s *bookingService) UnassignDriver(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, booking, partyOwner, "unassign the driver of"); err != nil {
		return nil, err
	}
	if booking.Driver.DriverID == nil {
		return nil, models.NewConflictError("no driver is assigned to this booking")
	}

	updated, err := s.repo.SetDriver(ctx, booking.ID, nil)
	if err != nil {
		return nil, s.driverWriteError(err, booking)
	}

	s.driverChanged(ctx, actor, updated)
	return updated, nil
}

func (s *bookingService) driverWriteError(err error, booking *models.Booking) error {
	switch {
	case errors.Is(err, models.ErrOverlap):
		return models.NewConflictError("driver is already booked for these dates")
	case errors.Is(err, models.ErrBookingNotFound):
		return models.NewNotFoundError("booking not found")
	}
	return s.internal("set booking driver", err,
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
	)
}

func (s *bookingService) driverChanged(ctx context.Context, actor models.Actor, b *models.Booking) {
	now := s.now()
	s.logger.Info("booking driver changed",
		zap.String("booking_id", b.ID.String()),
		zap.String("reference", b.Reference),
		zap.Stringp("driver_id", b.Driver.DriverID),
	)
	s.publish(ctx, queue.RoutingDriverChanged, queue.NewBookingEvent(b, actor, now))
	s.invalidateStats(ctx)
}
