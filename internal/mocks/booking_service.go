package mocks

import (
	"context"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/stretchr/testify/mock"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) booking(args mock.Arguments) (*models.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, actor models.Actor, request *models.CreateBookingRequest) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, request))
}

func (m *MockBookingService) GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) GetBookingByReference(ctx context.Context, actor models.Actor, reference string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, reference))
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, actor models.Actor, id string, request *models.UpdateStatusRequest) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, request))
}

func (m *MockBookingService) CancelBooking(ctx context.Context, actor models.Actor, id string, reason string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, reason))
}

func (m *MockBookingService) QuoteCancellation(ctx context.Context, actor models.Actor, id string) (*models.CancellationQuote, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CancellationQuote), args.Error(1)
}

func (m *MockBookingService) AssignDriver(ctx context.Context, actor models.Actor, id string, driverID string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, driverID))
}

func (m *MockBookingService) UnassignDriver(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) CheckVehicleAvailability(ctx context.Context, vehicleID string, r models.DateRange) (*models.Availability, error) {
	args := m.Called(ctx, vehicleID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *MockBookingService) CheckDriverAvailability(ctx context.Context, driverID string, r models.DateRange) (*models.Availability, error) {
	args := m.Called(ctx, driverID, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Availability), args.Error(1)
}

func (m *MockBookingService) AddMessage(ctx context.Context, actor models.Actor, id string, text string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, text))
}

func (m *MockBookingService) MarkMessagesRead(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id))
}

func (m *MockBookingService) AddReview(ctx context.Context, actor models.Actor, id string, request *models.ReviewRequest) (*models.Booking, error) {
	return m.booking(m.Called(ctx, actor, id, request))
}

func (m *MockBookingService) ListBookings(ctx context.Context, filter models.BookingFilter) (*models.BookingPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingPage), args.Error(1)
}

func (m *MockBookingService) ExportBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingService) Stats(ctx context.Context) (*models.BookingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingStats), args.Error(1)
}
