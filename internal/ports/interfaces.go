package ports

import (
	"context"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/google/uuid"
)

type BookingRepository interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	FindOverlapping(ctx context.Context, q models.OverlapQuery) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, booking *models.Booking, from models.BookingStatus) error
	SetDriver(ctx context.Context, id uuid.UUID, driverID *string) (*models.Booking, error)
	AppendMessage(ctx context.Context, id uuid.UUID, msg models.Message) (*models.Booking, error)
	MarkMessagesRead(ctx context.Context, id uuid.UUID, reader models.Role) (*models.Booking, error)
	SetReview(ctx context.Context, id uuid.UUID, side models.ReviewSide, review models.Review) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
	AggregateByStatus(ctx context.Context) ([]models.StatusStat, error)
}

type VehicleLookup interface {
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
}

type ClientLookup interface {
	ClientExists(ctx context.Context, id string) (bool, error)
	SearchClientIDs(ctx context.Context, text string) ([]string, error)
}

type DriverLookup interface {
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type StatsCache interface {
	GetStats(ctx context.Context) (*models.BookingStats, int64, error)
	SetStats(ctx context.Context, generation int64, stats *models.BookingStats) error
	Invalidate(ctx context.Context) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, request *models.CreateBookingRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, actor models.Actor, reference string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, request *models.UpdateStatusRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, id string, reason string) (*models.Booking, error)
	QuoteCancellation(ctx context.Context, actor models.Actor, id string) (*models.CancellationQuote, error)
	AssignDriver(ctx context.Context, actor models.Actor, id string, driverID string) (*models.Booking, error)
	UnassignDriver(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	CheckVehicleAvailability(ctx context.Context, vehicleID string, r models.DateRange) (*models.Availability, error)
	CheckDriverAvailability(ctx context.Context, driverID string, r models.DateRange) (*models.Availability, error)
	AddMessage(ctx context.Context, actor models.Actor, id string, text string) (*models.Booking, error)
	MarkMessagesRead(ctx context.Context, actor models.Actor, id string) (*models.Booking, error)
	AddReview(ctx context.Context, actor models.Actor, id string, request *models.ReviewRequest) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) (*models.BookingPage, error)
	ExportBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	Stats(ctx context.Context) (*models.BookingStats, error)
}
