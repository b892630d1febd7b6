package service

import (
	"context"
	"errors"
	"strings"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/cache"
	"github.com/chrisdamba/rentalbooking/internal/ports"
	"github.com/chrisdamba/rentalbooking/internal/queue"
	"github.com/chrisdamba/rentalbooking/internal/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReferenceAttempts = 5

type bookingService struct {
	repo      ports.BookingRepository
	vehicles  ports.VehicleLookup
	clients   ports.ClientLookup
	drivers   ports.DriverLookup
	events    ports.EventPublisher
	stats     ports.StatsCache
	validator *validator.CustomValidator
	logger    *zap.Logger
	now       func() time.Time
	intn      func(int) int
}

type Option func(*bookingService)

func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *bookingService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithStatsCache(c ports.StatsCache) Option {
	return func(s *bookingService) {
		if c != nil {
			s.stats = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *bookingService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *bookingService) {
		s.now = now
	}
}

// WithReferenceSource replaces the random source used for booking references.
func WithReferenceSource(intn func(int) int) Option {
	return func(s *bookingService) {
		s.intn = intn
	}
}

func NewBookingService(repo ports.BookingRepository, vehicles ports.VehicleLookup, clients ports.ClientLookup,
	drivers ports.DriverLookup, opts ...Option) *bookingService {
	s := &bookingService{
		repo:      repo,
		vehicles:  vehicles,
		clients:   clients,
		drivers:   drivers,
		events:    queue.NoopPublisher{},
		stats:     cache.NoopStatsCache{},
		validator: validator.NewCustomValidator(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) CreateBooking(ctx context.Context, actor models.Actor, request *models.CreateBookingRequest) (*models.Booking, error) {
	// required fields
	if err := s.validator.Validate(request); err != nil {
		return nil, err
	}

	// clients book for themselves, admins on behalf of a client
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role == models.RoleClient && actor.ID == request.ClientID:
	default:
		return nil, models.NewForbiddenError("not allowed to create a booking for this client")
	}

	// dates
	dates, err := models.ParseDateRange(request.StartDate, request.EndDate)
	if err != nil {
		return nil, err
	}

	// client
	exists, err := s.clients.ClientExists(ctx, request.ClientID)
	if err != nil {
		return nil, s.lookupError("client", err)
	}
	if !exists {
		return nil, models.NewNotFoundError("client not found")
	}

	// vehicle
	vehicle, err := s.vehicles.GetVehicle(ctx, request.VehicleID)
	if err != nil {
		return nil, s.lookupError("vehicle", err)
	}
	if vehicle.Status != models.VehicleAvailable {
		return nil, models.NewConflictError("vehicle is not available for booking")
	}

	// locations
	if err := s.validator.ValidateLocation("pickup_location", request.PickupLocation); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateLocation("dropoff_location", request.DropoffLocation); err != nil {
		return nil, err
	}

	// overlapping bookings for the vehicle
	overlapping, err := s.repo.FindOverlapping(ctx, models.OverlapQuery{
		Resource: models.OverlapVehicle,
		ID:       vehicle.ID,
		Range:    dates,
	})
	if err != nil {
		return nil, s.internal("check vehicle availability", err)
	}
	if len(overlapping) > 0 {
		return nil, models.NewConflictError("vehicle is already booked for the requested dates", summaries(overlapping)...)
	}

	if vehicle.DailyRate <= 0 {
		return nil, models.NewConflictError("vehicle has no valid daily rate")
	}

	now := s.now().UTC()
	totalDays := models.TotalDays(dates.Start, dates.End)
	method := request.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}

	booking := &models.Booking{
		ID:              uuid.New(),
		ClientID:        request.ClientID,
		VehicleID:       vehicle.ID,
		OwnerID:         vehicle.OwnerID,
		Driver:          models.DriverAssignment{Required: request.NeedDriver},
		StartDate:       dates.Start,
		EndDate:         dates.End,
		StartTime:       request.StartTime,
		EndTime:         request.EndTime,
		PickupLocation:  *request.PickupLocation,
		DropoffLocation: *request.DropoffLocation,
		TotalDays:       totalDays,
		Pricing:         models.ComputePricing(*vehicle, totalDays, request.NeedDriver),
		Status:          models.StatusPending,
		Payment:         models.Payment{Method: method, Status: models.PaymentPending},
		Messages:        []models.Message{},
		SpecialRequests: strings.TrimSpace(request.SpecialRequests),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// persist, retrying on reference collisions
	for attempt := 1; ; attempt++ {
		booking.Reference = models.NewReference(now, s.intn)
		err = s.repo.InsertBooking(ctx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, models.ErrOverlap) {
			return nil, models.NewConflictError("vehicle is already booked for the requested dates")
		}
		if !errors.Is(err, models.ErrDuplicateReference) {
			return nil, s.internal("create booking", err)
		}
		if attempt == maxReferenceAttempts {
			return nil, s.internal("create booking", errors.New("could not allocate a unique reference"))
		}
		s.logger.Debug("booking reference collision", zap.String("reference", booking.Reference), zap.Int("attempt", attempt))
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("vehicle_id", booking.VehicleID),
	)
	s.publish(ctx, queue.RoutingBookingCreated, queue.NewBookingEvent(booking, actor, now))
	s.invalidateStats(ctx)

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, b, partiesRead, "view"); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) GetBookingByReference(ctx context.Context, actor models.Actor, reference string) (*models.Booking, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return nil, models.NewValidationError("reference is required")
	}
	b, err := s.repo.GetBookingByReference(ctx, reference)
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, models.NewNotFoundError("booking not found")
	}
	if err != nil {
		return nil, s.internal("get booking", err, zap.String("reference", reference))
	}
	if err := authorize(actor, b, partiesRead, "view"); err != nil {
		return nil, err
	}
	return b, nil
}

func parseBookingID(id string) (uuid.UUID, error) {
	bid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, models.NewValidationError("invalid booking id")
	}
	return bid, nil
}

func (s *bookingService) load(ctx context.Context, id string) (*models.Booking, error) {
	bid, err := parseBookingID(id)
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetBookingByID(ctx, bid)
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, models.NewNotFoundError("booking not found")
	}
	if err != nil {
		return nil, s.internal("get booking", err, zap.String("booking_id", id))
	}
	return b, nil
}

// lookupError classifies a marketplace lookup failure.
func (s *bookingService) lookupError(what string, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidID):
		return models.NewValidationError("invalid " + what + " id")
	case errors.Is(err, models.ErrVehicleNotFound), errors.Is(err, models.ErrClientNotFound), errors.Is(err, models.ErrDriverNotFound):
		return models.NewNotFoundError(what + " not found")
	}
	return s.internal("look up "+what, err)
}

func (s *bookingService) internal(op string, err error, fields ...zap.Field) error {
	var me *models.Error
	if errors.As(err, &me) {
		return err
	}
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return models.NewInternalError(op+" failed", err)
}

func (s *bookingService) publish(ctx context.Context, routingKey string, event queue.BookingEvent) {
	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("publish booking event failed",
			zap.String("routing_key", routingKey),
			zap.String("booking_id", event.BookingID),
			zap.String("reference", event.Reference),
			zap.Error(err),
		)
	}
}

func (s *bookingService) invalidateStats(ctx context.Context) {
	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate booking stats failed", zap.Error(err))
	}
}

func summaries(bookings []models.Booking) []models.ConflictSummary {
	out := make([]models.ConflictSummary, len(bookings))
	for i := range bookings {
		out[i] = bookings[i].Summary()
	}
	return out
}
