package service

import (
	"context"
	"errors"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
	"go.uber.org/zap"
)

func (s *bookingService) AddMessage(ctx context.Context, actor models.Actor, id string, text string) (*models.Booking, error) {
	text = strings.TrimSpace(text)
	if err := s.validator.Validate(models.MessageRequest{Text: text}); err != nil {
		return nil, err
	}
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, booking, partiesRead, "message on"); err != nil {
		return nil, err
	}

	msg := models.Message{
		SenderRole: actor.Role,
		SenderID:   actor.ID,
		Text:       text,
		SentAt:     s.now().UTC(),
	}
	b, err := s.repo.AppendMessage(ctx, booking.ID, msg)
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, models.NewNotFoundError("booking not found")
	}
	if err != nil {
		return nil, s.internal("append booking message", err, zap.String("booking_id", id))
	}
	return b, nil
}

func (s *bookingService) MarkMessagesRead(ctx context.Context, actor models.Actor, id string) (*models.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, booking, partiesRead, "read messages on"); err != nil {
		return nil, err
	}
	b, err := s.repo.MarkMessagesRead(ctx, booking.ID, actor.Role)
	if errors.Is(err, models.ErrBookingNotFound) {
		return nil, models.NewNotFoundError("booking not found")
	}
	if err != nil {
		return nil, s.internal("mark booking messages read", err, zap.String("booking_id", id))
	}
	return b, nil
}

func reviewSide(role models.Role) (models.ReviewSide, bool) {
	switch role {
	case models.RoleClient:
		return models.ReviewSideClient, true
	case models.RoleOwner, models.RoleBusinessOwner:
		return models.ReviewSideOwner, true
	}
	return "", false
}

func (s *bookingService) AddReview(ctx context.Context, actor models.Actor, id string, request *models.ReviewRequest) (*models.Booking, error) {
	if err := s.validator.Validate(request); err != nil {
		return nil, err
	}
	side, ok := reviewSide(actor.Role)
	if !ok {
		return nil, models.NewValidationError("only clients and owners can review a booking")
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// each side is written by its own party only
	reviewer := partyClient
	if side == models.ReviewSideOwner {
		reviewer = partyOwner
	}
	if partiesOf(actor, booking)&reviewer == 0 {
		return nil, models.NewForbiddenError("not allowed to review this booking")
	}
	if booking.Status != models.StatusCompleted {
		return nil, models.NewConflictError("only completed bookings can be reviewed")
	}
	if booking.Review.Side(side) != nil {
		return nil, models.NewConflictError("review already submitted")
	}

	review := models.Review{
		Rating:  request.Rating,
		Comment: strings.TrimSpace(request.Comment),
		Date:    s.now().UTC(),
	}
	updated, err := s.repo.SetReview(ctx, booking.ID, side, review)
	if errors.Is(err, models.ErrReviewExists) {
		return nil, models.NewConflictError("review already submitted")
	}
	if err != nil {
		return nil, s.internal("set booking review", err, zap.String("booking_id", id))
	}
	return updated, nil
}
