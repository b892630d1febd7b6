package service

import (
	"context"
	"strings"

	models "github.com/chrisdamba/rentalbooking/internal"
)

func (s *bookingService) CheckVehicleAvailability(ctx context.Context, vehicleID string, r models.DateRange) (*models.Availability, error) {
	return s.availability(ctx, models.OverlapVehicle, vehicleID, r)
}

func (s *bookingService) CheckDriverAvailability(ctx context.Context, driverID string, r models.DateRange) (*models.Availability, error) {
	return s.availability(ctx, models.OverlapDriver, driverID, r)
}

func (s *bookingService) availability(ctx context.Context, resource models.OverlapResource, id string, r models.DateRange) (*models.Availability, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, models.NewValidationError(string(resource) + " id is required")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	overlapping, err := s.repo.FindOverlapping(ctx, models.OverlapQuery{Resource: resource, ID: id, Range: r})
	if err != nil {
		return nil, s.internal("check "+string(resource)+" availability", err)
	}

	return &models.Availability{
		ResourceID: id,
		StartDate:  r.Start,
		EndDate:    r.End,
		Available:  len(overlapping) == 0,
		Conflicts:  summaries(overlapping),
	}, nil
}
