package service

import (
	models "github.com/chrisdamba/rentalbooking/internal"
)

// party is the relation an actor has to a booking. Admins may always act.
type party uint8

const (
	partyClient party = 1 << iota
	partyOwner
	partyDriver

	partiesRead = partyClient | partyOwner | partyDriver
)

// statusParties lists who may move a booking into each status besides an admin.
var statusParties = map[models.BookingStatus]party{
	models.StatusConfirmed:      partyOwner,
	models.StatusRejected:       partyOwner,
	models.StatusActive:         partyOwner,
	models.StatusCompleted:      partyOwner,
	models.StatusPaymentPending: partyClient | partyOwner,
	models.StatusCancelled:      partyClient | partyOwner,
	models.StatusPaid:           0,
	models.StatusRefunded:       0,
}

func partiesOf(actor models.Actor, b *models.Booking) party {
	var p party
	if actor.ID == "" {
		return p
	}
	switch actor.Role {
	case models.RoleClient:
		if actor.ID == b.ClientID {
			p |= partyClient
		}
	case models.RoleOwner, models.RoleBusinessOwner:
		if actor.ID == b.OwnerID {
			p |= partyOwner
		}
	case models.RoleDriver:
		if b.Driver.DriverID != nil && *b.Driver.DriverID == actor.ID {
			p |= partyDriver
		}
	}
	return p
}

func authorize(actor models.Actor, b *models.Booking, allowed party, action string) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}
	if partiesOf(actor, b)&allowed != 0 {
		return nil
	}
	return models.NewForbiddenError("not allowed to " + action + " this booking")
}

func authorizeStatus(actor models.Actor, b *models.Booking, to models.BookingStatus) error {
	return authorize(actor, b, statusParties[to], "move to "+string(to))
}
