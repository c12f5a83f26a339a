package service

import (
	"venue/internal/domains/booking/model"
	gDto "venue/shared/dto"
)

func blockingOn(date model.Date) gDto.FilterGroup {
	return gDto.And(
		gDto.Eq(model.FieldBookingDate, date.String()).On(model.TableName),
		gDto.In(model.FieldStatus, model.BlockingStatuses).On(model.TableName),
	)
}

// statusBetween matches bookings in any of statuses dated from..to inclusive.
func statusBetween(from, to model.Date, statuses ...model.Status) gDto.FilterGroup {
	return gDto.And(
		gDto.In(model.FieldStatus, statuses).On(model.TableName),
		gDto.GreaterEq(model.FieldBookingDate, from.String()).On(model.TableName).As("date_from"),
		gDto.LessEq(model.FieldBookingDate, to.String()).On(model.TableName).As("date_to"),
	)
}

// approvedUntil matches APPROVED bookings dated on or before date.
func approvedUntil(date model.Date) gDto.FilterGroup {
	return gDto.And(
		gDto.Eq(model.FieldStatus, model.StatusApproved).On(model.TableName),
		gDto.LessEq(model.FieldBookingDate, date.String()).On(model.TableName),
	)
}

func requesterIs(userID string) gDto.FilterGroup {
	return gDto.And(gDto.Eq(model.FieldRequesterID, userID).On(model.TableName))
}

func requirementsOf(bookingID string) gDto.FilterGroup {
	return gDto.And(gDto.Eq(model.FieldRequirementBookingID, bookingID).On(model.RequirementTableName))
}
