// Package timezone holds the venue's local time zone.
//
// Booking dates and times are naive wall values. Anything that asks "what day
// is it" or "has this slot ended" must go through WallClock or Today so the
// answer follows APP_TIMEZONE rather than the host clock.
package timezone
