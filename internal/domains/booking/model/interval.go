package model

// Overlaps reports whether the half-open windows [existingStart, existingEnd)
// and [candidateStart, candidateEnd) share any instant. Touching ends do not overlap.
func Overlaps(existingStart, existingEnd, candidateStart, candidateEnd Clock) bool {
	return candidateStart < existingEnd && candidateEnd > existingStart
}

// OverlapsWith compares two bookings on the same date.
func (b Booking) OverlapsWith(start, end Clock) bool {
	return Overlaps(b.StartTime, b.EndTime, start, end)
}
