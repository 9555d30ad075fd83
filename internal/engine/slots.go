package engine

// generateWindows enumerates candidate slots of the requested duration across
// the working day, advancing by the configured increment. A duration that
// does not fit the working window yields no candidates.
func (s *Service) generateWindows(durationHours float64) []window {
	durationMinutes := int(durationHours * 60)

	var windows []window
	for start := s.workStart; start+durationMinutes <= s.workEnd; start += s.incrementMinutes {
		windows = append(windows, window{start: start, end: start + durationMinutes})
	}
	return windows
}
