package series

// YoY converts a level series into the percent change versus the value
// periods observations earlier, expressed as a percentage. The first periods
// observations have no comparator and are dropped, as is any observation
// whose comparator is zero.
func YoY(s Series, periods int) Series {
	out := s.withObservations(nil)
	out.Unit = UnitPercentPoint
	if periods <= 0 {
		return out
	}
	obs := make([]Observation, 0, max(len(s.Observations)-periods, 0))
	for i := periods; i < len(s.Observations); i++ {
		prev := s.Observations[i-periods].Value
		if prev == 0 {
			continue
		}
		cur := s.Observations[i]
		obs = append(obs, Observation{Time: cur.Time, Value: (cur.Value/prev - 1) * 100})
	}
	out.Observations = obs
	return out
}
