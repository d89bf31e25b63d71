package tally

// QuorumMet reports whether participation/eligible*100 >= requiredPct.
// Integer arithmetic keeps the boundary exact. Nothing is met with no
// eligible units.
func QuorumMet(participation, eligible, requiredPct int) bool {
	if eligible <= 0 {
		return false
	}
	return participation*100 >= requiredPct*eligible
}

// ParticipationRate is participation as a percentage of eligible, 0 when
// there are no eligible units.
func ParticipationRate(participation, eligible int) float64 {
	if eligible <= 0 {
		return 0
	}
	return float64(participation) / float64(eligible) * 100
}
