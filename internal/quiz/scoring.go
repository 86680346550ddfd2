package quiz

const (
	DefaultTimerBudget    = 300
	DefaultCorrectPoints  = 10
	DefaultPenaltyPoints  = 5
	DefaultTimeoutPenalty = 5
)

// ScoreRules holds the per-question score adjustments
type ScoreRules struct {
	Correct        int
	Incorrect      int
	TimeoutPenalty int
}

// DefaultScoreRules returns +10 for a correct answer and -5 for a wrong or timed-out one
func DefaultScoreRules() ScoreRules {
	return ScoreRules{
		Correct:        DefaultCorrectPoints,
		Incorrect:      DefaultPenaltyPoints,
		TimeoutPenalty: DefaultTimeoutPenalty,
	}
}

// Apply returns the new cumulative score and the delta actually applied. The score is
// floor-clamped at zero, so the applied delta of a penalty can be smaller than the rule.
func (r ScoreRules) Apply(score int, correct, timedOut bool) (int, int) {
	next := score
	switch {
	case correct:
		next += r.Correct
	case timedOut:
		next -= r.TimeoutPenalty
	default:
		next -= r.Incorrect
	}
	if next < 0 {
		next = 0
	}
	return next, next - score
}

// ClampTimeSpent keeps a time measurement within [0, budget]
func ClampTimeSpent(seconds, budget int) int {
	if seconds < 0 {
		return 0
	}
	if budget > 0 && seconds > budget {
		return budget
	}
	return seconds
}
