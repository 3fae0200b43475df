package quiz

// DefaultHistoryWindow is how many recent completed attempts feed the
// adaptive difficulty signal.
const DefaultHistoryWindow = 5

// ClampDifficulty forces a difficulty level into [1,5], defaulting to 3
// for zero values.
func ClampDifficulty(d int) int {
	switch {
	case d == 0:
		return 3
	case d < 1:
		return 1
	case d > 5:
		return 5
	}
	return d
}

// EstimateDifficulty picks the next quiz difficulty for a topic from the
// user's most recent completed scores (newest first). An empty history
// returns 2 — slightly below average, so new users are not overwhelmed.
// Otherwise the mean of up to limit scores maps through fixed thresholds.
func EstimateDifficulty(scores []float64, limit int) int {
	if limit <= 0 {
		limit = DefaultHistoryWindow
	}
	if len(scores) > limit {
		scores = scores[:limit]
	}
	if len(scores) == 0 {
		return 2
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	switch {
	case mean >= 90:
		return 5
	case mean >= 75:
		return 4
	case mean >= 60:
		return 3
	case mean >= 40:
		return 2
	default:
		return 1
	}
}
