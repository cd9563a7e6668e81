package dataprocessing

import "assesspulse/pkg/contracts/domain"

// Thresholds applied to attempt 2.
const (
	PassThreshold         = 60.0
	TopPerformerThreshold = 80.0
)

// DefaultScoreBands returns the five standard bands. A new slice is returned on
// every call so callers cannot alter the bands seen by anyone else.
func DefaultScoreBands() []domain.ScoreBand {
	return []domain.ScoreBand{
		{Min: 0, Max: 20, Label: "0-20"},
		{Min: 21, Max: 40, Label: "21-40"},
		{Min: 41, Max: 60, Label: "41-60"},
		{Min: 61, Max: 80, Label: "61-80"},
		{Min: 81, Max: 100, Label: "81-100"},
	}
}

// Bucket returns the first band containing score.
func Bucket(score float64, bands []domain.ScoreBand) (domain.ScoreBand, bool) {
	for _, b := range bands {
		if b.Contains(score) {
			return b, true
		}
	}
	return domain.ScoreBand{}, false
}

// Histogram counts attempt 1 and attempt 2 scores per band independently.
// The second return value holds the scores that fell in no band.
func Histogram(records []domain.StudentRecord, bands []domain.ScoreBand) ([]domain.ScoreRangeCount, domain.Unbucketed) {
	counts := make([]domain.ScoreRangeCount, len(bands))
	for i, b := range bands {
		counts[i].Range = b.Label
	}

	var missed domain.Unbucketed
	for _, r := range records {
		if i := bandIndex(r.Attempt1, bands); i >= 0 {
			counts[i].Attempt1Count++
		} else {
			missed.Attempt1++
		}
		if i := bandIndex(r.Attempt2, bands); i >= 0 {
			counts[i].Attempt2Count++
		} else {
			missed.Attempt2++
		}
	}
	return counts, missed
}

func bandIndex(score float64, bands []domain.ScoreBand) int {
	for i, b := range bands {
		if b.Contains(score) {
			return i
		}
	}
	return -1
}
