package domain

// ScoreBand is a closed interval [Min, Max] with a display label.
type ScoreBand struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Label string  `json:"label"`
}

// Contains reports whether score lies inside the band, both ends inclusive.
func (b ScoreBand) Contains(score float64) bool {
	return score >= b.Min && score <= b.Max
}

// ScoreRangeCount is one histogram bucket. The two counts are independent.
type ScoreRangeCount struct {
	Range         string `json:"range"`
	Attempt1Count int    `json:"attempt1_count"`
	Attempt2Count int    `json:"attempt2_count"`
}

// Unbucketed counts scores that matched no band (negative, above 100, or in a
// fractional gap between bands such as 20.5).
type Unbucketed struct {
	Attempt1 int `json:"attempt1"`
	Attempt2 int `json:"attempt2"`
}

// GroupStatistics summarises one department.
type GroupStatistics struct {
	Name            string            `json:"name"`
	TotalStudents   int               `json:"total_students"`
	Attempt1Average float64           `json:"attempt1_average"`
	Attempt2Average float64           `json:"attempt2_average"`
	Improvement     float64           `json:"improvement"`
	HighestScoreA1  float64           `json:"highest_score_a1"`
	HighestScoreA2  float64           `json:"highest_score_a2"`
	LowestScore     float64           `json:"lowest_score"` // attempt 2 only
	PassRate        float64           `json:"pass_rate"`
	TopPerformers   int               `json:"top_performers"`
	ScoreRanges     []ScoreRangeCount `json:"score_ranges"`
	Unbucketed      Unbucketed        `json:"unbucketed"`
}

// OverallStatistics is the full report. Departments keep first-seen order.
type OverallStatistics struct {
	TotalStudents          int               `json:"total_students"`
	OverallAttempt1Average float64           `json:"overall_attempt1_average"`
	OverallAttempt2Average float64           `json:"overall_attempt2_average"`
	OverallImprovement     float64           `json:"overall_improvement"`
	Departments            []GroupStatistics `json:"departments"`
	ScoreRanges            []ScoreRangeCount `json:"score_ranges"`
	Unbucketed             Unbucketed        `json:"unbucketed"`
}

// Department returns the group with the given name.
func (s *OverallStatistics) Department(name string) (GroupStatistics, bool) {
	for _, d := range s.Departments {
		if d.Name == name {
			return d, true
		}
	}
	return GroupStatistics{}, false
}

// DepartmentSummary is the condensed per-department listing.
type DepartmentSummary struct {
	Name            string  `json:"name"`
	TotalStudents   int     `json:"total_students"`
	Attempt1Average float64 `json:"attempt1_average"`
	Attempt2Average float64 `json:"attempt2_average"`
	Improvement     float64 `json:"improvement"`
	PassRate        float64 `json:"pass_rate"`
}

// Summaries lists every department in report order.
func (s *OverallStatistics) Summaries() []DepartmentSummary {
	out := make([]DepartmentSummary, 0, len(s.Departments))
	for _, d := range s.Departments {
		out = append(out, DepartmentSummary{
			Name:            d.Name,
			TotalStudents:   d.TotalStudents,
			Attempt1Average: d.Attempt1Average,
			Attempt2Average: d.Attempt2Average,
			Improvement:     d.Improvement,
			PassRate:        d.PassRate,
		})
	}
	return out
}
