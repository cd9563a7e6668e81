package dataprocessing

import (
	"errors"
	"fmt"

	"assesspulse/pkg/contracts/domain"
)

// ErrNoRecords is returned when an aggregation is asked to summarise nothing.
var ErrNoRecords = errors.New("no student records")

// DepartmentGroup is one partition produced by GroupByDepartment.
type DepartmentGroup struct {
	Name    string
	Records []domain.StudentRecord
}

// GroupByDepartment partitions records by exact department string. Groups are
// returned in the order their department was first seen; the empty string is a
// group like any other.
func GroupByDepartment(records []domain.StudentRecord) []DepartmentGroup {
	index := make(map[string]int)
	var groups []DepartmentGroup
	for _, r := range records {
		i, ok := index[r.Department]
		if !ok {
			i = len(groups)
			index[r.Department] = i
			groups = append(groups, DepartmentGroup{Name: r.Department})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// ComputeGroupStatistics summarises one department. Lowest score, pass rate and
// top performers look at attempt 2 only.
func ComputeGroupStatistics(name string, records []domain.StudentRecord, bands []domain.ScoreBand) (domain.GroupStatistics, error) {
	if len(records) == 0 {
		return domain.GroupStatistics{}, fmt.Errorf("department %q: %w", name, ErrNoRecords)
	}

	first := records[0]
	stats := domain.GroupStatistics{
		Name:           name,
		TotalStudents:  len(records),
		HighestScoreA1: first.Attempt1,
		HighestScoreA2: first.Attempt2,
		LowestScore:    first.Attempt2,
	}

	var sum1, sum2 float64
	passed := 0
	for _, r := range records {
		sum1 += r.Attempt1
		sum2 += r.Attempt2
		if r.Attempt1 > stats.HighestScoreA1 {
			stats.HighestScoreA1 = r.Attempt1
		}
		if r.Attempt2 > stats.HighestScoreA2 {
			stats.HighestScoreA2 = r.Attempt2
		}
		if r.Attempt2 < stats.LowestScore {
			stats.LowestScore = r.Attempt2
		}
		if r.Attempt2 >= PassThreshold {
			passed++
		}
		if r.Attempt2 >= TopPerformerThreshold {
			stats.TopPerformers++
		}
	}

	n := float64(len(records))
	stats.Attempt1Average = sum1 / n
	stats.Attempt2Average = sum2 / n
	stats.Improvement = stats.Attempt2Average - stats.Attempt1Average
	stats.PassRate = float64(passed) / n * 100
	stats.ScoreRanges, stats.Unbucketed = Histogram(records, bands)
	return stats, nil
}

// ComputeStatistics builds the overall report with the default bands.
func ComputeStatistics(records []domain.StudentRecord) (*domain.OverallStatistics, error) {
	return ComputeStatisticsWithBands(records, DefaultScoreBands())
}

// ComputeStatisticsWithBands builds the overall report using bands for every
// histogram. An empty record list yields ErrNoRecords.
func ComputeStatisticsWithBands(records []domain.StudentRecord, bands []domain.ScoreBand) (*domain.OverallStatistics, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	groups := GroupByDepartment(records)
	departments := make([]domain.GroupStatistics, 0, len(groups))
	for _, g := range groups {
		gs, err := ComputeGroupStatistics(g.Name, g.Records, bands)
		if err != nil {
			return nil, err
		}
		departments = append(departments, gs)
	}

	var sum1, sum2 float64
	for _, r := range records {
		sum1 += r.Attempt1
		sum2 += r.Attempt2
	}
	n := float64(len(records))

	overall := &domain.OverallStatistics{
		TotalStudents:          len(records),
		OverallAttempt1Average: sum1 / n,
		OverallAttempt2Average: sum2 / n,
		Departments:            departments,
	}
	overall.OverallImprovement = overall.OverallAttempt2Average - overall.OverallAttempt1Average
	overall.ScoreRanges, overall.Unbucketed = Histogram(records, bands)
	return overall, nil
}
