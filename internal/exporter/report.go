package exporter

import (
	"assesspulse/pkg/contracts/domain"
)

// DepartmentHeaders are the columns of the department table.
var DepartmentHeaders = []string{
	"Department",
	"Students",
	"Attempt 1 Avg",
	"Attempt 2 Avg",
	"Improvement",
	"Highest A1",
	"Highest A2",
	"Lowest A2",
	"Pass Rate %",
	"Top Performers",
}

// RangeHeaders are the columns of a histogram table.
var RangeHeaders = []string{"Range", "Attempt 1", "Attempt 2"}

// SummaryHeaders are the columns of the overall summary table.
var SummaryHeaders = []string{"Metric", "Value"}

// ReportRows returns one row per department in report order.
func ReportRows(stats *domain.OverallStatistics) [][]string {
	if stats == nil {
		return [][]string{}
	}
	rows := make([][]string, 0, len(stats.Departments))
	for _, d := range stats.Departments {
		rows = append(rows, []string{
			textCell(d.Name),
			formatInt(d.TotalStudents),
			formatFloat(d.Attempt1Average),
			formatFloat(d.Attempt2Average),
			formatFloat(d.Improvement),
			formatFloat(d.HighestScoreA1),
			formatFloat(d.HighestScoreA2),
			formatFloat(d.LowestScore),
			FormatPercent(d.PassRate),
			formatInt(d.TopPerformers),
		})
	}
	return rows
}

// RangeRows returns the histogram rows for ranges, followed by an
// "Unbucketed" row when any score fell outside every band.
func RangeRows(ranges []domain.ScoreRangeCount, unbucketed domain.Unbucketed) [][]string {
	rows := make([][]string, 0, len(ranges)+1)
	for _, r := range ranges {
		rows = append(rows, []string{r.Range, formatInt(r.Attempt1Count), formatInt(r.Attempt2Count)})
	}
	if unbucketed.Attempt1 > 0 || unbucketed.Attempt2 > 0 {
		rows = append(rows, []string{"Unbucketed", formatInt(unbucketed.Attempt1), formatInt(unbucketed.Attempt2)})
	}
	return rows
}

// SummaryRows returns the overall metrics as label/value pairs.
func SummaryRows(stats *domain.OverallStatistics) [][]string {
	if stats == nil {
		return [][]string{}
	}
	return [][]string{
		{"Total Students", formatInt(stats.TotalStudents)},
		{"Departments", formatInt(len(stats.Departments))},
		{"Attempt 1 Average", formatFloat(stats.OverallAttempt1Average)},
		{"Attempt 2 Average", formatFloat(stats.OverallAttempt2Average)},
		{"Improvement", formatFloat(stats.OverallImprovement)},
	}
}
