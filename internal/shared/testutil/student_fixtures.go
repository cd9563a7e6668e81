package testutil

import (
	"fmt"

	"assesspulse/pkg/contracts/domain"
)

// ScenarioRecords returns the three-student CS/EE dataset whose statistics are
// known by hand: CS averages 70/55, EE 30/30, overall 56.67/46.67.
func ScenarioRecords() []domain.StudentRecord {
	return []domain.StudentRecord{
		{Name: "Asha", RollNumber: "CS01", Department: "CS", Attempt1: 50, Attempt2: 70},
		{Name: "Bilal", RollNumber: "CS02", Department: "CS", Attempt1: 90, Attempt2: 40},
		{Name: "Chen", RollNumber: "EE01", Department: "EE", Attempt1: 30, Attempt2: 30},
	}
}

// GenerateRecords builds n deterministic records spread round-robin over the
// departments, with integer scores inside [0,100].
func GenerateRecords(n int, departments ...string) []domain.StudentRecord {
	if len(departments) == 0 {
		departments = []string{"CS"}
	}
	records := make([]domain.StudentRecord, n)
	for i := range records {
		records[i] = domain.StudentRecord{
			Name:       fmt.Sprintf("Student %03d", i+1),
			RollNumber: fmt.Sprintf("R%03d", i+1),
			Department: departments[i%len(departments)],
			Attempt1:   float64((i * 37) % 101),
			Attempt2:   float64((i*53 + 17) % 101),
		}
	}
	return records
}
