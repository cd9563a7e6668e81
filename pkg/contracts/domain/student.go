package domain

// StudentRecord is one row of assessment input. Scores are percentages but no
// bounds are enforced; malformed source values arrive here already coerced to 0.
type StudentRecord struct {
	Name       string  `json:"name"`
	RollNumber string  `json:"roll_number,omitempty"`
	Department string  `json:"department"`
	Attempt1   float64 `json:"attempt1"`
	Attempt2   float64 `json:"attempt2"`
}

// Delta returns attempt2 - attempt1
func (r StudentRecord) Delta() float64 {
	return r.Attempt2 - r.Attempt1
}

// Mean returns the average of both attempts
func (r StudentRecord) Mean() float64 {
	return (r.Attempt1 + r.Attempt2) / 2
}
