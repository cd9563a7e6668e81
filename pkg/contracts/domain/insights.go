package domain

// StudentInsight is a record annotated with its score movement.
type StudentInsight struct {
	StudentRecord
	Delta float64 `json:"delta"`
	// RelativeChange is nil when attempt 1 is zero.
	RelativeChange *float64 `json:"relative_change"`
}

// NewStudentInsight derives the delta and relative change for r.
func NewStudentInsight(r StudentRecord) StudentInsight {
	in := StudentInsight{StudentRecord: r, Delta: r.Delta()}
	if r.Attempt1 != 0 {
		rc := (r.Attempt2 - r.Attempt1) / r.Attempt1 * 100
		in.RelativeChange = &rc
	}
	return in
}

// Batch labels, highest mean score first.
const (
	BatchA = "A"
	BatchB = "B"
	BatchC = "C"
	BatchD = "D"
)

// BatchLabels lists the batches in order.
func BatchLabels() []string {
	return []string{BatchA, BatchB, BatchC, BatchD}
}

// Page is one page of a listing. Pages are 1-based.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
