package dataprocessing

import (
	"errors"
	"fmt"
	"sort"

	"assesspulse/pkg/contracts/domain"
)

// DefaultPerPage is the page size used by the dashboard listings.
const DefaultPerPage = 10

// Insight thresholds.
const (
	SupportCeiling  = 40.0
	FollowUpDecline = -15.0
)

var (
	// ErrUnknownBatch is returned for a batch label other than A, B, C or D.
	ErrUnknownBatch = errors.New("unknown batch")
	// ErrInvalidPage is returned for a page or page size below 1.
	ErrInvalidPage = errors.New("invalid page")
)

// NeedsSupport lists students still below 40 on attempt 2 who nonetheless
// improved, highest attempt 2 first.
func NeedsSupport(records []domain.StudentRecord) []domain.StudentInsight {
	out := filterInsights(records, func(r domain.StudentRecord) bool {
		return r.Attempt2 < SupportCeiling && r.Attempt2 > r.Attempt1
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attempt2 > out[j].Attempt2 })
	return out
}

// NeedsFollowUp lists students who dropped by 15 points or more, largest drop first.
func NeedsFollowUp(records []domain.StudentRecord) []domain.StudentInsight {
	out := filterInsights(records, func(r domain.StudentRecord) bool {
		return r.Delta() <= FollowUpDecline
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delta < out[j].Delta })
	return out
}

// TopImproved returns up to n students with the largest gains.
func TopImproved(records []domain.StudentRecord, n int) []domain.StudentInsight {
	out := filterInsights(records, func(r domain.StudentRecord) bool { return r.Attempt2 > r.Attempt1 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delta > out[j].Delta })
	return limit(out, n)
}

// TopDeclined returns up to n students with the largest drops.
func TopDeclined(records []domain.StudentRecord, n int) []domain.StudentInsight {
	out := filterInsights(records, func(r domain.StudentRecord) bool { return r.Attempt2 < r.Attempt1 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Delta < out[j].Delta })
	return limit(out, n)
}

// Batches ranks students by the mean of both attempts and splits them into four
// batches of ceil(n/4). Batch D takes whatever remains and may be shorter or empty.
func Batches(records []domain.StudentRecord) map[string][]domain.StudentInsight {
	ranked := filterInsights(records, func(domain.StudentRecord) bool { return true })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Mean() > ranked[j].Mean() })

	size := (len(ranked) + 3) / 4
	batches := make(map[string][]domain.StudentInsight, 4)
	for i, label := range domain.BatchLabels() {
		lo := clamp(i*size, len(ranked))
		hi := clamp((i+1)*size, len(ranked))
		if label == domain.BatchD {
			hi = len(ranked)
		}
		batches[label] = ranked[lo:hi:hi]
	}
	return batches
}

// BatchOf returns a single batch by label.
func BatchOf(records []domain.StudentRecord, label string) ([]domain.StudentInsight, error) {
	b, ok := Batches(records)[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBatch, label)
	}
	return b, nil
}

// Paginate slices items into 1-based pages. A page past the end is empty.
func Paginate[T any](items []T, page, perPage int) (domain.Page[T], error) {
	if page < 1 || perPage < 1 {
		return domain.Page[T]{}, fmt.Errorf("%w: page=%d per_page=%d", ErrInvalidPage, page, perPage)
	}

	total := len(items)
	p := domain.Page[T]{
		Items:      []T{},
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
	}
	if total > 0 {
		p.TotalPages = (total-1)/perPage + 1
	}
	// Compare page counts before multiplying so huge pages cannot overflow.
	if page > p.TotalPages {
		return p, nil
	}
	start := (page - 1) * perPage
	end := clamp(start+perPage, total)
	p.Items = append(p.Items, items[start:end]...)
	return p, nil
}

func filterInsights(records []domain.StudentRecord, keep func(domain.StudentRecord) bool) []domain.StudentInsight {
	out := make([]domain.StudentInsight, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, domain.NewStudentInsight(r))
		}
	}
	return out
}

func limit(in []domain.StudentInsight, n int) []domain.StudentInsight {
	if n >= 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}
