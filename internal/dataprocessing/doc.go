// Package dataprocessing turns assessment spreadsheets into statistics.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Loaders: read the first sheet of an Excel workbook or a Google Sheet and map
// rows to domain.StudentRecord values, coercing malformed scores to zero
// 2. Analytics: bucket scores into bands, aggregate per department and overall
// 3. Insights: rank students by score movement, split them into batches, paginate
//
// All analytics and insight functions are pure. They never mutate their input
// and every call returns freshly allocated results, so they are safe to call
// concurrently on a shared record slice.
//
// # Usage
//
//	records, err := dataprocessing.ParseWorkbook("assessment.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := dataprocessing.ComputeStatistics(records)
//	if errors.Is(err, dataprocessing.ErrNoRecords) {
//	    // nothing to report
//	}
//
// # Score bands
//
// The five default bands are closed integer intervals: 0-20, 21-40, 41-60,
// 61-80 and 81-100. A fractional score between two bands (for example 20.5)
// or a score outside [0,100] matches no band and is counted in Unbucketed
// instead of the histogram.
package dataprocessing
