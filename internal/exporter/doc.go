// Package exporter writes a computed assessment report to CSV and XLSX.
//
// ReportRows and RangeRows flatten OverallStatistics into string tables that
// both writers share, so a CSV and a workbook exported from the same report
// always agree cell for cell.
package exporter
