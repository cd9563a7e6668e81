package services

import "errors"

var (
	// ErrNoDataLoaded means the last load produced no student records.
	ErrNoDataLoaded = errors.New("no assessment data loaded")

	// ErrDepartmentNotFound means the report has no such department.
	ErrDepartmentNotFound = errors.New("department not found")

	// ErrDataLoad wraps every record source failure.
	ErrDataLoad = errors.New("data load failed")
)
