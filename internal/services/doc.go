// Package services implements the business logic between the HTTP handlers
// and the statistics core.
//
// # Services
//
//	- ReportService: loads records from a RecordSource, computes the report
//	  and serves it from an immutable snapshot
//	- HealthService: health, readiness, liveness and version information
//
// # Snapshot lifecycle
//
// The first accessor call loads lazily. Reload always re-reads the source;
// concurrent reloads share one load. A failed reload keeps the previous
// snapshot:
//
//	svc := services.NewReportService(source, metrics, logger)
//	stats, err := svc.Report(ctx)
//	if errors.Is(err, services.ErrDataLoad) {
//	    // source unreadable, no snapshot yet
//	}
//
// # Errors
//
// Accessors return ErrNoDataLoaded when the source holds no records,
// ErrDepartmentNotFound for unknown departments, and ErrDataLoad wrapping
// the source failure. Handlers translate these into problem responses.
package services
