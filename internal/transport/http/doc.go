// Package http implements the JSON API handlers.
//
// Handlers stay thin: they parse and validate the request, call a service
// and render the result. Service errors are translated into RFC 7807
// problems in one place, handleServiceError, so every route reports a
// missing snapshot, an unknown department or an unreadable source the same
// way.
//
// Routes:
//
//	GET  /api/report
//	POST /api/report/reload
//	GET  /api/report/ranges
//	GET  /api/departments          (?name= selects one department)
//	GET  /api/departments/{name}
//	GET  /api/students/support?page=&per_page=
//	GET  /api/students/follow-up?page=&per_page=
//	GET  /api/students/improved?limit=
//	GET  /api/students/declined?limit=
//	GET  /api/students/batches/{batch}?page=&per_page=
//	GET  /api/export/report.csv
//	GET  /api/export/report.xlsx
//	POST /api/logs
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
package http
