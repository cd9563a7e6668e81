// Package files locates assessment workbooks on disk and creates export files.
//
// Discovery finds workbooks in a data directory and picks the newest one, which
// is how the web server and the report command choose their input when no
// explicit workbook path is configured.
//
//	discovery := files.NewDiscovery("/srv/assesspulse")
//	latest, err := discovery.LatestWorkbook("data")
package files
