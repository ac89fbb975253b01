// Package report renders the change history of a monitoring session as an HTML page
// and optionally serves it over HTTP.
package report
