// Package history holds the change history of a monitoring session.
//
// Each poll of the seat map produces one Record classified as initial,
// change, check or error. Records are appended to a Store and never
// modified afterwards.
package history
