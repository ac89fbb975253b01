// Package seat turns a scraped seat map into logical seat identifiers and
// compares snapshots of available seats.
//
// The seat-map page lists seat elements row by row, each row filled from its
// last seat to its first and padded with invisible placeholder elements. The
// Normalize function buckets elements into rows by a fixed row capacity,
// trims the invisible padding at both ends of each row and renumbers the
// remaining seats from 1 (A01, A02, ...). Diff compares two sets of available
// seats and reports which seats were added and which were removed.
package seat
