// Package monitor runs the polling loop for one showtime.
//
// Each cycle fetches the seat map, normalizes it into the set of available
// seats and compares it against the last successful poll. The first
// successful poll of a session is recorded as initial, later polls as change
// or check, and failed fetches as error. Fetch failures never stop the loop;
// a seat layout that does not fit the page does.
package monitor
