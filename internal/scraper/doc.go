// Package scraper fetches a showtime's seat-map page and extracts the raw seat elements.
//
// The seat map renders every seat, including invisible placeholders used for
// layout padding, as an element whose class list contains "mx-1". A seat that
// cannot be bought carries "cursor-not-allowed"; a placeholder carries
// "invisible". The scraper returns the elements in page order and leaves
// row and seat numbering to the seat package.
package scraper
