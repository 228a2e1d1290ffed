// Package report lays out per-patient PDF reports from the annotated store,
// merges them behind a cover document and marks the reported records as
// printed.
//
// Coordinates are percentages of the A4 page measured from the top-left
// corner; an element is anchored at its bottom-left point, so an image at
// (5, 49) ends at 49% of the page height. Sizes are in points.
package report
