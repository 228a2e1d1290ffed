// Package patientstore holds the JSON patient document that doubles as the
// annotation tool's application state and its durable storage.
//
// Patients keep the order they have in the file; that order is the walk
// order of an annotation session. Attributes the store does not manage are
// kept as raw JSON in their original position, so a load/save round trip
// only changes what Commit, Revert, SetImages and MarkPrinted touched.
// Saves replace the whole document atomically.
package patientstore
