// Package intake prepares inputs for the annotation workflow: a patient
// roster built from the measurement CSV tree, and master store records
// converted from a raw measurement dump.
package intake
