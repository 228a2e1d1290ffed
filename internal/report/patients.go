package report

import (
	"strings"

	"ecgnote/internal/patientstore"
)

// RecordSource is the read side of the patient store.
type RecordSource interface {
	IDs() []string
	Record(id string) (*patientstore.Record, error)
}

// PatientOf returns the patient a record belongs to: its patient_id
// attribute, or the store key up to the first underscore.
func PatientOf(rec *patientstore.Record) string {
	if pid, ok, err := rec.Text(patientstore.KeyPatientID); err == nil && ok && pid != "" {
		return pid
	}
	key := rec.ID()
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i]
	}
	return key
}

// UniquePatients lists patient identifiers in store order.
func UniquePatients(src RecordSource) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, key := range src.IDs() {
		rec, err := src.Record(key)
		if err != nil {
			return nil, err
		}
		pid := PatientOf(rec)
		if !seen[pid] {
			seen[pid] = true
			out = append(out, pid)
		}
	}
	return out, nil
}

// RecordsFor returns the store keys of every record of patientID, in store
// order. A record with a patient_id attribute matches on that attribute;
// otherwise its key must equal patientID or start with patientID + "_".
func RecordsFor(src RecordSource, patientID string) ([]string, error) {
	var keys []string
	for _, key := range src.IDs() {
		rec, err := src.Record(key)
		if err != nil {
			return nil, err
		}
		if pid, ok, err := rec.Text(patientstore.KeyPatientID); err == nil && ok && pid != "" {
			if pid == patientID {
				keys = append(keys, key)
			}
			continue
		}
		if key == patientID || strings.HasPrefix(key, patientID+"_") {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
