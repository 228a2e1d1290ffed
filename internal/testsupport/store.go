package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"ecgnote/internal/patientstore"
)

// Patient describes a fixture record.
type Patient struct {
	ID string
	// PatientID is written as the patient_id attribute. Empty uses ID.
	PatientID string
	Labels    []string
	Images    []string
	Samples   int
	Printed   bool
}

// Pending returns unannotated fixture patients with the given identifiers.
func Pending(ids ...string) []Patient {
	out := make([]Patient, 0, len(ids))
	for _, id := range ids {
		out = append(out, Patient{ID: id})
	}
	return out
}

// Waveform returns n samples of a synthetic beat-like signal.
func Waveform(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)/12 + phase
		out[i] = math.Round((0.3*math.Sin(x)+math.Pow(math.Sin(x/4), 16))*1000) / 1000
	}
	return out
}

// StoreDocument builds a store document for the given patients.
func StoreDocument(t testing.TB, patients ...Patient) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, p := range patients {
		samples := p.Samples
		if samples == 0 {
			samples = 300
		}
		labels := p.Labels
		if labels == nil {
			labels = []string{}
		}
		annotated := len(labels) == patientstore.SegmentsPerPatient
		var annotationTime any
		if annotated {
			annotationTime = "2021-06-16 18:12:33.000000"
		}
		var printed any
		if p.Printed {
			printed = true
		}
		patientID := p.PatientID
		if patientID == "" {
			patientID = p.ID
		}
		var images any
		if p.Images != nil {
			images = p.Images
		}
		fields := []struct {
			key   string
			value any
		}{
			{"patient_id", patientID},
			{"recorded_time", "2021-06-16 09:00:00"},
			{"LR", []float64{0.91, 0.97, 0.88, 0.95, 0.9, 0.96}},
			{"raw_ecg_wave_voltage", Waveform(samples, 0)},
			{"denoised_ecg_wave_voltage", Waveform(samples, 0.5)},
			{"img_name", images},
			{"annotation_info", labels},
			{"is_annotated", annotated},
			{"annotation_time", annotationTime},
			{"is_printed", printed},
		}
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "%q:{", p.ID)
		for j, f := range fields {
			value, err := json.Marshal(f.value)
			if err != nil {
				t.Fatalf("marshal %s: %v", f.key, err)
			}
			if j > 0 {
				buf.WriteString(",")
			}
			fmt.Fprintf(&buf, "%q:%s", f.key, value)
		}
		buf.WriteString("}")
	}
	buf.WriteString("}")
	return buf.Bytes()
}

// WriteStore writes a fixture store document to path.
func WriteStore(t testing.TB, path string, patients ...Patient) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, StoreDocument(t, patients...), 0o644); err != nil {
		t.Fatalf("write store: %v", err)
	}
}

// MustLoadStore loads the store document at path.
func MustLoadStore(t testing.TB, path string) *patientstore.Store {
	t.Helper()

	store, err := patientstore.Load(path)
	if err != nil {
		t.Fatalf("patientstore.Load: %v", err)
	}
	return store
}
