package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ecgnote/internal/labels"
	"ecgnote/internal/testsupport"
)

func TestCollectCountsLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	testsupport.WriteStore(t, path,
		testsupport.Patient{ID: "P1", Labels: []string{"NSR", "PAC", "PAC"}, Printed: true},
		testsupport.Patient{ID: "P2", Labels: []string{"NSR", "NSR", "NSR"}},
		testsupport.Patient{ID: "P3", Labels: []string{"PVC"}},
		testsupport.Patient{ID: "P4"},
	)
	store := testsupport.MustLoadStore(t, path)

	s, err := Collect(store)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if s.Total != 4 || s.Annotated != 2 || s.Partial != 1 || s.Printed != 1 || s.Segments != 7 {
		t.Fatalf("unexpected summary %+v", s)
	}

	want := []struct {
		code     string
		segments int
		patients int
		class    labels.Class
	}{
		{"NSR", 4, 2, labels.ClassNormal},
		{"PAC", 2, 1, labels.ClassAbnormal},
		{"PVC", 1, 1, labels.ClassAbnormal},
	}
	if len(s.Labels) != len(want) {
		t.Fatalf("labels = %+v", s.Labels)
	}
	for i, w := range want {
		got := s.Labels[i]
		if got.Code != w.code || got.Segments != w.segments || got.Patients != w.patients || got.Class != w.class {
			t.Errorf("labels[%d] = %+v, want %+v", i, got, w)
		}
	}
	if share := s.Share(s.Labels[0]); share < 0.57 || share > 0.58 {
		t.Fatalf("NSR share = %f", share)
	}
}

func TestShareOfEmptySummary(t *testing.T) {
	if got := (Summary{}).Share(Count{Segments: 3}); got != 0 {
		t.Fatalf("share = %f", got)
	}
}

func TestWriteChart(t *testing.T) {
	s := Summary{
		Annotated: 1,
		Segments:  3,
		Labels: []Count{
			{Code: "NSR", Description: "Normal sinus rhythm", Class: labels.ClassNormal, Segments: 2, Patients: 1},
			{Code: "PVC", Description: "Premature ventricular contraction", Class: labels.ClassAbnormal, Segments: 1, Patients: 1},
		},
	}
	out := filepath.Join(t.TempDir(), "labels.html")
	if err := WriteChart(out, s); err != nil {
		t.Fatalf("WriteChart: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	for _, want := range []string{"<html", "Label distribution", "PVC", classColors[labels.ClassAbnormal]} {
		if !strings.Contains(html, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}
