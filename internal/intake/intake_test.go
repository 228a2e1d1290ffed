package intake

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/technician"
	"ecgnote/internal/testsupport"
)

func TestScanAndMergeRoster(t *testing.T) {
	root := t.TempDir()
	for _, file := range []string{"A-2106/b.csv", "A-2106/a.csv", "A-2106/notes.txt", "B-0001/x.CSV", ".hidden/y.csv"} {
		testsupport.WriteFile(t, filepath.Join(root, file), 8)
	}
	rosterCSV := filepath.Join(t.TempDir(), "technician.csv")
	testsupport.WriteTechnicianCSV(t, rosterCSV, map[string]string{"A-2106": "홍길동"})
	names, err := technician.Load(rosterCSV)
	if err != nil {
		t.Fatal(err)
	}

	entries, err := ScanCSVRoot(root, names)
	if err != nil {
		t.Fatalf("ScanCSVRoot: %v", err)
	}
	if len(entries) != 2 || strings.Join(entries[0].CSV, ",") != "a.csv,b.csv" || entries[0].Name != "홍길동" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if entries[1].ID != "B-0001" || entries[1].Name != "" || len(entries[1].CSV) != 1 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}

	path := filepath.Join(t.TempDir(), "id.json")
	existing := `{"Z-9": {"csv": ["old.csv"], "name": "Park", "site": "Seoul"}, "B-0001": {"csv": [], "name": null}}`
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	added, updated, err := MergeRoster(path, entries)
	if err != nil {
		t.Fatalf("MergeRoster: %v", err)
	}
	if added != 1 || updated != 1 {
		t.Fatalf("added=%d updated=%d", added, updated)
	}
	data, _ := os.ReadFile(path)
	text := string(data)
	if !strings.Contains(text, `"site": "Seoul"`) || !strings.Contains(text, `"name": "홍길동"`) {
		t.Fatalf("unexpected roster:\n%s", text)
	}
	if strings.Index(text, `"Z-9"`) > strings.Index(text, `"B-0001"`) || strings.Index(text, `"B-0001"`) > strings.Index(text, `"A-2106"`) {
		t.Fatalf("existing order not kept:\n%s", text)
	}
}

func TestMergeRosterCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "id.json")
	added, _, err := MergeRoster(path, []RosterEntry{{ID: "P1", CSV: []string{}}})
	if err != nil || added != 1 {
		t.Fatalf("MergeRoster = %d, %v", added, err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"name": null`) {
		t.Fatalf("missing name should be null:\n%s", data)
	}
}

func TestConvertBuildsMasterRecords(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.json")
	doc := `{
	"S1_1": {"LR": [1, 0, 1, 0, 1, 0], "ecg_file_list": [0.1, 0.2, 0.3], "denoised_ech_file_list": [0.1, 0.2, 0.3], "recorded_time": "2021-06-16 14:42:00"},
	"S1_2": {"LR": [1, 1, 1, 1, 1, 1], "ecg_file_list": [1, 2, 3], "denoised_ech_file_list": [1, 2, 3]}
}`
	if err := os.WriteFile(dump, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	master := filepath.Join(dir, "master_ecg.json")

	summary, err := Convert(dump, master)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if summary.Added != 2 {
		t.Fatalf("summary %+v", summary)
	}

	store := testsupport.MustLoadStore(t, master)
	rec, _ := store.Record("S1_1")
	want := []string{"annotation_info", "annotation_time", "is_printed", "is_annotated", "LR", "raw_ecg_wave_voltage", "denoised_ecg_wave_voltage", "recorded_time"}
	if strings.Join(rec.Keys(), ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v", rec.Keys())
	}
	raw, err := rec.Float64s(patientstore.KeyRawVoltage)
	if err != nil || len(raw) != 3 {
		t.Fatalf("raw voltage = %v, %v", raw, err)
	}

	if _, err := store.Commit("S1_1", "NSR", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(); err != nil {
		t.Fatal(err)
	}
	summary, err = Convert(dump, master)
	if err != nil || summary.Skipped != 2 || summary.Added != 0 {
		t.Fatalf("second convert %+v, %v", summary, err)
	}
	again := testsupport.MustLoadStore(t, master)
	if rec, _ := again.Record("S1_1"); len(rec.Labels()) != 1 {
		t.Fatal("convert overwrote annotation state")
	}
}

func TestConvertRejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "dump.json")
	if err := os.WriteFile(dump, []byte(`{"S1": {"LR": []}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Convert(dump, filepath.Join(dir, "master.json"))
	if !errors.Is(err, patientstore.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
