package report

import (
	"fmt"
	"strings"
	"testing"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/testsupport"
)

type call struct {
	op   string
	arg  string
	at   Point
	size Size
	col  Color
}

type recordingPager struct {
	pages int
	calls []call
}

func (r *recordingPager) AddPage() { r.pages++ }

func (r *recordingPager) DrawText(text string, at Point, style TextStyle) {
	r.calls = append(r.calls, call{op: "text", arg: text, at: at, col: style.Color})
}

func (r *recordingPager) DrawImage(path string, at Point, size Size) {
	r.calls = append(r.calls, call{op: "image", arg: path, at: at, size: size})
}

func (r *recordingPager) DrawRect(at Point, size Size, _ RectStyle) {
	r.calls = append(r.calls, call{op: "rect", at: at, size: size})
}

func (r *recordingPager) find(op, arg string) []call {
	var out []call
	for _, c := range r.calls {
		if c.op == op && c.arg == arg {
			out = append(out, c)
		}
	}
	return out
}

func fakeRecord(t *testing.T, id string, codes ...string) []Attribute {
	t.Helper()
	images := []string{id + "-1.png", id + "-2.png", id + "-3.png"}
	store, err := patientstore.Parse(testsupport.StoreDocument(t, testsupport.Patient{ID: id, Labels: codes, Images: images}))
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := store.Record(id)
	attrs, err := RecordAttributes(rec, "/render", NewWording(map[string]string{"artifact": "파형 흔들림"}))
	if err != nil {
		t.Fatalf("RecordAttributes: %v", err)
	}
	return attrs
}

func TestLayoutPlacesTwoRecordsPerPage(t *testing.T) {
	records := [][]Attribute{
		fakeRecord(t, "P1", "NSR", "PAC", "artifact"),
		fakeRecord(t, "P2", "PVC", "NSR", "NSR"),
		fakeRecord(t, "P3", "NSR", "NSR", "NSR"),
	}
	pager := &recordingPager{}
	header := PageHeader{Title: "Wearable ECG Study", Technician: "Kim", LegendText: "legend", Logo: "/res/logo.png"}
	if err := Layout(pager, header, 1, records); err != nil {
		t.Fatalf("Layout: %v", err)
	}

	if pager.pages != 2 {
		t.Fatalf("pages = %d, want 2", pager.pages)
	}
	if len(pager.find("text", "2/3")) != 1 || len(pager.find("text", "3/3")) != 1 {
		t.Fatal("page numbers should start after the cover and count it")
	}
	if n := len(pager.find("text", "Kim")); n != 2 {
		t.Fatalf("header drawn %d times, want once per page", n)
	}
	if n := len(pager.find("image", "/res/logo.png")); n != 2 {
		t.Fatalf("logo drawn %d times", n)
	}

	second := pager.find("image", "/render/P2-1.png")
	if len(second) != 1 || second[0].at != waveformSlots[3] || second[0].size != waveformSize {
		t.Fatalf("second record first image at %+v", second)
	}
	third := pager.find("image", "/render/P3-3.png")
	if len(third) != 1 || third[0].at != waveformSlots[2] {
		t.Fatalf("third record should use the first row of page two, got %+v", third)
	}

	normal := pager.find("text", "Normal sinus rhythm")
	if len(normal) == 0 || normal[0].col != Blue || normal[0].at != diagnosisSlots[0] {
		t.Fatalf("normal diagnosis: %+v", normal)
	}
	pac := pager.find("text", "Premature atrial contraction")
	if len(pac) != 1 || pac[0].col != Red || pac[0].at != diagnosisSlots[1] {
		t.Fatalf("abnormal diagnosis: %+v", pac)
	}
	if art := pager.find("text", "파형 흔들림"); len(art) != 1 || art[0].col != Black {
		t.Fatalf("override wording: %+v", art)
	}
	if times := pager.find("text", "2021-06-16 09:00:00"); len(times) != 3 || times[1].at != recordedTimeSlots[1] {
		t.Fatalf("recorded times: %+v", times)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct{ records, cover, want int }{
		{0, 1, 1},
		{1, 1, 2},
		{2, 1, 2},
		{3, 2, 4},
		{4, 0, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d+%d", tt.records, tt.cover), func(t *testing.T) {
			if got := PageCount(tt.records, tt.cover); got != tt.want {
				t.Fatalf("PageCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecordAttributesRequiresImages(t *testing.T) {
	store, err := patientstore.Parse(testsupport.StoreDocument(t, testsupport.Patient{ID: "P1", Labels: []string{"NSR"}}))
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := store.Record("P1")
	_, err = RecordAttributes(rec, "/render", NewWording(nil))
	if err == nil || !strings.Contains(err.Error(), "img_name") {
		t.Fatalf("expected img_name error, got %v", err)
	}
}

func TestAttributeKinds(t *testing.T) {
	attrs := fakeRecord(t, "P1", "NSR")
	want := []Kind{KindText, KindTextList, KindImageList}
	for i, attr := range attrs {
		if attr.Kind() != want[i] {
			t.Fatalf("attribute %d kind = %s, want %s", i, attr.Kind(), want[i])
		}
	}
	if err := (TextList{Items: make([]TextItem, 3), Slots: diagnosisSlots[:3], Size: 14}).Render(&recordingPager{}, 1); err == nil {
		t.Fatal("expected error when the row has no slots")
	}
}
