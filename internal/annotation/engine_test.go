package annotation_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecgnote/internal/annotation"
	"ecgnote/internal/labels"
	"ecgnote/internal/patientstore"
	"ecgnote/internal/testsupport"
)

type scriptedKeys struct {
	keys []rune
	pos  int
}

func keys(script string) *scriptedKeys {
	return &scriptedKeys{keys: []rune(script)}
}

func (k *scriptedKeys) ReadKey(context.Context) (rune, error) {
	if k.pos >= len(k.keys) {
		return 0, io.EOF
	}
	key := k.keys[k.pos]
	k.pos++
	return key, nil
}

type recordingPresenter struct {
	prompts []annotation.Prompt
}

func (p *recordingPresenter) Present(prompt annotation.Prompt) error {
	p.prompts = append(p.prompts, prompt)
	return nil
}

func (p *recordingPresenter) patients() []string {
	var out []string
	for _, prompt := range p.prompts {
		if len(out) == 0 || out[len(out)-1] != prompt.PatientID {
			out = append(out, prompt.PatientID)
		}
	}
	return out
}

// savingStore records the on-disk document after every save.
type savingStore struct {
	*patientstore.Store
	t         *testing.T
	snapshots []*patientstore.Store
}

func (s *savingStore) Save() error {
	if err := s.Store.Save(); err != nil {
		return err
	}
	s.snapshots = append(s.snapshots, testsupport.MustLoadStore(s.t, s.Path()))
	return nil
}

const (
	esc       = string(labels.KeyEscape)
	backspace = string(labels.KeyBackspace)
)

func newStore(t *testing.T, patients ...testsupport.Patient) *savingStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_ecg.json")
	testsupport.WriteStore(t, path, patients...)
	return &savingStore{Store: testsupport.MustLoadStore(t, path), t: t}
}

func newEngine(t *testing.T, store annotation.Store, script string, saveEvery int) (*annotation.Engine, *recordingPresenter) {
	t.Helper()
	presenter := &recordingPresenter{}
	clock := func() time.Time { return time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local) }
	engine, err := annotation.NewEngine(store, keys(script), presenter, labels.Minimal(),
		annotation.WithSaveEvery(saveEvery),
		annotation.WithClock(clock),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, presenter
}

func mustRecord(t *testing.T, store *patientstore.Store, id string) *patientstore.Record {
	t.Helper()
	rec, err := store.Record(id)
	if err != nil {
		t.Fatalf("Record(%s): %v", id, err)
	}
	return rec
}

func TestSessionCheckpointScenario(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1", "P2", "P3")...)
	engine, _ := newEngine(t, store, "nnn"+"ana"+"v"+esc, 2)

	session, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.snapshots) != 2 {
		t.Fatalf("expected periodic and forced checkpoints, got %d saves", len(store.snapshots))
	}

	periodic := store.snapshots[0]
	if !mustRecord(t, periodic, "P1").IsAnnotated() || !mustRecord(t, periodic, "P2").IsAnnotated() {
		t.Fatal("periodic checkpoint should contain both completed patients")
	}
	if got := mustRecord(t, periodic, "P3").Labels(); len(got) != 0 {
		t.Fatalf("periodic checkpoint should precede P3 labels, got %v", got)
	}

	final := store.snapshots[1]
	p3 := mustRecord(t, final, "P3")
	if p3.IsAnnotated() || strings.Join(p3.Labels(), ",") != "PVC" {
		t.Fatalf("P3 after exit: annotated=%v labels=%v", p3.IsAnnotated(), p3.Labels())
	}
	if got := mustRecord(t, final, "P2").Labels(); strings.Join(got, ",") != "PAC,NSR,PAC" {
		t.Fatalf("P2 labels = %v", got)
	}
	if !mustRecord(t, final, "P1").AnnotationTime().Equal(time.Date(2024, 5, 2, 9, 0, 0, 0, time.Local)) {
		t.Fatal("annotation time not stamped from clock")
	}
	if session.SinceLastSave != 0 || session.Completed != 2 || session.Cursor != 2 {
		t.Fatalf("unexpected final session %+v", session)
	}
}

func TestCounterResetsAfterCheckpoint(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E", "F", "G"}
	store := newStore(t, testsupport.Pending(ids...)...)
	engine, _ := newEngine(t, store, strings.Repeat("n", 3*len(ids)), 3)

	session, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var counts []int
	for _, snap := range store.snapshots {
		counts = append(counts, snap.AnnotatedCount())
	}
	if len(counts) != 3 || counts[0] != 3 || counts[1] != 6 || counts[2] != 7 {
		t.Fatalf("checkpoints taken at %v, want [3 6 7]", counts)
	}
	if session.Checkpoints != 3 {
		t.Fatalf("session checkpoints = %d", session.Checkpoints)
	}
}

func TestUndoNeverMovesCursorBelowZero(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1", "P2")...)
	engine, _ := newEngine(t, store, backspace+backspace+"n"+backspace, 5)

	s := engine.Start()
	for i := 0; i < 3; i++ {
		var outcome annotation.Outcome
		var err error
		s, outcome, err = engine.AnnotateOne(context.Background(), s)
		if err != nil {
			t.Fatalf("AnnotateOne: %v", err)
		}
		if outcome != annotation.Prev {
			t.Fatalf("expected Prev, got %v", outcome)
		}
		if s.Cursor != 0 {
			t.Fatalf("cursor = %d after undo", s.Cursor)
		}
	}
	if got := mustRecord(t, store.Store, "P1").Labels(); len(got) != 0 {
		t.Fatalf("undo should clear the patient, got %v", got)
	}
}

func TestUndoRevertsCurrentPatientAndStepsBack(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1", "P2")...)
	engine, presenter := newEngine(t, store, "nnn"+"a"+backspace+"vvv"+"zzz", 10)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(mustRecord(t, store.Store, "P1").Labels(), ","); got != "NSR,NSR,NSR" {
		t.Fatalf("undo must not touch the previous patient, got %s", got)
	}
	if got := strings.Join(mustRecord(t, store.Store, "P2").Labels(), ","); got != "PVC,PVC,PVC" {
		t.Fatalf("P2 labels = %s", got)
	}
	if got := strings.Join(presenter.patients(), ","); got != "P1,P2" {
		t.Fatalf("prompt order = %s", got)
	}
	// P2 starts over at segment 1 after the undo.
	var segments []int
	for _, prompt := range presenter.prompts {
		if prompt.PatientID == "P2" {
			segments = append(segments, prompt.Segment)
		}
	}
	if len(segments) != 5 || segments[0] != 1 || segments[1] != 2 || segments[2] != 1 {
		t.Fatalf("P2 segments = %v", segments)
	}
}

func TestUnboundKeysAreIgnored(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1")...)
	engine, presenter := newEngine(t, store, "qn?Nn1n", 10)

	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(mustRecord(t, store.Store, "P1").Labels(), ","); got != "NSR,NSR,NSR" {
		t.Fatalf("labels = %s", got)
	}
	if len(presenter.prompts) != 7 {
		t.Fatalf("expected a re-prompt per ignored key, got %d prompts", len(presenter.prompts))
	}
	if presenter.prompts[0].Segment != 1 || presenter.prompts[1].Segment != 1 {
		t.Fatal("ignored key advanced the segment")
	}
}

func TestWalkSkipsAnnotatedPatientsInDocumentOrder(t *testing.T) {
	patients := []testsupport.Patient{
		{ID: "P9"},
		{ID: "P3", Labels: []string{"NSR", "NSR", "NSR"}},
		{ID: "P5", Labels: []string{"PAC"}},
		{ID: "P1"},
	}
	var orders []string
	for run := 0; run < 2; run++ {
		store := newStore(t, patients...)
		engine, presenter := newEngine(t, store, "nnn"+"nn"+"nnn", 10)
		session, err := engine.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if session.DoneAtStart != 1 || session.Remaining != 3 {
			t.Fatalf("unexpected progress baseline %+v", session)
		}
		orders = append(orders, strings.Join(presenter.patients(), ","))
		if first := presenter.prompts[3]; first.PatientID != "P5" || first.Segment != 2 {
			t.Fatalf("partial patient should resume at segment 2, got %+v", first)
		}
	}
	if orders[0] != "P9,P5,P1" || orders[0] != orders[1] {
		t.Fatalf("walk order = %v", orders)
	}
}

func TestInputErrorForcesCheckpoint(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1", "P2")...)
	engine, _ := newEngine(t, store, "nnnv", 10)

	_, err := engine.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected input error, got %v", err)
	}
	if len(store.snapshots) != 1 {
		t.Fatalf("expected one forced checkpoint, got %d", len(store.snapshots))
	}
	saved := store.snapshots[0]
	if !mustRecord(t, saved, "P1").IsAnnotated() || len(mustRecord(t, saved, "P2").Labels()) != 1 {
		t.Fatal("forced checkpoint lost in-memory labels")
	}
}

func TestCancelledContextStopsWalk(t *testing.T) {
	store := newStore(t, testsupport.Pending("P1")...)
	engine, presenter := newEngine(t, store, "nnn", 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(presenter.prompts) != 0 || len(store.snapshots) != 1 {
		t.Fatalf("prompts=%d saves=%d", len(presenter.prompts), len(store.snapshots))
	}
}

func TestProgressUsesSessionBaseline(t *testing.T) {
	store := newStore(t,
		testsupport.Patient{ID: "P1", Labels: []string{"NSR", "NSR", "NSR"}},
		testsupport.Patient{ID: "P2"},
		testsupport.Patient{ID: "P3"},
	)
	engine, presenter := newEngine(t, store, "nnnnnn", 10)
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, last := presenter.prompts[0], presenter.prompts[len(presenter.prompts)-1]
	if first.Current != 1 || first.Remaining != 2 || last.Current != 2 || last.Remaining != 2 {
		t.Fatalf("progress first=%d/%d last=%d/%d", first.Current, first.Remaining, last.Current, last.Remaining)
	}
}
