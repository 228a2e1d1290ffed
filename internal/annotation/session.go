package annotation

import (
	"context"
	"fmt"
	"time"

	"ecgnote/internal/patientstore"
)

// Outcome is the result of annotating one patient.
type Outcome int

const (
	// Next means all segments were labeled and the cursor advanced.
	Next Outcome = iota
	// Prev means the patient was reverted and the cursor moved back.
	Prev
	// Exit means the operator cancelled the session.
	Exit
)

func (o Outcome) String() string {
	switch o {
	case Next:
		return "next"
	case Prev:
		return "prev"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Session is the walk state of one annotation run.
type Session struct {
	// Cursor is the walk-order position, always within [0, Total].
	Cursor int
	// SinceLastSave counts patients completed since the last checkpoint.
	SinceLastSave int
	// DoneAtStart is the number of annotated patients when the session began.
	DoneAtStart int
	// Remaining is Total minus DoneAtStart. It does not change mid-session.
	Remaining int
	Total     int

	Completed   int
	Checkpoints int
}

// Progress returns the display position of the cursor among the patients
// that still needed labels when the session started.
func (s Session) Progress() (current, total int) {
	return s.Cursor - s.DoneAtStart + 1, s.Remaining
}

// Prompt describes the segment waiting for a label.
type Prompt struct {
	PatientID string
	Index     int
	Segment   int
	Current   int
	Remaining int
	// Labels holds the labels already committed for this patient.
	Labels []string
	// ImagePath is the rendered segment image, empty if not rendered.
	ImagePath string
	Record    *patientstore.Record
}

// Store is the part of the patient store the engine mutates.
type Store interface {
	Len() int
	IDAt(idx int) (string, error)
	Record(id string) (*patientstore.Record, error)
	Commit(id, label string, at time.Time) (bool, error)
	Revert(id string) error
	AnnotatedCount() int
	Save() error
}

// KeySource blocks until the operator presses a key.
type KeySource interface {
	ReadKey(ctx context.Context) (rune, error)
}

// Presenter shows a prompt to the operator.
type Presenter interface {
	Present(p Prompt) error
}
