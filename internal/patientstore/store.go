package patientstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"ecgnote/internal/fileutil"
)

// Store is the insertion-ordered patient document. It is not safe for
// concurrent use; one session owns it at a time (see AcquireLock).
type Store struct {
	path    string
	ids     []string
	records map[string]*Record
}

// New returns an empty store that saves to path.
func New(path string) *Store {
	return &Store{path: path, records: map[string]*Record{}}
}

// Load reads and validates the store document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.path = path
	return s, nil
}

// Parse decodes a store document, keeping the order of patients and of each
// record's attributes.
func Parse(data []byte) (*Store, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	s := New("")
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("store document must be a JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode store: %w", err)
		}
		id, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode patient %s: %w", id, err)
		}
		if _, dup := s.records[id]; dup {
			return nil, fmt.Errorf("duplicate patient %q in store", id)
		}
		rec, err := decodeRecord(id, value)
		if err != nil {
			return nil, err
		}
		s.ids = append(s.ids, id)
		s.records[id] = rec
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode store: trailing data after document")
	}
	return s, nil
}

// Path returns the backing document path.
func (s *Store) Path() string { return s.path }

// Len returns the number of patients, which is also the walk-order index space.
func (s *Store) Len() int { return len(s.ids) }

// IDs returns patient identifiers in walk order.
func (s *Store) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// IDAt maps a walk-order position to its patient identifier.
func (s *Store) IDAt(idx int) (string, error) {
	if idx < 0 || idx >= len(s.ids) {
		return "", fmt.Errorf("index %d of %d: %w", idx, len(s.ids), ErrUnknownIndex)
	}
	return s.ids[idx], nil
}

// Record returns a snapshot of the patient's record. Mutations go through the
// store methods.
func (s *Store) Record(id string) (*Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return rec.clone(), nil
}

// Add appends a record to the end of the walk order.
func (s *Store) Add(rec *Record) error {
	if rec == nil || rec.id == "" {
		return errors.New("record needs an identifier")
	}
	if _, dup := s.records[rec.id]; dup {
		return fmt.Errorf("patient %q already in store", rec.id)
	}
	s.ids = append(s.ids, rec.id)
	s.records[rec.id] = rec.clone()
	return nil
}

// Commit appends label to the patient's annotation. complete reports whether
// this label was the last segment, in which case is_annotated is set and
// annotation_time stamped with at.
func (s *Store) Commit(id, label string, at time.Time) (complete bool, err error) {
	rec, ok := s.records[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return rec.commit(label, at)
}

// Revert clears the patient's annotation state.
func (s *Store) Revert(id string) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	rec.revert()
	return nil
}

// SetImages records the rendered image names of a patient.
func (s *Store) SetImages(id string, names []string) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if len(names) != SegmentsPerPatient {
		return fmt.Errorf("%s: expected %d images, got %d", id, SegmentsPerPatient, len(names))
	}
	rec.setImages(names)
	return nil
}

// MarkPrinted sets is_printed on the patient's record.
func (s *Store) MarkPrinted(id string) error {
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	rec.setPrinted()
	return nil
}

// AnnotatedCount returns how many records are fully annotated.
func (s *Store) AnnotatedCount() int {
	n := 0
	for _, rec := range s.records {
		if rec.isAnnotated {
			n++
		}
	}
	return n
}

// PrintedCount returns how many records have been reported.
func (s *Store) PrintedCount() int {
	n := 0
	for _, rec := range s.records {
		if rec.IsPrinted() {
			n++
		}
	}
	return n
}

// Marshal serializes the whole document. The output depends only on the
// store contents, so two calls without a mutation in between are identical.
func (s *Store) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := encodeValue(id)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		if err := s.records[id].appendJSON(&compact); err != nil {
			return nil, err
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "\t"); err != nil {
		return nil, fmt.Errorf("indent store: %w", err)
	}
	return out.Bytes(), nil
}

// Save writes the document to its backing path.
func (s *Store) Save() error {
	if s.path == "" {
		return errors.New("store has no backing path")
	}
	return s.SaveAs(s.path)
}

// SaveAs atomically writes the document to path.
func (s *Store) SaveAs(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	err = fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}
