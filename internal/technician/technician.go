// Package technician resolves the technician name printed on a patient's
// report from the roster CSV.
package technician

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownPatient is returned when the roster has no row for a patient.
var ErrUnknownPatient = errors.New("patient not in technician roster")

// Roster maps patient identifiers to technician names.
type Roster struct {
	names map[string]string
	order []string
}

// Load reads a CSV with a header row containing "id" and "name" columns.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open technician roster: %w", err)
	}
	defer f.Close()
	roster, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roster, nil
}

// Parse reads a roster from r.
func Parse(r io.Reader) (*Roster, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))) {
		case "id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("roster header must contain id and name columns, got %v", header)
	}

	roster := &Roster{names: map[string]string{}}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		if idCol >= len(row) || nameCol >= len(row) {
			continue
		}
		id := normalize(row[idCol])
		if id == "" {
			continue
		}
		if _, seen := roster.names[id]; !seen {
			roster.order = append(roster.order, id)
		}
		roster.names[id] = normalize(row[nameCol])
	}
	return roster, nil
}

// Name returns the technician for patientID.
func (r *Roster) Name(patientID string) (string, error) {
	name, ok := r.names[normalize(patientID)]
	if !ok || name == "" {
		return "", fmt.Errorf("%s: %w", patientID, ErrUnknownPatient)
	}
	return name, nil
}

// Len returns the number of patients in the roster.
func (r *Roster) Len() int { return len(r.order) }

// IDs returns patient identifiers in file order.
func (r *Roster) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Korean names exported from spreadsheets may arrive decomposed.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
