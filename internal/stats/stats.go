// Package stats summarizes the labels recorded in a patient store.
package stats

import (
	"sort"

	"ecgnote/internal/labels"
	"ecgnote/internal/patientstore"
)

// Source is the read side of the patient store.
type Source interface {
	IDs() []string
	Record(id string) (*patientstore.Record, error)
}

// Count is the usage of one label code.
type Count struct {
	Code        string
	Description string
	Class       labels.Class
	// Segments counts every segment carrying the code.
	Segments int
	// Patients counts patients with the code on at least one segment.
	Patients int
}

// Summary describes the annotation state of a store.
type Summary struct {
	Total     int
	Annotated int
	Partial   int
	Printed   int
	Segments  int
	Labels    []Count
}

// Collect counts labels across all records of src. Counts are ordered by
// segment count, most used first, then by code.
func Collect(src Source) (Summary, error) {
	var s Summary
	byCode := map[string]*Count{}
	for _, id := range src.IDs() {
		rec, err := src.Record(id)
		if err != nil {
			return Summary{}, err
		}
		s.Total++
		if rec.IsPrinted() {
			s.Printed++
		}
		codes := rec.Labels()
		switch {
		case rec.IsAnnotated():
			s.Annotated++
		case len(codes) > 0:
			s.Partial++
		}
		seen := map[string]bool{}
		for _, code := range codes {
			c, ok := byCode[code]
			if !ok {
				label := labels.Describe(code)
				c = &Count{Code: code, Description: label.Description, Class: label.Class}
				byCode[code] = c
			}
			c.Segments++
			s.Segments++
			if !seen[code] {
				seen[code] = true
				c.Patients++
			}
		}
	}

	s.Labels = make([]Count, 0, len(byCode))
	for _, c := range byCode {
		s.Labels = append(s.Labels, *c)
	}
	sort.Slice(s.Labels, func(i, j int) bool {
		a, b := s.Labels[i], s.Labels[j]
		if a.Segments != b.Segments {
			return a.Segments > b.Segments
		}
		return a.Code < b.Code
	})
	return s, nil
}

// Share is the fraction of labeled segments carrying c.
func (s Summary) Share(c Count) float64 {
	if s.Segments == 0 {
		return 0
	}
	return float64(c.Segments) / float64(s.Segments)
}
