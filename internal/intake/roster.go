package intake

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecgnote/internal/fileutil"
)

// NameLookup resolves a technician name for a patient.
type NameLookup interface {
	Name(patientID string) (string, error)
}

// RosterEntry is one patient of the roster document.
type RosterEntry struct {
	ID   string
	CSV  []string
	Name string
}

type rosterValue struct {
	CSV  []string `json:"csv"`
	Name *string  `json:"name"`
}

// ScanCSVRoot lists the patient directories under root and the CSV files in
// each. Directory and file names are sorted.
func ScanCSVRoot(root string, names NameLookup) ([]RosterEntry, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read csv root: %w", err)
	}
	var entries []RosterEntry
	for _, dir := range dirs {
		if !dir.IsDir() || strings.HasPrefix(dir.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir.Name(), err)
		}
		entry := RosterEntry{ID: dir.Name(), CSV: []string{}}
		for _, f := range files {
			if f.Type().IsRegular() && strings.EqualFold(filepath.Ext(f.Name()), ".csv") {
				entry.CSV = append(entry.CSV, f.Name())
			}
		}
		sort.Strings(entry.CSV)
		if names != nil {
			if name, err := names.Name(entry.ID); err == nil {
				entry.Name = name
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MergeRoster writes entries into the roster document at path. Existing
// patients are replaced in place, new ones are appended, and everything else
// in the document is kept.
func MergeRoster(path string, entries []RosterEntry) (added, updated int, err error) {
	var members []member
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		members, err = decodeObject(data)
		if err != nil {
			return 0, 0, fmt.Errorf("parse roster %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return 0, 0, fmt.Errorf("read roster: %w", err)
	}

	index := make(map[string]int, len(members))
	for i, m := range members {
		index[m.key] = i
	}
	for _, entry := range entries {
		value := rosterValue{CSV: entry.CSV}
		if entry.Name != "" {
			name := entry.Name
			value.Name = &name
		}
		raw, err := marshal(value)
		if err != nil {
			return 0, 0, err
		}
		if i, ok := index[entry.ID]; ok {
			members[i].value = raw
			updated++
			continue
		}
		index[entry.ID] = len(members)
		members = append(members, member{key: entry.ID, value: raw})
		added++
	}

	out, err := encodeObject(members)
	if err != nil {
		return 0, 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, 0, err
	}
	err = fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := w.Write(out)
		return err
	})
	return added, updated, err
}
