package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"ecgnote/internal/patientstore"
)

// Source keys of the raw measurement dump that are renamed on conversion.
const (
	dumpRawKey      = "ecg_file_list"
	dumpDenoisedKey = "denoised_ech_file_list"
)

// ConvertSummary counts converted records.
type ConvertSummary struct {
	Added   int
	Skipped int
}

// Convert turns the raw dump at src into master records and writes them to
// the store at dst. Records already in dst keep their annotation state; the
// dump entry for them is skipped.
func Convert(src, dst string) (ConvertSummary, error) {
	var summary ConvertSummary

	data, err := os.ReadFile(src)
	if err != nil {
		return summary, fmt.Errorf("read dump: %w", err)
	}
	entries, err := decodeObject(data)
	if err != nil {
		return summary, fmt.Errorf("parse dump %s: %w", src, err)
	}

	store, err := patientstore.Load(dst)
	if errors.Is(err, fs.ErrNotExist) {
		store, err = patientstore.New(dst), nil
	}
	if err != nil {
		return summary, err
	}
	existing := make(map[string]bool, store.Len())
	for _, id := range store.IDs() {
		existing[id] = true
	}

	for _, entry := range entries {
		if existing[entry.key] {
			summary.Skipped++
			continue
		}
		rec, err := convertEntry(entry)
		if err != nil {
			return summary, err
		}
		if err := store.Add(rec); err != nil {
			return summary, err
		}
		summary.Added++
	}
	if summary.Added == 0 {
		return summary, nil
	}
	return summary, store.SaveAs(dst)
}

func convertEntry(entry member) (*patientstore.Record, error) {
	fields, err := decodeObject(entry.value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.key, err)
	}
	byKey := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		byKey[f.key] = f.value
	}
	for _, required := range []string{patientstore.KeyLR, dumpRawKey, dumpDenoisedKey} {
		if _, ok := byKey[required]; !ok {
			return nil, fmt.Errorf("%s: dump entry has no %s: %w", entry.key, required, patientstore.ErrFormat)
		}
	}

	rec := patientstore.NewRecord(entry.key)
	set := func(key string, value json.RawMessage) error {
		return rec.SetAttr(key, value)
	}
	if err := set(patientstore.KeyLR, byKey[patientstore.KeyLR]); err != nil {
		return nil, err
	}
	if err := set(patientstore.KeyRawVoltage, byKey[dumpRawKey]); err != nil {
		return nil, err
	}
	if err := set(patientstore.KeyDenoised, byKey[dumpDenoisedKey]); err != nil {
		return nil, err
	}
	for _, f := range fields {
		switch f.key {
		case patientstore.KeyLR, dumpRawKey, dumpDenoisedKey,
			patientstore.KeyAnnotationInfo, patientstore.KeyAnnotationTime,
			patientstore.KeyIsAnnotated, patientstore.KeyIsPrinted, patientstore.KeyImgName:
			continue
		}
		if err := set(f.key, f.value); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
