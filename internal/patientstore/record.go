package patientstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SegmentsPerPatient is the number of labeled time windows per recording.
const SegmentsPerPatient = 3

// Attribute keys of the store document.
const (
	KeyAnnotationInfo = "annotation_info"
	KeyAnnotationTime = "annotation_time"
	KeyIsAnnotated    = "is_annotated"
	KeyIsPrinted      = "is_printed"
	KeyImgName        = "img_name"
	KeyLR             = "LR"
	KeyRawVoltage     = "raw_ecg_wave_voltage"
	KeyDenoised       = "denoised_ecg_wave_voltage"
	KeyRecordedTime   = "recorded_time"
	KeyPatientID      = "patient_id"
)

// TimeLayout is the serialized form of annotation_time, in local time.
const TimeLayout = "2006-01-02 15:04:05.000000"

// typedKeys are decoded into Record fields; every other attribute is kept
// as raw JSON. The order is used when a typed key was absent on load.
var typedKeys = []string{KeyAnnotationInfo, KeyAnnotationTime, KeyIsAnnotated, KeyIsPrinted, KeyImgName}

// Record is one patient entry of the store document.
type Record struct {
	id string

	annotationInfo []string
	annotationTime time.Time
	isAnnotated    bool
	isPrinted      *bool
	imgName        []string

	keys []string
	raw  map[string]json.RawMessage
	seen map[string]bool
}

// NewRecord returns an empty, unannotated record whose annotation
// attributes come first in the document.
func NewRecord(id string) *Record {
	rec := blankRecord(id)
	for _, key := range []string{KeyAnnotationInfo, KeyAnnotationTime, KeyIsPrinted, KeyIsAnnotated} {
		rec.touch(key)
	}
	return rec
}

func blankRecord(id string) *Record {
	return &Record{
		id:             id,
		annotationInfo: []string{},
		raw:            map[string]json.RawMessage{},
		seen:           map[string]bool{},
	}
}

// ID returns the store key of the record.
func (r *Record) ID() string { return r.id }

// Labels returns a copy of the committed labels in segment order.
func (r *Record) Labels() []string {
	out := make([]string, len(r.annotationInfo))
	copy(out, r.annotationInfo)
	return out
}

// IsAnnotated reports whether every segment has a label.
func (r *Record) IsAnnotated() bool { return r.isAnnotated }

// AnnotationTime returns when the record was completed, or the zero time.
func (r *Record) AnnotationTime() time.Time { return r.annotationTime }

// IsPrinted reports whether a report has been produced for the record.
func (r *Record) IsPrinted() bool { return r.isPrinted != nil && *r.isPrinted }

// Images returns the rendered image file names in segment order.
func (r *Record) Images() []string {
	out := make([]string, len(r.imgName))
	copy(out, r.imgName)
	return out
}

// Keys returns the attribute names in document order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) commit(label string, at time.Time) (bool, error) {
	if len(r.annotationInfo) >= SegmentsPerPatient {
		return false, fmt.Errorf("%s: %w", r.id, ErrComplete)
	}
	r.annotationInfo = append(r.annotationInfo, label)
	if len(r.annotationInfo) == SegmentsPerPatient {
		r.isAnnotated = true
		r.annotationTime = at
		return true, nil
	}
	return false, nil
}

func (r *Record) revert() {
	r.annotationInfo = []string{}
	r.isAnnotated = false
	r.annotationTime = time.Time{}
}

func (r *Record) setImages(names []string) {
	r.imgName = append([]string(nil), names...)
	r.touch(KeyImgName)
}

func (r *Record) setPrinted() {
	printed := true
	r.isPrinted = &printed
	r.touch(KeyIsPrinted)
}

// touch records key in document order if it was not present yet.
func (r *Record) touch(key string) {
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.keys = append(r.keys, key)
}

// SetAttr stores value under key as raw JSON. Typed annotation attributes
// cannot be set this way.
func (r *Record) SetAttr(key string, value any) error {
	for _, typed := range typedKeys {
		if key == typed {
			return fmt.Errorf("%s is managed by the store", key)
		}
	}
	data, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	r.raw[key] = data
	r.touch(key)
	return nil
}

// Attr returns the raw JSON of a non-typed attribute.
func (r *Record) Attr(key string) (json.RawMessage, bool) {
	data, ok := r.raw[key]
	return data, ok
}

// Float64s decodes a numeric series attribute such as raw_ecg_wave_voltage.
func (r *Record) Float64s(key string) ([]float64, error) {
	data, ok := r.raw[key]
	if !ok || isNull(data) {
		return nil, fmt.Errorf("%s: %s missing: %w", r.id, key, ErrFormat)
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%s: %s must be a list of numbers: %w", r.id, key, ErrFormat)
	}
	return values, nil
}

// Strings decodes a list attribute whose items are printed as text. Numbers
// keep their literal JSON spelling.
func (r *Record) Strings(key string) ([]string, error) {
	data, ok := r.raw[key]
	if !ok || isNull(data) {
		return nil, fmt.Errorf("%s: %s missing: %w", r.id, key, ErrFormat)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%s: %s must be a list, got %s: %w", r.id, key, jsonKind(data), ErrFormat)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, scalarText(item))
	}
	return out, nil
}

// Text decodes a string attribute. A missing or null attribute yields ok=false.
func (r *Record) Text(key string) (string, bool, error) {
	data, ok := r.raw[key]
	if !ok || isNull(data) {
		return "", false, nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", false, fmt.Errorf("%s: %s must be a string, got %s: %w", r.id, key, jsonKind(data), ErrFormat)
	}
	return value, true, nil
}

// LR returns the raw and denoised lead markers for a 1-based segment.
func (r *Record) LR(segment int) (raw, denoised string, err error) {
	values, err := r.Strings(KeyLR)
	if err != nil {
		return "", "", err
	}
	idx := (segment - 1) * 2
	if segment < 1 || idx+1 >= len(values) {
		return "", "", fmt.Errorf("%s: %s has %d values, segment %d needs %d: %w", r.id, KeyLR, len(values), segment, idx+2, ErrFormat)
	}
	return values[idx], values[idx+1], nil
}

func (r *Record) clone() *Record {
	c := &Record{
		id:             r.id,
		annotationInfo: r.Labels(),
		annotationTime: r.annotationTime,
		isAnnotated:    r.isAnnotated,
		imgName:        append([]string(nil), r.imgName...),
		keys:           r.Keys(),
		raw:            make(map[string]json.RawMessage, len(r.raw)),
		seen:           make(map[string]bool, len(r.seen)),
	}
	if r.isPrinted != nil {
		printed := *r.isPrinted
		c.isPrinted = &printed
	}
	for k, v := range r.raw {
		c.raw[k] = v
	}
	for k, v := range r.seen {
		c.seen[k] = v
	}
	return c
}

func decodeRecord(id string, data json.RawMessage) (*Record, error) {
	rec := blankRecord(id)
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%s: record must be an object: %w", id, ErrFormat)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		key, _ := tok.(string)
		if rec.seen[key] {
			return nil, fmt.Errorf("%s: duplicate attribute %q: %w", id, key, ErrFormat)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", id, key, err)
		}
		if err := rec.assign(key, value); err != nil {
			return nil, err
		}
		rec.touch(key)
	}
	if rec.isAnnotated != (len(rec.annotationInfo) == SegmentsPerPatient) {
		return nil, fmt.Errorf("%s: is_annotated=%v disagrees with %d labels: %w", id, rec.isAnnotated, len(rec.annotationInfo), ErrFormat)
	}
	return rec, nil
}

func (r *Record) assign(key string, value json.RawMessage) error {
	null := isNull(value)
	switch key {
	case KeyAnnotationInfo:
		if null {
			return nil
		}
		var labels []string
		if err := json.Unmarshal(value, &labels); err != nil {
			return fmt.Errorf("%s: %s must be a list of strings: %w", r.id, key, ErrFormat)
		}
		if len(labels) > SegmentsPerPatient {
			return fmt.Errorf("%s: %s has %d labels: %w", r.id, key, len(labels), ErrFormat)
		}
		r.annotationInfo = labels
	case KeyIsAnnotated:
		if null {
			return nil
		}
		if err := json.Unmarshal(value, &r.isAnnotated); err != nil {
			return fmt.Errorf("%s: %s must be a boolean: %w", r.id, key, ErrFormat)
		}
	case KeyAnnotationTime:
		if null {
			return nil
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return fmt.Errorf("%s: %s must be a string: %w", r.id, key, ErrFormat)
		}
		ts, err := parseTime(text)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", r.id, key, err)
		}
		r.annotationTime = ts
	case KeyIsPrinted:
		if null {
			return nil
		}
		var printed bool
		if err := json.Unmarshal(value, &printed); err != nil {
			return fmt.Errorf("%s: %s must be a boolean: %w", r.id, key, ErrFormat)
		}
		r.isPrinted = &printed
	case KeyImgName:
		if null {
			return nil
		}
		var names []string
		if err := json.Unmarshal(value, &names); err != nil {
			return fmt.Errorf("%s: %s must be a list of strings: %w", r.id, key, ErrFormat)
		}
		r.imgName = names
	default:
		var compact bytes.Buffer
		if err := json.Compact(&compact, value); err != nil {
			return fmt.Errorf("%s: %s: %w", r.id, key, err)
		}
		r.raw[key] = compact.Bytes()
	}
	return nil
}

func (r *Record) appendJSON(buf *bytes.Buffer) error {
	keys := r.Keys()
	for _, key := range []string{KeyAnnotationInfo, KeyAnnotationTime, KeyIsAnnotated} {
		if !r.seen[key] {
			keys = append(keys, key)
		}
	}

	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := encodeValue(key)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := r.encodeAttr(key)
		if err != nil {
			return fmt.Errorf("%s: encode %s: %w", r.id, key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

func (r *Record) encodeAttr(key string) ([]byte, error) {
	switch key {
	case KeyAnnotationInfo:
		return encodeValue(r.annotationInfo)
	case KeyIsAnnotated:
		return encodeValue(r.isAnnotated)
	case KeyAnnotationTime:
		if r.annotationTime.IsZero() {
			return []byte("null"), nil
		}
		return encodeValue(r.annotationTime.In(time.Local).Format(TimeLayout))
	case KeyIsPrinted:
		if r.isPrinted == nil {
			return []byte("null"), nil
		}
		return encodeValue(*r.isPrinted)
	case KeyImgName:
		if r.imgName == nil {
			return []byte("null"), nil
		}
		return encodeValue(r.imgName)
	default:
		return r.raw[key], nil
	}
}

func parseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", text, time.Local); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", text, ErrFormat)
	}
	return ts, nil
}

func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(bytes.TrimSpace(data)) == "null"
}

func scalarText(item json.RawMessage) string {
	trimmed := bytes.TrimSpace(item)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		if s, err := strconv.Unquote(string(trimmed)); err == nil {
			return s
		}
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

func jsonKind(data json.RawMessage) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "nothing"
	}
	switch trimmed[0] {
	case '{':
		return "object"
	case '[':
		return "list"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// Segment returns the samples of a 1-based segment of a voltage series. The
// series is split into SegmentsPerPatient equal chunks; trailing samples that
// do not fill a chunk are dropped.
func (r *Record) Segment(key string, segment int) ([]float64, error) {
	values, err := r.Float64s(key)
	if err != nil {
		return nil, err
	}
	chunk, err := SplitSegment(values, segment)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", r.id, key, err)
	}
	return chunk, nil
}

// SplitSegment returns chunk segment (1-based) of values.
func SplitSegment(values []float64, segment int) ([]float64, error) {
	if segment < 1 || segment > SegmentsPerPatient {
		return nil, fmt.Errorf("segment %d out of range", segment)
	}
	size := len(values) / SegmentsPerPatient
	if size == 0 {
		return nil, fmt.Errorf("%d samples cannot fill %d segments: %w", len(values), SegmentsPerPatient, ErrFormat)
	}
	start := (segment - 1) * size
	return values[start : start+size], nil
}
