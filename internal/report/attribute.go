package report

import (
	"fmt"
	"path/filepath"

	"ecgnote/internal/labels"
	"ecgnote/internal/patientstore"
)

// Kind tags the shape of an attribute value.
type Kind int

const (
	KindText Kind = iota
	KindTextList
	KindImageList
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTextList:
		return "text list"
	case KindImageList:
		return "image list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Attribute is one printable value of a record. Row selects the slots of
// the first or second record on a page.
type Attribute interface {
	Kind() Kind
	Render(d Drawer, row int) error
}

// RowsPerPage is the number of records printed on one content page.
const RowsPerPage = 2

// Text prints one string in the slot of its row.
type Text struct {
	Value string
	Slots []Point
	Style TextStyle
}

func (Text) Kind() Kind { return KindText }

func (t Text) Render(d Drawer, row int) error {
	if t.Value == "" {
		return nil
	}
	if row < 0 || row >= len(t.Slots) {
		return fmt.Errorf("text %q has no slot for row %d", t.Value, row)
	}
	d.DrawText(t.Value, t.Slots[row], t.Style)
	return nil
}

// TextItem is one entry of a TextList.
type TextItem struct {
	Value string
	Color Color
}

// TextList prints one string per segment.
type TextList struct {
	Items []TextItem
	Slots []Point
	Size  float64
}

func (TextList) Kind() Kind { return KindTextList }

func (l TextList) Render(d Drawer, row int) error {
	offset := row * patientstore.SegmentsPerPatient
	for i, item := range l.Items {
		if offset+i >= len(l.Slots) {
			return fmt.Errorf("text list has %d slots, item %d of row %d does not fit", len(l.Slots), i, row)
		}
		d.DrawText(item.Value, l.Slots[offset+i], TextStyle{Size: l.Size, Color: item.Color})
	}
	return nil
}

// ImageList draws one image per segment.
type ImageList struct {
	Paths []string
	Slots []Point
	Size  Size
}

func (ImageList) Kind() Kind { return KindImageList }

func (l ImageList) Render(d Drawer, row int) error {
	offset := row * patientstore.SegmentsPerPatient
	for i, path := range l.Paths {
		if offset+i >= len(l.Slots) {
			return fmt.Errorf("image list has %d slots, image %d of row %d does not fit", len(l.Slots), i, row)
		}
		d.DrawImage(path, l.Slots[offset+i], l.Size)
	}
	return nil
}

// Wording maps label codes to the printed diagnosis and its color.
type Wording struct {
	overrides map[string]string
}

// NewWording returns label wording with optional per-code overrides.
func NewWording(overrides map[string]string) Wording {
	return Wording{overrides: overrides}
}

// Item returns the printed text and color for code.
func (w Wording) Item(code string) TextItem {
	label := labels.Describe(code)
	text := label.Description
	if override, ok := w.overrides[code]; ok && override != "" {
		text = override
	}
	switch label.Class {
	case labels.ClassNormal:
		return TextItem{Value: text, Color: Blue}
	case labels.ClassAbnormal:
		return TextItem{Value: text, Color: Red}
	default:
		return TextItem{Value: text, Color: Black}
	}
}

// RecordAttributes builds the printable attributes of one record. Values of
// the wrong JSON type are reported as format errors.
func RecordAttributes(rec *patientstore.Record, renderDir string, wording Wording) ([]Attribute, error) {
	recorded, _, err := rec.Text(patientstore.KeyRecordedTime)
	if err != nil {
		return nil, err
	}

	codes := rec.Labels()
	items := make([]TextItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, wording.Item(code))
	}

	images := rec.Images()
	if len(images) != patientstore.SegmentsPerPatient {
		return nil, fmt.Errorf("%s: img_name has %d images, render the store first: %w", rec.ID(), len(images), patientstore.ErrFormat)
	}
	paths := make([]string, 0, len(images))
	for _, name := range images {
		if !filepath.IsAbs(name) {
			name = filepath.Join(renderDir, name)
		}
		paths = append(paths, name)
	}

	return []Attribute{
		Text{Value: recorded, Slots: recordedTimeSlots, Style: TextStyle{Size: 10, Color: Black}},
		TextList{Items: items, Slots: diagnosisSlots, Size: 14},
		ImageList{Paths: paths, Slots: waveformSlots, Size: waveformSize},
	}, nil
}
