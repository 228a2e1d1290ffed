package labels

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ecgnote/internal/config"
)

// Class groups labels for display: reports print normal findings in blue and
// abnormal ones in red.
type Class int

const (
	ClassOther Class = iota
	ClassNormal
	ClassAbnormal
)

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassAbnormal:
		return "abnormal"
	default:
		return "other"
	}
}

// Reserved keys drive the session itself and can never be bound to a label.
const (
	KeyCtrlC     rune = 3
	KeyBackspace rune = 8
	KeyEscape    rune = 27
	KeyDelete    rune = 127
)

// IsReserved reports whether key is one of the session control keys.
func IsReserved(key rune) bool {
	switch key {
	case KeyCtrlC, KeyBackspace, KeyEscape, KeyDelete:
		return true
	}
	return false
}

// Label binds one input key to a diagnosis code.
type Label struct {
	Key         rune
	Code        string
	Description string
	Class       Class
}

// Set is an immutable key-to-label table.
type Set struct {
	name    string
	entries []Label
	byKey   map[rune]Label
}

var catalog = map[string]Label{
	"NSR":      {Code: "NSR", Description: "Normal sinus rhythm", Class: ClassNormal},
	"PAC":      {Code: "PAC", Description: "Premature atrial contraction", Class: ClassAbnormal},
	"PVC":      {Code: "PVC", Description: "Premature ventricular contraction", Class: ClassAbnormal},
	"artifact": {Code: "artifact", Description: "Waveform artifact", Class: ClassOther},
	"AT":       {Code: "AT", Description: "Atrial tachycardia", Class: ClassAbnormal},
	"AF":       {Code: "AF", Description: "Atrial fibrillation", Class: ClassAbnormal},
	"AFL":      {Code: "AFL", Description: "Atrial flutter", Class: ClassAbnormal},
	"PSVT":     {Code: "PSVT", Description: "Paroxysmal supraventricular tachycardia", Class: ClassAbnormal},
	"VT":       {Code: "VT", Description: "Ventricular tachycardia", Class: ClassAbnormal},
	"2AVB1":    {Code: "2AVB1", Description: "Second-degree AV block, Mobitz I", Class: ClassAbnormal},
	"2AVB2":    {Code: "2AVB2", Description: "Second-degree AV block, Mobitz II", Class: ClassAbnormal},
	"3AVB":     {Code: "3AVB", Description: "Third-degree AV block", Class: ClassAbnormal},
	"SP":       {Code: "SP", Description: "Sinus pause", Class: ClassAbnormal},
}

// Minimal returns the four-key set used for quick screening.
func Minimal() *Set {
	return mustBuild("minimal", map[rune]string{
		'a': "PAC",
		'n': "NSR",
		'v': "PVC",
		'z': "artifact",
	}, "anvz")
}

// Extended returns the twelve-key clinical set.
func Extended() *Set {
	return mustBuild("extended", map[rune]string{
		'N': "NSR",
		'A': "PAC",
		'V': "PVC",
		'T': "AT",
		'F': "AF",
		'L': "AFL",
		'P': "PSVT",
		'X': "VT",
		'W': "2AVB1",
		'2': "2AVB2",
		'3': "3AVB",
		'S': "SP",
	}, "NAVTFLPXW23S")
}

// FromConfig resolves the label set named in cfg and overlays cfg.Labels on
// top of it. A "custom" set contains only the overlay.
func FromConfig(cfg config.Annotation) (*Set, error) {
	var base []Label
	switch strings.ToLower(strings.TrimSpace(cfg.LabelSet)) {
	case "", "minimal":
		base = Minimal().Entries()
	case "extended":
		base = Extended().Entries()
	case "custom":
	default:
		return nil, fmt.Errorf("unknown label set %q", cfg.LabelSet)
	}
	name := strings.ToLower(strings.TrimSpace(cfg.LabelSet))
	if name == "" {
		name = "minimal"
	}
	if len(cfg.Labels) == 0 {
		return New(name, base)
	}

	keys := make([]string, 0, len(cfg.Labels))
	for key := range cfg.Labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := append([]Label(nil), base...)
	for _, key := range keys {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			return nil, fmt.Errorf("label key %q must be a single character", key)
		}
		label := describe(strings.TrimSpace(cfg.Labels[key]))
		label.Key = r
		replaced := false
		for i := range entries {
			if entries[i].Key == r {
				entries[i] = label
				replaced = true
				break
			}
		}
		if !replaced {
			entries = append(entries, label)
		}
	}
	return New(name, entries)
}

// New validates entries and builds a Set.
func New(name string, entries []Label) (*Set, error) {
	if len(entries) == 0 {
		return nil, errors.New("label set must contain at least one label")
	}
	set := &Set{
		name:    name,
		entries: make([]Label, 0, len(entries)),
		byKey:   make(map[rune]Label, len(entries)),
	}
	for _, entry := range entries {
		if IsReserved(entry.Key) {
			return nil, fmt.Errorf("key %q is reserved for session control", entry.Key)
		}
		if strings.TrimSpace(entry.Code) == "" {
			return nil, fmt.Errorf("key %q has an empty label code", entry.Key)
		}
		if _, dup := set.byKey[entry.Key]; dup {
			return nil, fmt.Errorf("key %q is bound twice", entry.Key)
		}
		set.byKey[entry.Key] = entry
		set.entries = append(set.entries, entry)
	}
	return set, nil
}

func mustBuild(name string, mapping map[rune]string, order string) *Set {
	entries := make([]Label, 0, len(mapping))
	for _, key := range order {
		label := describe(mapping[key])
		label.Key = key
		entries = append(entries, label)
	}
	set, err := New(name, entries)
	if err != nil {
		panic(err)
	}
	return set
}

// Describe returns the catalog entry for code. Unknown codes get a title-cased
// description and ClassOther.
func Describe(code string) Label {
	return describe(code)
}

func describe(code string) Label {
	if label, ok := catalog[code]; ok {
		return label
	}
	return Label{Code: code, Description: cases.Title(language.Und).String(code), Class: ClassOther}
}

// Name returns the set name.
func (s *Set) Name() string { return s.name }

// Lookup returns the label bound to key.
func (s *Set) Lookup(key rune) (Label, bool) {
	label, ok := s.byKey[key]
	return label, ok
}

// Entries returns the labels in display order.
func (s *Set) Entries() []Label {
	out := make([]Label, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of bound keys.
func (s *Set) Len() int { return len(s.entries) }
