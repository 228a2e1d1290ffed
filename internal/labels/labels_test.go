package labels_test

import (
	"strings"
	"testing"

	"ecgnote/internal/config"
	"ecgnote/internal/labels"
)

func TestMinimalSet(t *testing.T) {
	set := labels.Minimal()
	cases := map[rune]string{'a': "PAC", 'n': "NSR", 'v': "PVC", 'z': "artifact"}
	for key, want := range cases {
		got, ok := set.Lookup(key)
		if !ok {
			t.Fatalf("expected key %q to be bound", key)
		}
		if got.Code != want {
			t.Fatalf("key %q: got %q want %q", key, got.Code, want)
		}
	}
	if _, ok := set.Lookup('N'); ok {
		t.Fatal("minimal set must be case sensitive")
	}
	if set.Len() != 4 {
		t.Fatalf("expected 4 labels, got %d", set.Len())
	}
}

func TestExtendedSetOrderAndClasses(t *testing.T) {
	set := labels.Extended()
	entries := set.Entries()
	if len(entries) != 12 {
		t.Fatalf("expected 12 labels, got %d", len(entries))
	}
	if entries[0].Code != "NSR" || entries[0].Class != labels.ClassNormal {
		t.Fatalf("unexpected first entry: %#v", entries[0])
	}
	label, ok := set.Lookup('2')
	if !ok || label.Code != "2AVB2" || label.Class != labels.ClassAbnormal {
		t.Fatalf("unexpected label for '2': %#v", label)
	}
}

func TestFromConfigOverlaysCustomKeys(t *testing.T) {
	set, err := labels.FromConfig(config.Annotation{
		LabelSet: "minimal",
		Labels:   map[string]string{"z": "noise", "f": "AF"},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	z, _ := set.Lookup('z')
	if z.Code != "noise" || z.Description != "Noise" || z.Class != labels.ClassOther {
		t.Fatalf("unexpected override: %#v", z)
	}
	f, ok := set.Lookup('f')
	if !ok || f.Code != "AF" || f.Description != "Atrial fibrillation" {
		t.Fatalf("unexpected added label: %#v", f)
	}
	if set.Len() != 5 {
		t.Fatalf("expected 5 labels, got %d", set.Len())
	}
}

func TestFromConfigCustomOnly(t *testing.T) {
	set, err := labels.FromConfig(config.Annotation{
		LabelSet: "custom",
		Labels:   map[string]string{"1": "NSR", "2": "PVC"},
	})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if set.Name() != "custom" || set.Len() != 2 {
		t.Fatalf("unexpected set: %s with %d labels", set.Name(), set.Len())
	}
	if _, ok := set.Lookup('a'); ok {
		t.Fatal("custom set must not inherit minimal keys")
	}
}

func TestReservedKeysRejected(t *testing.T) {
	for _, key := range []rune{labels.KeyEscape, labels.KeyDelete, labels.KeyBackspace, labels.KeyCtrlC} {
		_, err := labels.New("bad", []labels.Label{{Key: key, Code: "NSR"}})
		if err == nil || !strings.Contains(err.Error(), "reserved") {
			t.Fatalf("expected reserved-key error for %d, got %v", key, err)
		}
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	_, err := labels.New("dup", []labels.Label{{Key: 'a', Code: "PAC"}, {Key: 'a', Code: "NSR"}})
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}
