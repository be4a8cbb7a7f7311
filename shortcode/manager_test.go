package shortcode

import (
	"strings"
	"testing"

	"github.com/surly-sh/surly/datastore"
	"github.com/surly-sh/surly/storage"
)

func newTestManager() *Manager {
	table := datastore.NewTable(storage.NewMemoryKV(), "shortcodes", datastore.NewMapCache())
	return NewManager(table)
}

func TestCreateResolveDelete(t *testing.T) {
	m := newTestManager()

	record, err := m.Create("https://example.com", "acct-1234", 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if record.Target != "https://example.com" {
		t.Errorf("unexpected target in the created record: %v", record.Target)
	}
	if record.Creator != "acct-1234" {
		t.Errorf("unexpected creator in the created record: %v", record.Creator)
	}
	if record.Timestamp == 0 {
		t.Error("the created record carries no timestamp")
	}

	resolved, ok, err := m.Resolve(record.Shortcode)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("a just-created shortcode does not resolve")
	}
	if resolved != record {
		t.Fatalf("resolved record %+v does not match the created one %+v", resolved, record)
	}

	existed, err := m.Delete(record.Shortcode)
	if err != nil {
		t.Fatal(err)
	}
	if !existed {
		t.Fatal("deleting an existing shortcode reported it absent")
	}

	existed, err = m.Delete(record.Shortcode)
	if err != nil {
		t.Fatal(err)
	}
	if existed {
		t.Fatal("a second delete of the same shortcode reported it present")
	}

	_, ok, err = m.Resolve(record.Shortcode)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("a deleted shortcode still resolves")
	}
}

func TestCreateWithPrefixAndDefaultLength(t *testing.T) {
	m := newTestManager()

	record, err := m.Create("https://example.com/docs", "acct-1234", 0, "docs")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(record.Shortcode, "docs-") {
		t.Fatalf("code %q does not carry the requested prefix", record.Shortcode)
	}

	digits := strings.ReplaceAll(strings.TrimPrefix(record.Shortcode, "docs-"), "-", "")
	if len(digits) != DefaultCodeLength {
		t.Fatalf("expected the default code length %v, got %v", DefaultCodeLength, len(digits))
	}
}

func TestResolveUnknownCode(t *testing.T) {
	m := newTestManager()

	_, ok, err := m.Resolve("never-made")
	if err != nil {
		t.Fatalf("resolving an unknown code must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("an unknown code resolved")
	}
}
