package selection

import (
	"reflect"
	"testing"
)

func TestToggle(t *testing.T) {
	s := New()
	if !s.Toggle("a1") {
		t.Fatal("first toggle should select")
	}
	if !s.Has("a1") {
		t.Fatal("a1 should be selected")
	}
	if s.Toggle("a1") {
		t.Fatal("second toggle should deselect")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty selection, got %d", s.Len())
	}
}

func TestSelectAllIsIdempotent(t *testing.T) {
	s := New()
	visible := []string{"a1", "a2", "a3"}
	s.SelectAll(visible)
	s.SelectAll(visible)
	if got := s.IDs(); !reflect.DeepEqual(got, visible) {
		t.Fatalf("got %v, want %v", got, visible)
	}
}

func TestSelectAllExtendsExisting(t *testing.T) {
	s := New()
	s.Toggle("a9")
	s.SelectAll([]string{"a1"})
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a1", "a9"}) {
		t.Fatalf("got %v", got)
	}
}

func TestClear(t *testing.T) {
	s := New()
	s.SelectAll([]string{"a1", "a2"})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty selection, got %v", s.IDs())
	}
}

func TestPruneDropsMissingIDs(t *testing.T) {
	s := New()
	s.SelectAll([]string{"a1", "a2", "a3"})
	s.Prune([]string{"a2"})
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"a2"}) {
		t.Fatalf("got %v", got)
	}
}
