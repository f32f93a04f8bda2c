package scene

import (
	"testing"

	"neuroskin/pkg/mesh"
)

// TestLinkAndLookup verifies handle allocation and lookup.
func TestLinkAndLookup(t *testing.T) {
	s := New(nil)

	a := &mesh.Object{Name: "a"}
	b := &mesh.Object{Name: "b"}
	ha := s.Link(a)
	hb := s.Link(b)

	if ha == 0 || hb == 0 {
		t.Fatal("The zero handle must never be allocated")
	}
	if ha == hb {
		t.Fatal("Handles must be unique")
	}

	got, ok := s.Object(ha)
	if !ok || got != a {
		t.Errorf("Object(%d): expected %v, got %v (ok=%v)", ha, a, got, ok)
	}
	if s.Count() != 2 {
		t.Errorf("Expected 2 objects, got %d", s.Count())
	}
}

// TestObjectsOrder verifies that Objects returns link order.
func TestObjectsOrder(t *testing.T) {
	s := New(nil)
	names := []string{"first", "second", "third"}
	for _, n := range names {
		s.Link(&mesh.Object{Name: n})
	}

	objects := s.Objects()
	if len(objects) != len(names) {
		t.Fatalf("Expected %d objects, got %d", len(names), len(objects))
	}
	for i, n := range names {
		if objects[i].Name != n {
			t.Errorf("Object %d: expected %q, got %q", i, n, objects[i].Name)
		}
	}
}

// TestUnlink verifies removal, including the active-pointer reset.
func TestUnlink(t *testing.T) {
	s := New(nil)
	h := s.Link(&mesh.Object{Name: "doomed"})
	keep := s.Link(&mesh.Object{Name: "kept"})

	if err := s.SetActiveObject(h); err != nil {
		t.Fatalf("SetActiveObject failed: %v", err)
	}

	s.Unlink(h)

	if _, ok := s.Object(h); ok {
		t.Error("Unlinked object must not be retrievable")
	}
	if s.ActiveObject() != nil {
		t.Error("Unlinking the active object must clear the active pointer")
	}
	if s.Count() != 1 {
		t.Errorf("Expected 1 remaining object, got %d", s.Count())
	}

	// Unlinking twice is a no-op
	s.Unlink(h)
	if s.Count() != 1 {
		t.Error("Unlinking an unknown handle must not remove anything")
	}
	_ = keep
}

// TestActiveObject verifies activation and its error path.
func TestActiveObject(t *testing.T) {
	s := New(nil)

	if s.ActiveObject() != nil {
		t.Error("A fresh scene must have no active object")
	}
	if err := s.SetActiveObject(42); err == nil {
		t.Error("Activating an unknown handle must fail")
	}

	obj := &mesh.Object{Name: "active"}
	h := s.Link(obj)
	if err := s.SetActiveObject(h); err != nil {
		t.Fatalf("SetActiveObject failed: %v", err)
	}
	if s.ActiveObject() != obj {
		t.Error("ActiveObject must return the activated object")
	}
}
