// Package scene provides the scene graph the reconstruction pipeline links
// finished meshes into, and the import pass that loads previously exported
// neuron membrane meshes back into a scene.
//
// Objects are owned by the scene and addressed through integer handles
// rather than raw pointers, mirroring the host engine's reference-counted
// object table. Mutating operators act on the single active object; the
// active-object pointer is guarded so activate-and-mutate sequences from
// different goroutines cannot interleave.
package scene

import (
	"fmt"
	"log/slog"
	"sync"

	"neuroskin/pkg/mesh"
)

// Handle addresses an object owned by a Scene. The zero handle is never
// allocated and means "no object".
type Handle int

// Scene is a flat scene graph: a handle table of mesh objects plus the
// active-object pointer.
type Scene struct {
	mu      sync.Mutex
	objects map[Handle]*mesh.Object
	order   []Handle
	next    Handle
	active  Handle

	log *slog.Logger
}

// New returns an empty scene. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Scene {
	if log == nil {
		log = slog.Default()
	}
	return &Scene{
		objects: make(map[Handle]*mesh.Object),
		next:    1,
		log:     log,
	}
}

// Link adds an object to the scene and returns its handle.
func (s *Scene) Link(obj *mesh.Object) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.next
	s.next++
	s.objects[h] = obj
	s.order = append(s.order, h)
	return h
}

// Unlink removes an object from the scene, clearing the active pointer if
// it referred to the removed object. Used to back out partially finalized
// meshes.
func (s *Scene) Unlink(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[h]; !ok {
		return
	}
	delete(s.objects, h)
	for i, o := range s.order {
		if o == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == h {
		s.active = 0
	}
}

// Object returns the object behind a handle.
func (s *Scene) Object(h Handle) (*mesh.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[h]
	return obj, ok
}

// Objects returns all linked objects in link order.
func (s *Scene) Objects() []*mesh.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*mesh.Object, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.objects[h])
	}
	return out
}

// Count returns the number of linked objects.
func (s *Scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// SetActiveObject makes the object behind h the target of subsequent
// mutating operators.
func (s *Scene) SetActiveObject(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[h]; !ok {
		return fmt.Errorf("cannot activate handle %d: no such object", h)
	}
	s.active = h
	return nil
}

// ActiveObject returns the currently active object, or nil if none is
// active.
func (s *Scene) ActiveObject() *mesh.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == 0 {
		return nil
	}
	return s.objects[s.active]
}
