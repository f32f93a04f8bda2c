// Package stl exports reconstructed meshes as binary STL files so the
// results of a reconstruction run persist beyond the scene.
package stl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"

	"neuroskin/pkg/mesh"
)

// Triangle is a single oriented surface triangle.
type Triangle struct {
	V [3]r3.Vec
}

// Normal returns the right-hand-rule unit normal of the triangle.
func (t Triangle) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	n := r3.Cross(e1, e2)
	if norm := r3.Norm(n); norm > 0 {
		return r3.Scale(1/norm, n)
	}
	return n
}

// FromObject flattens a finalized mesh object's surface into triangles for
// export.
func FromObject(obj *mesh.Object) []Triangle {
	triangles := make([]Triangle, 0, len(obj.SurfaceTriangles))
	for _, tri := range obj.SurfaceTriangles {
		triangles = append(triangles, Triangle{V: [3]r3.Vec{
			obj.SurfaceVertices[tri[0]],
			obj.SurfaceVertices[tri[1]],
			obj.SurfaceVertices[tri[2]],
		}})
	}
	return triangles
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

// WriteSTL writes model triangles to a writer in binary STL format.
// Non-finite coordinates are rejected: they indicate a finalization bug and
// would silently corrupt the file.
func WriteSTL(w io.Writer, model []Triangle) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}

	header := stlHeader{Count: uint32(len(model))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}

	var d stlTriangle
	for i, triangle := range model {
		n := triangle.Normal()
		d.Normal = toF32(n)
		d.Vertex1 = toF32(triangle.V[0])
		d.Vertex2 = toF32(triangle.V[1])
		d.Vertex3 = toF32(triangle.V[2])
		if bad3F32(d.Normal) || bad3F32(d.Vertex1) || bad3F32(d.Vertex2) || bad3F32(d.Vertex3) {
			return fmt.Errorf("triangle %d has non-finite coordinates", i)
		}
		if err := binary.Write(w, binary.LittleEndian, &d); err != nil {
			return err
		}
	}
	return nil
}

// SaveToSTL writes the triangles to a binary STL file at the given path.
func SaveToSTL(path string, model []Triangle) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %w", err)
	}
	defer file.Close()

	if err := WriteSTL(file, model); err != nil {
		return fmt.Errorf("failed to write STL file %s: %w", path, err)
	}
	return nil
}

func toF32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

// ReadSTL reads a binary STL file back into triangles. Used by tests and by
// tooling that inspects exported meshes.
func ReadSTL(r io.Reader) ([]Triangle, error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read STL header: %w", err)
	}
	if header.Count == 0 {
		return nil, errors.New("STL header indicates 0 triangles present")
	}

	triangles := make([]Triangle, 0, header.Count)
	var d stlTriangle
	for i := uint32(0); i < header.Count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		triangles = append(triangles, Triangle{V: [3]r3.Vec{
			fromF32(d.Vertex1), fromF32(d.Vertex2), fromF32(d.Vertex3),
		}})
	}
	return triangles, nil
}

func fromF32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

