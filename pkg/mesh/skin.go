package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// skinRingSegments is the number of surface vertices generated around each
// skeletal vertex. Eight matches the host's default skin resolution before
// smoothing.
const skinRingSegments = 8

// ApplySkin inflates the skeletal graph into a solid tube surface using the
// per-vertex skin radii: every edge becomes a tapered tube segment whose end
// rings are sized by the radii of its two vertices, and free ends are closed
// with fan caps. Branch points sprout one ring per incident edge, so the
// surface is solid but, like the host's skin operator, not guaranteed to be
// watertight at forks. Runs once per object; the radii must already hold
// their final values.
func (o *Object) ApplySkin() error {
	if len(o.Vertices) == 0 {
		return fmt.Errorf("%w: skin requires at least one skeletal vertex",
			ErrOperationFailed)
	}
	if len(o.SkinRadii) != len(o.Vertices) {
		return fmt.Errorf("%w: %d skin radii for %d vertices",
			ErrOperationFailed, len(o.SkinRadii), len(o.Vertices))
	}
	if len(o.SurfaceTriangles) > 0 {
		return fmt.Errorf("%w: skin already applied to %q", ErrOperationFailed, o.Name)
	}

	degree := make([]int, len(o.Vertices))
	for _, e := range o.Edges {
		degree[e[0]]++
		degree[e[1]]++
	}

	for _, e := range o.Edges {
		a, b := o.Vertices[e[0]], o.Vertices[e[1]]
		axis := r3.Sub(b, a)
		length := r3.Norm(axis)
		if length == 0 {
			continue
		}
		direction := r3.Scale(1/length, axis)
		u, v := perpendicularBasis(direction)

		ringA := o.appendRing(a, u, v, o.SkinRadii[e[0]][0])
		ringB := o.appendRing(b, u, v, o.SkinRadii[e[1]][0])
		o.bridgeRings(ringA, ringB)

		// Close free ends so every tube is solid.
		if degree[e[0]] == 1 {
			o.capRing(ringA, a, true)
		}
		if degree[e[1]] == 1 {
			o.capRing(ringB, b, false)
		}
	}

	if len(o.Edges) == 0 {
		// Degenerate single-vertex graph: a minimal closed surface keeps
		// downstream operators working.
		o.appendOctahedron(o.Vertices[0], o.SkinRadii[0][0])
	}
	return nil
}

// appendRing adds one circle of surface vertices around centre in the plane
// spanned by u and v, returning their indices in ring order.
func (o *Object) appendRing(centre, u, v r3.Vec, radius float64) []int {
	ring := make([]int, skinRingSegments)
	for i := 0; i < skinRingSegments; i++ {
		angle := 2 * math.Pi * float64(i) / skinRingSegments
		offset := r3.Add(
			r3.Scale(radius*math.Cos(angle), u),
			r3.Scale(radius*math.Sin(angle), v),
		)
		ring[i] = len(o.SurfaceVertices)
		o.SurfaceVertices = append(o.SurfaceVertices, r3.Add(centre, offset))
	}
	return ring
}

// bridgeRings connects two rings of equal size with a band of quads, two
// triangles per quad, wound so normals face outward.
func (o *Object) bridgeRings(ringA, ringB []int) {
	n := len(ringA)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		o.SurfaceTriangles = append(o.SurfaceTriangles,
			[3]int{ringA[i], ringB[i], ringB[j]},
			[3]int{ringA[i], ringB[j], ringA[j]},
		)
	}
}

// capRing closes a ring with a triangle fan around a centre vertex. start
// selects the winding so the cap faces away from the tube.
func (o *Object) capRing(ring []int, centre r3.Vec, start bool) {
	centreIdx := len(o.SurfaceVertices)
	o.SurfaceVertices = append(o.SurfaceVertices, centre)
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if start {
			o.SurfaceTriangles = append(o.SurfaceTriangles,
				[3]int{centreIdx, ring[i], ring[j]})
		} else {
			o.SurfaceTriangles = append(o.SurfaceTriangles,
				[3]int{centreIdx, ring[j], ring[i]})
		}
	}
}

// appendOctahedron emits a small closed surface around a lone vertex.
func (o *Object) appendOctahedron(centre r3.Vec, radius float64) {
	if radius == 0 {
		radius = 1e-3
	}
	base := len(o.SurfaceVertices)
	offsets := []r3.Vec{
		{X: radius}, {X: -radius},
		{Y: radius}, {Y: -radius},
		{Z: radius}, {Z: -radius},
	}
	for _, off := range offsets {
		o.SurfaceVertices = append(o.SurfaceVertices, r3.Add(centre, off))
	}
	faces := [][3]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}
	for _, f := range faces {
		o.SurfaceTriangles = append(o.SurfaceTriangles,
			[3]int{base + f[0], base + f[1], base + f[2]})
	}
}

// perpendicularBasis returns two unit vectors orthogonal to direction and to
// each other.
func perpendicularBasis(direction r3.Vec) (u, v r3.Vec) {
	reference := r3.Vec{X: 1}
	if math.Abs(direction.X) > 0.9 {
		reference = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Cross(direction, reference))
	v = r3.Cross(direction, u)
	return u, v
}
