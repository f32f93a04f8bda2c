package scene

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"neuroskin/internal/models"
	"neuroskin/pkg/mesh"
)

// Import error kinds. Both are diagnostics, never fatal: a batch import
// logs them and continues with the remaining neurons.
var (
	// ErrMissingAsset reports a referenced mesh file that does not exist
	ErrMissingAsset = errors.New("missing asset")

	// ErrUnrecognizedFormat reports an unknown import format string
	ErrUnrecognizedFormat = errors.New("unrecognized input format")
)

// normalizedTextureSpaceSize is the texture-space extent applied to every
// imported membrane object so procedural textures tile consistently across
// neurons of different physical sizes.
const normalizedTextureSpaceSize = 10.0

// ImportOBJ loads a Wavefront OBJ file as a single mesh object named after
// the file, links it into the scene and returns its handle.
func (s *Scene) ImportOBJ(path string) (Handle, error) {
	objects, err := parseOBJ(path, false)
	if err != nil {
		return 0, err
	}
	obj := objects[0]
	obj.Name = objectNameFromPath(path)
	return s.Link(obj), nil
}

// ImportPLY loads an ascii PLY file as a single mesh object named after the
// file, links it into the scene and returns its handle.
func (s *Scene) ImportPLY(path string) (Handle, error) {
	obj, err := parsePLY(path)
	if err != nil {
		return 0, err
	}
	obj.Name = objectNameFromPath(path)
	return s.Link(obj), nil
}

// ImportBundle loads a multi-object bundle: a Wavefront-syntax container in
// which every "o" statement starts a named object, the on-disk form used for
// whole-neuron exports where soma, neurites and cross-section helpers are
// separate objects. All objects are linked and their handles returned.
func (s *Scene) ImportBundle(path string) ([]Handle, error) {
	objects, err := parseOBJ(path, true)
	if err != nil {
		return nil, err
	}
	handles := make([]Handle, 0, len(objects))
	for _, obj := range objects {
		handles = append(handles, s.Link(obj))
	}
	return handles, nil
}

// LoadNeuronMeshes loads the membrane meshes of every neuron in the list
// from dir into the scene. The expected filename is derived from the neuron
// GID, e.g. "neuron_1042.obj". format selects the asset type: "obj", "ply"
// or "blend" (the multi-object bundle export).
//
// Missing files and unknown formats are logged and skipped; one neuron's
// failure never stops the batch. Loaded handles are recorded on each
// neuron's MembraneMeshes. Returns the number of neurons that loaded.
func (s *Scene) LoadNeuronMeshes(dir string, neurons []*models.Neuron, format string) int {
	loaded := 0
	for _, neuron := range neurons {
		switch format {
		case "blend":
			handles, err := s.loadNeuronBundle(dir, neuron)
			if err != nil {
				s.log.Warn("skipping neuron", "gid", neuron.GID, "err", err)
				continue
			}
			neuron.MembraneMeshes = handleInts(handles)

		case "ply":
			h, err := s.loadNeuronSingle(dir, neuron, "ply")
			if err != nil {
				s.log.Warn("skipping neuron", "gid", neuron.GID, "err", err)
				continue
			}
			neuron.MembraneMeshes = []int{int(h)}

		case "obj":
			h, err := s.loadNeuronSingle(dir, neuron, "obj")
			if err != nil {
				s.log.Warn("skipping neuron", "gid", neuron.GID, "err", err)
				continue
			}
			neuron.MembraneMeshes = []int{int(h)}

		default:
			s.log.Error("no load attempted",
				"gid", neuron.GID, "format", format, "err", ErrUnrecognizedFormat)
			continue
		}
		loaded++
	}
	return loaded
}

// loadNeuronSingle imports one single-object asset and renames it to the
// GID-derived object name.
func (s *Scene) loadNeuronSingle(dir string, neuron *models.Neuron, ext string) (Handle, error) {
	path := filepath.Join(dir, fmt.Sprintf("neuron_%s.%s", neuron.GID, ext))

	var (
		h   Handle
		err error
	)
	switch ext {
	case "ply":
		h, err = s.ImportPLY(path)
	default:
		h, err = s.ImportOBJ(path)
	}
	if err != nil {
		return 0, err
	}

	if obj, ok := s.Object(h); ok {
		obj.Name = fmt.Sprintf("neuron_%s", neuron.GID)
	}
	return h, nil
}

// loadNeuronBundle imports a multi-object bundle, renames each object to a
// GID-derived name and normalizes the texture space of every membrane
// object. Soma and cross-section helper objects keep their texture space.
func (s *Scene) loadNeuronBundle(dir string, neuron *models.Neuron) ([]Handle, error) {
	path := filepath.Join(dir, fmt.Sprintf("neuron_%s.blend", neuron.GID))

	handles, err := s.ImportBundle(path)
	if err != nil {
		return nil, err
	}

	for _, h := range handles {
		obj, ok := s.Object(h)
		if !ok {
			continue
		}
		if !isSomaOrCrossSection(obj.Name) {
			obj.SetTextureSpaceSize(
				normalizedTextureSpaceSize,
				normalizedTextureSpaceSize,
				normalizedTextureSpaceSize,
			)
		}
		obj.Name = fmt.Sprintf("neuron_%s_%s", neuron.GID, obj.Name)
	}
	return handles, nil
}

// handleInts converts scene handles into the plain ints the neuron model
// records.
func handleInts(handles []Handle) []int {
	out := make([]int, len(handles))
	for i, h := range handles {
		out[i] = int(h)
	}
	return out
}

// isSomaOrCrossSection recognizes the helper objects of a bundle that must
// keep their original texture space.
func isSomaOrCrossSection(name string) bool {
	return strings.Contains(name, "soma") || strings.Contains(name, "cs")
}

// objectNameFromPath derives the default object name from the asset
// filename, dropping the extension.
func objectNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseOBJ reads a Wavefront OBJ file. With multi set, every "o" statement
// starts a new object; otherwise all geometry lands in one object. Faces
// with more than three vertices are fan-triangulated. Vertex indices are
// resolved against the global vertex list as the format requires, then
// remapped into per-object lists.
func parseOBJ(path string, multi bool) ([]*mesh.Object, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingAsset, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var (
		globalVertices []r3.Vec
		objects        []*mesh.Object
		current        *mesh.Object
		// globalToLocal maps global vertex indices into the current
		// object's vertex list
		globalToLocal map[int]int
	)

	startObject := func(name string) {
		current = &mesh.Object{Name: name}
		current.SetTextureSpaceSize(
			mesh.DefaultTextureSpaceSize,
			mesh.DefaultTextureSpaceSize,
			mesh.DefaultTextureSpaceSize,
		)
		globalToLocal = make(map[int]int)
		objects = append(objects, current)
	}

	localIndex := func(global int) int {
		if local, ok := globalToLocal[global]; ok {
			return local
		}
		local := len(current.SurfaceVertices)
		current.SurfaceVertices = append(current.SurfaceVertices, globalVertices[global])
		globalToLocal[global] = local
		return local
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "o", "g":
			if multi {
				startObject(strings.Join(fields[1:], " "))
			}

		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: malformed vertex", path, line)
			}
			v, err := parseVec(fields[1], fields[2], fields[3])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			globalVertices = append(globalVertices, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", path, line)
			}
			if current == nil {
				startObject(objectNameFromPath(path))
			}
			corners := make([]int, 0, len(fields)-1)
			for _, fieldRef := range fields[1:] {
				// "v", "v/vt", "v//vn" and "v/vt/vn" all start
				// with the vertex index.
				idxStr := strings.SplitN(fieldRef, "/", 2)[0]
				idx, err := strconv.Atoi(idxStr)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad face index %q", path, line, fieldRef)
				}
				if idx < 0 {
					idx = len(globalVertices) + idx + 1
				}
				if idx < 1 || idx > len(globalVertices) {
					return nil, fmt.Errorf("%s:%d: face index %d out of range", path, line, idx)
				}
				corners = append(corners, localIndex(idx-1))
			}
			for i := 1; i+1 < len(corners); i++ {
				current.SurfaceTriangles = append(current.SurfaceTriangles,
					[3]int{corners[0], corners[i], corners[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(objects) == 0 {
		startObject(objectNameFromPath(path))
	}
	return objects, nil
}

// parsePLY reads an ascii PLY mesh: vertex positions plus triangulated
// faces. Extra vertex properties are ignored.
func parsePLY(path string) (*mesh.Object, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingAsset, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	// Header
	vertexCount, faceCount := -1, -1
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return nil, fmt.Errorf("%s: not a PLY file", path)
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return nil, fmt.Errorf("%s: only ascii PLY is supported", path)
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%s: malformed element declaration", path)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("%s: bad element count %q", path, fields[2])
			}
			switch fields[1] {
			case "vertex":
				vertexCount = n
			case "face":
				faceCount = n
			}
		case "end_header":
			goto body
		}
	}
	return nil, fmt.Errorf("%s: missing end_header", path)

body:
	if vertexCount < 0 || faceCount < 0 {
		return nil, fmt.Errorf("%s: header lacks vertex or face element", path)
	}

	obj := &mesh.Object{}
	obj.SetTextureSpaceSize(
		mesh.DefaultTextureSpaceSize,
		mesh.DefaultTextureSpaceSize,
		mesh.DefaultTextureSpaceSize,
	)
	for i := 0; i < vertexCount; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: unexpected EOF in vertex list", path)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s: malformed vertex %d", path, i)
		}
		v, err := parseVec(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, fmt.Errorf("%s: vertex %d: %w", path, i, err)
		}
		obj.SurfaceVertices = append(obj.SurfaceVertices, v)
	}
	for i := 0; i < faceCount; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: unexpected EOF in face list", path)
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			return nil, fmt.Errorf("%s: malformed face %d", path, i)
		}
		corners := make([]int, 0, len(fields)-1)
		for _, f := range fields[1:] {
			idx, err := strconv.Atoi(f)
			if err != nil || idx < 0 || idx >= vertexCount {
				return nil, fmt.Errorf("%s: face %d: bad index %q", path, i, f)
			}
			corners = append(corners, idx)
		}
		for j := 1; j+1 < len(corners); j++ {
			obj.SurfaceTriangles = append(obj.SurfaceTriangles,
				[3]int{corners[0], corners[j], corners[j+1]})
		}
	}
	return obj, nil
}

func parseVec(xs, ys, zs string) (r3.Vec, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad coordinate %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad coordinate %q", ys)
	}
	z, err := strconv.ParseFloat(zs, 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad coordinate %q", zs)
	}
	return r3.Vec{X: x, Y: y, Z: z}, nil
}
