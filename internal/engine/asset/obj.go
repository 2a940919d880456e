package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

// Defaults for corners without a normal or texture coordinate reference.
var (
	DefaultNormal   = mgl32.Vec3{0, 1, 0}
	DefaultTexCoord = mgl32.Vec2{0, 0}
)

// Shape is one parsed geometry group, triangulated and expanded per face corner.
type Shape struct {
	Name     string
	Vertices []gpu.Vertex
	Material string
	// Texture is the diffuse texture file, joined with the material directory. Empty means none.
	Texture string
	// Embedded holds image data stored inside the asset itself.
	Embedded *EmbeddedImage
}

// EmbeddedImage is encoded image data with a cache key unique to its source.
type EmbeddedImage struct {
	Key  string
	Ext  string
	Data []byte
}

// objCorner holds 0-based pool indices; -1 means absent.
type objCorner struct {
	v, vt, vn int
}

// ParseOBJ reads a Wavefront OBJ file. Referenced material libraries are
// resolved against materialDir. Problems that do not invalidate the geometry
// are returned as warnings.
func ParseOBJ(path, materialDir string) ([]Shape, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return parseOBJ(f, materialDir)
}

func parseOBJ(r io.Reader, materialDir string) ([]Shape, []string, error) {
	var (
		positions []mgl32.Vec3
		normals   []mgl32.Vec3
		uvs       []mgl32.Vec2
		shapes    []Shape
		warnings  []string
	)
	materials := map[string]Material{}

	cur := Shape{Name: "default"}
	curMaterial := ""
	flush := func() {
		if len(cur.Vertices) > 0 {
			shapes = append(shapes, cur)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			v, err := parseVec(fields[1:], 3, lineNo)
			if err != nil {
				return nil, nil, err
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], v[2]})

		case "vn":
			v, err := parseVec(fields[1:], 3, lineNo)
			if err != nil {
				return nil, nil, err
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], v[2]})

		case "vt":
			// v is optional and defaults to 0
			v, err := parseVec(fields[1:], 1, lineNo)
			if err != nil {
				return nil, nil, err
			}
			uvs = append(uvs, mgl32.Vec2{v[0], v[1]})

		case "o", "g":
			flush()
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			cur = Shape{Name: name}

		case "usemtl":
			if len(fields) > 1 {
				curMaterial = fields[1]
			}

		case "mtllib":
			for _, lib := range fields[1:] {
				loaded, err := ParseMTL(filepath.Join(materialDir, lib))
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("material library %s: %v", lib, err))
					continue
				}
				for k, m := range loaded {
					materials[k] = m
				}
			}

		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				c, err := parseCorner(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				corners = append(corners, c)
			}
			// The shape takes the material of its first face
			if len(cur.Vertices) == 0 {
				cur.Material = curMaterial
			}
			// Fan triangulation: 0-1-2, 0-2-3, ...
			for i := 1; i+1 < len(corners); i++ {
				for _, c := range [3]objCorner{corners[0], corners[i], corners[i+1]} {
					cur.Vertices = append(cur.Vertices, cornerVertex(c, positions, normals, uvs))
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scanning obj: %w", err)
	}
	flush()

	for i := range shapes {
		if shapes[i].Material == "" {
			continue
		}
		m, ok := materials[shapes[i].Material]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("shape %s: unknown material %s", shapes[i].Name, shapes[i].Material))
			continue
		}
		if m.DiffuseMap != "" {
			shapes[i].Texture = filepath.Join(materialDir, m.DiffuseMap)
		}
	}
	return shapes, warnings, nil
}

func cornerVertex(c objCorner, positions, normals []mgl32.Vec3, uvs []mgl32.Vec2) gpu.Vertex {
	v := gpu.Vertex{
		Position: positions[c.v],
		Normal:   DefaultNormal,
		TexCoord: DefaultTexCoord,
	}
	if c.vn >= 0 {
		v.Normal = normals[c.vn]
	}
	if c.vt >= 0 {
		v.TexCoord = uvs[c.vt]
	}
	return v
}

// parseVec parses up to three floats; at least required must be present.
func parseVec(fields []string, required, lineNo int) ([3]float32, error) {
	var out [3]float32
	if len(fields) < required {
		return out, fmt.Errorf("line %d: expected %d values, got %d", lineNo, required, len(fields))
	}
	for i := 0; i < len(fields) && i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return out, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based indices.
func parseCorner(tok string, nv, nvt, nvn int) (objCorner, error) {
	c := objCorner{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return c, fmt.Errorf("malformed face vertex %q", tok)
	}

	var err error
	if c.v, err = resolveIndex(parts[0], nv, "vertex"); err != nil {
		return c, err
	}
	if c.v < 0 {
		return c, fmt.Errorf("face vertex %q has no position", tok)
	}
	if len(parts) > 1 {
		if c.vt, err = resolveIndex(parts[1], nvt, "texcoord"); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 {
		if c.vn, err = resolveIndex(parts[2], nvn, "normal"); err != nil {
			return c, err
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based or negative relative OBJ index. Empty means absent.
func resolveIndex(s string, n int, kind string) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, fmt.Errorf("bad %s index %q", kind, s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return -1, fmt.Errorf("%s index 0 is invalid", kind)
	}
	if i < 0 || i >= n {
		return -1, fmt.Errorf("%s index %s out of range (have %d)", kind, s, n)
	}
	return i, nil
}
