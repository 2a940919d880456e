package asset

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/museum3d/internal/engine/gpu"
)

var identity16 = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// ParseGLTF reads a .gltf or .glb file. Every triangle primitive reachable
// from the default scene becomes one shape with node transforms baked in;
// indexed primitives are expanded per corner.
func ParseGLTF(path, materialDir string) ([]Shape, []string, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}

	p := gltfParser{doc: doc, absPath: absPath, materialDir: materialDir, visited: map[int]bool{}}
	if len(doc.Nodes) == 0 {
		for mi := range doc.Meshes {
			if err := p.addMesh(mi, mgl32.Ident4()); err != nil {
				return nil, nil, err
			}
		}
		return p.shapes, p.warnings, nil
	}

	for _, root := range p.roots() {
		if err := p.walk(root, mgl32.Ident4()); err != nil {
			return nil, nil, err
		}
	}
	return p.shapes, p.warnings, nil
}

type gltfParser struct {
	doc         *gltf.Document
	absPath     string
	materialDir string
	visited     map[int]bool
	shapes      []Shape
	warnings    []string
}

// roots returns the default scene's nodes, or every parentless node when no scene is declared.
func (p *gltfParser) roots() []int {
	doc := p.doc
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		return doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		return doc.Scenes[0].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (p *gltfParser) walk(idx int, parent mgl32.Mat4) error {
	if idx < 0 || idx >= len(p.doc.Nodes) || p.visited[idx] {
		return nil
	}
	p.visited[idx] = true

	node := p.doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))
	if node.Mesh != nil {
		if err := p.addMesh(*node.Mesh, world); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := p.walk(c, world); err != nil {
			return err
		}
	}
	return nil
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if n.Matrix != identity16 && n.Matrix != [16]float64{} {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault() // x, y, z, w
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func (p *gltfParser) addMesh(mi int, world mgl32.Mat4) error {
	if mi < 0 || mi >= len(p.doc.Meshes) {
		return fmt.Errorf("node references mesh %d of %d", mi, len(p.doc.Meshes))
	}
	gm := p.doc.Meshes[mi]
	normalMat := world.Mat3().Inv().Transpose()

	for pi, prim := range gm.Primitives {
		name := fmt.Sprintf("%s_p%d", gm.Name, pi)
		if gm.Name == "" {
			name = fmt.Sprintf("mesh%d_p%d", mi, pi)
		}
		if prim.Mode != gltf.PrimitiveTriangles {
			p.warnings = append(p.warnings, fmt.Sprintf("%s: skipping non-triangle primitive", name))
			continue
		}

		vertices, err := p.readPrimitive(prim, world, normalMat)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		shape := Shape{Name: name, Vertices: vertices}
		if prim.Material != nil {
			p.attachTexture(&shape, *prim.Material)
		}
		p.shapes = append(p.shapes, shape)
	}
	return nil
}

func (p *gltfParser) readPrimitive(prim *gltf.Primitive, world mgl32.Mat4, normalMat mgl32.Mat3) ([]gpu.Vertex, error) {
	doc := p.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}

	vertices := make([]gpu.Vertex, 0, len(indices))
	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range (have %d positions)", i, len(positions))
		}
		pos := positions[i]
		v := gpu.Vertex{
			Position: mgl32.TransformCoordinate(mgl32.Vec3{pos[0], pos[1], pos[2]}, world),
			Normal:   DefaultNormal,
			TexCoord: DefaultTexCoord,
		}
		if int(i) < len(normals) {
			n := normals[i]
			v.Normal = normalMat.Mul3x1(mgl32.Vec3{n[0], n[1], n[2]}).Normalize()
		}
		if int(i) < len(uvs) {
			// glTF puts the UV origin top-left; textures are uploaded bottom-up
			v.TexCoord = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
		vertices = append(vertices, v)
	}
	return vertices, nil
}

// attachTexture resolves the material's base colour image, if any.
func (p *gltfParser) attachTexture(shape *Shape, matIdx int) {
	doc := p.doc
	if matIdx < 0 || matIdx >= len(doc.Materials) {
		return
	}
	mat := doc.Materials[matIdx]
	shape.Material = mat.Name
	pbr := mat.PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return
	}
	texIdx := pbr.BaseColorTexture.Index
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return
	}
	src := *doc.Textures[texIdx].Source
	if src < 0 || src >= len(doc.Images) {
		return
	}
	img := doc.Images[src]

	switch {
	case img.BufferView != nil:
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			p.warnings = append(p.warnings, fmt.Sprintf("image %d: %v", src, err))
			return
		}
		shape.Embedded = &EmbeddedImage{Key: p.imageKey(src), Ext: mimeExt(img.MimeType), Data: data}
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			p.warnings = append(p.warnings, fmt.Sprintf("image %d: %v", src, err))
			return
		}
		shape.Embedded = &EmbeddedImage{Key: p.imageKey(src), Ext: mimeExt(img.MimeType), Data: data}
	case img.URI != "":
		uri, err := url.PathUnescape(img.URI)
		if err != nil {
			uri = img.URI
		}
		shape.Texture = filepath.Join(p.materialDir, filepath.FromSlash(uri))
	}
}

func (p *gltfParser) imageKey(src int) string {
	return fmt.Sprintf("%s#image%d", p.absPath, src)
}

func mimeExt(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
