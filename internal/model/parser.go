package model

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoGeometry 模型中没有任何可用的网格
var ErrNoGeometry = errors.New("model has no mesh geometry")

// Decode 解码 glTF (JSON) 或 GLB 数据
//
// 参数：
//   - data: 模型文件内容，缓冲区必须内嵌（GLB 或 data URI）
//
// 返回：
//   - *Model: 解码后的模型，每个网格节点一个部件
//   - error: 数据损坏或不含网格时返回错误
func Decode(data []byte) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode glTF: %w", err)
	}
	return fromDocument(doc)
}

// DecodeFile 从文件解码模型
func DecodeFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file '%s': %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("model '%s': %w", path, err)
	}
	return m, nil
}

func fromDocument(doc *gltf.Document) (*Model, error) {
	m := &Model{Doc: doc}

	roots := sceneRoots(doc)
	for _, idx := range roots {
		if err := m.walk(doc, idx, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}

	if len(m.Parts) == 0 {
		return nil, ErrNoGeometry
	}
	return m, nil
}

// sceneRoots 返回默认场景的根节点；没有场景时把所有节点当作根
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			scene = *doc.Scene
		}
		return doc.Scenes[scene].Nodes
	}
	roots := make([]int, len(doc.Nodes))
	for i := range doc.Nodes {
		roots[i] = i
	}
	return roots
}

// maxNodeDepth 防止损坏文件中的循环引用
const maxNodeDepth = 64

func (m *Model) walk(doc *gltf.Document, idx int, parent mgl32.Mat4, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	node := doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
		part, ok, err := meshPart(doc, doc.Meshes[*node.Mesh], world)
		if err != nil {
			return err
		}
		if ok {
			if part.Name == "" {
				part.Name = node.Name
			}
			m.Parts = append(m.Parts, part)
		}
	}

	for _, child := range node.Children {
		if err := m.walk(doc, child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeMatrix(node *gltf.Node) mgl32.Mat4 {
	raw := node.MatrixOrDefault()
	if raw != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i := range raw {
			out[i] = float32(raw[i])
		}
		return out
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// meshPart 汇总网格所有图元的 POSITION 包围盒，并变换到模型根空间
func meshPart(doc *gltf.Document, mesh *gltf.Mesh, world mgl32.Mat4) (Part, bool, error) {
	part := Part{Name: mesh.Name}
	found := false
	var lo, hi mgl32.Vec3

	for _, prim := range mesh.Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok || posIdx >= len(doc.Accessors) {
			continue
		}
		pmin, pmax, err := accessorBounds(doc, doc.Accessors[posIdx])
		if err != nil {
			return part, false, err
		}
		if !found {
			lo, hi = pmin, pmax
			found = true
		} else {
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], pmin[k])
				hi[k] = max(hi[k], pmax[k])
			}
		}
		if prim.Material != nil {
			part.Materials = append(part.Materials, *prim.Material)
		}
	}
	if !found {
		return part, false, nil
	}

	part.Min, part.Max = transformBounds(lo, hi, world)
	return part, true, nil
}

// accessorBounds 优先使用访问器声明的 min/max，缺失时读取顶点数据
func accessorBounds(doc *gltf.Document, acc *gltf.Accessor) (mgl32.Vec3, mgl32.Vec3, error) {
	if len(acc.Min) >= 3 && len(acc.Max) >= 3 {
		return mgl32.Vec3{float32(acc.Min[0]), float32(acc.Min[1]), float32(acc.Min[2])},
			mgl32.Vec3{float32(acc.Max[0]), float32(acc.Max[1]), float32(acc.Max[2])}, nil
	}

	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return mgl32.Vec3{}, mgl32.Vec3{}, fmt.Errorf("failed to read positions: %w", err)
	}
	if len(positions) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}, ErrNoGeometry
	}
	lo := mgl32.Vec3(positions[0])
	hi := lo
	for _, p := range positions[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], p[k])
			hi[k] = max(hi[k], p[k])
		}
	}
	return lo, hi, nil
}

// transformBounds 变换包围盒的 8 个角点并重新求轴对齐包围盒
func transformBounds(lo, hi mgl32.Vec3, m mgl32.Mat4) (mgl32.Vec3, mgl32.Vec3) {
	var outLo, outHi mgl32.Vec3
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{lo[0], lo[1], lo[2]}
		if i&1 != 0 {
			corner[0] = hi[0]
		}
		if i&2 != 0 {
			corner[1] = hi[1]
		}
		if i&4 != 0 {
			corner[2] = hi[2]
		}
		p := mgl32.TransformCoordinate(corner, m)
		if i == 0 {
			outLo, outHi = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			outLo[k] = min(outLo[k], p[k])
			outHi[k] = max(outHi[k], p[k])
		}
	}
	return outLo, outHi
}
