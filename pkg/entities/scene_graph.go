package entities

import (
	"github.com/chewxy/math32"
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// maxGraphDepth 防止错误的父子关系形成环时死循环
const maxGraphDepth = 128

// CreateNode 创建场景图节点并挂到 parent 下（parent 为 0 表示根节点）
func CreateNode(em *ecs.EntityManager, name string, parent ecs.EntityID, transform *components.TransformComponent) ecs.EntityID {
	id := em.CreateEntity()
	if transform == nil {
		transform = components.IdentityTransform()
	}
	em.AddComponent(id, transform)
	em.AddComponent(id, &components.NodeComponent{Name: name, Parent: parent, Visible: true})

	if parent != ecs.InvalidEntity {
		if pn, ok := ecs.GetComponent[*components.NodeComponent](em, parent); ok {
			pn.Children = append(pn.Children, id)
		}
	}
	return id
}

// WorldMatrix 返回节点的世界矩阵（沿父节点链累乘局部矩阵）
func WorldMatrix(em *ecs.EntityManager, id ecs.EntityID) mgl32.Mat4 {
	m := mgl32.Ident4()
	for depth := 0; id != ecs.InvalidEntity && depth < maxGraphDepth; depth++ {
		if tc, ok := ecs.GetComponent[*components.TransformComponent](em, id); ok {
			m = tc.Matrix().Mul4(m)
		}
		node, ok := ecs.GetComponent[*components.NodeComponent](em, id)
		if !ok {
			break
		}
		id = node.Parent
	}
	return m
}

// VisibleInHierarchy 节点及其所有祖先都可见时返回 true
func VisibleInHierarchy(em *ecs.EntityManager, id ecs.EntityID) bool {
	for depth := 0; id != ecs.InvalidEntity && depth < maxGraphDepth; depth++ {
		node, ok := ecs.GetComponent[*components.NodeComponent](em, id)
		if !ok {
			return true
		}
		if !node.Visible {
			return false
		}
		id = node.Parent
	}
	return true
}

// TransformBox 把局部包围盒的 8 个角点变换到 m 所在空间，返回新的轴对齐包围盒
func TransformBox(bb cube.BBox, m mgl32.Mat4) cube.BBox {
	lo, hi := bb.Min(), bb.Max()
	var outMin, outMax mgl32.Vec3
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
			outMin, outMax = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			outMin[k] = math32.Min(outMin[k], p[k])
			outMax[k] = math32.Max(outMax[k], p[k])
		}
	}
	return cube.Box(outMin[0], outMin[1], outMin[2], outMax[0], outMax[1], outMax[2])
}

// WorldBounds 返回网格节点在世界空间的包围盒
func WorldBounds(em *ecs.EntityManager, id ecs.EntityID) (cube.BBox, bool) {
	mesh, ok := ecs.GetComponent[*components.MeshComponent](em, id)
	if !ok {
		return cube.BBox{}, false
	}
	return TransformBox(mesh.Bounds, WorldMatrix(em, id)), true
}

// NearestTaggedAncestor 从节点开始向上查找最近的带 AssetTagComponent 的节点（包含自身）
// 模型的子网格本身不带资源 ID，只有代表资源的容器节点带
func NearestTaggedAncestor(em *ecs.EntityManager, id ecs.EntityID) (*components.AssetTagComponent, ecs.EntityID, bool) {
	for depth := 0; id != ecs.InvalidEntity && depth < maxGraphDepth; depth++ {
		if tag, ok := ecs.GetComponent[*components.AssetTagComponent](em, id); ok {
			return tag, id, true
		}
		node, ok := ecs.GetComponent[*components.NodeComponent](em, id)
		if !ok {
			break
		}
		id = node.Parent
	}
	return nil, ecs.InvalidEntity, false
}

// Descendants 返回节点的所有后代（深度优先，不含自身）
func Descendants(em *ecs.EntityManager, id ecs.EntityID) []ecs.EntityID {
	var out []ecs.EntityID
	var walk func(ecs.EntityID, int)
	walk = func(n ecs.EntityID, depth int) {
		if depth >= maxGraphDepth {
			return
		}
		node, ok := ecs.GetComponent[*components.NodeComponent](em, n)
		if !ok {
			return
		}
		for _, c := range node.Children {
			out = append(out, c)
			walk(c, depth+1)
		}
	}
	walk(id, 0)
	return out
}

// DestroySubtree 标记节点及其后代待删除
func DestroySubtree(em *ecs.EntityManager, id ecs.EntityID) {
	for _, d := range Descendants(em, id) {
		em.DestroyEntity(d)
	}
	em.DestroyEntity(id)
}
