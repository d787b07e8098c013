package entities

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/decker502/lessonplay/internal/model"
	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/config"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// 文字标签的近似尺寸（局部单位）
const (
	labelCharWidth  float32 = 0.12
	labelLineHeight float32 = 0.2
	labelDepth      float32 = 0.02
)

// PrimitiveBounds 返回基础几何体的单位尺寸包围盒
// box 为边长 1 的立方体，sphere/cone 半径 0.5，torus 位于 XY 平面（主半径 0.5，管半径 0.2）
func PrimitiveBounds(kind types.GeometryKind) cube.BBox {
	switch kind {
	case types.GeometryTorus:
		return cube.Box(-0.7, -0.7, -0.2, 0.7, 0.7, 0.2)
	default:
		return cube.Box(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5)
	}
}

// LabelBounds 按文字行数和最长行估算标签平面的包围盒
func LabelBounds(text string) cube.BBox {
	lines := strings.Split(text, "\n")
	longest := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > longest {
			longest = n
		}
	}
	w := mgl32.Clamp(float32(longest)*labelCharWidth, labelCharWidth, 100) / 2
	h := float32(len(lines)) * labelLineHeight / 2
	return cube.Box(-w, -h, -labelDepth, w, h, labelDepth)
}

// ContainerTransform 由资源的变换创建容器节点的局部变换
func ContainerTransform(a *config.Asset) *components.TransformComponent {
	return components.NewTransformComponent(a.Transform.Position, a.Transform.Rotation, a.Transform.Scale)
}

func newMaterial(a *config.Asset, log logrus.FieldLogger) *components.MaterialComponent {
	col := DefaultAssetColor
	if a.Color != "" {
		if parsed, err := ParseColor(a.Color); err != nil {
			log.Warnf("[AssetFactory] 资源 %s 颜色无效，使用默认颜色: %v", a.ID, err)
		} else {
			col = parsed
		}
	}
	mat := &components.MaterialComponent{Color: col}
	mat.ApplyOpacity(a.Alpha())
	return mat
}

// NewAssetEntity 为一个放置的资源创建容器节点
//
// 每个资源恰好拥有一个带 AssetTagComponent 的容器节点，几何体挂在其子节点上：
//   - primitive: 一个基础几何体网格
//   - text: 一个标签平面
//   - model: 只有容器，网格在模型加载完成后由 AttachModel 挂上
//   - spawn: 只有隐藏的容器，不可渲染/碰撞/命中
//
// 返回:
//   - ecs.EntityID: 容器节点 ID
//   - error: 资源种类未知时返回错误
func NewAssetEntity(em *ecs.EntityManager, a *config.Asset, log logrus.FieldLogger) (ecs.EntityID, error) {
	if em == nil {
		return ecs.InvalidEntity, fmt.Errorf("entity manager cannot be nil")
	}
	if !a.Kind.Valid() {
		return ecs.InvalidEntity, fmt.Errorf("asset %q: %w: %q", a.ID, config.ErrUnknownAssetKind, a.Kind)
	}

	container := CreateNode(em, a.Name, ecs.InvalidEntity, ContainerTransform(a))
	em.AddComponent(container, &components.AssetTagComponent{AssetID: a.ID, Kind: a.Kind})
	node, _ := ecs.GetComponent[*components.NodeComponent](em, container)
	node.Visible = a.IsVisible()
	if a.Collidable() {
		em.AddComponent(container, &components.CollisionComponent{})
	}

	switch a.Kind {
	case types.AssetPrimitive:
		child := CreateNode(em, a.Name+"_mesh", container, nil)
		em.AddComponent(child, &components.MeshComponent{Bounds: PrimitiveBounds(a.GeometryKind), Geometry: a.GeometryKind})
		em.AddComponent(child, newMaterial(a, log))

	case types.AssetText:
		child := CreateNode(em, a.Name+"_label", container, nil)
		em.AddComponent(child, &components.MeshComponent{Bounds: LabelBounds(a.Content)})
		em.AddComponent(child, &components.LabelComponent{Text: a.Content})
		em.AddComponent(child, newMaterial(a, log))

	case types.AssetSpawn:
		node.Visible = false
		em.AddComponent(container, &components.SpawnComponent{})
	}
	return container, nil
}

// AttachModel 把加载完成的模型挂到资源容器下
// 每个模型部件一个子网格节点；opacity < 1 时模型的所有材质切换为透明混合
func AttachModel(em *ecs.EntityManager, container ecs.EntityID, a *config.Asset, m *model.Model, resourceKey string) []ecs.EntityID {
	if opacity := a.Alpha(); opacity < 1 {
		m.ApplyOpacity(opacity)
	}
	em.AddComponent(container, &components.ModelComponent{Model: m, ResourceKey: resourceKey})

	col := DefaultAssetColor
	if parsed, err := ParseColor(a.Color); err == nil {
		col = parsed
	}

	children := make([]ecs.EntityID, 0, len(m.Parts))
	for _, part := range m.Parts {
		child := CreateNode(em, part.Name, container, nil)
		em.AddComponent(child, &components.MeshComponent{
			Bounds: cube.Box(part.Min[0], part.Min[1], part.Min[2], part.Max[0], part.Max[1], part.Max[2]),
		})
		mat := &components.MaterialComponent{Color: col}
		mat.ApplyOpacity(a.Alpha())
		em.AddComponent(child, mat)
		children = append(children, child)
	}
	return children
}
