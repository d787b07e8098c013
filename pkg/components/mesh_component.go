package components

import (
	"github.com/decker502/lessonplay/pkg/types"
	"github.com/ethaniccc/float32-cube/cube"
)

// MeshComponent 可渲染、可被射线检测的几何体
type MeshComponent struct {
	// Bounds 局部空间的包围盒
	Bounds cube.BBox
	// Geometry 基础几何体形状，模型网格为空
	Geometry types.GeometryKind
	// Released 几何体/材质资源是否已释放
	Released bool
}
