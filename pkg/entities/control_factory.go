package entities

import (
	"image/color"

	"github.com/decker502/lessonplay/pkg/components"
	"github.com/decker502/lessonplay/pkg/ecs"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

// controlColor 世界空间控件的颜色
var controlColor = color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}

// NewWorldControl 创建 VR 中的世界空间按钮（开始/下一步）
// 按钮和普通资源一样通过射线命中，AssetTagComponent 使用保留 ID
func NewWorldControl(em *ecs.EntityManager, controlID, text string, position mgl32.Vec3) ecs.EntityID {
	transform := components.IdentityTransform()
	transform.Position = position
	container := CreateNode(em, controlID, ecs.InvalidEntity, transform)
	em.AddComponent(container, &components.AssetTagComponent{AssetID: controlID})

	button := CreateNode(em, controlID+"_button", container, nil)
	em.AddComponent(button, &components.MeshComponent{Bounds: cube.Box(-0.15, -0.05, -0.02, 0.15, 0.05, 0.02)})
	em.AddComponent(button, &components.LabelComponent{Text: text})
	em.AddComponent(button, &components.MaterialComponent{Color: controlColor, Opacity: 1})
	return container
}

// SetVisible 设置节点可见性
func SetVisible(em *ecs.EntityManager, id ecs.EntityID, visible bool) {
	if node, ok := ecs.GetComponent[*components.NodeComponent](em, id); ok {
		node.Visible = visible
	}
}
