package components

import "image/color"

// MaterialComponent 节点材质
type MaterialComponent struct {
	Color   color.RGBA
	Opacity float32
	// Transparent 为 true 时使用混合模式渲染
	Transparent bool
}

// ApplyOpacity 设置透明度，小于 1 时强制切换到透明混合模式
func (m *MaterialComponent) ApplyOpacity(opacity float32) {
	m.Opacity = opacity
	m.Transparent = opacity < 1
}
