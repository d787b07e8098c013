package input

import "math"

// dragState 拖拽状态
type dragState int

const (
	dragNone dragState = iota
	dragActive
)

// PointerSource 鼠标拖拽转视角，按下-抬起且移动距离小于阈值视为点击
type PointerSource struct {
	// Sensitivity 每像素对应的弧度
	Sensitivity float32
	// ClickThreshold 点击允许的最大移动距离（像素）
	ClickThreshold float64

	state        dragState
	startX       float64
	startY       float64
	lastX, lastY float64
	maxTravel    float64
}

// NewPointerSource 创建鼠标输入源
func NewPointerSource(sensitivity float32, clickThreshold float64) *PointerSource {
	return &PointerSource{Sensitivity: sensitivity, ClickThreshold: clickThreshold}
}

// Sample 实现 InputSource
func (p *PointerSource) Sample(f *Frame, dt float32) Signals {
	var s Signals
	ptr := f.Pointer

	switch p.state {
	case dragNone:
		if ptr.Pressed {
			p.state = dragActive
			p.startX, p.startY = ptr.X, ptr.Y
			p.lastX, p.lastY = ptr.X, ptr.Y
			p.maxTravel = 0
		}

	case dragActive:
		dx, dy := ptr.X-p.lastX, ptr.Y-p.lastY
		p.lastX, p.lastY = ptr.X, ptr.Y
		p.maxTravel = math.Max(p.maxTravel, math.Hypot(ptr.X-p.startX, ptr.Y-p.startY))

		// 向右拖拽向右转，向上拖拽向上看
		s.LookYaw = -float32(dx) * p.Sensitivity
		s.LookPitch = -float32(dy) * p.Sensitivity

		if !ptr.Pressed {
			if p.maxTravel < p.ClickThreshold {
				s.Events = append(s.Events, Event{
					Kind:    EventActivate,
					Source:  RayCursor,
					ScreenX: ptr.X,
					ScreenY: ptr.Y,
				})
			}
			p.state = dragNone
		}
	}
	return s
}

// Dragging 是否正在拖拽
func (p *PointerSource) Dragging() bool {
	return p.state == dragActive
}

// Reset 实现 InputSource
func (p *PointerSource) Reset() {
	p.state = dragNone
	p.maxTravel = 0
}
