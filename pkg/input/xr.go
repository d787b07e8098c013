package input

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// XRSource VR 手柄：左摇杆移动，右摇杆转向，select 事件激活/释放
type XRSource struct {
	DeadZone  float32
	TurnSpeed float32 // 右摇杆满偏时的弧度/秒
}

// NewXRSource 创建 VR 输入源
func NewXRSource(deadZone, turnSpeed float32) *XRSource {
	return &XRSource{DeadZone: deadZone, TurnSpeed: turnSpeed}
}

// applyDeadZone 绝对值低于死区的轴视为 0
func (x *XRSource) applyDeadZone(v mgl32.Vec2) mgl32.Vec2 {
	for i := range v {
		if math32.Abs(v[i]) < x.DeadZone {
			v[i] = 0
		}
	}
	return v
}

// Sample 实现 InputSource
func (x *XRSource) Sample(f *Frame, dt float32) Signals {
	var s Signals
	if left, ok := f.Controller(HandLeft); ok {
		stick := x.applyDeadZone(left.Thumbstick)
		s.Move = clampUnit(mgl32.Vec2{stick.X(), -stick.Y()})
	}
	if right, ok := f.Controller(HandRight); ok {
		stick := x.applyDeadZone(right.Thumbstick)
		s.LookYaw = -stick.X() * x.TurnSpeed * dt
	}
	for _, c := range f.Controllers {
		if c.SelectStart {
			s.Events = append(s.Events, Event{Kind: EventActivate, Source: RayController, Controller: c.Pose, Hand: c.Hand})
		}
		if c.SelectEnd {
			s.Events = append(s.Events, Event{Kind: EventRelease, Source: RayController, Controller: c.Pose, Hand: c.Hand})
		}
	}
	return s
}

// Reset 实现 InputSource
func (x *XRSource) Reset() {}
